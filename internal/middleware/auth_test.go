package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud-storage-api/internal/models"
	"cloud-storage-api/internal/realtime"
	"cloud-storage-api/internal/store"
	"cloud-storage-api/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParseToken(t *testing.T) {
	user := &models.User{
		ID:       uuid.New(),
		Username: "alice",
		IsStaff:  true,
	}

	raw, err := IssueToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(raw, testSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.True(t, claims.IsStaff)
}

func TestParseToken_WrongSecret(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	raw, err := IssueToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(raw, "another-secret-another-secret-xx")
	require.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "alice"}
	raw, err := IssueToken(user, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(raw, testSecret)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	require.Error(t, err)
}

func TestWebsocketAuth_CloseCodeMapping(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_TTL_HOURS", "24")

	db := testutil.OpenDB(t)
	users := store.NewUserStore(db)
	auth := NewAuth(users)

	alice := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(alice))

	var (
		gotUser *models.User
		gotCode int
	)
	app := fiber.New()
	app.Get("/ws/files", auth.WebsocketAuth(), func(c *fiber.Ctx) error {
		gotUser, _ = c.Locals(localsWsUser).(*models.User)
		gotCode, _ = c.Locals(localsWsCloseCode).(int)
		return c.SendStatus(fiber.StatusOK)
	})

	upgrade := func(target string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		return req
	}

	run := func(t *testing.T, target string) {
		t.Helper()
		gotUser, gotCode = nil, 0
		resp, err := app.Test(upgrade(target))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	t.Run("missing token", func(t *testing.T) {
		run(t, "/ws/files")
		require.Nil(t, gotUser)
		require.Equal(t, realtime.CloseAuthRequired, gotCode)
	})

	t.Run("expired token", func(t *testing.T) {
		raw, err := IssueToken(alice, testSecret, -time.Minute)
		require.NoError(t, err)
		run(t, "/ws/files?token="+raw)
		require.Nil(t, gotUser)
		require.Equal(t, realtime.CloseTokenExpired, gotCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		run(t, "/ws/files?token=not.a.token")
		require.Nil(t, gotUser)
		require.Equal(t, realtime.CloseTokenInvalid, gotCode)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghost := &models.User{ID: uuid.New(), Username: "ghost"}
		raw, err := IssueToken(ghost, testSecret, time.Hour)
		require.NoError(t, err)
		run(t, "/ws/files?token="+raw)
		require.Nil(t, gotUser)
		require.Equal(t, realtime.CloseTokenInvalid, gotCode)
	})

	t.Run("valid token", func(t *testing.T) {
		raw, err := auth.IssueToken(alice)
		require.NoError(t, err)
		run(t, "/ws/files?token="+raw)
		require.NotNil(t, gotUser)
		require.Equal(t, alice.ID, gotUser.ID)
		require.Zero(t, gotCode)
	})

	t.Run("plain request rejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws/files", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	})
}
