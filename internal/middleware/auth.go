package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"cloud-storage-api/internal/models"
	"cloud-storage-api/internal/realtime"
	"cloud-storage-api/internal/store"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pkgConfig "github.com/kerimovok/go-pkg-utils/config"
	"github.com/kerimovok/go-pkg-utils/httpx"
)

const (
	localsUser        = "currentUser"
	localsWsUser      = "wsUser"
	localsWsCloseCode = "wsCloseCode"
)

// Claims carried by issued access tokens.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsStaff  bool      `json:"is_staff"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 access token for the user.
func IssueToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   user.ID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a signed token and returns its claims.
func ParseToken(raw, secret string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// Auth resolves caller identity for HTTP requests and websocket upgrades.
// The user record is re-read from the store on every request so staff flag
// changes and deletions take effect immediately.
type Auth struct {
	users  *store.UserStore
	secret string
	ttl    time.Duration
}

func NewAuth(users *store.UserStore) *Auth {
	ttlHours, err := strconv.Atoi(pkgConfig.GetEnv("JWT_TTL_HOURS"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 24
	}
	return &Auth{
		users:  users,
		secret: pkgConfig.GetEnv("JWT_SECRET"),
		ttl:    time.Duration(ttlHours) * time.Hour,
	}
}

// IssueToken signs a token with the configured secret and TTL.
func (a *Auth) IssueToken(user *models.User) (string, error) {
	return IssueToken(user, a.secret, a.ttl)
}

// Protected requires a valid bearer token and loads the caller into locals.
func (a *Auth) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			response := httpx.Unauthorized("Authentication required")
			return httpx.SendResponse(c, response)
		}

		claims, err := ParseToken(raw, a.secret)
		if err != nil {
			response := httpx.Unauthorized("Invalid or expired token")
			return httpx.SendResponse(c, response)
		}

		user, err := a.users.ByID(claims.UserID)
		if err != nil {
			response := httpx.Unauthorized("Invalid or expired token")
			return httpx.SendResponse(c, response)
		}

		c.Locals(localsUser, user)
		return c.Next()
	}
}

// WebsocketAuth resolves identity from the upgrade request's token query
// parameter. Failures are not rejected here: the close code is stashed in
// locals so the websocket handler can close the accepted connection with a
// 4001-range code, which is what clients observe.
func (a *Auth) WebsocketAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		raw := c.Query("token")
		if raw == "" {
			c.Locals(localsWsCloseCode, realtime.CloseAuthRequired)
			return c.Next()
		}

		claims, err := ParseToken(raw, a.secret)
		if err != nil {
			code := realtime.CloseTokenInvalid
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = realtime.CloseTokenExpired
			}
			c.Locals(localsWsCloseCode, code)
			return c.Next()
		}

		user, err := a.users.ByID(claims.UserID)
		if err != nil {
			c.Locals(localsWsCloseCode, realtime.CloseTokenInvalid)
			return c.Next()
		}

		c.Locals(localsWsUser, user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated caller set by Protected.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUser).(*models.User)
	return user
}

// WsUser returns the authenticated identity of a websocket connection, or
// nil with the close code to reject it with.
func WsUser(conn *websocket.Conn) (*models.User, int) {
	if user, ok := conn.Locals(localsWsUser).(*models.User); ok && user != nil {
		return user, 0
	}
	code, ok := conn.Locals(localsWsCloseCode).(int)
	if !ok {
		code = realtime.CloseAuthRequired
	}
	return nil, code
}
