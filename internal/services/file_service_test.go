package services

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cloud-storage-api/internal/models"
	"cloud-storage-api/internal/realtime"
	"cloud-storage-api/internal/requests"
	"cloud-storage-api/internal/store"
	"cloud-storage-api/internal/testutil"

	"github.com/stretchr/testify/require"
)

type captureNotifier struct {
	events []realtime.Event
}

func (c *captureNotifier) Publish(ev realtime.Event) {
	c.events = append(c.events, ev)
}

func (c *captureNotifier) last(t *testing.T) realtime.Event {
	t.Helper()
	require.NotEmpty(t, c.events)
	return c.events[len(c.events)-1]
}

// failingBlobs wraps a real blob store and fails selected operations.
type failingBlobs struct {
	BlobStorage
	failDelete map[string]bool
	failWrite  bool
}

func (f *failingBlobs) Write(path string, src io.Reader) (int64, error) {
	if f.failWrite {
		return 0, errors.New("disk full")
	}
	return f.BlobStorage.Write(path, src)
}

func (f *failingBlobs) Delete(path string) error {
	if f.failDelete[path] {
		return errors.New("device busy")
	}
	return f.BlobStorage.Delete(path)
}

type fixture struct {
	files    *FileService
	store    *store.FileStore
	users    *store.UserStore
	blobs    *failingBlobs
	notifier *captureNotifier
	owner    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	fileStore := store.NewFileStore(db)
	userStore := store.NewUserStore(db)
	blobs := &failingBlobs{
		BlobStorage: NewBlobStoreAt(t.TempDir()),
		failDelete:  make(map[string]bool),
	}
	notifier := &captureNotifier{}
	log := slog.New(slog.DiscardHandler)

	owner := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, userStore.Create(owner))

	return &fixture{
		files:    NewFileService(fileStore, blobs, notifier, 30*24*time.Hour, log),
		store:    fileStore,
		users:    userStore,
		blobs:    blobs,
		notifier: notifier,
		owner:    owner,
	}
}

func (f *fixture) upload(t *testing.T, name, content string) *models.File {
	t.Helper()
	record, err := f.files.Create(f.owner, name, strings.NewReader(content), requests.UploadFileRequest{})
	require.NoError(t, err)
	return record
}

func TestFileService_Create(t *testing.T) {
	f := newFixture(t)

	before := time.Now()
	record, err := f.files.Create(f.owner, "hello.txt", strings.NewReader("hello world"),
		requests.UploadFileRequest{Comment: "first upload"})
	require.NoError(t, err)

	require.EqualValues(t, 11, record.SizeBytes)
	require.Equal(t, "hello.txt", record.Name)
	require.Equal(t, "first upload", record.Comment)
	require.Len(t, record.SharedToken, 36)
	require.True(t, f.blobs.Exists(record.StoragePath))
	require.WithinDuration(t, before.Add(30*24*time.Hour), record.AutoExpiresAt, 5*time.Second)

	t.Run("blob content matches upload", func(t *testing.T) {
		rc, err := f.blobs.Open(record.StoragePath)
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		require.Equal(t, "hello world", string(content))
	})

	t.Run("missing comment gets the sentinel", func(t *testing.T) {
		other := f.upload(t, "bare.txt", "x")
		require.Equal(t, DefaultComment, other.Comment)
	})

	t.Run("created event published", func(t *testing.T) {
		ev := f.notifier.events[0]
		require.Equal(t, realtime.ActionCreated, ev.Action)
		require.Equal(t, record.ID.String(), ev.FileID)
		require.Equal(t, "alice", ev.Actor)
		require.Equal(t, "hello.txt", ev.Data["name"])
	})
}

func TestFileService_CreateStorageWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.failWrite = true

	_, err := f.files.Create(f.owner, "doomed.txt", strings.NewReader("x"), requests.UploadFileRequest{})
	require.ErrorIs(t, err, ErrStorageWrite)

	// The failed create must not leave a record behind
	_, total, listErr := f.store.List(nil, 0, 10)
	require.NoError(t, listErr)
	require.Zero(t, total)
	require.Empty(t, f.notifier.events)
}

func TestFileService_SharedTokenStableAcrossUpdates(t *testing.T) {
	f := newFixture(t)
	record := f.upload(t, "stable.txt", "content")
	token := record.SharedToken

	for i := 0; i < 10; i++ {
		name := "renamed.txt"
		comment := "pass"
		require.NoError(t, f.files.Update(record, requests.UpdateFileRequest{Name: &name, Comment: &comment}, "alice"))
	}

	got, err := f.store.ByID(record.ID)
	require.NoError(t, err)
	require.Equal(t, token, got.SharedToken)
}

func TestFileService_UpdatePatchSemantics(t *testing.T) {
	f := newFixture(t)
	record, err := f.files.Create(f.owner, "doc.txt", strings.NewReader("x"),
		requests.UploadFileRequest{Comment: "original comment"})
	require.NoError(t, err)

	t.Run("name only keeps comment", func(t *testing.T) {
		name := "new-name.txt"
		require.NoError(t, f.files.Update(record, requests.UpdateFileRequest{Name: &name}, "alice"))

		got, err := f.store.ByID(record.ID)
		require.NoError(t, err)
		require.Equal(t, "new-name.txt", got.Name)
		require.Equal(t, "original comment", got.Comment)
	})

	t.Run("comment only keeps name", func(t *testing.T) {
		comment := "revised"
		require.NoError(t, f.files.Update(record, requests.UpdateFileRequest{Comment: &comment}, "alice"))

		got, err := f.store.ByID(record.ID)
		require.NoError(t, err)
		require.Equal(t, "new-name.txt", got.Name)
		require.Equal(t, "revised", got.Comment)
	})

	t.Run("updated event published", func(t *testing.T) {
		ev := f.notifier.last(t)
		require.Equal(t, realtime.ActionUpdated, ev.Action)
	})
}

func TestFileService_Delete(t *testing.T) {
	t.Run("removes blob and record", func(t *testing.T) {
		f := newFixture(t)
		record := f.upload(t, "gone.txt", "x")

		require.NoError(t, f.files.Delete(record, "alice"))
		require.False(t, f.blobs.Exists(record.StoragePath))
		_, err := f.store.ByID(record.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		ev := f.notifier.last(t)
		require.Equal(t, realtime.ActionDeleted, ev.Action)
		require.Nil(t, ev.Data)
	})

	t.Run("blob already gone still deletes record", func(t *testing.T) {
		f := newFixture(t)
		record := f.upload(t, "orphan.txt", "x")
		require.NoError(t, f.blobs.BlobStorage.Delete(record.StoragePath))

		require.NoError(t, f.files.Delete(record, "alice"))
		_, err := f.store.ByID(record.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("blob failure aborts and is retryable", func(t *testing.T) {
		f := newFixture(t)
		record := f.upload(t, "stuck.txt", "x")
		f.blobs.failDelete[record.StoragePath] = true

		err := f.files.Delete(record, "alice")
		require.ErrorIs(t, err, ErrDeletion)

		// Record untouched, so the caller can retry
		_, err = f.store.ByID(record.ID)
		require.NoError(t, err)

		f.blobs.failDelete[record.StoragePath] = false
		require.NoError(t, f.files.Delete(record, "alice"))
		_, err = f.store.ByID(record.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("transient blob failure never orphans the blob", func(t *testing.T) {
		f := newFixture(t)
		record := f.upload(t, "flaky.txt", "x")
		f.blobs.failDelete[record.StoragePath] = true

		require.ErrorIs(t, f.files.Delete(record, "alice"), ErrDeletion)

		// Record and blob both survive, so the pair stays reachable for retry
		require.True(t, f.blobs.Exists(record.StoragePath))
		_, err := f.store.ByID(record.ID)
		require.NoError(t, err)
	})
}

func TestFileService_UpdateRejectsEmptyName(t *testing.T) {
	f := newFixture(t)
	record := f.upload(t, "named.txt", "x")

	for _, name := range []string{"", "   "} {
		bad := name
		err := f.files.Update(record, requests.UpdateFileRequest{Name: &bad}, "alice")
		require.ErrorIs(t, err, ErrValidation)
	}

	got, err := f.store.ByID(record.ID)
	require.NoError(t, err)
	require.Equal(t, "named.txt", got.Name)
}

func TestFileService_DeleteExpired(t *testing.T) {
	f := newFixture(t)

	expired1 := f.upload(t, "e1.txt", "x")
	expired2 := f.upload(t, "e2.txt", "x")
	stuck := f.upload(t, "stuck.txt", "x")
	fresh := f.upload(t, "fresh.txt", "x")

	past := time.Now().Add(-time.Hour)
	for _, rec := range []*models.File{expired1, expired2, stuck} {
		require.NoError(t, f.store.Updates(rec, map[string]interface{}{"auto_expires_at": past}))
	}
	f.blobs.failDelete[stuck.StoragePath] = true

	result, err := f.files.DeleteExpired(time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, result.Deleted)
	require.Equal(t, 1, result.Failed)

	// One stuck blob must not prevent the others from going
	_, err = f.store.ByID(expired1.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.ByID(expired2.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The failed record survives for the next sweep
	_, err = f.store.ByID(stuck.ID)
	require.NoError(t, err)

	// Unexpired records are untouched
	_, err = f.store.ByID(fresh.ID)
	require.NoError(t, err)
	require.True(t, f.blobs.Exists(fresh.StoragePath))
}

func TestFileService_CascadeDeleteForUser(t *testing.T) {
	f := newFixture(t)

	bob := &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, f.users.Create(bob))
	bobFile, err := f.files.Create(bob, "keep.txt", strings.NewReader("b"), requests.UploadFileRequest{})
	require.NoError(t, err)

	f.upload(t, "a1.txt", "1")
	f.upload(t, "sub.txt", "2")

	require.NoError(t, f.files.CascadeDeleteForUser(f.owner, "admin"))

	owned, err := f.store.ByOwner(f.owner.ID)
	require.NoError(t, err)
	require.Empty(t, owned)

	// Other users' files are unaffected
	_, err = f.store.ByID(bobFile.ID)
	require.NoError(t, err)
	require.True(t, f.blobs.Exists(bobFile.StoragePath))

	t.Run("repeat cascade tolerates missing subtree", func(t *testing.T) {
		require.NoError(t, f.files.CascadeDeleteForUser(f.owner, "admin"))
	})
}

func TestFileService_RecordDownload(t *testing.T) {
	f := newFixture(t)
	record := f.upload(t, "dl.txt", "download me")
	require.Nil(t, record.LastDownloadedAt)

	rc, err := f.files.RecordDownload(record)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "download me", string(content))

	got, err := f.store.ByID(record.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastDownloadedAt)
	require.WithinDuration(t, time.Now(), *got.LastDownloadedAt, 5*time.Second)

	t.Run("missing blob is a read error", func(t *testing.T) {
		require.NoError(t, f.blobs.BlobStorage.Delete(record.StoragePath))
		_, err := f.files.RecordDownload(record)
		require.ErrorIs(t, err, ErrStorageRead)
	})
}

func TestFileService_ResolveSharedToken(t *testing.T) {
	f := newFixture(t)
	record := f.upload(t, "shared.txt", "x")

	got, err := f.files.ResolveSharedToken(record.SharedToken)
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)

	_, err = f.files.ResolveSharedToken("no-such-token")
	require.ErrorIs(t, err, ErrNotFound)
}
