package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud-storage-api/internal/models"
	"cloud-storage-api/internal/realtime"
	"cloud-storage-api/internal/requests"
	"cloud-storage-api/internal/store"

	"github.com/google/uuid"
)

// DefaultComment is stored when a file is created or updated without one.
const DefaultComment = "No comment"

// Notifier publishes file-change events to connected realtime sessions.
type Notifier interface {
	Publish(realtime.Event)
}

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	Deleted int
	Failed  int
}

// FileService owns the lifecycle of file records and their blobs: creation,
// updates, deletion (manual, cascaded, or by expiry sweep) and downloads.
type FileService struct {
	store     *store.FileStore
	blobs     BlobStorage
	notifier  Notifier
	retention time.Duration
	log       *slog.Logger
}

func NewFileService(files *store.FileStore, blobs BlobStorage, notifier Notifier, retention time.Duration, log *slog.Logger) *FileService {
	return &FileService{
		store:     files,
		blobs:     blobs,
		notifier:  notifier,
		retention: retention,
		log:       log.With(slog.String("component", "files")),
	}
}

// Create stores the blob under the owner's directory and inserts its record.
// The shared token is generated here, once, and never changes afterwards.
func (s *FileService) Create(owner *models.User, filename string, src io.Reader, meta requests.UploadFileRequest) (*models.File, error) {
	path := s.blobs.AllocatePath(owner.Username, filename)

	if _, err := s.blobs.Write(path, src); err != nil {
		// Never leave a partial blob behind a failed create.
		_ = s.blobs.Delete(path)
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	size, err := s.blobs.Size(path)
	if err != nil {
		size = 0
	}

	name := meta.Name
	if name == "" {
		name = filename
	}
	comment := meta.Comment
	if comment == "" {
		comment = DefaultComment
	}

	now := time.Now()
	record := &models.File{
		OwnerID:       owner.ID,
		Name:          name,
		StoragePath:   path,
		SizeBytes:     size,
		UploadedAt:    now,
		AutoExpiresAt: now.Add(s.retention),
		SharedToken:   uuid.NewString(),
		Comment:       comment,
	}

	if err := s.store.Create(record); err != nil {
		// No record without a blob and no blob without a record.
		_ = s.blobs.Delete(path)
		return nil, err
	}

	s.publish(realtime.ActionCreated, record, owner.Username)
	return record, nil
}

// Update applies only the provided patch fields; everything else keeps its
// prior value.
func (s *FileService) Update(record *models.File, patch requests.UpdateFileRequest, actor string) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}

	updates := make(map[string]interface{})

	if patch.Name != nil {
		updates["name"] = *patch.Name
		record.Name = *patch.Name
	}
	if patch.Comment != nil {
		updates["comment"] = *patch.Comment
		record.Comment = *patch.Comment
	} else if record.Comment == "" {
		updates["comment"] = DefaultComment
		record.Comment = DefaultComment
	}

	if len(updates) > 0 {
		if err := s.store.Updates(record, updates); err != nil {
			return err
		}
	}

	s.publish(realtime.ActionUpdated, record, actor)
	return nil
}

// Delete removes the blob first, then the record. A blob delete failure
// aborts the whole operation and is retryable; a blob that is already gone
// does not block deleting the record.
func (s *FileService) Delete(record *models.File, actor string) error {
	if err := s.deleteRecord(record); err != nil {
		return err
	}
	s.publish(realtime.ActionDeleted, record, actor)
	return nil
}

func (s *FileService) deleteRecord(record *models.File) error {
	// Only a blob that is genuinely gone may skip straight to metadata
	// deletion; any other blob failure keeps the record for a retry.
	if err := s.blobs.Delete(record.StoragePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrDeletion, err)
	}
	if err := s.store.Delete(record.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrDeletion, err)
	}
	return nil
}

// DeleteExpired removes every record whose expiry deadline is before now.
// Each record is handled independently; one failure is logged and the sweep
// continues with the rest.
func (s *FileService) DeleteExpired(now time.Time) (SweepResult, error) {
	expired, err := s.store.Expired(now)
	if err != nil {
		return SweepResult{}, err
	}

	var result SweepResult
	for i := range expired {
		record := &expired[i]
		if err := s.deleteRecord(record); err != nil {
			result.Failed++
			s.log.Error("sweep: delete expired file",
				slog.String("fileId", record.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		result.Deleted++
		s.publish(realtime.ActionDeleted, record, "system")
	}

	if result.Deleted > 0 || result.Failed > 0 {
		s.log.Info("sweep finished",
			slog.Int("deleted", result.Deleted),
			slog.Int("failed", result.Failed))
	}
	return result, nil
}

// CascadeDeleteForUser removes every file the owner has, then the owner's
// whole storage subtree, tolerating files or directories already gone.
func (s *FileService) CascadeDeleteForUser(owner *models.User, actor string) error {
	records, err := s.store.ByOwner(owner.ID)
	if err != nil {
		return err
	}

	for i := range records {
		record := &records[i]
		if err := s.deleteRecord(record); err != nil {
			s.log.Error("cascade: delete file",
				slog.String("fileId", record.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		s.publish(realtime.ActionDeleted, record, actor)
	}

	if err := s.blobs.RemoveOwnerDir(owner.Username); err != nil {
		return fmt.Errorf("%w: %v", ErrDeletion, err)
	}
	return nil
}

// RecordDownload stamps the record's last-download time, persists it, and
// returns a reader over the blob.
func (s *FileService) RecordDownload(record *models.File) (io.ReadCloser, error) {
	now := time.Now()
	if err := s.store.Updates(record, map[string]interface{}{"last_downloaded_at": now}); err != nil {
		return nil, err
	}
	record.LastDownloadedAt = &now

	rc, err := s.blobs.Open(record.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	return rc, nil
}

// ResolveSharedToken maps an opaque shared-link token to its file record.
func (s *FileService) ResolveSharedToken(token string) (*models.File, error) {
	record, err := s.store.BySharedToken(token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *FileService) publish(action realtime.Action, record *models.File, actor string) {
	if s.notifier == nil {
		return
	}

	var data map[string]interface{}
	if action != realtime.ActionDeleted {
		data = map[string]interface{}{
			"id":          record.ID.String(),
			"name":        record.Name,
			"sizeBytes":   record.SizeBytes,
			"comment":     record.Comment,
			"uploadedAt":  record.UploadedAt.UTC().Format(time.RFC3339),
			"sharedToken": record.SharedToken,
		}
	}

	s.notifier.Publish(realtime.Event{
		FileID:    record.ID.String(),
		Action:    action,
		Actor:     actor,
		Data:      data,
		Timestamp: time.Now(),
	})
}
