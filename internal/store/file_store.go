package store

import (
	"errors"
	"time"

	"cloud-storage-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// FileStore persists file metadata. It is the single source of truth for
// file records; callers re-query it instead of caching results.
type FileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Create inserts a new file record.
func (s *FileStore) Create(file *models.File) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	return s.db.Create(file).Error
}

// ByID fetches a file record by its primary key.
func (s *FileStore) ByID(id uuid.UUID) (*models.File, error) {
	var file models.File
	if err := s.db.First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// BySharedToken resolves an opaque shared-link token to its file record.
// Lookup is exact-match on the unique token.
func (s *FileStore) BySharedToken(token string) (*models.File, error) {
	var file models.File
	if err := s.db.First(&file, "shared_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// ByOwner lists all file records owned by the given user, newest first.
func (s *FileStore) ByOwner(ownerID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := s.db.Where("owner_id = ?", ownerID).
		Order("uploaded_at DESC").
		Find(&files).Error
	return files, err
}

// List returns a page of file records. When ownerID is non-nil the listing
// is restricted to that owner; staff callers pass nil to see everything.
func (s *FileStore) List(ownerID *uuid.UUID, offset, limit int) ([]models.File, int64, error) {
	query := s.db.Model(&models.File{})
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []models.File
	err := query.Order("uploaded_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&files).Error
	return files, total, err
}

// Expired returns every record whose expiry deadline has passed,
// oldest deadline first.
func (s *FileStore) Expired(now time.Time) ([]models.File, error) {
	var files []models.File
	err := s.db.Where("auto_expires_at < ?", now).
		Order("auto_expires_at ASC").
		Find(&files).Error
	return files, err
}

// Updates applies the given column updates to a record.
func (s *FileStore) Updates(file *models.File, updates map[string]interface{}) error {
	return s.db.Model(file).Updates(updates).Error
}

// Delete removes a file record.
func (s *FileStore) Delete(id uuid.UUID) error {
	return s.db.Delete(&models.File{}, "id = ?", id).Error
}
