package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File represents an uploaded file and its metadata
type File struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	OwnerID          uuid.UUID  `json:"ownerId" gorm:"type:uuid;not null;index"`
	Owner            User       `json:"-" gorm:"foreignKey:OwnerID"`
	Name             string     `json:"name" gorm:"not null"`
	StoragePath      string     `json:"-" gorm:"not null"`
	SizeBytes        int64      `json:"sizeBytes" gorm:"not null;default:0"`
	UploadedAt       time.Time  `json:"uploadedAt" gorm:"not null"`
	AutoExpiresAt    time.Time  `json:"autoExpiresAt" gorm:"not null;index"`
	SharedToken      string     `json:"sharedToken" gorm:"size:36;not null;uniqueIndex"`
	Comment          string     `json:"comment"`
	LastDownloadedAt *time.Time `json:"lastDownloadedAt,omitempty"`
}
