package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that owns uploaded files
type User struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Username     string `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email        string `json:"email" gorm:"size:254;not null;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"not null"`
	IsStaff      bool   `json:"isStaff" gorm:"not null;default:false"`
}
