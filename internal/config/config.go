package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"cloud-storage-api/internal/utils"

	"github.com/joho/godotenv"
	"github.com/kerimovok/go-pkg-utils/config"
	"gopkg.in/yaml.v3"
)

// FileValidationConfig holds upload validation settings
type FileValidationConfig struct {
	MaxFileSize string `yaml:"max_file_size"`

	// parsed from MaxFileSize at load time
	MaxFileSizeBytes int64 `yaml:"-"`
}

// LocalStorageConfig holds local blob storage settings
type LocalStorageConfig struct {
	UploadDir  string `yaml:"upload_dir"`
	CreateDirs bool   `yaml:"create_dirs"`
}

// CleanupConfig holds expired-file sweep settings
type CleanupConfig struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"interval_hours"`
	RetentionDays int  `yaml:"retention_days"`
}

// RealtimeConfig holds websocket notification settings
type RealtimeConfig struct {
	SendBuffer int `yaml:"send_buffer"`
}

// StorageConfig holds the complete storage configuration
type StorageConfig struct {
	Validation FileValidationConfig `yaml:"validation"`
	Storage    LocalStorageConfig   `yaml:"storage"`
	Cleanup    CleanupConfig        `yaml:"cleanup"`
	Realtime   RealtimeConfig       `yaml:"realtime"`
}

// MainConfig holds the root configuration
type MainConfig struct {
	Storage StorageConfig `yaml:"storage"`
}

var (
	Config MainConfig
)

// LoadConfig loads the configuration from config/storage.yaml
func LoadConfig() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if config.GetEnv("GO_ENV") != "production" {
			log.Println("Warning: Failed to load .env file")
		}
	}

	// Read config file
	data, err := os.ReadFile("config/storage.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Storage.Validation.MaxFileSize != "" {
		size, err := utils.ParseSizeString(cfg.Storage.Validation.MaxFileSize)
		if err != nil {
			return fmt.Errorf("invalid max_file_size: %w", err)
		}
		cfg.Storage.Validation.MaxFileSizeBytes = size
	}

	// Store config globally
	Config = cfg

	log.Println("Storage configuration loaded successfully from config/storage.yaml")
	return nil
}

func applyDefaults(cfg *MainConfig) {
	if cfg.Storage.Storage.UploadDir == "" {
		cfg.Storage.Storage.UploadDir = "uploads"
	}
	if cfg.Storage.Cleanup.IntervalHours <= 0 {
		cfg.Storage.Cleanup.IntervalHours = 24
	}
	if cfg.Storage.Cleanup.RetentionDays <= 0 {
		cfg.Storage.Cleanup.RetentionDays = 30
	}
	if cfg.Storage.Realtime.SendBuffer <= 0 {
		cfg.Storage.Realtime.SendBuffer = 16
	}
}

// GetConfig returns the current configuration
func GetConfig() MainConfig {
	return Config
}

// Retention returns the configured file lifetime
func Retention() time.Duration {
	return time.Duration(Config.Storage.Cleanup.RetentionDays) * 24 * time.Hour
}

// SweepInterval returns the configured sweep period
func SweepInterval() time.Duration {
	return time.Duration(Config.Storage.Cleanup.IntervalHours) * time.Hour
}
