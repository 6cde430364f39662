package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PdfFile struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	OriginalName string         `gorm:"column:original_name;not null" json:"original_name"`
	SizeBytes    int64          `gorm:"column:size_bytes" json:"size_bytes"`
	PageCount    int            `gorm:"column:page_count" json:"page_count"`
	StorageKey   string         `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL      string         `gorm:"column:file_url" json:"file_url"`
	DriveFileID  string         `gorm:"column:drive_file_id" json:"drive_file_id,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PdfFile) TableName() string { return "pdf_file" }
