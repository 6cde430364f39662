package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Drawing is a freehand or shape overlay on a single page. The path payload
// is opaque to the backend; the client renders it.
type Drawing struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PdfFileID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"pdf_file_id"`
	PdfFile    *PdfFile       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PdfFileID;references:ID" json:"pdf_file,omitempty"`
	PageNumber int            `gorm:"column:page_number;not null" json:"page_number"`
	Tool       string         `gorm:"column:tool" json:"tool"`
	Color      string         `gorm:"column:color" json:"color"`
	StrokeWidth float64       `gorm:"column:stroke_width" json:"stroke_width"`
	Path       datatypes.JSON `gorm:"column:path;type:jsonb" json:"path"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Drawing) TableName() string { return "drawing" }
