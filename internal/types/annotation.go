package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rect is a rectangle in normalized page coordinates (0..1).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func RectToJSON(r *Rect) datatypes.JSON {
	if r == nil {
		return nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func RectFromJSON(raw datatypes.JSON) *Rect {
	if len(raw) == 0 {
		return nil
	}
	var r Rect
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return &r
}

type Annotation struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PdfFileID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"pdf_file_id"`
	PdfFile         *PdfFile       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PdfFileID;references:ID" json:"pdf_file,omitempty"`
	PageNumber      int            `gorm:"column:page_number;not null" json:"page_number"`
	HighlightedText string         `gorm:"column:highlighted_text;type:text" json:"highlighted_text"`
	Color           string         `gorm:"column:color" json:"color"`
	Position        datatypes.JSON `gorm:"column:position;type:jsonb" json:"position,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Annotation) TableName() string { return "annotation" }
