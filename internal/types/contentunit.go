package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContentKind string

const (
	ContentKindPdfText    ContentKind = "pdf_text"
	ContentKindAnnotation ContentKind = "annotation"
)

func (k ContentKind) Valid() bool {
	return k == ContentKindPdfText || k == ContentKindAnnotation
}

// ContentUnit is one indexed, searchable fragment: either one page of
// extracted PDF body text or the text of one highlight. Uniqueness of
// (user_id, source_annotation_id) is enforced by a partial unique index so
// that concurrent indexing of the same annotation converges to one row.
type ContentUnit struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User               *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PdfFileID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"pdf_file_id"`
	PdfFile            *PdfFile       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PdfFileID;references:ID" json:"pdf_file,omitempty"`
	PageNumber         int            `gorm:"column:page_number;not null" json:"page_number"`
	Content            string         `gorm:"column:content;type:text;not null" json:"content"`
	ContentKind        ContentKind    `gorm:"column:content_kind;type:varchar(32);not null;index" json:"content_kind"`
	Position           datatypes.JSON `gorm:"column:position;type:jsonb" json:"position,omitempty"`
	SourceAnnotationID *uuid.UUID     `gorm:"column:source_annotation_id;type:uuid" json:"source_annotation_id,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ContentUnit) TableName() string { return "content_unit" }
