package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type AnnotationInput struct {
	PageNumber      int         `json:"page_number"`
	HighlightedText string      `json:"highlighted_text"`
	Color           string      `json:"color"`
	Position        *types.Rect `json:"position"`
}

// AnnotationService owns highlight CRUD. Index maintenance runs as a side
// effect of create and delete; a failing index hook is logged and never
// fails the CRUD operation itself.
type AnnotationService interface {
	CreateAnnotation(ctx context.Context, userID, fileID uuid.UUID, input AnnotationInput) (*types.Annotation, error)
	ListAnnotations(ctx context.Context, userID, fileID uuid.UUID) ([]*types.Annotation, error)
	DeleteAnnotation(ctx context.Context, userID, annotationID uuid.UUID) error
}

type annotationService struct {
	db             *gorm.DB
	log            *logger.Logger
	annotationRepo repos.AnnotationRepo
	pdfFileRepo    repos.PdfFileRepo
	indexService   IndexService
}

func NewAnnotationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	annotationRepo repos.AnnotationRepo,
	pdfFileRepo repos.PdfFileRepo,
	indexService IndexService,
) AnnotationService {
	serviceLog := baseLog.With("service", "AnnotationService")
	return &annotationService{
		db:             db,
		log:            serviceLog,
		annotationRepo: annotationRepo,
		pdfFileRepo:    pdfFileRepo,
		indexService:   indexService,
	}
}

func (as *annotationService) CreateAnnotation(ctx context.Context, userID, fileID uuid.UUID, input AnnotationInput) (*types.Annotation, error) {
	if input.PageNumber < 1 {
		return nil, fmt.Errorf("page number must be positive")
	}
	if input.HighlightedText == "" {
		return nil, fmt.Errorf("highlighted text must not be empty")
	}
	if _, err := as.pdfFileRepo.GetByID(ctx, nil, userID, fileID); err != nil {
		return nil, err
	}

	ann := &types.Annotation{
		ID:              uuid.New(),
		UserID:          userID,
		PdfFileID:       fileID,
		PageNumber:      input.PageNumber,
		HighlightedText: input.HighlightedText,
		Color:           input.Color,
		Position:        types.RectToJSON(input.Position),
	}
	if _, err := as.annotationRepo.Create(ctx, nil, ann); err != nil {
		as.log.Error("CreateAnnotation failed", "error", err)
		return nil, fmt.Errorf("create annotation: %w", err)
	}

	// Index as a best-effort side effect. The annotation exists either
	// way; a search before this completes may not see it yet.
	if err := as.indexService.IndexAnnotation(ctx, nil, ann); err != nil {
		as.log.Warn("Indexing hook failed for new annotation", "annotation_id", ann.ID, "error", err)
	}
	return ann, nil
}

func (as *annotationService) ListAnnotations(ctx context.Context, userID, fileID uuid.UUID) ([]*types.Annotation, error) {
	if _, err := as.pdfFileRepo.GetByID(ctx, nil, userID, fileID); err != nil {
		return nil, err
	}
	return as.annotationRepo.ListByPdfFile(ctx, nil, userID, fileID)
}

func (as *annotationService) DeleteAnnotation(ctx context.Context, userID, annotationID uuid.UUID) error {
	deleted, err := as.annotationRepo.Delete(ctx, nil, userID, annotationID)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if deleted == 0 {
		return errs.ErrNotFound
	}
	if err := as.indexService.RemoveAnnotationIndex(ctx, nil, userID, annotationID); err != nil {
		as.log.Warn("Index removal hook failed for deleted annotation", "annotation_id", annotationID, "error", err)
	}
	return nil
}
