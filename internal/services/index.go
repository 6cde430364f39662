package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/extraction"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

// IndexService keeps the content store in step with the annotation
// lifecycle and owns body-text indexing of uploaded PDFs. It is consumed by
// both the search endpoints and the annotation CRUD layer.
type IndexService interface {
	// IndexAnnotation adds a content unit for the annotation. Calling it
	// again for the same annotation is a no-op, including under concurrent
	// calls: the insert is atomic at the storage layer.
	IndexAnnotation(ctx context.Context, tx *gorm.DB, ann *types.Annotation) error
	// RemoveAnnotationIndex deletes the unit tied to the annotation.
	// Absence is not an error.
	RemoveAnnotationIndex(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) error
	// BackfillFromAnnotations indexes every existing annotation of the
	// owner. Individual failures are logged and skipped; the count of
	// successfully processed annotations is returned.
	BackfillFromAnnotations(ctx context.Context, userID uuid.UUID) (int, error)
	IndexDocumentText(ctx context.Context, userID, fileID uuid.UUID) (*DocumentIndexSummary, error)
}

type DocumentIndexSummary struct {
	PdfFileID      uuid.UUID `json:"pdf_file_id"`
	PagesIndexed   int       `json:"pages_indexed"`
	AlreadyIndexed bool      `json:"already_indexed"`
	IsPlaceholder  bool      `json:"is_placeholder"`
}

type indexService struct {
	db              *gorm.DB
	log             *logger.Logger
	contentUnitRepo repos.ContentUnitRepo
	annotationRepo  repos.AnnotationRepo
	pdfFileRepo     repos.PdfFileRepo
	bucketService   BucketService
	extractor       extraction.Extractor
}

func NewIndexService(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentUnitRepo repos.ContentUnitRepo,
	annotationRepo repos.AnnotationRepo,
	pdfFileRepo repos.PdfFileRepo,
	bucketService BucketService,
	extractor extraction.Extractor,
) IndexService {
	serviceLog := baseLog.With("service", "IndexService")
	return &indexService{
		db:              db,
		log:             serviceLog,
		contentUnitRepo: contentUnitRepo,
		annotationRepo:  annotationRepo,
		pdfFileRepo:     pdfFileRepo,
		bucketService:   bucketService,
		extractor:       extractor,
	}
}

func (is *indexService) IndexAnnotation(ctx context.Context, tx *gorm.DB, ann *types.Annotation) error {
	if ann == nil {
		return fmt.Errorf("nil annotation")
	}
	if ann.HighlightedText == "" {
		return nil
	}
	annID := ann.ID
	unit := &types.ContentUnit{
		ID:                 uuid.New(),
		UserID:             ann.UserID,
		PdfFileID:          ann.PdfFileID,
		PageNumber:         ann.PageNumber,
		Content:            ann.HighlightedText,
		ContentKind:        types.ContentKindAnnotation,
		Position:           ann.Position,
		SourceAnnotationID: &annID,
	}
	inserted, err := is.contentUnitRepo.CreateIfAbsent(ctx, tx, unit)
	if err != nil {
		return fmt.Errorf("index annotation %s: %w", annID, err)
	}
	if !inserted {
		is.log.Debug("Annotation already indexed", "annotation_id", annID)
	}
	return nil
}

func (is *indexService) RemoveAnnotationIndex(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) error {
	deleted, err := is.contentUnitRepo.DeleteBySourceAnnotation(ctx, tx, userID, annotationID)
	if err != nil {
		return fmt.Errorf("remove annotation index %s: %w", annotationID, err)
	}
	if deleted == 0 {
		is.log.Debug("No index entry for deleted annotation", "annotation_id", annotationID)
	}
	return nil
}

func (is *indexService) BackfillFromAnnotations(ctx context.Context, userID uuid.UUID) (int, error) {
	anns, err := is.annotationRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return 0, fmt.Errorf("list annotations for backfill: %w", err)
	}
	indexed := 0
	for _, ann := range anns {
		if err := is.IndexAnnotation(ctx, nil, ann); err != nil {
			// Best-effort catch-up: one bad annotation must not abort
			// the rest.
			is.log.Warn("Backfill skipped annotation", "annotation_id", ann.ID, "error", err)
			continue
		}
		indexed++
	}
	is.log.Info("Backfill complete", "user_id", userID, "annotations", len(anns), "indexed", indexed)
	return indexed, nil
}

// PlaceholderPageText marks content units produced without a working
// extractor. It is never presented as real extracted text.
const PlaceholderPageText = "[no text extraction available for this page]"

func (is *indexService) IndexDocumentText(ctx context.Context, userID, fileID uuid.UUID) (*DocumentIndexSummary, error) {
	pdfFile, err := is.pdfFileRepo.GetByID(ctx, nil, userID, fileID)
	if err != nil {
		return nil, err
	}

	// Check-then-insert, not atomic: two simultaneous manual re-index calls
	// for the same document can both pass this gate and double-store the
	// page units. Annotation indexing is the only path that needs
	// storage-level atomicity (it fires from concurrent triggers); this one
	// fires from an explicit user action, where the gate is enough.
	existingFilter := types.ContentFilter{
		UserID:     userID,
		DocumentID: &fileID,
		Kinds:      []types.ContentKind{types.ContentKindPdfText},
	}
	_, existing, err := is.contentUnitRepo.Find(ctx, nil, existingFilter, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("check existing document index: %w", err)
	}
	if existing > 0 {
		return &DocumentIndexSummary{PdfFileID: fileID, AlreadyIndexed: true}, nil
	}

	pages, isPlaceholder := is.extractDocumentPages(ctx, pdfFile)
	if len(pages) == 0 {
		return &DocumentIndexSummary{PdfFileID: fileID, IsPlaceholder: isPlaceholder}, nil
	}

	units := make([]*types.ContentUnit, 0, len(pages))
	for _, page := range pages {
		units = append(units, &types.ContentUnit{
			ID:          uuid.New(),
			UserID:      userID,
			PdfFileID:   fileID,
			PageNumber:  page.PageNumber,
			Content:     page.Text,
			ContentKind: types.ContentKindPdfText,
		})
	}
	if _, err := is.contentUnitRepo.Create(ctx, nil, units); err != nil {
		return nil, fmt.Errorf("store document text units: %w", err)
	}
	return &DocumentIndexSummary{
		PdfFileID:     fileID,
		PagesIndexed:  len(units),
		IsPlaceholder: isPlaceholder,
	}, nil
}

func (is *indexService) extractDocumentPages(ctx context.Context, pdfFile *types.PdfFile) ([]extraction.PageText, bool) {
	if is.extractor != nil {
		data, err := is.bucketService.DownloadFile(ctx, pdfFile.StorageKey)
		if err != nil {
			is.log.Warn("Could not download pdf for extraction, falling back to placeholder", "pdf_file_id", pdfFile.ID, "error", err)
		} else {
			pages, err := is.extractor.ExtractPages(ctx, data)
			if err != nil {
				is.log.Warn("Text extraction failed, falling back to placeholder", "pdf_file_id", pdfFile.ID, "error", err)
			} else {
				return pages, false
			}
		}
	}

	pageCount := pdfFile.PageCount
	if pageCount < 1 {
		pageCount = 1
	}
	pages := make([]extraction.PageText, pageCount)
	for i := range pages {
		pages[i] = extraction.PageText{PageNumber: i + 1, Text: PlaceholderPageText}
	}
	return pages, true
}
