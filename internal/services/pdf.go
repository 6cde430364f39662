package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/clients/redis"
	"github.com/pagemarkhq/pagemark-backend/internal/extraction"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type PdfService interface {
	UploadPdf(ctx context.Context, userID uuid.UUID, originalName string, file io.Reader) (*types.PdfFile, error)
	ListPdfs(ctx context.Context, userID uuid.UUID) ([]*types.PdfFile, error)
	GetPdf(ctx context.Context, userID, id uuid.UUID) (*types.PdfFile, error)
	RenamePdf(ctx context.Context, userID, id uuid.UUID, title string) (*types.PdfFile, error)
	DeletePdf(ctx context.Context, userID, id uuid.UUID) error
}

type pdfService struct {
	db              *gorm.DB
	log             *logger.Logger
	pdfFileRepo     repos.PdfFileRepo
	annotationRepo  repos.AnnotationRepo
	drawingRepo     repos.DrawingRepo
	contentUnitRepo repos.ContentUnitRepo
	bucketService   BucketService
	titleCache      redis.TitleCache
}

func NewPdfService(
	db *gorm.DB,
	baseLog *logger.Logger,
	pdfFileRepo repos.PdfFileRepo,
	annotationRepo repos.AnnotationRepo,
	drawingRepo repos.DrawingRepo,
	contentUnitRepo repos.ContentUnitRepo,
	bucketService BucketService,
	titleCache redis.TitleCache,
) PdfService {
	serviceLog := baseLog.With("service", "PdfService")
	return &pdfService{
		db:              db,
		log:             serviceLog,
		pdfFileRepo:     pdfFileRepo,
		annotationRepo:  annotationRepo,
		drawingRepo:     drawingRepo,
		contentUnitRepo: contentUnitRepo,
		bucketService:   bucketService,
		titleCache:      titleCache,
	}
}

func (ps *pdfService) UploadPdf(ctx context.Context, userID uuid.UUID, originalName string, file io.Reader) (*types.PdfFile, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	fileID := uuid.New()
	storageKey := fmt.Sprintf("pdfs/%s/%s.pdf", userID.String(), fileID.String())

	// Page count is informational; a malformed-but-renderable file still
	// gets stored.
	pageCount, err := extraction.PageCount(data)
	if err != nil {
		ps.log.Warn("Could not determine page count", "original_name", originalName, "error", err)
		pageCount = 0
	}

	if err := ps.bucketService.UploadFile(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	pdfFile := &types.PdfFile{
		ID:           fileID,
		UserID:       userID,
		Title:        titleFromName(originalName),
		OriginalName: originalName,
		SizeBytes:    int64(len(data)),
		PageCount:    pageCount,
		StorageKey:   storageKey,
		FileURL:      ps.bucketService.GetPublicURL(storageKey),
	}
	if _, err := ps.pdfFileRepo.Create(ctx, nil, []*types.PdfFile{pdfFile}); err != nil {
		ps.log.Error("UploadPdf failed to persist row, removing stored object", "error", err)
		if delErr := ps.bucketService.DeleteFile(ctx, storageKey); delErr != nil {
			ps.log.Warn("Orphaned GCS object after failed upload", "storage_key", storageKey, "error", delErr)
		}
		return nil, fmt.Errorf("create pdf file: %w", err)
	}
	return pdfFile, nil
}

func (ps *pdfService) ListPdfs(ctx context.Context, userID uuid.UUID) ([]*types.PdfFile, error) {
	return ps.pdfFileRepo.ListByUser(ctx, nil, userID)
}

func (ps *pdfService) GetPdf(ctx context.Context, userID, id uuid.UUID) (*types.PdfFile, error) {
	return ps.pdfFileRepo.GetByID(ctx, nil, userID, id)
}

func (ps *pdfService) RenamePdf(ctx context.Context, userID, id uuid.UUID, title string) (*types.PdfFile, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}
	pdfFile, err := ps.pdfFileRepo.GetByID(ctx, nil, userID, id)
	if err != nil {
		return nil, err
	}
	pdfFile.Title = title
	if err := ps.pdfFileRepo.Update(ctx, nil, pdfFile); err != nil {
		return nil, fmt.Errorf("rename pdf: %w", err)
	}
	if ps.titleCache != nil {
		ps.titleCache.Invalidate(ctx, userID, id)
	}
	return pdfFile, nil
}

func (ps *pdfService) DeletePdf(ctx context.Context, userID, id uuid.UUID) error {
	pdfFile, err := ps.pdfFileRepo.GetByID(ctx, nil, userID, id)
	if err != nil {
		return err
	}
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ps.contentUnitRepo.DeleteByPdfFile(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("delete content units: %w", err)
		}
		if err := ps.annotationRepo.DeleteByPdfFile(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("delete annotations: %w", err)
		}
		if err := ps.drawingRepo.DeleteByPdfFile(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("delete drawings: %w", err)
		}
		if err := ps.pdfFileRepo.Delete(ctx, tx, userID, id); err != nil {
			return fmt.Errorf("delete pdf file: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := ps.bucketService.DeleteFile(ctx, pdfFile.StorageKey); err != nil {
		ps.log.Warn("Failed to delete stored object for removed pdf", "storage_key", pdfFile.StorageKey, "error", err)
	}
	if ps.titleCache != nil {
		ps.titleCache.Invalidate(ctx, userID, id)
	}
	return nil
}

func titleFromName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Untitled"
	}
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}
