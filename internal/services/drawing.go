package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type DrawingInput struct {
	PageNumber  int            `json:"page_number"`
	Tool        string         `json:"tool"`
	Color       string         `json:"color"`
	StrokeWidth float64        `json:"stroke_width"`
	Path        datatypes.JSON `json:"path"`
}

type DrawingService interface {
	CreateDrawing(ctx context.Context, userID, fileID uuid.UUID, input DrawingInput) (*types.Drawing, error)
	ListDrawings(ctx context.Context, userID, fileID uuid.UUID) ([]*types.Drawing, error)
	UpdateDrawing(ctx context.Context, userID, drawingID uuid.UUID, input DrawingInput) (*types.Drawing, error)
	DeleteDrawing(ctx context.Context, userID, drawingID uuid.UUID) error
}

type drawingService struct {
	db          *gorm.DB
	log         *logger.Logger
	drawingRepo repos.DrawingRepo
	pdfFileRepo repos.PdfFileRepo
}

func NewDrawingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	drawingRepo repos.DrawingRepo,
	pdfFileRepo repos.PdfFileRepo,
) DrawingService {
	serviceLog := baseLog.With("service", "DrawingService")
	return &drawingService{
		db:          db,
		log:         serviceLog,
		drawingRepo: drawingRepo,
		pdfFileRepo: pdfFileRepo,
	}
}

func (ds *drawingService) CreateDrawing(ctx context.Context, userID, fileID uuid.UUID, input DrawingInput) (*types.Drawing, error) {
	if input.PageNumber < 1 {
		return nil, fmt.Errorf("page number must be positive")
	}
	if len(input.Path) == 0 {
		return nil, fmt.Errorf("drawing path must not be empty")
	}
	if _, err := ds.pdfFileRepo.GetByID(ctx, nil, userID, fileID); err != nil {
		return nil, err
	}

	drawing := &types.Drawing{
		ID:          uuid.New(),
		UserID:      userID,
		PdfFileID:   fileID,
		PageNumber:  input.PageNumber,
		Tool:        input.Tool,
		Color:       input.Color,
		StrokeWidth: input.StrokeWidth,
		Path:        input.Path,
	}
	if _, err := ds.drawingRepo.Create(ctx, nil, drawing); err != nil {
		ds.log.Error("CreateDrawing failed", "error", err)
		return nil, fmt.Errorf("create drawing: %w", err)
	}
	return drawing, nil
}

func (ds *drawingService) ListDrawings(ctx context.Context, userID, fileID uuid.UUID) ([]*types.Drawing, error) {
	if _, err := ds.pdfFileRepo.GetByID(ctx, nil, userID, fileID); err != nil {
		return nil, err
	}
	return ds.drawingRepo.ListByPdfFile(ctx, nil, userID, fileID)
}

func (ds *drawingService) UpdateDrawing(ctx context.Context, userID, drawingID uuid.UUID, input DrawingInput) (*types.Drawing, error) {
	drawing, err := ds.drawingRepo.GetByID(ctx, nil, userID, drawingID)
	if err != nil {
		return nil, err
	}
	if input.PageNumber >= 1 {
		drawing.PageNumber = input.PageNumber
	}
	if input.Tool != "" {
		drawing.Tool = input.Tool
	}
	if input.Color != "" {
		drawing.Color = input.Color
	}
	if input.StrokeWidth > 0 {
		drawing.StrokeWidth = input.StrokeWidth
	}
	if len(input.Path) > 0 {
		drawing.Path = input.Path
	}
	if err := ds.drawingRepo.Update(ctx, nil, drawing); err != nil {
		return nil, fmt.Errorf("update drawing: %w", err)
	}
	return drawing, nil
}

func (ds *drawingService) DeleteDrawing(ctx context.Context, userID, drawingID uuid.UUID) error {
	deleted, err := ds.drawingRepo.Delete(ctx, nil, userID, drawingID)
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if deleted == 0 {
		return errs.ErrNotFound
	}
	return nil
}
