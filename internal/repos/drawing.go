package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type DrawingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, drawing *types.Drawing) (*types.Drawing, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Drawing, error)
	ListByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) ([]*types.Drawing, error)
	Update(ctx context.Context, tx *gorm.DB, drawing *types.Drawing) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error)
	DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error
}

type drawingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDrawingRepo(db *gorm.DB, baseLog *logger.Logger) DrawingRepo {
	repoLog := baseLog.With("repo", "DrawingRepo")
	return &drawingRepo{db: db, log: repoLog}
}

func (r *drawingRepo) Create(ctx context.Context, tx *gorm.DB, drawing *types.Drawing) (*types.Drawing, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(drawing).Error; err != nil {
		return nil, err
	}
	return drawing, nil
}

func (r *drawingRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Drawing, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var drawing types.Drawing
	if err := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&drawing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &drawing, nil
}

func (r *drawingRepo) ListByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) ([]*types.Drawing, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var drawings []*types.Drawing
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND pdf_file_id = ?", userID, fileID).
		Order("page_number ASC, created_at ASC").
		Find(&drawings).Error; err != nil {
		return nil, err
	}
	return drawings, nil
}

func (r *drawingRepo) Update(ctx context.Context, tx *gorm.DB, drawing *types.Drawing) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(drawing).Error
}

func (r *drawingRepo) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&types.Drawing{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *drawingRepo) DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("user_id = ? AND pdf_file_id = ?", userID, fileID).Delete(&types.Drawing{}).Error
}
