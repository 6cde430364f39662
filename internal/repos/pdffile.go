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

type PdfFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, files []*types.PdfFile) ([]*types.PdfFile, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.PdfFile, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PdfFile, error)
	GetTitlesByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Update(ctx context.Context, tx *gorm.DB, file *types.PdfFile) error
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
}

type pdfFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPdfFileRepo(db *gorm.DB, baseLog *logger.Logger) PdfFileRepo {
	repoLog := baseLog.With("repo", "PdfFileRepo")
	return &pdfFileRepo{db: db, log: repoLog}
}

func (r *pdfFileRepo) Create(ctx context.Context, tx *gorm.DB, files []*types.PdfFile) ([]*types.PdfFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(files) == 0 {
		return []*types.PdfFile{}, nil
	}
	if err := transaction.WithContext(ctx).Create(files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *pdfFileRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.PdfFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var file types.PdfFile
	if err := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *pdfFileRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PdfFile, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var files []*types.PdfFile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *pdfFileRepo) GetTitlesByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	titles := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	var rows []struct {
		ID    uuid.UUID
		Title string
	}
	if err := transaction.WithContext(ctx).
		Model(&types.PdfFile{}).
		Select("id", "title").
		Where("user_id = ? AND id IN ?", userID, ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}

func (r *pdfFileRepo) Update(ctx context.Context, tx *gorm.DB, file *types.PdfFile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(file).Error
}

func (r *pdfFileRepo) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&types.PdfFile{}).Error
}
