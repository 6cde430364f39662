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

type AnnotationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ann *types.Annotation) (*types.Annotation, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Annotation, error)
	ListByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) ([]*types.Annotation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Annotation, error)
	Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error)
	DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error
}

type annotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
	repoLog := baseLog.With("repo", "AnnotationRepo")
	return &annotationRepo{db: db, log: repoLog}
}

func (r *annotationRepo) Create(ctx context.Context, tx *gorm.DB, ann *types.Annotation) (*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(ann).Error; err != nil {
		return nil, err
	}
	return ann, nil
}

func (r *annotationRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ann types.Annotation
	if err := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&ann).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &ann, nil
}

func (r *annotationRepo) ListByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) ([]*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var anns []*types.Annotation
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND pdf_file_id = ?", userID, fileID).
		Order("page_number ASC, created_at ASC").
		Find(&anns).Error; err != nil {
		return nil, err
	}
	return anns, nil
}

func (r *annotationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var anns []*types.Annotation
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&anns).Error; err != nil {
		return nil, err
	}
	return anns, nil
}

func (r *annotationRepo) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&types.Annotation{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *annotationRepo) DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("user_id = ? AND pdf_file_id = ?", userID, fileID).Delete(&types.Annotation{}).Error
}
