package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

// ContentUnitRepo is the content store behind search. Every operation is
// scoped by owner; there is no way to read or write another user's units.
type ContentUnitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, units []*types.ContentUnit) ([]*types.ContentUnit, error)
	// CreateIfAbsent inserts the unit unless one already exists for the same
	// (user_id, source_annotation_id). Returns false when the insert was
	// skipped. Relies on the partial unique index plus ON CONFLICT DO
	// NOTHING, so two concurrent callers converge to exactly one row.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, unit *types.ContentUnit) (bool, error)
	Find(ctx context.Context, tx *gorm.DB, filter types.ContentFilter, limit, offset int) ([]*types.ContentUnit, int64, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	DeleteBySourceAnnotation(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) (int64, error)
	DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error
	DistinctDocumentIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
}

type contentUnitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentUnitRepo(db *gorm.DB, baseLog *logger.Logger) ContentUnitRepo {
	repoLog := baseLog.With("repo", "ContentUnitRepo")
	return &contentUnitRepo{db: db, log: repoLog}
}

func (r *contentUnitRepo) Create(ctx context.Context, tx *gorm.DB, units []*types.ContentUnit) ([]*types.ContentUnit, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(units) == 0 {
		return []*types.ContentUnit{}, nil
	}

	// Keep batches small because Content is large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(units, batchSize).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *contentUnitRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, unit *types.ContentUnit) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "source_annotation_id"}},
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: `"source_annotation_id" IS NOT NULL`},
			}},
			DoNothing: true,
		}).
		Create(unit)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentUnitRepo) Find(ctx context.Context, tx *gorm.DB, filter types.ContentFilter, limit, offset int) ([]*types.ContentUnit, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	query := applyContentFilter(transaction.WithContext(ctx).Model(&types.ContentUnit{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var units []*types.ContentUnit
	query = query.Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&units).Error; err != nil {
		return nil, 0, err
	}
	return units, total, nil
}

func (r *contentUnitRepo) CountByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ContentUnit{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *contentUnitRepo) DeleteBySourceAnnotation(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("user_id = ? AND source_annotation_id = ?", userID, annotationID).
		Delete(&types.ContentUnit{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *contentUnitRepo) DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ? AND pdf_file_id = ?", userID, fileID).
		Delete(&types.ContentUnit{}).Error
}

func (r *contentUnitRepo) DistinctDocumentIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.ContentUnit{}).
		Distinct("pdf_file_id").
		Where("user_id = ?", userID).
		Pluck("pdf_file_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func applyContentFilter(query *gorm.DB, filter types.ContentFilter) *gorm.DB {
	query = query.Where("user_id = ?", filter.UserID)
	if filter.DocumentID != nil {
		query = query.Where("pdf_file_id = ?", *filter.DocumentID)
	}
	if len(filter.DocumentIDs) > 0 {
		query = query.Where("pdf_file_id IN ?", filter.DocumentIDs)
	}
	if len(filter.Kinds) > 0 {
		query = query.Where("content_kind IN ?", filter.Kinds)
	}
	if filter.ContentSubstring != "" {
		query = query.Where("content ILIKE ?", "%"+escapeLike(filter.ContentSubstring)+"%")
	}
	if filter.PageNumber != nil {
		query = query.Where("page_number = ?", *filter.PageNumber)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
