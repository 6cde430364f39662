package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	return log
}

// fakeContentUnitRepo is an in-memory stand-in for the Postgres-backed
// content store, matching its filter and uniqueness semantics.
type fakeContentUnitRepo struct {
	mu      sync.Mutex
	units   []*types.ContentUnit
	findErr error
}

func (f *fakeContentUnitRepo) Create(ctx context.Context, tx *gorm.DB, units []*types.ContentUnit) ([]*types.ContentUnit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units = append(f.units, units...)
	return units, nil
}

func (f *fakeContentUnitRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, unit *types.ContentUnit) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if unit.SourceAnnotationID != nil {
		for _, u := range f.units {
			if u.UserID == unit.UserID && u.SourceAnnotationID != nil && *u.SourceAnnotationID == *unit.SourceAnnotationID {
				return false, nil
			}
		}
	}
	f.units = append(f.units, unit)
	return true, nil
}

func (f *fakeContentUnitRepo) Find(ctx context.Context, tx *gorm.DB, filter types.ContentFilter, limit, offset int) ([]*types.ContentUnit, int64, error) {
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []*types.ContentUnit
	for _, u := range f.units {
		if matchesFilter(u, filter) {
			matches = append(matches, u)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := int64(len(matches))
	if offset >= len(matches) {
		return nil, total, nil
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func matchesFilter(u *types.ContentUnit, filter types.ContentFilter) bool {
	if u.UserID != filter.UserID {
		return false
	}
	if filter.DocumentID != nil && u.PdfFileID != *filter.DocumentID {
		return false
	}
	if len(filter.DocumentIDs) > 0 {
		found := false
		for _, id := range filter.DocumentIDs {
			if u.PdfFileID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Kinds) > 0 {
		found := false
		for _, k := range filter.Kinds {
			if u.ContentKind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.ContentSubstring != "" &&
		!strings.Contains(strings.ToLower(u.Content), strings.ToLower(filter.ContentSubstring)) {
		return false
	}
	if filter.PageNumber != nil && u.PageNumber != *filter.PageNumber {
		return false
	}
	if filter.CreatedFrom != nil && u.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && u.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	return true
}

func (f *fakeContentUnitRepo) CountByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.units {
		if u.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeContentUnitRepo) DeleteBySourceAnnotation(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*types.ContentUnit
	var deleted int64
	for _, u := range f.units {
		if u.UserID == userID && u.SourceAnnotationID != nil && *u.SourceAnnotationID == annotationID {
			deleted++
			continue
		}
		kept = append(kept, u)
	}
	f.units = kept
	return deleted, nil
}

func (f *fakeContentUnitRepo) DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*types.ContentUnit
	for _, u := range f.units {
		if u.UserID == userID && u.PdfFileID == fileID {
			continue
		}
		kept = append(kept, u)
	}
	f.units = kept
	return nil
}

func (f *fakeContentUnitRepo) DistinctDocumentIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, u := range f.units {
		if u.UserID != userID {
			continue
		}
		if _, ok := seen[u.PdfFileID]; ok {
			continue
		}
		seen[u.PdfFileID] = struct{}{}
		ids = append(ids, u.PdfFileID)
	}
	return ids, nil
}

type fakePdfFileRepo struct {
	mu    sync.Mutex
	files map[uuid.UUID]*types.PdfFile
}

func newFakePdfFileRepo() *fakePdfFileRepo {
	return &fakePdfFileRepo{files: make(map[uuid.UUID]*types.PdfFile)}
}

func (f *fakePdfFileRepo) Create(ctx context.Context, tx *gorm.DB, files []*types.PdfFile) ([]*types.PdfFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range files {
		f.files[file.ID] = file
	}
	return files, nil
}

func (f *fakePdfFileRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.PdfFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return file, nil
}

func (f *fakePdfFileRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.PdfFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.PdfFile
	for _, file := range f.files {
		if file.UserID == userID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakePdfFileRepo) GetTitlesByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make(map[uuid.UUID]string)
	for _, id := range ids {
		if file, ok := f.files[id]; ok && file.UserID == userID {
			titles[id] = file.Title
		}
	}
	return titles, nil
}

func (f *fakePdfFileRepo) Update(ctx context.Context, tx *gorm.DB, file *types.PdfFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[file.ID] = file
	return nil
}

func (f *fakePdfFileRepo) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return errs.ErrNotFound
	}
	delete(f.files, id)
	return nil
}

type fakeAnnotationRepo struct {
	mu   sync.Mutex
	anns []*types.Annotation
}

func (f *fakeAnnotationRepo) Create(ctx context.Context, tx *gorm.DB, ann *types.Annotation) (*types.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.anns = append(f.anns, ann)
	return ann, nil
}

func (f *fakeAnnotationRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ann := range f.anns {
		if ann.UserID == userID && ann.ID == id {
			return ann, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeAnnotationRepo) ListByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) ([]*types.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Annotation
	for _, ann := range f.anns {
		if ann.UserID == userID && ann.PdfFileID == fileID {
			out = append(out, ann)
		}
	}
	return out, nil
}

func (f *fakeAnnotationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Annotation
	for _, ann := range f.anns {
		if ann.UserID == userID {
			out = append(out, ann)
		}
	}
	return out, nil
}

func (f *fakeAnnotationRepo) Delete(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ann := range f.anns {
		if ann.UserID == userID && ann.ID == id {
			f.anns = append(f.anns[:i], f.anns[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeAnnotationRepo) DeleteByPdfFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*types.Annotation
	for _, ann := range f.anns {
		if ann.UserID == userID && ann.PdfFileID == fileID {
			continue
		}
		kept = append(kept, ann)
	}
	f.anns = kept
	return nil
}

// fakeBucketService serves downloads from a key-to-bytes map.
type fakeBucketService struct {
	objects map[string][]byte
}

func (f *fakeBucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	return errors.New("not implemented")
}

func (f *fakeBucketService) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	if data, ok := f.objects[key]; ok {
		return data, nil
	}
	return nil, errors.New("object not found")
}

func (f *fakeBucketService) DeleteFile(ctx context.Context, key string) error { return nil }

func (f *fakeBucketService) GetPublicURL(key string) string { return "https://cdn.test/" + key }
