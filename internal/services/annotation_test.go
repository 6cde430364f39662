package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

// failingIndexService simulates an index layer that is down.
type failingIndexService struct{}

func (failingIndexService) IndexAnnotation(ctx context.Context, tx *gorm.DB, ann *types.Annotation) error {
	return errors.New("index unavailable")
}

func (failingIndexService) RemoveAnnotationIndex(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) error {
	return errors.New("index unavailable")
}

func (failingIndexService) BackfillFromAnnotations(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, errors.New("index unavailable")
}

func (failingIndexService) IndexDocumentText(ctx context.Context, userID, fileID uuid.UUID) (*DocumentIndexSummary, error) {
	return nil, errors.New("index unavailable")
}

type annotationFixture struct {
	contentUnits *fakeContentUnitRepo
	pdfFiles     *fakePdfFileRepo
	annotations  *fakeAnnotationRepo
	service      AnnotationService
}

func newAnnotationFixture(t *testing.T, index IndexService) *annotationFixture {
	t.Helper()
	log := newTestLogger(t)
	contentUnits := &fakeContentUnitRepo{}
	pdfFiles := newFakePdfFileRepo()
	annotations := &fakeAnnotationRepo{}
	if index == nil {
		bucket := &fakeBucketService{objects: map[string][]byte{}}
		index = NewIndexService(nil, log, contentUnits, annotations, pdfFiles, bucket, nil)
	}
	return &annotationFixture{
		contentUnits: contentUnits,
		pdfFiles:     pdfFiles,
		annotations:  annotations,
		service:      NewAnnotationService(nil, log, annotations, pdfFiles, index),
	}
}

func TestCreateAnnotation_IndexesAsSideEffect(t *testing.T) {
	fx := newAnnotationFixture(t, nil)
	userID := uuid.New()
	file := &types.PdfFile{ID: uuid.New(), UserID: userID, Title: "Doc"}
	fx.pdfFiles.files[file.ID] = file

	ann, err := fx.service.CreateAnnotation(context.Background(), userID, file.ID, AnnotationInput{
		PageNumber:      2,
		HighlightedText: "key phrase",
		Color:           "#ffcc00",
	})
	if err != nil {
		t.Fatalf("CreateAnnotation: %v", err)
	}
	if len(fx.annotations.anns) != 1 {
		t.Fatalf("expected stored annotation")
	}
	if len(fx.contentUnits.units) != 1 {
		t.Fatalf("expected an index unit for the new annotation")
	}
	unit := fx.contentUnits.units[0]
	if unit.SourceAnnotationID == nil || *unit.SourceAnnotationID != ann.ID {
		t.Fatalf("index unit not linked to annotation: %+v", unit)
	}
}

func TestCreateAnnotation_SurvivesIndexFailure(t *testing.T) {
	fx := newAnnotationFixture(t, failingIndexService{})
	userID := uuid.New()
	file := &types.PdfFile{ID: uuid.New(), UserID: userID, Title: "Doc"}
	fx.pdfFiles.files[file.ID] = file

	ann, err := fx.service.CreateAnnotation(context.Background(), userID, file.ID, AnnotationInput{
		PageNumber:      1,
		HighlightedText: "still created",
	})
	if err != nil {
		t.Fatalf("annotation create must not fail when indexing fails: %v", err)
	}
	if ann == nil || len(fx.annotations.anns) != 1 {
		t.Fatalf("annotation was not persisted")
	}
}

func TestCreateAnnotation_ValidatesInput(t *testing.T) {
	fx := newAnnotationFixture(t, nil)
	userID := uuid.New()
	file := &types.PdfFile{ID: uuid.New(), UserID: userID, Title: "Doc"}
	fx.pdfFiles.files[file.ID] = file

	if _, err := fx.service.CreateAnnotation(context.Background(), userID, file.ID, AnnotationInput{PageNumber: 0, HighlightedText: "x"}); err == nil {
		t.Fatalf("expected error for non-positive page number")
	}
	if _, err := fx.service.CreateAnnotation(context.Background(), userID, file.ID, AnnotationInput{PageNumber: 1}); err == nil {
		t.Fatalf("expected error for empty highlighted text")
	}
}

func TestCreateAnnotation_RejectsForeignPdf(t *testing.T) {
	fx := newAnnotationFixture(t, nil)
	owner := uuid.New()
	file := &types.PdfFile{ID: uuid.New(), UserID: owner, Title: "Doc"}
	fx.pdfFiles.files[file.ID] = file

	_, err := fx.service.CreateAnnotation(context.Background(), uuid.New(), file.ID, AnnotationInput{
		PageNumber:      1,
		HighlightedText: "not yours",
	})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner's pdf, got %v", err)
	}
}

func TestDeleteAnnotation_RemovesIndexEntry(t *testing.T) {
	fx := newAnnotationFixture(t, nil)
	userID := uuid.New()
	file := &types.PdfFile{ID: uuid.New(), UserID: userID, Title: "Doc"}
	fx.pdfFiles.files[file.ID] = file

	ann, err := fx.service.CreateAnnotation(context.Background(), userID, file.ID, AnnotationInput{
		PageNumber:      1,
		HighlightedText: "ephemeral",
	})
	if err != nil {
		t.Fatalf("CreateAnnotation: %v", err)
	}

	if err := fx.service.DeleteAnnotation(context.Background(), userID, ann.ID); err != nil {
		t.Fatalf("DeleteAnnotation: %v", err)
	}
	if len(fx.annotations.anns) != 0 {
		t.Fatalf("annotation row should be gone")
	}
	if len(fx.contentUnits.units) != 0 {
		t.Fatalf("index unit should be gone with the annotation")
	}
}

func TestDeleteAnnotation_UnknownIDReturnsNotFound(t *testing.T) {
	fx := newAnnotationFixture(t, nil)
	err := fx.service.DeleteAnnotation(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
