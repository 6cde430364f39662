package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/requestdata"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type stubSearchService struct {
	simpleResp  *services.SearchResponse
	simpleErr   error
	suggestions []services.Suggestion
	suggestErr  error
}

func (s *stubSearchService) SimpleSearch(ctx context.Context, userID uuid.UUID, query string, documentID *uuid.UUID, kind *types.ContentKind) (*services.SearchResponse, error) {
	return s.simpleResp, s.simpleErr
}

func (s *stubSearchService) AdvancedSearch(ctx context.Context, userID uuid.UUID, req services.AdvancedSearchRequest) (*services.SearchResponse, error) {
	return s.simpleResp, s.simpleErr
}

func (s *stubSearchService) Suggest(ctx context.Context, userID uuid.UUID, prefix string) ([]services.Suggestion, error) {
	return s.suggestions, s.suggestErr
}

type stubIndexService struct {
	summary *services.DocumentIndexSummary
	err     error
}

func (s *stubIndexService) IndexAnnotation(ctx context.Context, tx *gorm.DB, ann *types.Annotation) error {
	return nil
}

func (s *stubIndexService) RemoveAnnotationIndex(ctx context.Context, tx *gorm.DB, userID, annotationID uuid.UUID) error {
	return nil
}

func (s *stubIndexService) BackfillFromAnnotations(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}

func (s *stubIndexService) IndexDocumentText(ctx context.Context, userID, fileID uuid.UUID) (*services.DocumentIndexSummary, error) {
	return s.summary, s.err
}

func newSearchTestRouter(t *testing.T, search services.SearchService, index services.IndexService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init: %v", err)
	}
	h := NewSearchHandler(log, search, index)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: uuid.New()})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	router.GET("/api/search", h.SimpleSearch)
	router.POST("/api/search/advanced", h.AdvancedSearch)
	router.GET("/api/search/suggestions", h.Suggestions)
	router.POST("/api/pdfs/:id/index", h.IndexDocument)
	return router
}

func TestSimpleSearchHandler_InvalidQueryKeepsResultShape(t *testing.T) {
	router := newSearchTestRouter(t, &stubSearchService{simpleErr: errs.ErrInvalidQuery}, &stubIndexService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?query=x", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Results []json.RawMessage `json:"results"`
		Total   int               `json:"total"`
		Message string            `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Results == nil || len(body.Results) != 0 {
		t.Fatalf("expected explicit empty results array, got %s", w.Body.String())
	}
	if body.Message == "" {
		t.Fatalf("expected a user-facing message, got %s", w.Body.String())
	}
}

func TestSimpleSearchHandler_StorageFailureSaysSearchFailed(t *testing.T) {
	router := newSearchTestRouter(t, &stubSearchService{simpleErr: errors.New("db down")}, &stubIndexService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?query=brain", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body struct {
		Results []json.RawMessage `json:"results"`
		Message string            `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "search failed" {
		t.Fatalf("expected %q, got %q", "search failed", body.Message)
	}
	if body.Results == nil || len(body.Results) != 0 {
		t.Fatalf("expected empty results shape, got %s", w.Body.String())
	}
}

func TestAdvancedSearchHandler_ErrorBodyClampsLimit(t *testing.T) {
	router := newSearchTestRouter(t, &stubSearchService{simpleErr: errors.New("db down")}, &stubIndexService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/search/advanced",
		strings.NewReader(`{"query":"brain","page":3,"limit":1000}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Limit != services.MaxSearchPageSize {
		t.Fatalf("expected limit clamped to %d, got %d", services.MaxSearchPageSize, body.Limit)
	}
	if body.Page != 3 {
		t.Fatalf("expected page echoed as 3, got %d", body.Page)
	}
}

func TestSuggestionsHandler_DegradesToEmptyList(t *testing.T) {
	router := newSearchTestRouter(t, &stubSearchService{suggestErr: errors.New("db down")}, &stubIndexService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search/suggestions?query=br", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("suggestions must not surface errors, got %d", w.Code)
	}
	var body struct {
		Suggestions []json.RawMessage `json:"suggestions"`
		Message     string            `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Suggestions == nil || len(body.Suggestions) != 0 {
		t.Fatalf("expected empty suggestions list, got %s", w.Body.String())
	}
	if body.Message != "suggestions failed" {
		t.Fatalf("expected %q, got %q", "suggestions failed", body.Message)
	}
}

func TestSuggestionsHandler_ReturnsTerms(t *testing.T) {
	stub := &stubSearchService{suggestions: []services.Suggestion{{Term: "brain", Count: 1}}}
	router := newSearchTestRouter(t, stub, &stubIndexService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search/suggestions?query=br", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Suggestions []services.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Suggestions) != 1 || body.Suggestions[0].Term != "brain" {
		t.Fatalf("unexpected suggestions %+v", body.Suggestions)
	}
}

func TestIndexDocumentHandler_MapsNotFound(t *testing.T) {
	router := newSearchTestRouter(t, &stubSearchService{}, &stubIndexService{err: errs.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/pdfs/"+uuid.NewString()+"/index", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestIndexDocumentHandler_ReturnsSummary(t *testing.T) {
	fileID := uuid.New()
	stub := &stubIndexService{summary: &services.DocumentIndexSummary{PdfFileID: fileID, PagesIndexed: 4}}
	router := newSearchTestRouter(t, &stubSearchService{}, stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/pdfs/"+fileID.String()+"/index", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var summary services.DocumentIndexSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if summary.PagesIndexed != 4 || summary.PdfFileID != fileID {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
