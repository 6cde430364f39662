package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/clients/redis"
	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

const (
	// DefaultSearchPageSize is the page size used when the caller does not
	// ask for one. MaxSearchPageSize caps whatever the caller asks for.
	DefaultSearchPageSize = 20
	MaxSearchPageSize     = 100

	minQueryLength      = 2
	suggestionScanLimit = 5
	suggestionLimit     = 5
)

type AdvancedSearchRequest struct {
	Query       string              `json:"query"`
	DocumentIDs []uuid.UUID         `json:"document_ids,omitempty"`
	Kinds       []types.ContentKind `json:"content_kinds,omitempty"`
	From        *time.Time          `json:"from,omitempty"`
	To          *time.Time          `json:"to,omitempty"`
	PageNumber  *int                `json:"page_number,omitempty"`
	Page        int                 `json:"page,omitempty"`
	Limit       int                 `json:"limit,omitempty"`
	Fuzzy       bool                `json:"fuzzy,omitempty"`
}

type SearchResultItem struct {
	ID                 uuid.UUID         `json:"id"`
	DocumentID         uuid.UUID         `json:"document_id"`
	DocumentTitle      string            `json:"document_title"`
	PageNumber         int               `json:"page_number"`
	ContentKind        types.ContentKind `json:"content_kind"`
	Content            string            `json:"content"`
	HighlightedContent string            `json:"highlighted_content"`
	Position           *types.Rect       `json:"position,omitempty"`
	SourceAnnotationID *uuid.UUID        `json:"source_annotation_id,omitempty"`
	Score              float64           `json:"score"`
	CreatedAt          time.Time         `json:"created_at"`
}

type SearchResponse struct {
	Results       []SearchResultItem `json:"results"`
	Total         int64              `json:"total"`
	Page          int                `json:"page"`
	Limit         int                `json:"limit"`
	Fuzzy         bool               `json:"fuzzy"`
	NeedsIndexing bool               `json:"needs_indexing,omitempty"`
}

type Suggestion struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SearchService executes search intents against the content store and
// formats matches for presentation. It never reads outside the calling
// owner's units.
type SearchService interface {
	SimpleSearch(ctx context.Context, userID uuid.UUID, query string, documentID *uuid.UUID, kind *types.ContentKind) (*SearchResponse, error)
	AdvancedSearch(ctx context.Context, userID uuid.UUID, req AdvancedSearchRequest) (*SearchResponse, error)
	Suggest(ctx context.Context, userID uuid.UUID, prefix string) ([]Suggestion, error)
}

type searchService struct {
	db              *gorm.DB
	log             *logger.Logger
	contentUnitRepo repos.ContentUnitRepo
	pdfFileRepo     repos.PdfFileRepo
	indexService    IndexService
	titleCache      redis.TitleCache
}

func NewSearchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	contentUnitRepo repos.ContentUnitRepo,
	pdfFileRepo repos.PdfFileRepo,
	indexService IndexService,
	titleCache redis.TitleCache,
) SearchService {
	serviceLog := baseLog.With("service", "SearchService")
	return &searchService{
		db:              db,
		log:             serviceLog,
		contentUnitRepo: contentUnitRepo,
		pdfFileRepo:     pdfFileRepo,
		indexService:    indexService,
		titleCache:      titleCache,
	}
}

func (ss *searchService) SimpleSearch(ctx context.Context, userID uuid.UUID, query string, documentID *uuid.UUID, kind *types.ContentKind) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLength {
		return nil, errs.ErrInvalidQuery
	}

	if resp, done, err := ss.ensureIndexed(ctx, userID, 1, DefaultSearchPageSize); done || err != nil {
		return resp, err
	}

	filter := types.ContentFilter{
		UserID:           userID,
		DocumentID:       documentID,
		ContentSubstring: query,
	}
	if kind != nil {
		filter.Kinds = []types.ContentKind{*kind}
	}

	units, total, err := ss.contentUnitRepo.Find(ctx, nil, filter, DefaultSearchPageSize, 0)
	if err != nil {
		return nil, err
	}

	results, err := ss.formatResults(ctx, userID, query, units)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		Results: results,
		Total:   total,
		Page:    1,
		Limit:   DefaultSearchPageSize,
		Fuzzy:   false,
	}, nil
}

func (ss *searchService) AdvancedSearch(ctx context.Context, userID uuid.UUID, req AdvancedSearchRequest) (*SearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if len([]rune(query)) < minQueryLength {
		return nil, errs.ErrInvalidQuery
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultSearchPageSize
	}
	if limit > MaxSearchPageSize {
		limit = MaxSearchPageSize
	}

	if req.Fuzzy {
		// Accepted on input but not implemented; the response reports
		// fuzzy=false so callers are not misled about how matching ran.
		ss.log.Debug("Fuzzy matching requested but not applied", "user_id", userID)
	}

	if resp, done, err := ss.ensureIndexed(ctx, userID, page, limit); done || err != nil {
		return resp, err
	}

	filter := types.ContentFilter{
		UserID:           userID,
		DocumentIDs:      req.DocumentIDs,
		Kinds:            req.Kinds,
		ContentSubstring: query,
		PageNumber:       req.PageNumber,
		CreatedFrom:      req.From,
		CreatedTo:        req.To,
	}

	units, total, err := ss.contentUnitRepo.Find(ctx, nil, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	results, err := ss.formatResults(ctx, userID, query, units)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		Results: results,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Fuzzy:   false,
	}, nil
}

func (ss *searchService) Suggest(ctx context.Context, userID uuid.UUID, prefix string) ([]Suggestion, error) {
	prefix = strings.TrimSpace(prefix)
	if len([]rune(prefix)) < minQueryLength {
		return nil, errs.ErrInvalidQuery
	}

	filter := types.ContentFilter{
		UserID:           userID,
		ContentSubstring: prefix,
	}
	units, _, err := ss.contentUnitRepo.Find(ctx, nil, filter, suggestionScanLimit, 0)
	if err != nil {
		return nil, err
	}

	terms := extractSuggestions(prefix, units, suggestionLimit)
	suggestions := make([]Suggestion, len(terms))
	for i, term := range terms {
		suggestions[i] = Suggestion{Term: term, Count: 1}
	}
	return suggestions, nil
}

// ensureIndexed applies the zero-index fallback: when the owner has no
// content units at all, a synchronous backfill runs and the caller gets an
// empty response flagged needs_indexing instead of a misleading "no
// results".
func (ss *searchService) ensureIndexed(ctx context.Context, userID uuid.UUID, page, limit int) (*SearchResponse, bool, error) {
	count, err := ss.contentUnitRepo.CountByOwner(ctx, nil, userID)
	if err != nil {
		return nil, false, err
	}
	if count > 0 {
		return nil, false, nil
	}
	if _, err := ss.indexService.BackfillFromAnnotations(ctx, userID); err != nil {
		ss.log.Warn("Backfill triggered by search failed", "user_id", userID, "error", err)
	}
	return &SearchResponse{
		Results:       []SearchResultItem{},
		Total:         0,
		Page:          page,
		Limit:         limit,
		Fuzzy:         false,
		NeedsIndexing: true,
	}, true, nil
}
