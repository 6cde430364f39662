package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
)

type SearchHandler struct {
	log           *logger.Logger
	searchService services.SearchService
	indexService  services.IndexService
}

func NewSearchHandler(log *logger.Logger, searchService services.SearchService, indexService services.IndexService) *SearchHandler {
	return &SearchHandler{
		log:           log.With("handler", "SearchHandler"),
		searchService: searchService,
		indexService:  indexService,
	}
}

// searchErrorBody mirrors the success shape so clients parse one structure
// for both outcomes.
func searchErrorBody(page, limit int, message string) gin.H {
	return gin.H{
		"results": []services.SearchResultItem{},
		"total":   0,
		"page":    page,
		"limit":   limit,
		"fuzzy":   false,
		"message": message,
	}
}

// GET /api/search?query=...&document_id=...&content_kind=...
func (h *SearchHandler) SimpleSearch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	query := c.Query("query")

	var documentID *uuid.UUID
	if raw := c.Query("document_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, searchErrorBody(1, services.DefaultSearchPageSize, "invalid document_id"))
			return
		}
		documentID = &id
	}
	var kind *types.ContentKind
	if raw := c.Query("content_kind"); raw != "" {
		k := types.ContentKind(raw)
		if !k.Valid() {
			c.JSON(http.StatusBadRequest, searchErrorBody(1, services.DefaultSearchPageSize, fmt.Sprintf("unsupported content_kind %q", raw)))
			return
		}
		kind = &k
	}

	resp, err := h.searchService.SimpleSearch(c.Request.Context(), userID, query, documentID, kind)
	if err != nil {
		h.respondSearchError(c, 1, services.DefaultSearchPageSize, err)
		return
	}
	RespondOK(c, resp)
}

// POST /api/search/advanced
func (h *SearchHandler) AdvancedSearch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, searchErrorBody(1, services.DefaultSearchPageSize, "invalid request body"))
		return
	}
	resp, err := h.searchService.AdvancedSearch(c.Request.Context(), userID, req)
	if err != nil {
		// Error bodies echo the same normalized paging the service would
		// have used.
		page := req.Page
		if page < 1 {
			page = 1
		}
		limit := req.Limit
		if limit < 1 {
			limit = services.DefaultSearchPageSize
		}
		if limit > services.MaxSearchPageSize {
			limit = services.MaxSearchPageSize
		}
		h.respondSearchError(c, page, limit, err)
		return
	}
	RespondOK(c, resp)
}

// GET /api/search/suggestions?query=...
//
// Suggestions are a non-critical UX enhancement: any failure degrades to an
// empty list rather than an error status.
func (h *SearchHandler) Suggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	suggestions, err := h.searchService.Suggest(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		if !errors.Is(err, errs.ErrInvalidQuery) {
			h.log.Warn("Suggestions failed", "error", err)
		}
		RespondOK(c, gin.H{"suggestions": []services.Suggestion{}, "message": "suggestions failed"})
		return
	}
	if suggestions == nil {
		suggestions = []services.Suggestion{}
	}
	RespondOK(c, gin.H{"suggestions": suggestions})
}

// POST /api/pdfs/:id/index
func (h *SearchHandler) IndexDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	summary, err := h.indexService.IndexDocumentText(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "index_failed", err)
		return
	}
	RespondOK(c, summary)
}

func (h *SearchHandler) respondSearchError(c *gin.Context, page, limit int, err error) {
	if errors.Is(err, errs.ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, searchErrorBody(page, limit, "query must be at least 2 characters"))
		return
	}
	h.log.Error("Search failed", "error", err)
	c.JSON(http.StatusInternalServerError, searchErrorBody(page, limit, "search failed"))
}
