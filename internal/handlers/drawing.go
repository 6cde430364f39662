package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
)

type DrawingHandler struct {
	drawingService services.DrawingService
}

func NewDrawingHandler(drawingService services.DrawingService) *DrawingHandler {
	return &DrawingHandler{drawingService: drawingService}
}

// POST /api/pdfs/:id/drawings
func (h *DrawingHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.DrawingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	drawing, err := h.drawingService.CreateDrawing(c.Request.Context(), userID, fileID, input)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondOK(c, drawing)
}

// GET /api/pdfs/:id/drawings
func (h *DrawingHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	drawings, err := h.drawingService.ListDrawings(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, drawings)
}

// PATCH /api/drawings/:id
func (h *DrawingHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	drawingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.DrawingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	drawing, err := h.drawingService.UpdateDrawing(c.Request.Context(), userID, drawingID, input)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "drawing_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "update_failed", err)
		return
	}
	RespondOK(c, drawing)
}

// DELETE /api/drawings/:id
func (h *DrawingHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	drawingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.drawingService.DeleteDrawing(c.Request.Context(), userID, drawingID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "drawing_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}
