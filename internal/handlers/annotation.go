package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
)

type AnnotationHandler struct {
	annotationService services.AnnotationService
}

func NewAnnotationHandler(annotationService services.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotationService: annotationService}
}

// POST /api/pdfs/:id/annotations
func (h *AnnotationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var input services.AnnotationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ann, err := h.annotationService.CreateAnnotation(c.Request.Context(), userID, fileID, input)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "create_failed", err)
		return
	}
	RespondOK(c, ann)
}

// GET /api/pdfs/:id/annotations
func (h *AnnotationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	anns, err := h.annotationService.ListAnnotations(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, anns)
}

// DELETE /api/annotations/:id
func (h *AnnotationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	annotationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.annotationService.DeleteAnnotation(c.Request.Context(), userID, annotationID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "annotation_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}
