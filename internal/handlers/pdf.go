package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagemarkhq/pagemark-backend/internal/errs"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
)

const maxUploadBytes = 64 << 20

type PdfHandler struct {
	log        *logger.Logger
	pdfService services.PdfService
}

func NewPdfHandler(log *logger.Logger, pdfService services.PdfService) *PdfHandler {
	return &PdfHandler{
		log:        log.With("handler", "PdfHandler"),
		pdfService: pdfService,
	}
}

// POST /api/pdfs
func (h *PdfHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	pdfFile, err := h.pdfService.UploadPdf(c.Request.Context(), userID, fileHeader.Filename, f)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	RespondOK(c, pdfFile)
}

// GET /api/pdfs
func (h *PdfHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	files, err := h.pdfService.ListPdfs(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, files)
}

// GET /api/pdfs/:id
func (h *PdfHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	pdfFile, err := h.pdfService.GetPdf(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	RespondOK(c, pdfFile)
}

type renameRequest struct {
	Title string `json:"title" binding:"required"`
}

// PATCH /api/pdfs/:id
func (h *PdfHandler) Rename(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pdfFile, err := h.pdfService.RenamePdf(c.Request.Context(), userID, id, req.Title)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "rename_failed", err)
		return
	}
	RespondOK(c, pdfFile)
}

// DELETE /api/pdfs/:id
func (h *PdfHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := h.pdfService.DeletePdf(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "pdf_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}
