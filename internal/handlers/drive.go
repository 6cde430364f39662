package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/services"
)

type DriveHandler struct {
	log              *logger.Logger
	driveSyncService services.DriveSyncService
}

func NewDriveHandler(log *logger.Logger, driveSyncService services.DriveSyncService) *DriveHandler {
	return &DriveHandler{
		log:              log.With("handler", "DriveHandler"),
		driveSyncService: driveSyncService,
	}
}

// POST /api/drive/sync
func (h *DriveHandler) Sync(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.driveSyncService == nil {
		RespondError(c, http.StatusServiceUnavailable, "drive_not_configured", errors.New("drive sync is not configured"))
		return
	}
	summary, err := h.driveSyncService.SyncUserPdfs(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "sync_failed", err)
		return
	}
	RespondOK(c, summary)
}
