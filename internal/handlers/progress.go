package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/requestdata"
	"github.com/learnhub/learnhub-backend/internal/services"
)

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:             log.With("handler", "ProgressHandler"),
		progressService: progressService,
	}
}

func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	enrollmentID, err := uuid.Parse(c.Param("enrollmentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_enrollment_id", err)
		return
	}
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_module_id", err)
		return
	}
	var req struct {
		CompletionPercentage *float64 `json:"completionPercentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	progress, err := h.progressService.UpdateProgress(c.Request.Context(), enrollmentID, moduleID, *req.CompletionPercentage, rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}

func (h *ProgressHandler) GetModuleProgress(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	enrollmentID, err := uuid.Parse(c.Param("enrollmentId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_enrollment_id", err)
		return
	}
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_module_id", err)
		return
	}
	progress, err := h.progressService.GetModuleProgress(c.Request.Context(), enrollmentID, moduleID, rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": progress})
}
