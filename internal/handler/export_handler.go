package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// ExportHandler exposes the async roster export endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// CreateExportJobRequest is the payload for queuing an export.
type CreateExportJobRequest struct {
	ActivityID string `json:"activity" binding:"required"`
	Format     string `json:"format"`
}

// Create godoc
// @Summary Queue a roster export job
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body CreateExportJobRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /activity-participants/export-jobs/ [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req CreateExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.exports.Enqueue(c.Request.Context(), claimsFromContext(c), req.ActivityID, req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, "Roster export queued", job)
}

// Get godoc
// @Summary Fetch the state of an export job
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/export-jobs/{id}/ [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.Get(claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Export job retrieved successfully", job)
}

// Download godoc
// @Summary Download a completed roster export
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /activity-participants/export-jobs/download/ [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, contentType, filename, err := h.exports.Open(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
