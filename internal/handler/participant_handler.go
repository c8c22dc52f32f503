package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

type participantService interface {
	Register(ctx context.Context, actor *models.JWTClaims, req service.RegisterParticipantRequest) (*models.ParticipantDetail, error)
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error)
	Get(ctx context.Context, id string) (*models.ParticipantDetail, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req service.UpdateParticipantStatusRequest) (*models.ParticipantDetail, error)
	MarkAttended(ctx context.Context, actor *models.JWTClaims, id string) (*models.ParticipantDetail, error)
	BulkUpdateStatus(ctx context.Context, actor *models.JWTClaims, req service.BulkStatusUpdateRequest) ([]models.ParticipantDetail, []service.BulkItemError, error)
	Stats(ctx context.Context, activityID string) (*models.ParticipationStats, error)
	CheckParticipation(ctx context.Context, actor *models.JWTClaims, activityID string) (*service.CheckParticipationResult, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.ParticipantDetail, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipantDetail, error)
	Retire(ctx context.Context, actor *models.JWTClaims, id string) error
	ExportRoster(ctx context.Context, actor *models.JWTClaims, activityID, format string) ([]byte, string, error)
}

// ParticipantHandler exposes the participation ledger endpoints.
type ParticipantHandler struct {
	participants participantService
}

// NewParticipantHandler constructs ParticipantHandler.
func NewParticipantHandler(participants participantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// Create godoc
// @Summary Register a participant for an activity
// @Tags Participants
// @Accept json
// @Produce json
// @Param payload body service.RegisterParticipantRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /activity-participants/create/ [post]
func (h *ParticipantHandler) Create(c *gin.Context) {
	var req service.RegisterParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.participants.Register(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Participant registered successfully", detail)
}

// List godoc
// @Summary List participation records
// @Tags Participants
// @Produce json
// @Param activity query string false "Filter by activity"
// @Param user query string false "Filter by user"
// @Param status query string false "Filter by status"
// @Param search query string false "Search participant or activity name"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/all/ [get]
func (h *ParticipantHandler) List(c *gin.Context) {
	filter := models.ParticipantFilter{
		ActivityID:   c.Query("activity"),
		UserID:       c.Query("user"),
		Status:       models.ParticipationStatus(c.Query("status")),
		UpcomingOnly: c.Query("upcoming") == "true",
		Search:       c.Query("search"),
	}
	details, err := h.participants.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participants retrieved successfully", details)
}

// Get godoc
// @Summary Get a participation record
// @Tags Participants
// @Produce json
// @Param id path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/{id}/ [get]
func (h *ParticipantHandler) Get(c *gin.Context) {
	detail, err := h.participants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participant retrieved successfully", detail)
}

// Update godoc
// @Summary Update participation status or notes
// @Tags Participants
// @Accept json
// @Produce json
// @Param id path string true "Participant ID"
// @Param payload body service.UpdateParticipantStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/update/{id}/ [patch]
func (h *ParticipantHandler) Update(c *gin.Context) {
	var req service.UpdateParticipantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.participants.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participation status updated successfully", detail)
}

// MarkAttended godoc
// @Summary Mark a registered participant as attended
// @Tags Participants
// @Produce json
// @Param id path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/mark-attended/{id}/ [patch]
func (h *ParticipantHandler) MarkAttended(c *gin.Context) {
	detail, err := h.participants.MarkAttended(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Attendance marked successfully", detail)
}

// BulkUpdateStatus godoc
// @Summary Update the status of multiple participants atomically
// @Tags Participants
// @Accept json
// @Produce json
// @Param payload body service.BulkStatusUpdateRequest true "Bulk status payload"
// @Success 200 {object} response.Envelope
// @Failure 207 {object} response.Envelope
// @Router /activity-participants/bulk-update-status/ [post]
func (h *ParticipantHandler) BulkUpdateStatus(c *gin.Context) {
	var req service.BulkStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, itemErrors, err := h.participants.BulkUpdateStatus(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(itemErrors) > 0 {
		response.MultiStatus(c, "Bulk update rejected; no changes were applied", nil, itemErrors)
		return
	}
	response.JSON(c, http.StatusOK, fmt.Sprintf("%d participants updated successfully", len(updated)), updated)
}

// Stats godoc
// @Summary Participation statistics for an activity
// @Tags Participants
// @Produce json
// @Param activity_id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/stats/{activity_id}/ [get]
func (h *ParticipantHandler) Stats(c *gin.Context) {
	stats, err := h.participants.Stats(c.Request.Context(), c.Param("activity_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participation statistics retrieved successfully", stats)
}

// CheckParticipation godoc
// @Summary Check whether the caller is registered for an activity
// @Tags Participants
// @Produce json
// @Param activity_id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/check-participation/{activity_id}/ [get]
func (h *ParticipantHandler) CheckParticipation(c *gin.Context) {
	result, err := h.participants.CheckParticipation(c.Request.Context(), claimsFromContext(c), c.Param("activity_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participation check completed", result)
}

// ListByActivity godoc
// @Summary List the roster of one activity
// @Tags Participants
// @Produce json
// @Param activity_id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/participants/{activity_id}/ [get]
func (h *ParticipantHandler) ListByActivity(c *gin.Context) {
	details, err := h.participants.ListByActivity(c.Request.Context(), c.Param("activity_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participants retrieved successfully", details)
}

// ListMine godoc
// @Summary List the caller's participation history
// @Tags Participants
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activity-participants/my-participations/ [get]
func (h *ParticipantHandler) ListMine(c *gin.Context) {
	details, err := h.participants.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participations retrieved successfully", details)
}

// Delete godoc
// @Summary Remove a participation record
// @Tags Participants
// @Produce json
// @Param id path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /activity-participants/delete/{id}/ [delete]
func (h *ParticipantHandler) Delete(c *gin.Context) {
	if err := h.participants.Retire(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participant removed successfully", nil)
}

// Export godoc
// @Summary Export the roster of an activity as CSV or PDF
// @Tags Participants
// @Produce text/csv
// @Produce application/pdf
// @Param activity_id path string true "Activity ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /activity-participants/export/{activity_id}/ [get]
func (h *ParticipantHandler) Export(c *gin.Context) {
	activityID := c.Param("activity_id")
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.participants.ExportRoster(c.Request.Context(), claimsFromContext(c), activityID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("roster-%s.%s", activityID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
