package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// FeedbackHandler exposes the feedback ledger endpoints.
type FeedbackHandler struct {
	feedbacks *service.FeedbackService
}

// NewFeedbackHandler constructs FeedbackHandler.
func NewFeedbackHandler(feedbacks *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbacks: feedbacks}
}

// Create godoc
// @Summary Submit feedback for an attended activity
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body service.CreateFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Router /feedback/create/ [post]
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req service.CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.feedbacks.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Feedback submitted successfully", detail)
}

// List godoc
// @Summary List all feedback
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback/all/ [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	details, err := h.feedbacks.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback retrieved successfully", details)
}

// ListByActivity godoc
// @Summary List feedback for one activity
// @Tags Feedback
// @Produce json
// @Param activity_id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/activity/{activity_id}/ [get]
func (h *FeedbackHandler) ListByActivity(c *gin.Context) {
	details, err := h.feedbacks.ListByActivity(c.Request.Context(), claimsFromContext(c), c.Param("activity_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback retrieved successfully", details)
}

// ListMine godoc
// @Summary List the caller's feedback
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback/my-feedback/ [get]
func (h *FeedbackHandler) ListMine(c *gin.Context) {
	details, err := h.feedbacks.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback retrieved successfully", details)
}

// MyAttendedActivities godoc
// @Summary List activities the caller attended and may review
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /feedback/my-attended-activities/ [get]
func (h *FeedbackHandler) MyAttendedActivities(c *gin.Context) {
	details, err := h.feedbacks.MyAttendedActivities(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Attended activities retrieved successfully", details)
}

// Get godoc
// @Summary Get one feedback entry
// @Tags Feedback
// @Produce json
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/{id}/ [get]
func (h *FeedbackHandler) Get(c *gin.Context) {
	detail, err := h.feedbacks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback retrieved successfully", detail)
}

// Update godoc
// @Summary Edit a feedback entry
// @Tags Feedback
// @Accept json
// @Produce json
// @Param id path string true "Feedback ID"
// @Param payload body service.UpdateFeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Router /feedback/update/{id}/ [patch]
func (h *FeedbackHandler) Update(c *gin.Context) {
	var req service.UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.feedbacks.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback updated successfully", detail)
}

// Delete godoc
// @Summary Delete a feedback entry
// @Tags Feedback
// @Produce json
// @Param id path string true "Feedback ID"
// @Success 200 {object} response.Envelope
// @Router /feedback/delete/{id}/ [delete]
func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.feedbacks.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback deleted successfully", nil)
}
