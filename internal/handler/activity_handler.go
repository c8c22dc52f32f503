package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// ActivityHandler exposes the activity directory endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// Create godoc
// @Summary Create an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body service.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activity/activities/create/ [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.activities.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Activity created successfully", detail)
}

// List godoc
// @Summary List activities
// @Tags Activities
// @Produce json
// @Param upcoming query bool false "Only upcoming activities"
// @Param search query string false "Search name or location"
// @Success 200 {object} response.Envelope
// @Router /activity/activities/ [get]
func (h *ActivityHandler) List(c *gin.Context) {
	filter := models.ActivityFilter{
		UpcomingOnly: c.Query("upcoming") == "true",
		Search:       c.Query("search"),
	}
	details, err := h.activities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Activities retrieved successfully", details)
}

// ListMine godoc
// @Summary List activities created by the caller
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activity/activities/my-activities/ [get]
func (h *ActivityHandler) ListMine(c *gin.Context) {
	details, err := h.activities.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Activities retrieved successfully", details)
}

// Get godoc
// @Summary Get one activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activity/activities/{id}/ [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	detail, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Activity retrieved successfully", detail)
}

// Update godoc
// @Summary Update an activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body service.UpdateActivityRequest true "Activity payload"
// @Success 200 {object} response.Envelope
// @Router /activity/activities/update/{id}/ [patch]
func (h *ActivityHandler) Update(c *gin.Context) {
	var req service.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.activities.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Activity updated successfully", detail)
}

// Delete godoc
// @Summary Delete an activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activity/activities/delete/{id}/ [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activities.Retire(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Activity deleted successfully", nil)
}

// Schedule godoc
// @Summary Upcoming activity schedule
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /activity/activities/schedule/ [get]
func (h *ActivityHandler) Schedule(c *gin.Context) {
	details, err := h.activities.Schedule(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Schedule retrieved successfully", details)
}
