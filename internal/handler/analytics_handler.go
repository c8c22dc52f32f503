package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// AnalyticsHandler exposes read-only aggregate endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Users godoc
// @Summary User directory analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/users/ [get]
func (h *AnalyticsHandler) Users(c *gin.Context) {
	result, err := h.analytics.Users(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "User analytics retrieved successfully", result)
}

// Activities godoc
// @Summary Activity directory analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/activities/ [get]
func (h *AnalyticsHandler) Activities(c *gin.Context) {
	result, err := h.analytics.Activities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Activity analytics retrieved successfully", result)
}

// Participations godoc
// @Summary Participation ledger analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/participations/ [get]
func (h *AnalyticsHandler) Participations(c *gin.Context) {
	result, err := h.analytics.Participations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Participation analytics retrieved successfully", result)
}

// Feedbacks godoc
// @Summary Feedback ledger analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/feedbacks/ [get]
func (h *AnalyticsHandler) Feedbacks(c *gin.Context) {
	result, err := h.analytics.Feedbacks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Feedback analytics retrieved successfully", result)
}

// Resources godoc
// @Summary Resource catalog analytics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/resources/ [get]
func (h *AnalyticsHandler) Resources(c *gin.Context) {
	result, err := h.analytics.Resources(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Resource analytics retrieved successfully", result)
}

// Overview godoc
// @Summary Combined system overview
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/overview/ [get]
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	result, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "System overview retrieved successfully", result)
}

// SystemMetrics godoc
// @Summary Runtime metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytic/system/ [get]
func (h *AnalyticsHandler) SystemMetrics(c *gin.Context) {
	response.JSON(c, http.StatusOK, "System metrics retrieved successfully", h.analytics.SystemMetrics())
}
