package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// ResourceHandler exposes the resource catalog endpoints.
type ResourceHandler struct {
	resources *service.ResourceService
}

// NewResourceHandler constructs ResourceHandler.
func NewResourceHandler(resources *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// Create godoc
// @Summary Attach a resource to an activity
// @Tags Resources
// @Accept json
// @Produce json
// @Param payload body service.CreateResourceRequest true "Resource payload"
// @Success 201 {object} response.Envelope
// @Router /resources/create/ [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	var req service.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.resources.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Resource created successfully", detail)
}

// List godoc
// @Summary List resources
// @Tags Resources
// @Produce json
// @Param activity query string false "Filter by activity"
// @Param search query string false "Search resource or activity name"
// @Success 200 {object} response.Envelope
// @Router /resources/ [get]
func (h *ResourceHandler) List(c *gin.Context) {
	filter := models.ResourceFilter{
		ActivityID: c.Query("activity"),
		CreatedBy:  c.Query("created_by"),
		Search:     c.Query("search"),
	}
	details, err := h.resources.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Resources retrieved successfully", details)
}

// Get godoc
// @Summary Get one resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/ [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	detail, err := h.resources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Resource retrieved successfully", detail)
}

// Update godoc
// @Summary Update a resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param payload body service.UpdateResourceRequest true "Resource payload"
// @Success 200 {object} response.Envelope
// @Router /resources/update/{id}/ [patch]
func (h *ResourceHandler) Update(c *gin.Context) {
	var req service.UpdateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.resources.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Resource updated successfully", detail)
}

// Delete godoc
// @Summary Delete a resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/delete/{id}/ [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.resources.Retire(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Resource deleted successfully", nil)
}
