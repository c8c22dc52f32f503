package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// UserHandler exposes user directory endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role"
// @Param active query bool false "Filter by active"
// @Param search query string false "Search name or phone"
// @Success 200 {object} response.Envelope
// @Router /users/ [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if active := c.Query("active"); active != "" {
		value := active == "true"
		filter.Active = &value
	}
	filter.Search = c.Query("search")

	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Users retrieved successfully", users)
}

// Get godoc
// @Summary Get one user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/ [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "User retrieved successfully", user)
}

// Update godoc
// @Summary Update a user profile
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /users/update/{id}/ [patch]
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.users.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "User updated successfully", user)
}

// Activate godoc
// @Summary Activate an account
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/activate/{id}/ [patch]
func (h *UserHandler) Activate(c *gin.Context) {
	if err := h.users.SetActive(c.Request.Context(), claimsFromContext(c), c.Param("id"), true); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "User activated successfully", nil)
}

// Deactivate godoc
// @Summary Deactivate an account
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/deactivate/{id}/ [patch]
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.users.SetActive(c.Request.Context(), claimsFromContext(c), c.Param("id"), false); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "User deactivated successfully", nil)
}

// Delete godoc
// @Summary Delete an account
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/delete/{id}/ [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "User deleted successfully", nil)
}
