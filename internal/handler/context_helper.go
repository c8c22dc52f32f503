package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/middleware"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

// claimsFromContext returns the authenticated caller's claims, or nil when
// the route ran without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
