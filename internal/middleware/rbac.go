package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/response"
)

// SelfRole is a pseudo-role: a caller whose user id equals the :id path
// parameter passes even when their actual role is not in the allowed set.
const SelfRole = "SELF"

// RBAC restricts a route to the given roles.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if roleAllowed(claims, allowed, c.Param("id")) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a typed convenience wrapper around RBAC.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

func roleAllowed(claims *models.JWTClaims, allowed []string, targetID string) bool {
	for _, a := range allowed {
		if a == SelfRole {
			if targetID != "" && targetID == claims.UserID {
				return true
			}
			continue
		}
		if models.UserRole(a) == claims.Role {
			return true
		}
	}
	return false
}
