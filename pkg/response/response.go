package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// JSON sends a success response with the given message and payload.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  errorBody(appErr),
	})
}

// MultiStatus reports a partially validated bulk operation. Nothing has been
// persisted; errs enumerates each failing item.
func MultiStatus(c *gin.Context, message string, data interface{}, errs interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusMultiStatus, Envelope{Success: false, Message: message, Data: data, Errors: errs})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func errorBody(err *appErrors.Error) interface{} {
	if len(err.Fields) > 0 {
		return err.Fields
	}
	return gin.H{"detail": err.Message}
}
