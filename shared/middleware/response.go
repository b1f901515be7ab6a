package middleware

import (
	"net/http"

	"github.com/eaglebank/account-registry/shared/apperr"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    any                `json:"data,omitempty"`
	Changes any                `json:"changes,omitempty"`
	Details []apperr.Violation `json:"details,omitempty"`
}

func RespondWithSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, Response{Success: true, Message: message, Data: data})
}

func RespondWithChanges(c *gin.Context, message string, changes any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Changes: changes})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Success: false, Message: message})
}

func RespondWithValidationError(c *gin.Context, message string, violations []apperr.Violation) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: message,
		Details: violations,
	})
}

// StatusFor maps an outcome kind to its HTTP status. Unknown and forbidden
// ids are reported as bad requests.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindForbidden:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithFailure writes err using its apperr kind and message.
func RespondWithFailure(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		RespondWithError(c, http.StatusInternalServerError, "An unexpected error occurred while processing the request")
		return
	}
	if e.Kind == apperr.KindValidation {
		RespondWithValidationError(c, e.Message, e.Violations)
		return
	}
	RespondWithError(c, StatusFor(e.Kind), e.Message)
}
