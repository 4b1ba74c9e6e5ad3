package handlers

import (
	"errors"
	"net/http"

	"fuel-procurement-service/internal/engine"
	"fuel-procurement-service/internal/models"
	"fuel-procurement-service/internal/repository"
	"fuel-procurement-service/internal/services"

	"github.com/gin-gonic/gin"
)

// Error codes returned in models.ErrorResponse
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeStaleProposal     = "STALE_PROPOSAL"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConfiguration     = "CONFIGURATION_ERROR"
	CodeTransactionFailed = "TRANSACTION_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

var notFoundErrors = []error{
	repository.ErrNotFound,
	services.ErrDepotNotFound,
	services.ErrFuelTypeNotFound,
	services.ErrOrderNotFound,
	services.ErrCaseNotFound,
	services.ErrTankNotFound,
}

func isNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}

func validationError(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, CodeValidation, message)
}

// respondError maps a service error to its HTTP status and code. Unclassified errors
// from a mutating call are reported as TRANSACTION_FAILED since the change was rolled back.
func respondError(c *gin.Context, err error, mutating bool) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		abortWithError(c, http.StatusBadRequest, CodeValidation, err.Error())
	case isNotFound(err):
		abortWithError(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, services.ErrStaleProposal):
		abortWithError(c, http.StatusConflict, CodeStaleProposal, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		abortWithError(c, http.StatusConflict, CodeInvalidTransition, err.Error())
	case errors.Is(err, engine.ErrInvalidConfig):
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, CodeConfiguration, err.Error())
	case mutating:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, CodeTransactionFailed, "The change could not be saved and was rolled back")
	default:
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, CodeInternal, "An internal error occurred")
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: data})
}

func stringPtr(s string) *string {
	return &s
}
