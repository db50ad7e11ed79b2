package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prebook/internal/repository"
	"prebook/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidBookingType),
		errors.Is(err, service.ErrMissingPickup),
		errors.Is(err, service.ErrMissingScheduledTime),
		errors.Is(err, service.ErrMissingPointToPointFields),
		errors.Is(err, service.ErrMissingHours),
		errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrMissingPhone),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidCancelParty),
		errors.Is(err, service.ErrInvalidFeeSplit):
		return http.StatusBadRequest

	// Not enough money in the wallet
	case errors.Is(err, repository.ErrInsufficientBalance):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrRideBusy),
		errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrNotPassenger),
		errors.Is(err, service.ErrNotDriver),
		errors.Is(err, service.ErrNotAssignedDriver),
		errors.Is(err, service.ErrNotRideParty):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
