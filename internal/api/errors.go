package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/httputil"
	"github.com/sliea/antennadesk/internal/metrics"
	"github.com/sliea/antennadesk/internal/middleware"
	"github.com/sliea/antennadesk/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeForbidden       = "forbidden"
	ErrCodeValidationError = "validation_error"
	ErrCodeDomainError     = "domain_error"
	ErrCodeConflict        = "conflict"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a workflow error to its HTTP status by kind.
// Errors without a kind are logged and reported as 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, op string) {
	var kerr *models.KindError

	message := "internal server error"
	if errors.As(err, &kerr) {
		message = kerr.Message
	}

	switch {
	case errors.Is(err, models.ErrValidation):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, message)
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, message)
	case errors.Is(err, models.ErrDomain):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeDomainError, message)
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, ErrCodeConflict, message)
	default:
		middleware.Logger(c, log).WithError(err).Error(op)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
