package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sliea/antennadesk/internal/httputil"
	"github.com/sliea/antennadesk/internal/metrics"
)

// respondError counts the error and delegates to httputil.RespondError.
func respondError(c *gin.Context, code int, errCode, message string) {
	metrics.ErrorsTotal.WithLabelValues(errCode).Inc()
	httputil.RespondError(c, code, errCode, message)
}
