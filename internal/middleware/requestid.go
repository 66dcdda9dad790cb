package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader carries the request ID on responses.
	RequestIDHeader = "X-Request-ID"

	// LoggerKey holds the request-scoped log entry.
	LoggerKey = "log_entry"
)

// RequestID assigns every request a server-generated UUID and a log entry
// tagged with it. A caller-supplied X-Request-ID is kept only as the
// client_request_id log field.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		entry := log.WithField("request_id", id)

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			if len(clientID) > 128 {
				clientID = clientID[:128]
			}
			entry = entry.WithField("client_request_id", clientID)
		}

		c.Set(RequestIDKey, id)
		c.Set(LoggerKey, entry)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger returns the request-scoped entry, or one built from fallback when
// RequestID did not run.
func Logger(c *gin.Context, fallback *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(LoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}

	return logrus.NewEntry(fallback)
}
