package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/auth"
	"github.com/sliea/antennadesk/internal/models"
)

// Gin context keys set by AuthMiddleware.
const (
	PrincipalKey   = "principal"
	PrincipalIDKey = "principal_id"
	RoleKey        = "role"
)

// TokenVerifier verifies a bearer token and returns its principal.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// AuthMiddleware returns Gin middleware that authenticates requests via a
// Bearer JWT and stores the principal in the context.
func AuthMiddleware(verifier TokenVerifier, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractBearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		p, err := verifier.Verify(token)
		if err != nil {
			logAuthFailure(log, c, err)
			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid token")

			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

// SetPrincipal stores an authenticated principal in the context.
func SetPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(PrincipalKey, p)
	c.Set(PrincipalIDKey, p.ID)
	c.Set(RoleKey, string(p.Role))
}

// GetPrincipal returns the principal set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return auth.Principal{}, false
	}

	p, ok := v.(auth.Principal)

	return p, ok
}

// RequireRole rejects principals without the given role with 403.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		if p.Role != role {
			respondError(c, http.StatusForbidden, "forbidden", "insufficient role")
			return
		}

		c.Next()
	}
}

// ExtractBearerToken extracts the token from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(header, "Bearer ")
}

// ExtractToken returns the bearer token, falling back to the "token" query
// parameter used by browser WebSocket clients that cannot set headers.
func ExtractToken(c *gin.Context) string {
	if token := ExtractBearerToken(c); token != "" {
		return token
	}

	return c.Query("token")
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, err error) {
	Logger(c, log).WithError(err).WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
	}).Warn("authentication failed")
}
