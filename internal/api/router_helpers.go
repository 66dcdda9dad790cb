package api

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/auth"
	"github.com/sliea/antennadesk/internal/middleware"
	"github.com/sliea/antennadesk/internal/ws"
)

// upgradeWriter hands websocket.Accept a writer it can hijack. gin's own
// writer flushes the 101 on WriteHeader and then refuses to hijack, so the
// 101 goes to the underlying writer and gin only records the status. The
// hijack still goes through gin, which keeps it from writing afterwards.
type upgradeWriter struct {
	rw gin.ResponseWriter
}

func (w upgradeWriter) Header() http.Header { return w.rw.Header() }

func (w upgradeWriter) Write(b []byte) (int, error) { return w.rw.Write(b) }

func (w upgradeWriter) WriteHeader(code int) {
	w.rw.WriteHeader(code)

	if code != http.StatusSwitchingProtocols {
		return
	}

	if u, ok := w.rw.(interface{ Unwrap() http.ResponseWriter }); ok {
		u.Unwrap().WriteHeader(code)
	}
}

func (w upgradeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) { return w.rw.Hijack() }

// wsHandler verifies the token before upgrading, so unauthenticated
// handshakes are refused with 401 rather than accepted and closed.
func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string, verifier middleware.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := middleware.ExtractToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing token")

			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			log.WithError(err).WithField("client_ip", c.ClientIP()).Warn("websocket handshake rejected")
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid token")

			return
		}

		middleware.SetPrincipal(c, principal)

		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(upgradeWriter{rw: c.Writer}, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, ws.Principal{
			ID:        principal.ID,
			Role:      principal.Role,
			ExpiresAt: principal.ExpiresAt,
		})
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if pid := c.GetString(middleware.PrincipalIDKey); pid != "" {
			fields["principal_id"] = pid
		}
		middleware.Logger(c, log).WithFields(fields).Info("request")
	}
}

// principal returns the authenticated principal or aborts with 401.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}

	return p, ok
}

// authorizeClient allows admins and the client itself; others get 403.
func authorizeClient(c *gin.Context, p auth.Principal, clientID string) bool {
	if p.IsAdmin() || p.ID == clientID {
		return true
	}

	respondError(c, http.StatusForbidden, ErrCodeForbidden, "access to another client's data is not allowed")

	return false
}

// pathUUID reads a UUID path parameter, responding 400 if it is malformed.
func pathUUID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, name+" must be a valid uuid")

		return "", false
	}

	return id, true
}

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 1000

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}
