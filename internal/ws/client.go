package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/metrics"
	"github.com/sliea/antennadesk/internal/models"
)

const (
	writeTimeout     = 10 * time.Second
	wsReadLimit      = 4096
	clientSendBuffer = 256
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
	maxMissedPongs   = int32(2)
)

// Principal is the identity a connection was authenticated as.
type Principal struct {
	ID        string
	Role      models.Role
	ExpiresAt time.Time // zero means the token carries no expiry
}

// Client wraps a single WebSocket connection managed by the Hub.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	log         *logrus.Logger
	PrincipalID string
	Role        models.Role
	expiresAt   time.Time
	channel     string // owned by the hub Run goroutine
	closeOnce   sync.Once
	connectedAt time.Time
}

// closeSend safely closes the send channel exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewClient creates a new Client for an authenticated WebSocket connection.
// The client is not bound to any channel until it sends a join message.
func NewClient(hub *Hub, conn *websocket.Conn, p Principal) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, clientSendBuffer),
		log:         hub.log,
		PrincipalID: p.ID,
		Role:        p.Role,
		expiresAt:   p.ExpiresAt,
		connectedAt: time.Now(),
	}
}

// ReadPump reads messages from the WebSocket connection until it closes.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		_, msgBytes, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.log.WithField("status", websocket.CloseStatus(err)).Debug("client disconnected")
			}

			return
		}

		c.handleMessage(msgBytes)
	}
}

// handleMessage processes an incoming client message. Only join messages are
// understood; a join naming a principal other than the authenticated one is
// ignored without a reply.
//
// The admins channel needs the admin role in both the join and the token. A
// join asking for admin on a user-role token is not refused: it binds to the
// caller's own user_<id> channel, and the joined ack names that channel.
func (c *Client) handleMessage(msgBytes []byte) {
	var msg JoinMsg
	if err := json.Unmarshal(msgBytes, &msg); err != nil {
		return
	}

	if msg.Type != msgJoin {
		return
	}

	if msg.PrincipalID != c.PrincipalID {
		metrics.WSJoins.WithLabelValues("rejected").Inc()
		c.log.WithFields(logrus.Fields{
			"principal_id": c.PrincipalID,
			"requested":    msg.PrincipalID,
		}).Warn("ignoring join for another principal")

		return
	}

	channel := models.ClientChannel(c.PrincipalID)
	if models.Role(msg.Role) == models.RoleAdmin && c.Role == models.RoleAdmin {
		channel = models.AdminChannel
	}

	c.hub.Join(c, channel)
}

// sendPing sends a WebSocket ping and tracks missed pongs.
// Returns true if the connection should be closed.
func (c *Client) sendPing(ctx context.Context, missedPongs *atomic.Int32) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := c.conn.Ping(pingCtx)
	cancel()

	if err != nil {
		if missedPongs.Add(1) >= maxMissedPongs {
			c.log.Debug("closing: 2 consecutive missed pongs")

			return true
		}

		return false
	}

	missedPongs.Store(0)

	return false
}

// closeAt returns when the connection must be closed and why: the token
// expiry or the maximum lifetime, whichever comes first.
func (c *Client) closeAt() (time.Time, websocket.StatusCode, string) {
	deadline := c.connectedAt.Add(c.hub.MaxLifetime())
	if !c.expiresAt.IsZero() && c.expiresAt.Before(deadline) {
		return c.expiresAt, websocket.StatusPolicyViolation, "authentication expired"
	}

	return deadline, websocket.StatusNormalClosure, "max connection lifetime exceeded"
}

// WritePump writes messages from the send channel to the WebSocket connection.
// It closes the connection when the token expires or the lifetime is exceeded.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	deadline, status, reason := c.closeAt()

	closeTimer := time.NewTimer(time.Until(deadline))
	defer closeTimer.Stop()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	var missedPongs atomic.Int32

	for {
		select {
		case <-pingTicker.C:
			if c.sendPing(ctx, &missedPongs) {
				return
			}
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "") //nolint:errcheck // best-effort

				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)

			err := c.conn.Write(writeCtx, websocket.MessageText, msg)

			cancel()

			if err != nil {
				c.log.WithError(err).Debug("write failed")

				return
			}
		case <-closeTimer.C:
			c.log.WithField("principal_id", c.PrincipalID).Info("closing WebSocket: " + reason)
			c.conn.Close(status, reason) //nolint:errcheck // best-effort

			return
		}
	}
}
