package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// ErrServerShutdown is returned by Watch when the server announces shutdown.
var ErrServerShutdown = errors.New("antennadesk: server shutting down")

// Event is a message received on the notification stream.
type Event struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	Time    time.Time       `json:"time"`
}

// Notification decodes the event payload.
func (e *Event) Notification() (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(e.Data, &n); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	return &n, nil
}

// WatchOptions selects the channel to join.
type WatchOptions struct {
	// PrincipalID must equal the token subject; the server ignores joins
	// for anyone else.
	PrincipalID string
	// Role is "admin" to join the staff channel, otherwise the client's
	// own channel is joined. The server only binds admins when the token
	// also carries the admin role; a user token asking for admin lands on
	// its own channel, which OnJoined reports.
	Role string
	// OnJoined is called with the channel name once the join is accepted.
	OnJoined func(channel string)
}

type joinMsg struct {
	Type        string `json:"type"`
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
}

// envelope covers every server message shape.
type envelope struct {
	Event
	Message string `json:"message"`
}

// Watch opens the notification stream, joins the requested channel and calls
// fn for every event until ctx is cancelled, the connection closes, or fn
// returns an error.
func (c *Client) Watch(ctx context.Context, opts WatchOptions, fn func(*Event) error) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.CloseNow() //nolint:errcheck // best-effort close

	join := joinMsg{Type: "join", PrincipalID: opts.PrincipalID, Role: opts.Role}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	for {
		var msg envelope
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case "joined":
			if opts.OnJoined != nil {
				opts.OnJoined(msg.Channel)
			}
		case "shutdown":
			return ErrServerShutdown
		default:
			if err := fn(&msg.Event); err != nil {
				conn.Close(websocket.StatusNormalClosure, "") //nolint:errcheck // best-effort
				return err
			}
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u := c.baseURL + "/api/v1/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{ //nolint:bodyclose // Dial owns the response body
		HTTPClient: c.httpClient,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return nil, &APIError{StatusCode: resp.StatusCode, Code: "handshake_failed", Message: err.Error()}
		}
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return conn, nil
}
