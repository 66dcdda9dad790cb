package ws

import (
	"encoding/json"
	"time"
)

// Message types exchanged with clients.
const (
	msgJoin     = "join"
	msgJoined   = "joined"
	msgShutdown = "shutdown"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	Time    time.Time       `json:"time"`
}

// JoinMsg asks the hub to bind the connection to a channel. PrincipalID must
// match the token subject the connection was opened with.
type JoinMsg struct {
	Type        string `json:"type"`
	PrincipalID string `json:"principal_id"`
	Role        string `json:"role"`
}

// JoinedMsg acknowledges an accepted join.
type JoinedMsg struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}
