// Package ws implements the real-time notification hub: authenticated
// WebSocket clients bound to role-scoped channels.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// maxBroadcastPayload is the maximum encoded event size (16 KB).
const maxBroadcastPayload = 16 << 10

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// Emit errors.
var (
	ErrPayloadTooLarge = errors.New("event payload exceeds maximum size")
	ErrBroadcastFull   = errors.New("broadcast queue full")
	ErrHubStopped      = errors.New("hub stopped")
)

// Config bounds the connections a hub accepts.
type Config struct {
	MaxConnections  int
	MaxPerPrincipal int
	MaxLifetime     time.Duration
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{MaxConnections: 1000, MaxPerPrincipal: 10, MaxLifetime: 4 * time.Hour}
}

// channelBroadcast is sent through the broadcast channel to the Run goroutine,
// which stamps the sequence id and encodes it.
type channelBroadcast struct {
	evt Event
}

// joinRequest binds a registered client to a channel.
type joinRequest struct {
	client  *Client
	channel string
}

// memberQuery asks Run for the size of a channel.
type memberQuery struct {
	channel string
	reply   chan int
}

// Hub manages active WebSocket clients and fans events out to channels.
// All client and channel map mutations happen exclusively in the Run goroutine.
type Hub struct {
	clients        map[*Client]struct{}
	channels       map[string]map[*Client]struct{}
	principalCount map[string]int
	register       chan *Client
	unregister     chan *Client
	join           chan joinRequest
	broadcast      chan channelBroadcast
	query          chan memberQuery
	shutdown       chan struct{} // signals Run to begin graceful drain
	done           chan struct{} // closed when Run has finished draining
	shutdownOnce   sync.Once
	stopped        atomic.Bool
	count          atomic.Int64
	cfg            Config
	log            *logrus.Logger
	seq            map[string]uint64 // last event id per channel, owned by Run
}

// NewHub creates a new Hub instance.
func NewHub(cfg Config, log *logrus.Logger) *Hub {
	def := DefaultConfig()
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = def.MaxConnections
	}

	if cfg.MaxPerPrincipal <= 0 {
		cfg.MaxPerPrincipal = def.MaxPerPrincipal
	}

	if cfg.MaxLifetime <= 0 {
		cfg.MaxLifetime = def.MaxLifetime
	}

	return &Hub{
		clients:        make(map[*Client]struct{}),
		channels:       make(map[string]map[*Client]struct{}),
		principalCount: make(map[string]int),
		register:       make(chan *Client, registerBuffer),
		unregister:     make(chan *Client, registerBuffer),
		join:           make(chan joinRequest, registerBuffer),
		broadcast:      make(chan channelBroadcast, broadcastBuffer),
		query:          make(chan memberQuery),
		shutdown:       make(chan struct{}),
		done:           make(chan struct{}),
		cfg:            cfg,
		log:            log,
		seq:            make(map[string]uint64),
	}
}

// Run starts the hub event loop. It should be run as a goroutine.
// It exits when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) { //nolint:gocognit,cyclop // one case per hub operation.
	defer close(h.done)
	defer h.stopped.Store(true)

	for {
		select {
		case <-ctx.Done():
			h.stopped.Store(true)
			h.drainClients()

			return
		case <-h.shutdown:
			h.drainClients()

			return

		case client := <-h.register:
			if len(h.clients) >= h.cfg.MaxConnections {
				h.log.Warn("global connection limit reached, dropping client")
				client.closeSend()

				continue
			}

			if h.principalCount[client.PrincipalID] >= h.cfg.MaxPerPrincipal {
				h.log.WithField("principal_id", client.PrincipalID).Warn("per-principal connection limit reached, dropping client")
				client.closeSend()

				continue
			}

			h.clients[client] = struct{}{}
			h.principalCount[client.PrincipalID]++
			h.setCount()
			h.log.WithFields(logrus.Fields{
				"principal_id": client.PrincipalID,
				"total":        len(h.clients),
			}).Info("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.log.WithField("total", len(h.clients)).Info("client unregistered")
			}

		case req := <-h.join:
			h.bind(req.client, req.channel)

		case q := <-h.query:
			q.reply <- len(h.channels[q.channel])

		case b := <-h.broadcast:
			h.deliver(b.evt)
		}
	}
}

// deliver stamps evt with the channel's next sequence id and queues it for
// every member. Ids are only consumed when the channel has members.
func (h *Hub) deliver(evt Event) {
	members := h.channels[evt.Channel]
	if len(members) == 0 {
		return
	}

	h.seq[evt.Channel]++
	evt.ID = h.seq[evt.Channel]

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).WithField("channel", evt.Channel).Error("encoding event")

		return
	}

	for client := range members {
		select {
		case client.send <- msg:
		default:
			h.log.WithField("principal_id", client.PrincipalID).Warn("client send buffer full, disconnecting")
			h.remove(client)
		}
	}
}

// bind adds a registered, unbound client to a channel and acknowledges it.
func (h *Hub) bind(c *Client, channel string) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	if c.channel != "" {
		metrics.WSJoins.WithLabelValues("ignored").Inc()
		h.log.WithFields(logrus.Fields{
			"principal_id": c.PrincipalID,
			"channel":      c.channel,
		}).Debug("client already joined, ignoring join")

		return
	}

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[channel] = members
	}

	members[c] = struct{}{}
	c.channel = channel
	metrics.WSJoins.WithLabelValues("accepted").Inc()

	ack, err := json.Marshal(JoinedMsg{Type: msgJoined, Channel: channel})
	if err == nil {
		select {
		case c.send <- ack:
		default:
		}
	}

	h.log.WithFields(logrus.Fields{
		"principal_id": c.PrincipalID,
		"channel":      channel,
	}).Debug("client joined channel")
}

// remove drops a client from the hub and its channel and closes its send queue.
func (h *Hub) remove(c *Client) {
	delete(h.clients, c)

	if c.channel != "" {
		members := h.channels[c.channel]
		delete(members, c)

		if len(members) == 0 {
			delete(h.channels, c.channel)
			delete(h.seq, c.channel)
		}
	}

	h.principalCount[c.PrincipalID]--
	if h.principalCount[c.PrincipalID] <= 0 {
		delete(h.principalCount, c.PrincipalID)
	}

	c.closeSend()
	h.setCount()
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.WSConnections.Set(float64(len(h.clients)))
}

// EmitEvent delivers a typed event to every client bound to channel. A
// channel without members is a no-op. The Run goroutine assigns the
// sequence id and performs the sends, so ids reach each member in order;
// EmitEvent never blocks.
func (h *Hub) EmitEvent(channel, eventType string, data json.RawMessage) error {
	if h.stopped.Load() {
		return ErrHubStopped
	}

	evt := Event{
		Type:    eventType,
		Channel: channel,
		Data:    data,
		Time:    time.Now().UTC(),
	}

	// Size with the widest possible id so the stamped event fits too.
	sized := evt
	sized.ID = math.MaxUint64

	msg, err := json.Marshal(sized)
	if err != nil {
		return err
	}

	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"channel":      channel,
			"payload_size": len(msg),
			"max_size":     maxBroadcastPayload,
		}).Warn("dropping oversized event payload")

		return ErrPayloadTooLarge
	}

	select {
	case h.broadcast <- channelBroadcast{evt: evt}:
		return nil
	default:
		return ErrBroadcastFull
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		// Run loop already exited; client cleanup happened in Run shutdown.
	}
}

// Join asks the hub to bind c to channel. Callers must already have checked
// that the principal may join it.
func (h *Hub) Join(c *Client, channel string) {
	select {
	case h.join <- joinRequest{client: c, channel: channel}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// ChannelMembers returns the number of clients bound to channel.
func (h *Hub) ChannelMembers(channel string) int {
	q := memberQuery{channel: channel, reply: make(chan int, 1)}

	select {
	case h.query <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}

// MaxLifetime returns the longest a connection may stay open.
func (h *Hub) MaxLifetime() time.Duration {
	return h.cfg.MaxLifetime
}

// Shutdown initiates a graceful WebSocket drain: sends a shutdown frame to
// every connected client, waits for their write pumps to flush, then closes
// all connections. It blocks until drain is complete or the timeout expires.
func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.stopped.Store(true)
		close(h.shutdown)
	})
	<-h.done
}

// drainClients sends a shutdown message to every client and waits for buffers to flush.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	shutdownMsg := []byte(`{"type":"` + msgShutdown + `","message":"server shutting down"}`)
	for client := range h.clients {
		select {
		case client.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond) //nolint:mnd // poll interval
	defer ticker.Stop()

drain:
	for {
		allDrained := true

		for client := range h.clients {
			if len(client.send) > 0 {
				allDrained = false

				break
			}
		}

		if allDrained {
			break
		}

		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")

			break drain
		case <-ticker.C:
		}
	}

	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}

	h.channels = make(map[string]map[*Client]struct{})
	h.seq = make(map[string]uint64)
	h.principalCount = make(map[string]int)
	h.setCount()
}
