// Package network exposes rooms over WebSocket and HTTP.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/ShiftEngine/server/internal/events"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/logger"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/metrics"
	"github.com/MRamiBalles/ShiftEngine/server/internal/session"
)

// HubOptions sizes the hub's buffers. Zero fields take defaults.
type HubOptions struct {
	BroadcastBuffer      int
	ClientSendBuffer     int
	MaxMessagesPerSecond int

	Logger  *logger.Logger
	Metrics *metrics.Collector
}

// seat is the player a client plays as in a room.
type seat struct {
	roomID   string
	playerID string
}

// subscription moves client to a seat. Run answers on result, if set.
type subscription struct {
	client *Client
	seat   seat
	result chan bool
}

// delivery is one frame for a room, or for a single client when client is
// set.
type delivery struct {
	roomID string
	client *Client
	data   []byte
}

// Hub tracks connected clients, the room each one listens to and the player
// each one speaks for. A player id in a room belongs to at most one
// connected client.
type Hub struct {
	registry *session.Registry
	opts     HubOptions
	logger   *logger.Logger
	metrics  *metrics.Collector

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	outbound   chan delivery
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.RWMutex
	clients map[*Client]seat
	rooms   map[string]map[*Client]bool
	seats   map[seat]*Client
}

// NewHub creates a hub serving rooms from registry.
func NewHub(registry *session.Registry, opts HubOptions) *Hub {
	if opts.BroadcastBuffer < 1 {
		opts.BroadcastBuffer = 256
	}
	if opts.ClientSendBuffer < 1 {
		opts.ClientSendBuffer = 64
	}
	if opts.MaxMessagesPerSecond < 1 {
		opts.MaxMessagesPerSecond = 20
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Hub{
		registry:   registry,
		opts:       opts,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		outbound:   make(chan delivery, opts.BroadcastBuffer),
		done:       make(chan struct{}),
		clients:    make(map[*Client]seat),
		rooms:      make(map[string]map[*Client]bool),
		seats:      make(map[seat]*Client),
	}
}

// Run owns client bookkeeping until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer h.stop()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down")
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*Client]seat)
			h.rooms = make(map[string]map[*Client]bool)
			h.seats = make(map[seat]*Client)
			h.mu.Unlock()
			return nil

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = seat{}
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Infof("WebSocket client %s connected", c.id)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.metrics.RecordWSConnection(-1)
				h.logger.Infof("WebSocket client %s disconnected", c.id)
			}
			h.mu.Unlock()

		case s := <-h.subscribe:
			h.mu.Lock()
			ok := h.move(s.client, s.seat)
			h.mu.Unlock()
			if s.result != nil {
				s.result <- ok
			}

		case d := <-h.outbound:
			h.mu.Lock()
			if d.client != nil {
				if _, ok := h.clients[d.client]; ok {
					h.deliver(d.client, d.data)
				}
			} else {
				for c := range h.rooms[d.roomID] {
					h.deliver(c, d.data)
				}
			}
			h.mu.Unlock()
		}
	}
}

// deliver queues data for c and drops clients that cannot keep up.
// Must hold h.mu.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
		h.metrics.RecordWSMessage(false)
	default:
		h.logger.Warnf("WebSocket client %s is too slow, dropping it", c.id)
		h.drop(c)
		h.metrics.RecordWSConnection(-1)
	}
}

// move switches c to seat to. It refuses a seat held by another connected
// client. Must hold h.mu.
func (h *Hub) move(c *Client, to seat) bool {
	prev, ok := h.clients[c]
	if !ok {
		return false
	}
	if holder, taken := h.seats[to]; taken && holder != c {
		return false
	}
	h.vacate(c, prev)
	h.clients[c] = to
	if to.roomID == "" {
		return true
	}
	if h.rooms[to.roomID] == nil {
		h.rooms[to.roomID] = make(map[*Client]bool)
	}
	h.rooms[to.roomID][c] = true
	if to.playerID != "" {
		h.seats[to] = c
	}
	return true
}

// drop forgets c and closes its send channel. Must hold h.mu.
func (h *Hub) drop(c *Client) {
	h.vacate(c, h.clients[c])
	delete(h.clients, c)
	close(c.send)
}

// vacate releases s if c holds it. Must hold h.mu.
func (h *Hub) vacate(c *Client, s seat) {
	if h.seats[s] == c {
		delete(h.seats, s)
	}
	if s.roomID == "" {
		return
	}
	delete(h.rooms[s.roomID], c)
	if len(h.rooms[s.roomID]) == 0 {
		delete(h.rooms, s.roomID)
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// send hands a control request to Run. It reports false once the hub has
// stopped.
func send[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// Subscribers returns the number of clients listening to roomID.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Seated reports whether a connected client plays as playerID in roomID.
func (h *Hub) Seated(roomID, playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.seats[seat{roomID: roomID, playerID: playerID}]
	return ok
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a frame to every client in roomID.
func (h *Hub) Broadcast(roomID, msgType string, payload any) {
	data, err := json.Marshal(outbound{Type: msgType, RoomID: roomID, Payload: payload})
	if err != nil {
		h.logger.Errorf("Failed to encode %s for room %s: %v", msgType, roomID, err)
		return
	}
	send(h, h.outbound, delivery{roomID: roomID, data: data})
}

// Poll forwards new feed events to their rooms until ctx is done.
func (h *Hub) Poll(ctx context.Context, feed *events.EventLog, interval time.Duration) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.done:
			return nil
		case <-ticker.C:
			for _, e := range feed.Since(last) {
				last = e.Seq
				if e.RoomID == "" {
					continue
				}
				h.Broadcast(e.RoomID, string(e.Type), e.Payload)
			}
		}
	}
}
