// Package hub implements the live-connection notification fan-out.
//
// The hub maintains a set of connected websocket clients and a room registry
// keyed by lowercased email address. Task lifecycle events are delivered
// best-effort, at most once, to every connected client (global broadcast) or
// to the members of a single room (targeted delivery for sharing). There is
// no persistence or replay: an offline recipient misses the event.
//
// The hub is an explicitly constructed dependency injected at startup. Any
// publish attempt before Run has started (or after it has stopped) fails with
// ErrNotRunning so a misconfigured process surfaces at the call site instead
// of silently dropping events.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ErrNotRunning is returned by publish and register operations when the hub
// event loop is not running. It indicates process-level misconfiguration, not
// a recoverable per-request condition.
var ErrNotRunning = errors.New("notification hub is not running")

// envelope is the wire format of every event frame.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// message is an outbound frame routed by the event loop. An empty room means
// global broadcast.
type message struct {
	room string
	data []byte
}

// join associates a client with a room.
type join struct {
	client *Client
	room   string
}

// Metrics receives hub activity counters. Implementations must be safe for
// concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	ClientConnected()
	ClientDisconnected()
	EventPublished(event string)
}

// Hub routes events to connected clients. All membership state is owned by
// the Run goroutine and mutated only through channels, so no locking is
// needed and join/leave are unordered with respect to broadcasts in flight.
type Hub struct {
	logger  *slog.Logger
	metrics Metrics

	register   chan *Client
	unregister chan *Client
	joins      chan join
	broadcasts chan message

	// clients is every live connection; rooms maps room name to members;
	// memberships is the reverse index used for disconnect cleanup.
	clients     map[*Client]struct{}
	rooms       map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}

	running atomic.Bool
	done    chan struct{}
}

// New creates a Hub. The hub does nothing until Run is called.
// If logger is nil, a default logger will be used.
func New(logger *slog.Logger, metrics Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		logger:      logger.With(slog.String("component", "hub")),
		metrics:     metrics,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		joins:       make(chan join),
		broadcasts:  make(chan message, 64),
		clients:     make(map[*Client]struct{}),
		rooms:       make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
		done:        make(chan struct{}),
	}
}

// Run executes the hub event loop until the context is canceled. It must be
// started exactly once, before any client connects or event is published.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	h.logger.Info("notification hub started")

	defer func() {
		h.running.Store(false)
		close(h.done)
		for c := range h.clients {
			close(c.send)
		}
		h.logger.Info("notification hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.metrics != nil {
				h.metrics.ClientConnected()
			}
			h.logger.Debug("client connected", slog.String("email", c.email))

		case c := <-h.unregister:
			h.drop(c)

		case j := <-h.joins:
			if _, ok := h.clients[j.client]; !ok {
				continue // already disconnected
			}
			if h.rooms[j.room] == nil {
				h.rooms[j.room] = make(map[*Client]struct{})
			}
			if h.memberships[j.client] == nil {
				h.memberships[j.client] = make(map[string]struct{})
			}
			// Re-joining a room is idempotent.
			h.rooms[j.room][j.client] = struct{}{}
			h.memberships[j.client][j.room] = struct{}{}
			h.logger.Debug("client joined room", slog.String("room", j.room))

		case m := <-h.broadcasts:
			h.deliver(m)
		}
	}
}

// Ready reports whether the hub event loop is running. The server checks
// this once at startup before accepting traffic.
func (h *Hub) Ready() bool {
	return h.running.Load()
}

// Register adds a client to the hub. Returns ErrNotRunning if the event loop
// has not started.
func (h *Hub) Register(c *Client) error {
	if !h.running.Load() {
		return ErrNotRunning
	}
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrNotRunning
	}
}

// Unregister removes a client from the hub and every room it joined. It is
// safe to call for a client the hub no longer tracks.
func (h *Hub) Unregister(c *Client) {
	if !h.running.Load() {
		return
	}
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Join adds the client to the named room. Rooms spring into existence on
// first join and re-joins are no-ops. Returns ErrNotRunning if the event
// loop has not started.
func (h *Hub) Join(c *Client, room string) error {
	if !h.running.Load() {
		return ErrNotRunning
	}
	select {
	case h.joins <- join{client: c, room: room}:
		return nil
	case <-h.done:
		return ErrNotRunning
	}
}

// BroadcastAll delivers the event to every currently connected client,
// regardless of room membership. Delivery is fire-and-forget: the call does
// not block on, or report, individual recipient failure.
func (h *Hub) BroadcastAll(event string, payload any) error {
	return h.publish("", event, payload)
}

// BroadcastToRoom delivers the event only to clients that joined the room.
func (h *Hub) BroadcastToRoom(room, event string, payload any) error {
	return h.publish(room, event, payload)
}

func (h *Hub) publish(room, event string, payload any) error {
	if !h.running.Load() {
		return ErrNotRunning
	}

	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	select {
	case h.broadcasts <- message{room: room, data: data}:
		if h.metrics != nil {
			h.metrics.EventPublished(event)
		}
		return nil
	case <-h.done:
		return ErrNotRunning
	}
}

// deliver fans the message out to its recipients. A client whose send buffer
// is full is dropped: slow consumers must not stall the loop, and at-most-once
// semantics permit the loss.
func (h *Hub) deliver(m message) {
	recipients := h.clients
	if m.room != "" {
		recipients = h.rooms[m.room]
	}

	for c := range recipients {
		select {
		case c.send <- m.data:
		default:
			h.logger.Warn("dropping slow client", slog.String("email", c.email))
			h.drop(c)
		}
	}
}

// drop removes the client from the hub and all rooms and closes its send
// channel. Safe to call for an unknown client.
func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	for room := range h.memberships[c] {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.memberships, c)
	close(c.send)

	if h.metrics != nil {
		h.metrics.ClientDisconnected()
	}
	h.logger.Debug("client disconnected", slog.String("email", c.email))
}
