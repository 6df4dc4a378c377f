package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/logger"
)

// FeedEvent is one message on the live feed.
type FeedEvent struct {
	Type   string         `json:"type"`
	UserID string         `json:"user_id,omitempty"`
	Key    string         `json:"key,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	At     time.Time      `json:"at"`
}

// Hub fans accepted-scan and notification events out to connected feed
// clients (dashboards, kiosks). Slow clients are dropped rather than
// blocking the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(ev FeedEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("feed event marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	var stale []*Client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		logger.Warn("dropping slow feed client")
		h.unregister(c)
	}
}

// Notify implements service.Notifier so the hub can be wired as a
// notification sink.
func (h *Hub) Notify(_ context.Context, userID string, key domain.MessageKey, params map[string]any) {
	h.Broadcast(FeedEvent{
		Type:   "notification",
		UserID: userID,
		Key:    string(key),
		Params: params,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
