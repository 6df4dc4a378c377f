package ws

import (
	"context"
	"encoding/json"
	"testing"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.register(c)

	hub.Notify(context.Background(), "user-1", "scan_success", map[string]any{"points": 1})

	select {
	case msg := <-c.send:
		var ev FeedEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Type != "notification" || ev.UserID != "user-1" || ev.Key != "scan_success" {
			t.Fatalf("event = %+v", ev)
		}
		if ev.At.IsZero() {
			t.Fatal("event timestamp not set")
		}
	default:
		t.Fatal("no message delivered to client")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, send: make(chan []byte)} // unbuffered, never read
	hub.register(slow)

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d; want 1", hub.ClientCount())
	}

	hub.Broadcast(FeedEvent{Type: "notification"})

	if hub.ClientCount() != 0 {
		t.Fatalf("ClientCount = %d; want 0 after dropping slow client", hub.ClientCount())
	}
}

func TestHubUnregisterIdempotent(t *testing.T) {
	hub := NewHub()
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register(c)
	hub.unregister(c)
	hub.unregister(c) // second call must not panic on a closed channel
}
