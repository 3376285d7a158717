package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

// mockClient builds a Client with a send channel but no real connection.
func mockClient() *Client {
	return &Client{
		ID:   "test-client",
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient()
	c2 := mockClient()

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient()
	hub.Register(c)
	hub.Unregister(c)
	// Must not panic or double-close the channel.
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient()
	hub.Register(c)

	hub.Broadcast(NewMessage("task", "completed", 7))

	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "task_completed" || msg.Entity != "task" || msg.ID != 7 {
			t.Errorf("got %+v", msg)
		}
	default:
		t.Fatal("expected a buffered message")
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient()
	hub.Register(c)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(NewMessage("task", "updated", int64(i)))
	}
	// The buffer holds exactly sendBufferSize messages; the rest were
	// dropped without blocking.
	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
}
