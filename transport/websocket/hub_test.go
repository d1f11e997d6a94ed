package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub.watchers == nil {
		t.Error("Hub watchers map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are not initialised")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, key: "game_icarus/olympus", send: make(chan []byte, 16)}

	hub.registerClient(client)

	if !hub.watchers["game_icarus/olympus"][client] {
		t.Error("Client was not registered under its key")
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, key: "game_icarus/olympus", send: make(chan []byte, 16)}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.watchers["game_icarus/olympus"]; exists {
		t.Error("Empty key should be removed")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub()
	watching := &Client{hub: hub, key: "game_icarus/olympus", send: make(chan []byte, 16)}
	other := &Client{hub: hub, key: "game_enshrouded/embervale", send: make(chan []byte, 16)}
	hub.registerClient(watching)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{Key: "game_icarus/olympus", Event: EventDatasetUpdated})

	select {
	case data := <-watching.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to decode message: %v", err)
		}
		if msg.Event != EventDatasetUpdated || msg.Key != "game_icarus/olympus" {
			t.Errorf("Unexpected message: %+v", msg)
		}
	default:
		t.Error("Expected watching client to receive the message")
	}

	if len(other.send) != 0 {
		t.Error("Client on another key should not receive the message")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, key: "k", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{Key: "k", Event: EventDatasetUpdated})

	if _, exists := hub.watchers["k"]; exists {
		t.Error("Slow client should have been dropped")
	}
}

func TestServeWSReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "game_enshrouded/embervale")
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Watchers("game_enshrouded/embervale") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Client was never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastReload("game_enshrouded/embervale")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	if msg.Event != EventDatasetUpdated {
		t.Errorf("Expected %s, got %s", EventDatasetUpdated, msg.Event)
	}
}

func TestHubStopped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Run to return after cancel")
	}

	finished := make(chan struct{})
	go func() {
		hub.BroadcastReload("game_icarus/olympus")
		hub.BroadcastEvent("game_icarus/olympus", "custom", nil)
		if n := hub.Watchers("game_icarus/olympus"); n != 0 {
			t.Errorf("Expected 0 watchers on a stopped hub, got %d", n)
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected hub calls to return after the hub stopped")
	}
}
