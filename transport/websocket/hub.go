package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// EventDatasetUpdated tells preview pages to reload their dataset.
const EventDatasetUpdated = "dataset_updated"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Preview pages are opened from file:// as often as from the server.
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	Key   string `json:"key"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client represents a WebSocket client watching one dataset
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	key  string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by dataset key
	watchers map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	count      chan countRequest

	// Closed when Run returns; sends to a stopped hub are dropped.
	done chan struct{}
}

type countRequest struct {
	key   string
	reply chan int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		watchers:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done, closing
// every client. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.count:
			req.reply <- len(h.watchers[req.key])

		case <-ctx.Done():
			for _, clients := range h.watchers {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to key
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, key string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
		key:  key,
	}

	select {
	case h.register <- client:
	case <-r.Context().Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastReload tells every client watching key that its dataset changed
func (h *Hub) BroadcastReload(key string) {
	h.send(&Message{Key: key, Event: EventDatasetUpdated})
}

// BroadcastEvent sends a custom event to every client watching key
func (h *Hub) BroadcastEvent(key, event string, data any) {
	h.send(&Message{Key: key, Event: event, Data: data})
}

func (h *Hub) send(m *Message) {
	select {
	case h.broadcast <- m:
	case <-h.done:
	}
}

// Watchers reports how many clients are subscribed to key. A stopped hub has
// none.
func (h *Hub) Watchers(key string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countRequest{key: key, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// registerClient adds a client to its key
func (h *Hub) registerClient(client *Client) {
	if h.watchers[client.key] == nil {
		h.watchers[client.key] = make(map[*Client]bool)
	}
	h.watchers[client.key][client] = true

	slog.Debug("websocket client registered", "key", client.key, "clients", len(h.watchers[client.key]))
}

// unregisterClient removes a client from its key
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.watchers[client.key]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.watchers, client.key)
	}

	slog.Debug("websocket client unregistered", "key", client.key, "clients", len(clients))
}

// broadcastMessage sends a message to all clients watching its key
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("failed to marshal broadcast message", "error", err)
		return
	}

	for client := range h.watchers[message.Key] {
		select {
		case client.send <- data:
		default:
			// Client's send buffer is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are processed
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read failed", "key", c.key, "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
