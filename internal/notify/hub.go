// Package notify handles real-time delivery of evaluation outcomes.
//
// The Hub keeps WebSocket connections keyed by user id so that
// evaluation outcomes reach only their owner, plus a broadcast channel
// for global updates (price moves, reputation changes). Delivery is
// fire-and-forget: a user with no live connection simply misses the
// event and reads the persisted notification later.
package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event names on the wire.
const (
	EventPredictionResult = "prediction_result"
	EventReputationUpdate = "reputation:update"
	EventStockUpdate      = "stock:update"
)

// Channel is the realtime capability injected into the dispatcher.
// Implementations must never block the caller.
type Channel interface {
	// EmitToUser sends an event to one user's connections, if any.
	EmitToUser(userID, event string, payload any)

	// Broadcast sends an event to every connected client.
	Broadcast(event string, payload any)
}

// envelope is the JSON frame sent to clients.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// outbound is an internal queue item. An empty userID means broadcast.
type outbound struct {
	userID string
	data   []byte
}

type client struct {
	conn   *websocket.Conn
	userID string
}

// Hub manages WebSocket connections grouped by user id.
type Hub struct {
	clients    map[*websocket.Conn]string // conn → user id
	outbound   chan outbound
	register   chan client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]string),
		outbound:   make(chan outbound, 256),
		register:   make(chan client),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.conn] = c.userID
			total := len(h.clients)
			h.mu.Unlock()
			slog.Info("ws client connected", "user", c.userID, "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case msg := <-h.outbound:
			var dead []*websocket.Conn
			h.mu.RLock()
			for conn, uid := range h.clients {
				if msg.userID != "" && uid != msg.userID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					dead = append(dead, conn)
				}
			}
			h.mu.RUnlock()

			if len(dead) > 0 {
				h.mu.Lock()
				for _, conn := range dead {
					conn.Close()
					delete(h.clients, conn)
				}
				h.mu.Unlock()
			}
		}
	}
}

// EmitToUser sends an event to all of one user's connections.
func (h *Hub) EmitToUser(userID, event string, payload any) {
	h.enqueue(userID, event, payload)
}

// Broadcast sends an event to all connected clients.
func (h *Hub) Broadcast(event string, payload any) {
	h.enqueue("", event, payload)
}

func (h *Hub) enqueue(userID, event string, payload any) {
	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return
	}
	select {
	case h.outbound <- outbound{userID: userID, data: data}:
	default:
		// Drop if buffer full to avoid blocking the evaluation tick.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
// The user id comes from the user_id query parameter; authentication is
// the gateway collaborator's job.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- client{conn: conn, userID: userID}

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep connection alive through proxies.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
