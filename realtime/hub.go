// Package realtime pushes events to users connected over websockets.
package realtime

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by Push when the user has no open connection
var ErrNotConnected = errors.New("user is not connected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Envelope is the frame written for every event
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// conn serializes writes; a websocket connection allows one writer at a time
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// Hub tracks open connections per user. A user may hold several.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*conn]struct{}
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*conn]struct{})}
}

// Serve upgrades the request and keeps the connection registered for userID
// until the peer goes away
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "userID", userID, "error", err)
		return
	}
	c := &conn{ws: ws}
	h.add(userID, c)
	zap.S().Debugw("websocket connected", "userID", userID)

	defer func() {
		h.remove(userID, c)
		ws.Close()
		zap.S().Debugw("websocket disconnected", "userID", userID)
	}()
	for {
		if _, _, err := ws.NextReader(); err != nil {
			return
		}
	}
}

// Push writes an event to every connection of userID
func (h *Hub) Push(userID string, event string, data interface{}) error {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return ErrNotConnected
	}
	var firstErr error
	for _, c := range conns {
		if err := c.write(Envelope{Event: event, Data: data}); err != nil {
			h.remove(userID, c)
			c.ws.Close()
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Connected returns the number of open connections for userID
func (h *Hub) Connected(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) add(userID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*conn]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *Hub) remove(userID string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}
