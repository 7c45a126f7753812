// Package notify pushes reprocess found events to connected websocket
// clients, one channel per user.
package notify

import (
	"sync"
	"time"

	"songhouse/logger"
	"songhouse/model"
	"songhouse/reprocess"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// FoundMessage is the wire form of a found event.
type FoundMessage struct {
	Type    string                          `json:"type"`
	UserID  int64                           `json:"userId"`
	Results map[int64]model.ReprocessResult `json:"results"`
}

// Hub tracks open connections per user and implements
// reprocess.FoundListener.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[int64]map[*websocket.Conn]struct{})}
}

// Register adds a user's connection.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
	logger.Debug("notify connection registered", logger.Int64("userId", userID))
}

// Unregister drops a user's connection.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// OnReprocessFound pushes the event to every open connection of the affected
// user. Dead connections are dropped.
func (h *Hub) OnReprocessFound(event reprocess.FoundEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns[event.UserID]))
	for conn := range h.conns[event.UserID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}
	message := FoundMessage{Type: "reprocess_found", UserID: event.UserID, Results: event.Results}
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(message); err != nil {
			logger.Warn("dropping dead notify connection",
				logger.Int64("userId", event.UserID),
				logger.ErrorField(err))
			h.Unregister(event.UserID, conn)
			conn.Close()
		}
	}
}
