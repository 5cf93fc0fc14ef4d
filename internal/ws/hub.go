package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stories-service/internal/models"
	"stories-service/internal/observability"
)

// Hub maintains active feed websocket connections keyed by user id. One user
// may hold several connections (multiple devices).
type Hub struct {
	feeds    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	// writeMu serializes writes per connection; gorilla/websocket allows at
	// most one concurrent writer on a Conn.
	writeMu map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		feeds:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
		writeMu:  make(map[*websocket.Conn]*sync.Mutex),
	}
}

// AddFeedClient registers a websocket connection for a user's feed.
func (h *Hub) AddFeedClient(userID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.feeds[userID]; !ok {
		h.feeds[userID] = make(map[*websocket.Conn]bool)
	}
	h.feeds[userID][conn] = true
	if _, ok := h.connInfo[userID]; !ok {
		h.connInfo[userID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[userID][conn] = info
	if _, ok := h.writeMu[conn]; !ok {
		h.writeMu[conn] = &sync.Mutex{}
	}
}

// RemoveFeedClient removes a feed websocket connection.
func (h *Hub) RemoveFeedClient(userID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.feeds[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.feeds, userID)
		}
	}
	if infos, ok := h.connInfo[userID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, userID)
		}
	}
	delete(h.writeMu, conn)
}

// BroadcastToUsers delivers a feed event to every open connection of each
// listed user. Delivery is best effort; failed connections are dropped.
func (h *Hub) BroadcastToUsers(userIDs []int, event models.FeedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("feed event marshal error: %v", err)
		return
	}

	for _, userID := range userIDs {
		h.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(h.feeds[userID]))
		locks := make([]*sync.Mutex, 0, len(h.feeds[userID]))
		for conn := range h.feeds[userID] {
			conns = append(conns, conn)
			locks = append(locks, h.writeMu[conn])
		}
		h.mu.RUnlock()

		for i, conn := range conns {
			if err := h.writeConn(conn, locks[i], payload); err != nil {
				log.Printf("websocket write error: %v", err)
				conn.Close()
				h.publishWSError(userID, conn, err)
				h.RemoveFeedClient(userID, conn)
			}
		}
	}
}

func (h *Hub) writeConn(conn *websocket.Conn, lock *sync.Mutex, payload []byte) error {
	if lock != nil {
		lock.Lock()
		defer lock.Unlock()
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Hub) publishWSError(userID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(userID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "feed",
			"resource_id": userID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), feedRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("feed", "ws_error")
}

func (h *Hub) getConnInfo(userID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[userID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}

const feedRoutingKey = "ws_events.feeds"
