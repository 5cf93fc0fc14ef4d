package ws

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"stories-service/internal/middleware"
	"stories-service/internal/observability"
)

// FeedWebSocketHandler attaches a viewer to the live feed stream. Connected
// clients receive story/note events from authors visible to them as they
// happen.
type FeedWebSocketHandler struct {
	hub    *Hub
	secret []byte
}

// NewFeedWebSocketHandler constructs a FeedWebSocketHandler.
func NewFeedWebSocketHandler(hub *Hub, secret []byte) *FeedWebSocketHandler {
	return &FeedWebSocketHandler{hub: hub, secret: secret}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client.
func (h *FeedWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("stories-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddFeedClient(userID, conn, info)

	observability.IncWSActive("feed")
	observability.IncWSEvent("feed", "ws_connect")
	_ = observability.PublishEvent(ctx, feedRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	// Keep connection alive and clean on close
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveFeedClient(userID, conn)
			observability.DecWSActive("feed")
			observability.IncWSEvent("feed", "ws_disconnect")
			_ = observability.PublishEvent(ctx, feedRoutingKey, observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("feed", "ws_error")
					_ = observability.PublishEvent(ctx, feedRoutingKey, observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsEventPayload("ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
		}
	}()
}

func (h *FeedWebSocketHandler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return middleware.ValidateToken(parts[1], h.secret)
	}
	return 0, fmt.Errorf("invalid token")
}

func wsEventPayload(event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "feed",
			"resource_id": info.UserID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
