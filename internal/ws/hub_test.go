package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"stories-service/internal/models"
)

func TestHubAddAndRemoveFeedClient(t *testing.T) {
	hub := NewHub()

	hub.AddFeedClient(1, nil, ConnInfo{UserID: 1})
	if len(hub.feeds) != 1 {
		t.Fatalf("expected feed entry to be created")
	}
	if len(hub.writeMu) != 1 {
		t.Fatalf("expected write lock to be created")
	}

	hub.RemoveFeedClient(1, nil)
	if len(hub.feeds) != 0 {
		t.Fatalf("expected feed entry to be removed")
	}
	if len(hub.connInfo) != 0 {
		t.Fatalf("expected conn info to be removed")
	}
	if len(hub.writeMu) != 0 {
		t.Fatalf("expected write lock to be removed")
	}
}

// Broadcasts for the same user may run from several HTTP handlers at once; the
// hub must serialize writes so a connection never sees two concurrent writers.
func TestHubConcurrentBroadcastsToOneConnection(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.AddFeedClient(1, conn, ConnInfo{UserID: 1})
		close(registered)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection was not registered")
	}

	const broadcasters = 8
	var wg sync.WaitGroup
	for i := 0; i < broadcasters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastToUsers([]int{1}, models.FeedEvent{Type: "story_added"})
		}()
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < broadcasters; i++ {
		if _, _, err := client.ReadMessage(); err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
	}
	wg.Wait()
}

func TestHubBroadcastToUsersWithoutConnections(t *testing.T) {
	hub := NewHub()

	// No registered connections: broadcast must be a harmless no-op.
	hub.BroadcastToUsers([]int{1, 2, 3}, models.FeedEvent{Type: "story_added"})
}
