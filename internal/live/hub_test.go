package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

func liveServer(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleLive))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(nil, logging.Default())
	defer hub.Close()
	url := liveServer(t, hub)

	conn := dial(t, url, nil)
	waitForClients(t, hub, 1)

	hub.Broadcast(conversations.Event{
		Type:           conversations.EventCallStarted,
		ClubID:         "club-1",
		ConversationID: "conv-1",
		CustomerID:     "cust-1",
		At:             time.Now().UTC(),
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event conversations.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != conversations.EventCallStarted {
		t.Fatalf("type = %q, want %q", event.Type, conversations.EventCallStarted)
	}
	if event.ClubID != "club-1" || event.ConversationID != "conv-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHubFansOutToAllClients(t *testing.T) {
	hub := NewHub(nil, logging.Default())
	defer hub.Close()
	url := liveServer(t, hub)

	first := dial(t, url, nil)
	second := dial(t, url, nil)
	waitForClients(t, hub, 2)

	hub.Broadcast(conversations.Event{Type: conversations.EventEscalated, ClubID: "club-1"})

	for i, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event conversations.Event
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		if event.Type != conversations.EventEscalated {
			t.Fatalf("client %d type = %q, want %q", i, event.Type, conversations.EventEscalated)
		}
	}
}

func TestHubRejectsDisallowedOrigin(t *testing.T) {
	hub := NewHub([]string{"https://dashboard.clubvoice.se"}, logging.Default())
	defer hub.Close()
	url := liveServer(t, hub)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %+v", resp)
	}
	if resp.Body != nil {
		resp.Body.Close()
	}
}

func TestHubAllowsListedOrigin(t *testing.T) {
	hub := NewHub([]string{"https://dashboard.clubvoice.se"}, logging.Default())
	defer hub.Close()
	url := liveServer(t, hub)

	header := http.Header{"Origin": []string{"https://dashboard.clubvoice.se"}}
	conn := dial(t, url, header)
	waitForClients(t, hub, 1)
	conn.Close()
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, logging.Default())
	url := liveServer(t, hub)

	conn := dial(t, url, nil)
	waitForClients(t, hub, 1)

	hub.Close()

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("clients after close = %d, want 0", got)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected read to fail after hub close")
	}
}

func TestHubRefusesClientsAfterClose(t *testing.T) {
	hub := NewHub(nil, logging.Default())
	url := liveServer(t, hub)

	hub.Close()

	conn := dial(t, url, nil)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to be dropped")
	}
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("clients = %d, want 0", got)
	}
}
