package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpellerin/tally/internal/agent"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", hub.Subscribers(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	hub.Publish(agent.Event{
		Type:        agent.EventInterruptRaised,
		Agent:       "emailing",
		Capability:  "send_email",
		InterruptID: "int-1",
		Content:     "send_email requires approval before execution",
		Timestamp:   time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Type != string(agent.EventInterruptRaised) {
		t.Errorf("type = %q, want interrupt_raised", frame.Type)
	}
	if frame.Agent != "emailing" || frame.Capability != "send_email" || frame.InterruptID != "int-1" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestHubReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	first := dial(t, server)
	defer first.Close()
	second := dial(t, server)
	defer second.Close()
	waitForSubscribers(t, hub, 2)

	hub.Publish(agent.Event{Type: agent.EventAnswer, Agent: "orchestrator", Content: "done"})

	for i, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("subscriber %d read failed: %v", i, err)
		}
		if !strings.Contains(string(data), `"answer"`) {
			t.Errorf("subscriber %d got %s", i, data)
		}
	}
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	conn := dial(t, server)
	waitForSubscribers(t, hub, 1)
	conn.Close()
	waitForSubscribers(t, hub, 0)

	// Publishing with no subscribers is a no-op, not a hang.
	hub.Publish(agent.Event{Type: agent.EventAnswer, Content: "nobody listening"})
}
