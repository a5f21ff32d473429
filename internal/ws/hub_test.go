package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orderpulse/orderpulse/internal/engine"
	wsHub "github.com/orderpulse/orderpulse/internal/ws"
)

// --- helpers ----------------------------------------------------------------

func summary(id string) engine.PassSummary {
	return engine.PassSummary{
		PassID:      id,
		EvaluatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Records:     3,
		Confirmed:   3,
		Delivered:   2,
	}
}

// latestHolder is a concurrency-safe stand-in for engine.Last.
type latestHolder struct {
	mu  sync.Mutex
	sum *engine.PassSummary
}

func (l *latestHolder) set(s engine.PassSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sum = &s
}

func (l *latestHolder) get() *engine.PassSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sum
}

// startHub starts a test HTTP server with the hub as its handler.
// Returns the ws:// URL, the hub, and the cancel for the hub's Run loop.
func startHub(t *testing.T, latest *latestHolder) (wsURL string, hub *wsHub.Hub, cancel func()) {
	t.Helper()

	hub = wsHub.New(latest.get)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, cancelFn
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var m wsHub.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesLatestPass(t *testing.T) {
	latest := &latestHolder{}
	latest.set(summary("pass-1"))
	wsURL, _, _ := startHub(t, latest)

	conn := dial(t, wsURL)
	m := readMessage(t, conn)

	if m.Event != "pass" {
		t.Errorf("event: got %q, want pass", m.Event)
	}
	if m.Data.PassID != "pass-1" || m.Data.Records != 3 {
		t.Errorf("data: got %+v, want the latest summary", m.Data)
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	latest := &latestHolder{}
	wsURL, hub, _ := startHub(t, latest)

	conn := dial(t, wsURL)
	// No pass has run yet, so there is no on-connect push.
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(summary("pass-2"))
	m := readMessage(t, conn)
	if m.Data.PassID != "pass-2" {
		t.Errorf("pass_id: got %q, want pass-2", m.Data.PassID)
	}
}

func TestHub_AllClientsReceiveBroadcast(t *testing.T) {
	latest := &latestHolder{}
	wsURL, hub, _ := startHub(t, latest)

	conns := make([]*websocket.Conn, 3)
	for i := 0; i < 3; i++ {
		conns[i] = dial(t, wsURL)
	}
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(summary("pass-3"))
	for i, conn := range conns {
		m := readMessage(t, conn)
		if m.Data.PassID != "pass-3" {
			t.Errorf("client %d: pass_id got %q, want pass-3", i, m.Data.PassID)
		}
	}
}

func TestHub_CountClients(t *testing.T) {
	latest := &latestHolder{}
	latest.set(summary("pass-1"))
	wsURL, hub, _ := startHub(t, latest)

	conn := dial(t, wsURL)
	readMessage(t, conn) // consume on-connect push
	dial(t, wsURL)

	time.Sleep(10 * time.Millisecond)
	if n := hub.Count(); n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond) // let readPump detect the close
	if n := hub.Count(); n != 1 {
		t.Errorf("Count after disconnect: got %d, want 1", n)
	}
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	latest := &latestHolder{}
	wsURL, hub, cancel := startHub(t, latest)

	dial(t, wsURL)
	time.Sleep(10 * time.Millisecond)

	cancel()

	time.Sleep(50 * time.Millisecond)
	if n := hub.Count(); n != 0 {
		t.Errorf("Count after cancel: got %d, want 0", n)
	}
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	hub := wsHub.New(func() *engine.PassSummary { return nil })
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
