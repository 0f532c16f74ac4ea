package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitscape/internal/config"
	"bitscape/internal/game"

	"github.com/gorilla/websocket"
)

const testOrigin = "http://game.test"

func startHub(t *testing.T) (*WebSocketHub, string) {
	t.Helper()
	hub := NewWebSocketHub([]string{testOrigin}, nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(ts.Close)
	return hub, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, hub *WebSocketHub, url string) *websocket.Conn {
	t.Helper()
	header := http.Header{"Origin": []string{testOrigin}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the client to register")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Invalid frame %s: %v", data, err)
	}
	return msg
}

func TestHubBroadcastsEnvelopes(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url)

	hub.Broadcast(EventState, map[string]int{"tick": 3})

	msg := readMessage(t, conn)
	if msg.Event != EventState {
		t.Errorf("Expected event %q, got %q", EventState, msg.Event)
	}
	if string(msg.Data) != `{"tick":3}` {
		t.Errorf("Expected data {\"tick\":3}, got %s", msg.Data)
	}
}

func TestHubForwardsEngineUpdates(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, hub, url)

	hub.BroadcastUpdate(game.Outbound{
		World:  2,
		Tick:   9,
		Update: game.ShowToast{Toast: game.Toast{Key: "toast.locked"}},
	})

	msg := readMessage(t, conn)
	if msg.Event != EventUpdate {
		t.Fatalf("Expected event %q, got %q", EventUpdate, msg.Event)
	}
	var got updateJSON
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("Invalid update data: %v", err)
	}
	if got.World != 2 || got.Tick != 9 || got.Update.Kind != game.UpdateToast {
		t.Errorf("Expected a toast from world 2 at tick 9, got %+v", got)
	}
	if !strings.Contains(string(got.Update.Data), "toast.locked") {
		t.Errorf("Expected the toast key in the payload, got %s", got.Update.Data)
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	_, url := startHub(t)

	header := http.Header{"Origin": []string{"http://elsewhere.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", resp)
	}
}

func TestHubLimitsConnectionsPerIP(t *testing.T) {
	hub, url := startHub(t)
	for i := 0; i < MaxWSConnectionsPerIP; i++ {
		if !hub.limiter.acquire("127.0.0.1") {
			t.Fatalf("Expected slot %d to be free", i)
		}
	}

	header := http.Header{"Origin": []string{testOrigin}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %v", resp)
	}
}

func TestHubDeliversClientMessages(t *testing.T) {
	hub := NewWebSocketHub([]string{testOrigin}, nil)
	received := make(chan Message, 1)
	hub.OnMessage(func(msg Message) error {
		received <- msg
		return nil
	})
	go hub.Run()
	t.Cleanup(hub.Stop)
	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(ts.Close)

	conn := dial(t, hub, "ws"+strings.TrimPrefix(ts.URL, "http"))
	conn.WriteMessage(websocket.TextMessage, []byte(`garbage`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"confirm","data":{"accept":true}}`))

	select {
	case msg := <-received:
		if msg.Event != "confirm" {
			t.Errorf("Expected confirm, got %q", msg.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the message")
	}
}

func TestServerClientMessages(t *testing.T) {
	engine := game.NewEngine(config.Default())
	s := NewServer(engine, config.DefaultServer(), nil)
	t.Cleanup(func() { s.rateLimiter.Stop() })

	tests := []struct {
		name    string
		msg     Message
		wantErr error
	}{
		{"input", Message{Event: "input", Data: json.RawMessage(`{"player":0,"direction":"up"}`)}, nil},
		{"bad player", Message{Event: "input", Data: json.RawMessage(`{"player":7}`)}, game.ErrInvalidPlayer},
		{"confirm", Message{Event: "confirm", Data: json.RawMessage(`{"accept":false}`)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.handleClientMessage(tt.msg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := s.handleClientMessage(Message{Event: "dance"}); err == nil {
		t.Error("Expected unknown events to be rejected")
	}
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"http://localhost:*", "https://play.example.com"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://localhost:", true},
		{"https://play.example.com", true},
		{"https://evil.example.com", false},
		{"http://127.0.0.1:3000", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := originAllowed(tt.origin, allowed); got != tt.want {
			t.Errorf("originAllowed(%q): expected %v, got %v", tt.origin, tt.want, got)
		}
	}
}
