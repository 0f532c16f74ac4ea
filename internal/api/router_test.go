package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bitscape/internal/api"
	"bitscape/internal/config"
	"bitscape/internal/game"
	"bitscape/internal/geom"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// MockEngine implements api.EngineInterface for testing
type MockEngine struct {
	mu        sync.Mutex
	inputs    map[int]game.Input
	creative  bool
	pending   []game.Confirmation
	answers   []bool
	inventory *game.Inventory
	snapshot  *game.GameSnapshot
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		inputs:    make(map[int]game.Input),
		inventory: game.NewInventory(),
		snapshot:  &game.GameSnapshot{TickNumber: 7, Lang: config.LangEnglish},
	}
}

func (m *MockEngine) GetSnapshot() *game.GameSnapshot {
	return m.snapshot
}

func (m *MockEngine) SetInput(playerIndex int, in game.Input) error {
	if playerIndex < 0 || playerIndex >= config.MaxPlayers {
		return game.ErrInvalidPlayer
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[playerIndex] = in
	return nil
}

func (m *MockEngine) SetCreativeMode(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creative = enabled
}

func (m *MockEngine) Confirm(accept bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return false
	}
	m.pending = m.pending[1:]
	m.answers = append(m.answers, accept)
	return true
}

func (m *MockEngine) PendingConfirmations() []game.Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]game.Confirmation(nil), m.pending...)
}

func (m *MockEngine) Inventory() *game.Inventory {
	return m.inventory
}

func (m *MockEngine) lastInput(playerIndex int) game.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[playerIndex]
}

func (m *MockEngine) isCreative() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creative
}

func (m *MockEngine) confirmAnswers() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.answers...)
}

func newTestServer(t *testing.T, engine api.EngineInterface) *httptest.Server {
	t.Helper()
	limiter := api.NewIPRateLimiter(api.RateLimitConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		CleanupInterval:   time.Hour,
	})
	t.Cleanup(limiter.Stop)

	ts := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Engine:         engine,
		RateLimiter:    limiter,
		DisableLogging: true,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ============================================================================
// API Endpoint Tests
// ============================================================================

func TestAPIHealth(t *testing.T) {
	ts := newTestServer(t, NewMockEngine())

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestAPIGetState(t *testing.T) {
	engine := NewMockEngine()
	engine.snapshot.Worlds = []game.WorldSnapshot{{ID: 1, Width: 10, Height: 10}}
	ts := newTestServer(t, engine)

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON content type, got %q", got)
	}
	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if snap.TickNumber != 7 || snap.Lang != config.LangEnglish {
		t.Errorf("Expected tick 7 in english, got %d %q", snap.TickNumber, snap.Lang)
	}
	if len(snap.Worlds) != 1 || snap.Worlds[0].Width != 10 {
		t.Errorf("Expected one 10-wide world, got %+v", snap.Worlds)
	}
}

func TestAPIInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"player":1,"direction":"down_left","attack":true}`, http.StatusOK},
		{"bad direction", `{"player":1,"direction":"sideways"}`, http.StatusBadRequest},
		{"bad player", `{"player":9,"direction":"up"}`, http.StatusBadRequest},
		{"malformed", `{"player":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewMockEngine()
			ts := newTestServer(t, engine)

			resp := postJSON(t, ts.URL+"/api/input", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}

	engine := NewMockEngine()
	ts := newTestServer(t, engine)
	postJSON(t, ts.URL+"/api/input", `{"player":2,"direction":"right","confirm":true,"close_attack":true}`)

	got := engine.lastInput(2)
	if got.Direction != geom.Right || !got.Confirm || !got.CloseAttack || got.Attack {
		t.Errorf("Expected right+confirm+close attack for player 2, got %+v", got)
	}
}

func TestAPICreative(t *testing.T) {
	engine := NewMockEngine()
	ts := newTestServer(t, engine)

	resp := postJSON(t, ts.URL+"/api/creative", `{"enabled":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if !engine.isCreative() {
		t.Error("Expected creative mode to be enabled")
	}
}

func TestAPIConfirm(t *testing.T) {
	engine := NewMockEngine()
	engine.pending = []game.Confirmation{{Title: "locked", Text: "use the key?"}}
	ts := newTestServer(t, engine)

	resp, err := http.Get(ts.URL + "/api/confirmations")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var listed []map[string]string
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed) != 1 || listed[0]["title"] != "locked" {
		t.Errorf("Expected the pending confirmation to be listed, got %v", listed)
	}

	if resp := postJSON(t, ts.URL+"/api/confirm", `{"accept":true}`); resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if answers := engine.confirmAnswers(); len(answers) != 1 || !answers[0] {
		t.Errorf("Expected one accepted answer, got %v", answers)
	}

	if resp := postJSON(t, ts.URL+"/api/confirm", `{"accept":true}`); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 with nothing pending, got %d", resp.StatusCode)
	}
}

func TestAPIInventory(t *testing.T) {
	engine := NewMockEngine()
	engine.inventory.Add(0, game.SpeciesCoin, 3)
	ts := newTestServer(t, engine)

	resp, err := http.Get(ts.URL + "/api/inventory/0")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		Player int              `json:"player"`
		Items  []game.ItemCount `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Species != game.SpeciesCoin || result.Items[0].Count != 3 {
		t.Errorf("Expected 3 coins, got %+v", result.Items)
	}

	for _, player := range []string{"4", "-1", "hero"} {
		resp, err := http.Get(ts.URL + "/api/inventory/" + player)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("player %q: expected 400, got %d", player, resp.StatusCode)
		}
	}
}

func TestAPIErrorBody(t *testing.T) {
	ts := newTestServer(t, NewMockEngine())

	resp := postJSON(t, ts.URL+"/api/creative", `nope`)
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	if !strings.Contains(body["error"], "Invalid") {
		t.Errorf("Expected an error message, got %v", body)
	}
}

// ============================================================================
// Rate Limiting Tests
// ============================================================================

func TestRateLimiting(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Engine: NewMockEngine(),
		RateLimitConfig: &api.RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	var limited int
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
			if resp.Header.Get("Retry-After") == "" {
				t.Error("Expected a Retry-After header")
			}
		}
	}
	if limited < 2 {
		t.Errorf("Expected at least 2 limited requests, got %d", limited)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.2"}, "10.0.0.1:5555", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "10.0.0.1:5555", "5.6.7.8"},
		{"bare remote", nil, "pipe", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := api.GetClientIP(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
