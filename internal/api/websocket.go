package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"bitscape/internal/game"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	clientSendBuffer = 64
	writeWait        = 5 * time.Second
	maxMessageSize   = 4096
)

// Events pushed to clients.
const (
	EventState  = "state"
	EventUpdate = "update"
)

// Message is the envelope for every WebSocket frame, in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// updateJSON is the data of an EventUpdate frame.
type updateJSON struct {
	World  uint32        `json:"world"`
	Tick   uint64        `json:"tick"`
	Update game.Envelope `json:"update"`
}

// MessageHandler handles a frame sent by a client.
type MessageHandler func(msg Message) error

type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan []byte
}

type wsFrame struct {
	event   string
	payload []byte
}

// WebSocketHub fans broadcasts out to every connected client. Each client
// has its own writer goroutine; a client that cannot keep up is dropped.
type WebSocketHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}

	broadcast  chan wsFrame
	register   chan *wsClient
	unregister chan *wsClient
	stopChan   chan struct{}
	stopOnce   sync.Once

	limiter   *connLimiter
	upgrader  websocket.Upgrader
	onMessage MessageHandler
	logger    *zap.Logger
}

// NewWebSocketHub creates a hub accepting the given origins. Nothing runs
// until Run is called.
func NewWebSocketHub(origins []string, logger *zap.Logger) *WebSocketHub {
	if origins == nil {
		origins = defaultOrigins
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &WebSocketHub{
		clients:    make(map[*wsClient]struct{}),
		broadcast:  make(chan wsFrame, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		stopChan:   make(chan struct{}),
		limiter:    newConnLimiter(MaxWSConnectionsPerIP),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if originAllowed(origin, origins) {
				return true
			}
			h.logger.Warn("⚠️ websocket origin rejected", zap.String("origin", origin))
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// OnMessage sets the handler for client frames. Set it before Run.
func (h *WebSocketHub) OnMessage(fn MessageHandler) {
	h.onMessage = fn
}

// Run dispatches registrations and broadcasts until Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("📱 client connected", zap.String("ip", c.ip), zap.Int("total", count))
			UpdateWSConnections(count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("📱 client disconnected", zap.Int("remaining", count))
			UpdateWSConnections(count)

		case frame := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- frame.payload:
				default:
					h.logger.Warn("⚠️ slow websocket client dropped", zap.String("ip", c.ip))
					h.drop(c)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)
			IncrementWSMessages(frame.event)
		}
	}
}

// drop forgets a client and closes its send channel. Caller holds h.mu.
func (h *WebSocketHub) drop(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
	h.limiter.release(c.ip)
}

// Stop disconnects every client and ends Run.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// Broadcast queues an {"event","data"} frame for every client. It never
// blocks: when the queue is full the frame is skipped.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Warn("⚠️ broadcast encode failed", zap.String("event", event), zap.Error(err))
		return
	}
	payload, err := json.Marshal(Message{Event: event, Data: raw})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- wsFrame{event: event, payload: payload}:
	default:
	}
}

// BroadcastUpdate forwards one engine update to clients.
func (h *WebSocketHub) BroadcastUpdate(o game.Outbound) {
	env, err := game.EncodeEngineUpdate(o.Update)
	if err != nil {
		h.logger.Warn("⚠️ update encode failed", zap.Stringer("kind", o.Update.Kind()), zap.Error(err))
		return
	}
	h.Broadcast(EventUpdate, updateJSON{World: o.World, Tick: o.Tick, Update: env})
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes the latest snapshot hz times per second while
// anyone is listening.
func (h *WebSocketHub) StartBroadcastLoop(engine EngineInterface, hz int) {
	if hz <= 0 {
		hz = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				h.Broadcast(EventState, engine.GetSnapshot())
			}
		}
	}()
}

// HandleWebSocket upgrades a connection with DoS protection.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		h.logger.Warn("⚠️ websocket rejected: total limit reached")
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.limiter.acquire(ip) {
		h.logger.Warn("⚠️ websocket rejected: per-IP limit reached", zap.String("ip", ip))
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		h.limiter.release(ip)
		return
	}

	c := &wsClient{conn: conn, ip: ip, send: make(chan []byte, clientSendBuffer)}
	select {
	case h.register <- c:
	case <-h.stopChan:
		conn.Close()
		h.limiter.release(ip)
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *WebSocketHub) writePump(c *wsClient) {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.stopChan:
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if h.onMessage == nil {
			continue
		}
		if err := h.onMessage(msg); err != nil {
			h.logger.Debug("websocket message rejected",
				zap.String("ip", c.ip), zap.String("event", msg.Event), zap.Error(err))
		}
	}
}
