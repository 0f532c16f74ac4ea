package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bitscape/internal/config"
	"bitscape/internal/game"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Server is the HTTP API server with WebSocket support.
type Server struct {
	engine      *game.Engine
	cfg         config.ServerConfig
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	logger      *zap.Logger
}

// NewServer creates an API server for engine.
//
// Background workers and engine hooks are not installed until Start, so
// a constructed server can be exercised through Router with httptest.
func NewServer(engine *game.Engine, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		cfg:    cfg,
		wsHub:  NewWebSocketHub(cfg.AllowedOrigins, logger),
		logger: logger,
	}

	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	s.router = NewRouter(RouterConfig{
		Engine:         engine,
		RateLimiter:    s.rateLimiter,
		CORSOrigins:    cfg.AllowedOrigins,
		DisableLogging: !logger.Core().Enabled(zap.DebugLevel),
	})

	s.router.Get("/ws", s.wsHub.HandleWebSocket)
	s.wsHub.OnMessage(s.handleClientMessage)
	return s
}

// Start installs the engine hooks, starts the hub and serves HTTP. It
// blocks until the server stops and returns nil after Shutdown.
func (s *Server) Start() error {
	s.engine.Subscribe(s.wsHub.BroadcastUpdate)
	s.engine.OnTick(func(stats game.TickStats) {
		RecordTick(stats)
		if el, ok := s.engine.GetEventLogStats(); ok {
			UpdateEventLogStats(el)
		}
	})

	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, s.cfg.BroadcastHz)

	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("🌐 API server starting", zap.String("addr", s.cfg.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests and disconnects WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleClientMessage accepts "input" and "confirm" frames, mirroring the
// POST endpoints.
func (s *Server) handleClientMessage(msg Message) error {
	switch msg.Event {
	case "input":
		var req inputRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return fmt.Errorf("decode input: %w", err)
		}
		return s.engine.SetInput(req.Player, req.input())
	case "confirm":
		var req struct {
			Accept bool `json:"accept"`
		}
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return fmt.Errorf("decode confirm: %w", err)
		}
		s.engine.Confirm(req.Accept)
		return nil
	default:
		return fmt.Errorf("unknown event %q", msg.Event)
	}
}
