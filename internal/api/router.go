package api

import (
	"net/http"
	"time"

	"bitscape/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// Keep this minimal so tests can mock it without a running tick loop.
type EngineInterface interface {
	// GetSnapshot returns the latest published snapshot. Handlers encode
	// it right away and never keep it.
	GetSnapshot() *game.GameSnapshot
	SetInput(playerIndex int, in game.Input) error
	SetCreativeMode(enabled bool)
	// Confirm answers the oldest pending confirmation.
	Confirm(accept bool) bool
	PendingConfirmations() []game.Confirmation
	Inventory() *game.Inventory
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine:          mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	    DisableLogging:  true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation host (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is created from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil. If both are
	// nil, DefaultRateLimitConfig applies.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins lists allowed origins. Nil allows localhost only.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine EngineInterface
}

var defaultOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter has no side effects besides the rate limiter's cleanup
// goroutine: no listeners are opened and no tick hooks are installed, so
// it is safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - order matters
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = defaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{engine: cfg.Engine}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/state", h.handleGetState)
		r.Get("/confirmations", h.handleGetConfirmations)
		r.Get("/inventory/{player}", h.handleGetInventory)

		r.Post("/input", h.handleInput)
		r.Post("/creative", h.handleCreative)
		r.Post("/confirm", h.handleConfirm)
	})

	return r
}

// requestMetrics records latency per route pattern, never per raw URL.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
