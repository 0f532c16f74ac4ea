package api

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"sync"
	"time"

	"bitscape/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics with bounded cardinality (no per-player or per-entity labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bitscape_tick_duration_seconds",
		Help:    "Time spent in one engine tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	activeWorlds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bitscape_active_worlds",
		Help: "Worlds ticked in the last step",
	})

	entityCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bitscape_entities",
		Help: "Entities across active worlds",
	})

	maxTileOccupancy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bitscape_max_tile_occupancy",
		Help: "Most entities registered on one tile in the last tick",
	})

	appliedUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bitscape_applied_updates_total",
		Help: "World state updates applied",
	})

	outboundUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bitscape_outbound_updates_total",
		Help: "Engine state updates forwarded by worlds",
	})

	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bitscape_event_log_total",
		Help: "Events journaled",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bitscape_event_log_dropped_total",
		Help: "Events dropped by rate limiting or a full buffer",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitscape_connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bitscape_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitscape_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bitscape_websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bitscape_websocket_messages_total",
		Help: "WebSocket messages broadcast",
	}, []string{"event"})
)

// NewDebugServer builds the internal observability server. It should
// bind to localhost only: pprof is an easy DoS vector.
func NewDebugServer(addr string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// StartDebugServer serves NewDebugServer(addr) in the background. An
// empty addr disables it and returns nil.
func StartDebugServer(addr string, logger *zap.Logger) *http.Server {
	if addr == "" {
		logger.Info("📊 debug server disabled")
		return nil
	}
	srv := NewDebugServer(addr)
	go func() {
		logger.Info("📊 debug server starting",
			zap.String("pprof", "http://"+addr+"/debug/pprof/"),
			zap.String("metrics", "http://"+addr+"/metrics"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("⚠️ debug server error", zap.Error(err))
		}
	}()
	return srv
}

// RecordTick records one engine tick.
func RecordTick(stats game.TickStats) {
	tickDuration.Observe(stats.Duration.Seconds())
	activeWorlds.Set(float64(stats.Worlds))
	entityCount.Set(float64(stats.Entities))
	maxTileOccupancy.Set(float64(stats.MaxTileOccupancy))
	appliedUpdates.Add(float64(stats.Applied))
	outboundUpdates.Add(float64(stats.Outbound))
}

// eventLogCounters remembers the last totals seen, since the journal
// reports absolute counts and Prometheus counters only go up.
var eventLogCounters struct {
	sync.Mutex
	total, dropped uint64
}

// UpdateEventLogStats feeds journal totals into the event log counters.
func UpdateEventLogStats(stats game.EventLogStats) {
	eventLogCounters.Lock()
	defer eventLogCounters.Unlock()

	if stats.Total > eventLogCounters.total {
		eventLogTotal.Add(float64(stats.Total - eventLogCounters.total))
		eventLogCounters.total = stats.Total
	}
	if stats.Dropped > eventLogCounters.dropped {
		eventLogDropped.Add(float64(stats.Dropped - eventLogCounters.dropped))
		eventLogCounters.dropped = stats.Dropped
	}
}

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics.
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one broadcast of event.
func IncrementWSMessages(event string) {
	wsMessagesTotal.WithLabelValues(event).Inc()
}
