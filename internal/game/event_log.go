package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"bitscape/internal/config"
)

const (
	EventBufferSize      = 1024                   // Circular buffer size
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	SourceLimiterCleanup = 5 * time.Minute        // Cleanup interval for per-source limiters
)

// EventLog journals applied world updates as newline-delimited JSON.
//
// Emit is called from the tick goroutine only; a background writer drains
// the ring buffer to disk. Structural updates are never rate limited.
// Per-tick chatter tagged with a Source (hero props, camera) goes through
// a global and a per-source limiter so a busy world cannot flood the disk.
type EventLog struct {
	// Circular buffer (single producer, single consumer)
	buffer    [EventBufferSize]Event
	writeHead uint64 // atomic - next slot the producer fills
	readHead  uint64 // atomic - next slot the consumer reads

	globalLimiter  *rate.Limiter
	sourceLimit    rate.Limit
	sourceBurst    int
	sourceLimiters sync.Map // map[string]*sourceLimiterEntry

	// Async writer
	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
	sequence     uint64
}

type sourceLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// NewEventLog creates a journal using the configured rate limits.
func NewEventLog(cfg config.EventLogConfig) *EventLog {
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = int(cfg.RateLimit)
	}
	sourceRate := cfg.PlayerRate
	if sourceRate <= 0 {
		sourceRate = cfg.RateLimit
	}
	return &EventLog{
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), max(burst, 1)),
		sourceLimit:   rate.Limit(sourceRate),
		sourceBurst:   max(int(sourceRate/10), 1),
		stopChan:      make(chan struct{}),
	}
}

// Start opens the journal file and begins the async writer goroutine.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	return nil
}

// Stop flushes pending events and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// RecordTick journals every update applied during one tick.
func (el *EventLog) RecordTick(worldID uint32, result TickResult) {
	for _, u := range result.Applied {
		event, err := NewEvent(u, result.Tick, worldID)
		if err != nil {
			atomic.AddUint64(&el.droppedCount, 1)
			continue
		}
		el.Emit(event)
	}
}

// Emit queues an event. Returns false if it was rate limited or the
// buffer is full.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if event.Source != "" {
		if !el.globalLimiter.Allow() || !el.getSourceLimiter(event.Source).Allow() {
			atomic.AddUint64(&el.droppedCount, 1)
			return false
		}
	}

	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	if head-tail >= EventBufferSize {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.sequence++
	event.Sequence = el.sequence
	el.buffer[head%EventBufferSize] = event
	atomic.StoreUint64(&el.writeHead, head+1)

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

func (el *EventLog) getSourceLimiter(source string) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.sourceLimiters.Load(source); ok {
		e := entry.(*sourceLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &sourceLimiterEntry{limiter: rate.NewLimiter(el.sourceLimit, el.sourceBurst)}
	entry.lastUsed.Store(now)
	actual, _ := el.sourceLimiters.LoadOrStore(source, entry)
	return actual.(*sourceLimiterEntry).limiter
}

// writerLoop batches and writes events to disk asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop removes stale source limiters to prevent memory leak
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(SourceLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-SourceLimiterCleanup).UnixNano()
			el.sourceLimiters.Range(func(key, value any) bool {
				if value.(*sourceLimiterEntry).lastUsed.Load() < cutoff {
					el.sourceLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

// collectBatch reads available events from circular buffer
func (el *EventLog) collectBatch(batch []Event) []Event {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail; i < head && len(batch) < BatchFlushSize; i++ {
		batch = append(batch, el.buffer[i%EventBufferSize])
	}

	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

// flushBatch writes events to disk (append-only, newline-delimited JSON)
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(append(data, '\n'))
	}
}

// EventLogStats is a point-in-time view of the journal.
type EventLogStats struct {
	Total   uint64 `json:"total"`
	Dropped uint64 `json:"dropped"`
	Pending uint64 `json:"pending"`
	Running bool   `json:"running"`
}

// GetStats returns metrics for monitoring
func (el *EventLog) GetStats() EventLogStats {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	return EventLogStats{
		Total:   atomic.LoadUint64(&el.totalCount),
		Dropped: atomic.LoadUint64(&el.droppedCount),
		Pending: head - tail,
		Running: el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
