package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"bitscape/internal/config"
	"bitscape/internal/geom"
)

var (
	ErrInvalidPlayer  = errors.New("invalid player index")
	ErrDuplicateWorld = errors.New("world already hosted")
)

// maxPendingConfirmations bounds questions waiting for an answer.
const maxPendingConfirmations = 8

// Outbound is an engine update produced by a hosted world.
type Outbound struct {
	World  uint32
	Tick   uint64
	Update EngineStateUpdate
}

// TickStats describes one engine tick.
type TickStats struct {
	Tick     uint64
	Duration time.Duration
	Worlds   int
	Entities int
	Applied  int
	Outbound int

	// Most entities registered on a single tile of any ticked world.
	MaxTileOccupancy int
}

type pendingConfirmation struct {
	world uint32
	key   string
	c     Confirmation
}

// Engine hosts worlds and runs them at a fixed tick rate. It owns the
// player input, the cameras, the inventory and the persisted store, and
// interprets every EngineStateUpdate the worlds forward.
type Engine struct {
	mu     sync.RWMutex
	cfg    *config.Config
	worlds map[uint32]*World
	order  []uint32

	input    [config.MaxPlayers]Input
	cameras  [config.MaxPlayers]geom.Rect
	creative bool
	pending  []pendingConfirmation

	inventory *Inventory
	store     KeyValueStore
	snapshots *SnapshotPool
	eventLog  *EventLog

	logger *zap.Logger
	tracer trace.Tracer

	subscribers []func(Outbound)
	onTick      func(TickStats)

	running   bool
	ticker    *time.Ticker
	stopChan  chan struct{}
	tickCount uint64
}

// EngineOption customizes NewEngine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine logger. Worlds built through
// WorldOptions share it.
func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer used for tick spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// WithEngineStore sets the store behind persisted flags and inventory.
func WithEngineStore(s KeyValueStore) EngineOption {
	return func(e *Engine) { e.store = s }
}

// WithEventLog journals every applied world update.
func WithEventLog(el *EventLog) EngineOption {
	return func(e *Engine) { e.eventLog = el }
}

// NewEngine creates an engine with no worlds.
func NewEngine(cfg *config.Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:       cfg,
		worlds:    make(map[uint32]*World),
		inventory: NewInventory(),
		store:     NewMemoryStore(),
		snapshots: NewSnapshotPool(DefaultSnapshotLimits),
		logger:    zap.NewNop(),
		tracer:    noop.NewTracerProvider().Tracer("bitscape/game"),
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.inventory.Restore(e.store)
	return e
}

// WorldOptions returns the options a world needs to be hosted by e.
func (e *Engine) WorldOptions() []WorldOption {
	return []WorldOption{WithLogger(e.logger), WithStore(e.store), WithInventory(e.inventory)}
}

// AddWorld hosts w. A hero for a player already hosted in another world
// is dropped from w.
func (e *Engine) AddWorld(w *World) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.worlds[w.ID()]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateWorld, w.ID())
	}
	for i := 0; i < config.MaxPlayers; i++ {
		if _, ok := w.PlayerEntityID(i); !ok {
			continue
		}
		if _, hosted := e.playerWorld(i); hosted {
			w.DetachHero(i)
			e.logger.Debug("dropped duplicate hero", zap.Uint32("world", w.ID()), zap.Int("player", i))
		}
	}
	w.SetCreativeMode(e.creative)
	e.worlds[w.ID()] = w
	e.order = append(e.order, w.ID())
	sort.Slice(e.order, func(i, j int) bool { return e.order[i] < e.order[j] })
	return nil
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	interval := e.cfg.Sim.TickInterval()
	e.ticker = time.NewTicker(interval)
	e.mu.Unlock()

	dt := float32(interval.Seconds())
	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Step(dt)
			case <-e.stopChan:
				return
			}
		}
	}()

	e.logger.Info("🎮 engine started", zap.Int("tps", e.cfg.Sim.TickRate), zap.Int("worlds", len(e.order)))
}

// Stop stops the tick loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	e.logger.Info("🛑 engine stopped", zap.Uint64("ticks", e.tickCount))
}

// Running reports whether the tick loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Step ticks every world that holds a hero once, then publishes a
// snapshot. Subscribers and the tick hook run after the lock is released.
func (e *Engine) Step(dt float32) TickStats {
	_, span := e.tracer.Start(context.Background(), "engine.tick")
	defer span.End()

	e.mu.Lock()
	start := time.Now()
	e.tickCount++
	stats := TickStats{Tick: e.tickCount}

	var out []Outbound
	var teleports []Outbound
	for _, id := range e.order {
		w := e.worlds[id]
		if len(w.PlayerIDs()) == 0 {
			continue
		}
		result := w.Tick(dt, e.viewportFor(w), e.input[:])
		if e.eventLog != nil {
			e.eventLog.RecordTick(id, result)
		}

		stats.Worlds++
		stats.Entities += w.Len()
		stats.Applied += len(result.Applied)
		stats.Outbound += len(result.Outbound)
		stats.MaxTileOccupancy = max(stats.MaxTileOccupancy, w.GridStats().MaxInCell)

		for _, u := range result.Outbound {
			o := Outbound{World: id, Tick: result.Tick, Update: u}
			if _, ok := u.(Teleport); ok {
				teleports = append(teleports, o)
				continue
			}
			out = e.handleOutbound(o, out)
		}
	}
	for _, o := range teleports {
		out = e.handleOutbound(o, out)
	}

	// Confirm is a one-shot press.
	for i := range e.input {
		e.input[i].Confirm = false
	}

	e.produceSnapshot()
	stats.Duration = time.Since(start)
	subscribers, onTick := e.subscribers, e.onTick
	e.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("tick", int64(stats.Tick)),
		attribute.Int("worlds", stats.Worlds),
		attribute.Int("entities", stats.Entities),
		attribute.Int("applied", stats.Applied),
	)

	for _, o := range out {
		for _, fn := range subscribers {
			fn(o)
		}
	}
	if onTick != nil {
		onTick(stats)
	}
	return stats
}

// handleOutbound interprets one engine update and returns the list of
// updates to publish to subscribers. Caller holds e.mu.
func (e *Engine) handleOutbound(o Outbound, out []Outbound) []Outbound {
	switch u := o.Update.(type) {
	case CenterCamera:
		e.centerCamera(u)
		return out
	case AddToInventory:
		e.inventory.Add(u.PlayerIndex, u.Species, 1)
	case RemoveFromInventory:
		if !e.inventory.Remove(u.PlayerIndex, u.Species, 1) {
			e.logger.Warn("⚠️ inventory underflow", zap.Int("player", u.PlayerIndex), zap.Uint32("species", uint32(u.Species)))
		}
	case SaveGame:
		e.save()
	case Teleport:
		e.teleport(o.World, u)
	case Confirmation:
		if !e.queueConfirmation(o.World, u) {
			return out
		}
	case ShowToast, PlaySound, ShowEntityOptions, CombatResult:
	}
	return append(out, o)
}

func (e *Engine) centerCamera(c CenterCamera) {
	if c.PlayerIndex < 0 || c.PlayerIndex >= len(e.cameras) {
		return
	}
	hero, _ := LookupSpecies(SpeciesHero)
	e.cameras[c.PlayerIndex] = e.cameraAround(c.X+hero.Width/2, c.Y+hero.Height/2)
}

func (e *Engine) cameraAround(x, y float32) geom.Rect {
	w, h := e.cfg.Sim.ViewportWidth, e.cfg.Sim.ViewportHeight
	return geom.Rect{X: x - w/2, Y: y - h/2, W: w, H: h}
}

// viewportFor picks the camera of the lowest-index player in w.
func (e *Engine) viewportFor(w *World) geom.Rect {
	for i := range e.cameras {
		props, ok := w.PlayerProps(i)
		if !ok {
			continue
		}
		if e.cameras[i].W > 0 {
			return e.cameras[i]
		}
		c := props.Frame.Center()
		return e.cameraAround(c.X, c.Y)
	}
	return geom.Rect{}
}

func (e *Engine) playerWorld(playerIndex int) (*World, bool) {
	for _, id := range e.order {
		if _, ok := e.worlds[id].PlayerEntityID(playerIndex); ok {
			return e.worlds[id], true
		}
	}
	return nil, false
}

func (e *Engine) save() {
	if err := e.inventory.Save(e.store); err != nil {
		e.logger.Error("❌ save failed", zap.Error(err))
		return
	}
	if s, ok := e.store.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			e.logger.Error("❌ store sync failed", zap.Error(err))
			return
		}
	}
	e.logger.Debug("💾 game saved")
}

// teleport moves a hero inside its world or into another hosted world.
func (e *Engine) teleport(from uint32, t Teleport) {
	src, ok := e.worlds[from]
	if !ok {
		return
	}
	dst, ok := e.worlds[t.Destination.World]
	if !ok {
		e.logger.Warn("⚠️ teleport to unknown world", zap.Uint32("world", t.Destination.World))
		return
	}

	if dst != src {
		hero, ok := src.DetachHero(t.PlayerIndex)
		if !ok {
			return
		}
		hero.PlayerIndex = t.PlayerIndex
		heroID := dst.AddEntity(hero)
		for _, item := range src.DetachEquipment(t.PlayerIndex) {
			item.ParentID = heroID
			item.Frame.X, item.Frame.Y = hero.Frame.X, hero.Frame.Y
			dst.AddEntity(item)
		}
		e.cameras[t.PlayerIndex] = geom.Rect{}
	}
	dst.PlaceHero(t.PlayerIndex, t.Destination.X, t.Destination.Y, t.Destination.Direction)
	e.logger.Info("🌀 teleported",
		zap.Int("player", t.PlayerIndex),
		zap.Uint32("from", from),
		zap.Uint32("to", t.Destination.World))
}

// queueConfirmation stores a question until the player answers it.
// Identical questions already waiting are not queued twice.
func (e *Engine) queueConfirmation(world uint32, c Confirmation) bool {
	data, err := json.Marshal(c)
	if err != nil {
		e.logger.Warn("⚠️ dropping confirmation", zap.Error(err))
		return false
	}
	key := string(data)
	for _, p := range e.pending {
		if p.world == world && p.key == key {
			return false
		}
	}
	if len(e.pending) >= maxPendingConfirmations {
		return false
	}
	e.pending = append(e.pending, pendingConfirmation{world: world, key: key, c: c})
	return true
}

// Confirm answers the oldest pending confirmation. Accepting applies its
// follow-up updates to the world that asked. It returns false when
// nothing was pending.
func (e *Engine) Confirm(accept bool) bool {
	e.mu.Lock()
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return false
	}
	p := e.pending[0]
	e.pending = e.pending[1:]

	var out []Outbound
	w, ok := e.worlds[p.world]
	if accept && ok {
		result := TickResult{Tick: w.TickCount(), Applied: p.c.OnConfirm}
		result.Outbound = w.Apply(p.c.OnConfirm...)
		if e.eventLog != nil {
			e.eventLog.RecordTick(p.world, result)
		}
		for _, u := range result.Outbound {
			out = e.handleOutbound(Outbound{World: p.world, Tick: result.Tick, Update: u}, out)
		}
	}
	subscribers := e.subscribers
	e.mu.Unlock()

	for _, o := range out {
		for _, fn := range subscribers {
			fn(o)
		}
	}
	return true
}

// PendingConfirmations lists questions waiting for an answer.
func (e *Engine) PendingConfirmations() []Confirmation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Confirmation, len(e.pending))
	for i, p := range e.pending {
		out[i] = p.c
	}
	return out
}

// SetInput replaces a player's controls. They stay in effect until
// replaced; Confirm is consumed by the next tick.
func (e *Engine) SetInput(playerIndex int, in Input) error {
	if playerIndex < 0 || playerIndex >= config.MaxPlayers {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, playerIndex)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.input[playerIndex] = in
	return nil
}

// SetCreativeMode toggles editor mode in every hosted world.
func (e *Engine) SetCreativeMode(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.creative = enabled
	for _, w := range e.worlds {
		w.SetCreativeMode(enabled)
	}
	e.logger.Info("🛠️ creative mode", zap.Bool("enabled", enabled))
}

// Subscribe registers fn for every outbound update except camera moves.
// fn runs on the tick goroutine and must not block.
func (e *Engine) Subscribe(fn func(Outbound)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// OnTick sets a hook called after every tick.
func (e *Engine) OnTick(fn func(TickStats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// Inventory returns the shared inventory.
func (e *Engine) Inventory() *Inventory {
	return e.inventory
}

// TickCount returns the number of engine ticks so far.
func (e *Engine) TickCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tickCount
}

// WorldIDs lists hosted worlds.
func (e *Engine) WorldIDs() []uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]uint32(nil), e.order...)
}

// PlayerWorld returns the id of the world holding a player's hero.
func (e *Engine) PlayerWorld(playerIndex int) (uint32, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.playerWorld(playerIndex)
	if !ok {
		return 0, false
	}
	return w.ID(), true
}

// GetSnapshot returns the latest published snapshot. It must not be held
// across ticks.
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshots.AcquireRead()
}

// GetEventLogStats returns journal statistics, if a journal is attached.
func (e *Engine) GetEventLogStats() (EventLogStats, bool) {
	if e.eventLog == nil {
		return EventLogStats{}, false
	}
	return e.eventLog.GetStats(), true
}

// produceSnapshot copies every world with a hero into the next snapshot
// slot. Caller holds e.mu.
func (e *Engine) produceSnapshot() {
	snap := e.snapshots.AcquireWrite()
	snap.TickNumber = e.tickCount
	snap.Lang = e.cfg.Sim.Lang
	snap.Creative = e.creative

	limit := e.snapshots.GetLimits().MaxEntities
	for _, id := range e.order {
		w := e.worlds[id]
		if len(w.PlayerIDs()) == 0 {
			continue
		}
		ws := e.snapshots.nextWorld(snap)
		if ws == nil {
			break
		}
		ws.ID, ws.Width, ws.Height, ws.Tick = id, w.cols, w.rows, w.TickCount()

		area := e.viewportFor(w).Expanded(1)
		w.ForEachEntity(func(ent *Entity) bool {
			if len(ws.Entities) >= limit {
				return false
			}
			if ent.Kind == KindHero || ent.Frame.Overlaps(area) {
				ws.Entities = append(ws.Entities, entitySnapshot(ent))
			}
			return true
		})
		sort.SliceStable(ws.Entities, func(i, j int) bool {
			a, b := ws.Entities[i], ws.Entities[j]
			if a.ZIndex != b.ZIndex {
				return a.ZIndex < b.ZIndex
			}
			if a.Frame.MaxY() != b.Frame.MaxY() {
				return a.Frame.MaxY() < b.Frame.MaxY()
			}
			return a.Frame.X < b.Frame.X
		})
		snap.EntityCount += len(ws.Entities)

		for i := 0; i < config.MaxPlayers; i++ {
			props, ok := w.PlayerProps(i)
			if !ok {
				continue
			}
			snap.Players = append(snap.Players, PlayerSnapshot{
				Index:   i,
				World:   id,
				Hero:    props,
				Camera:  e.cameras[i],
				Pending: len(e.pending),
			})
		}
	}
	sort.Slice(snap.Players, func(i, j int) bool { return snap.Players[i].Index < snap.Players[j].Index })

	e.snapshots.PublishWrite()
}
