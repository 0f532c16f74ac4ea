package game

import (
	"math"

	"go.uber.org/zap"

	"bitscape/internal/config"
	"bitscape/internal/game/spatial"
	"bitscape/internal/geom"
)

// Input is one player's controls for a single tick.
type Input struct {
	Direction   geom.Direction `json:"direction"`
	Attack      bool           `json:"attack"`
	CloseAttack bool           `json:"close_attack"`
	Confirm     bool           `json:"confirm"`
}

// playerSlot caches a player's hero between ticks.
type playerSlot struct {
	active   bool
	entityID EntityID
	props    EntityProps
}

// TickResult is what one call to Tick produced.
type TickResult struct {
	Tick     uint64
	Applied  []WorldStateUpdate
	Outbound []EngineStateUpdate
}

// World owns every entity of one map plus the indexes behaviors query.
//
// A World is not safe for concurrent use. Tick runs the two-phase
// protocol: every visible entity's behavior runs against the unmodified
// world, then the reducer applies all returned updates in order, then the
// hit-grid is rebuilt.
type World struct {
	id     uint32
	cfg    *config.SimConfig
	bounds geom.Rect
	cols   int
	rows   int

	entities []*Entity
	index    map[EntityID]*Entity
	nextID   EntityID
	visible  []*Entity

	grid      *spatial.HitGrid
	gridDirty bool
	tiles     []Biome

	players  [config.MaxPlayers]playerSlot
	creative bool
	plates   map[LockType]bool
	input    []Input

	store     KeyValueStore
	inventory InventoryReader
	logger    *zap.Logger
	tick      uint64
}

// WorldOption customizes NewWorld.
type WorldOption func(*World)

// WithLogger sets the logger used by the reducer.
func WithLogger(l *zap.Logger) WorldOption {
	return func(w *World) { w.logger = l }
}

// WithStore sets the persisted-flag store.
func WithStore(s KeyValueStore) WorldOption {
	return func(w *World) { w.store = s }
}

// WithInventory sets the source of inventory counts.
func WithInventory(inv InventoryReader) WorldOption {
	return func(w *World) { w.inventory = inv }
}

// WithSize overrides the world size from the configuration.
func WithSize(cols, rows int) WorldOption {
	return func(w *World) { w.cols, w.rows = cols, rows }
}

// NewWorld creates an empty world. cfg is read, never written.
func NewWorld(cfg *config.Config, id uint32, opts ...WorldOption) *World {
	w := &World{
		id:        id,
		cfg:       &cfg.Sim,
		cols:      cfg.Sim.WorldWidth,
		rows:      cfg.Sim.WorldHeight,
		index:     make(map[EntityID]*Entity),
		nextID:    1,
		plates:    make(map[LockType]bool),
		store:     NewMemoryStore(),
		inventory: emptyInventory{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.cols = max(w.cols, 1)
	w.rows = max(w.rows, 1)
	w.bounds = geom.NewRect(0, 0, float32(w.cols), float32(w.rows))
	w.tiles = make([]Biome, w.cols*w.rows)
	w.grid = spatial.NewHitGrid(w.cols, w.rows, w.cols*w.rows/4)
	return w
}

// AddEntity inserts e outside of a tick, for world construction and
// loading. It returns the id e was stored under.
func (w *World) AddEntity(e *Entity) EntityID {
	id := w.insert(e)
	w.gridDirty = true
	return id
}

// insert assigns an id when needed, stores e and runs its setup.
func (w *World) insert(e *Entity) EntityID {
	if e.ID == 0 || w.index[e.ID] != nil {
		e.ID = w.nextID
	}
	if e.ID >= w.nextID {
		w.nextID = e.ID + 1
	}
	w.entities = append(w.entities, e)
	w.index[e.ID] = e
	e.setup(w)
	return e.ID
}

// SetBiome changes a tile outside of a tick.
func (w *World) SetBiome(col, row int, b Biome) {
	if w.inBounds(col, row) {
		w.tiles[row*w.cols+col] = b
	}
}

// SetCreativeMode toggles editor mode. Hosts call it between ticks.
func (w *World) SetCreativeMode(enabled bool) {
	w.creative = enabled
}

// Tick advances the world by dt seconds. Negative or NaN deltas are
// treated as zero.
func (w *World) Tick(dt float32, viewport geom.Rect, input []Input) TickResult {
	if dt < 0 || math.IsNaN(float64(dt)) {
		dt = 0
	}
	if w.gridDirty {
		w.rebuildGrid()
	}
	w.input = input
	w.visible = w.computeVisible(viewport)

	// Phase 1: collect.
	var updates []WorldStateUpdate
	for _, e := range w.visible {
		updates = append(updates, e.Update(w, dt)...)
	}

	// Phase 2: apply.
	outbound := w.applyAll(updates)
	w.compact()
	w.rebuildGrid()

	w.tick++
	return TickResult{Tick: w.tick, Applied: updates, Outbound: outbound}
}

// rebuildGrid re-registers every occupying entity on the hit-grid.
func (w *World) rebuildGrid() {
	w.grid.Clear()
	for _, e := range w.entities {
		if occ, ok := occupantFor(e); ok {
			w.grid.Insert(occ, e.HittableFrame())
		}
	}
	w.gridDirty = false
}

// occupantFor decides whether and how e appears on the hit-grid.
func occupantFor(e *Entity) (spatial.Occupant, bool) {
	switch e.Kind {
	case KindBullet, KindEquipment, KindTrail, KindCutscene, KindPressurePlate:
		return spatial.Occupant{}, false
	}

	occ := spatial.Occupant{ID: uint32(e.ID), ParentID: uint32(e.ParentID), Priority: e.ZIndex}
	if e.IsRigid {
		occ.Flags |= spatial.Rigid
	}
	if s, ok := LookupSpecies(e.Species); ok && s.HasWeight && !e.IsDying {
		occ.Flags |= spatial.Weighted
	}
	if !e.IsDying && !e.IsInvulnerable && (e.Kind == KindHero || e.Kind == KindMonster) {
		occ.Flags |= spatial.Hittable
	}
	if e.Kind == KindMonster && !e.IsDying {
		occ.Flags |= spatial.Creep
	}
	return occ, true
}

// compact drops removed entities while keeping iteration order.
func (w *World) compact() {
	kept := w.entities[:0]
	for _, e := range w.entities {
		if w.index[e.ID] == e {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(w.entities); i++ {
		w.entities[i] = nil
	}
	w.entities = kept
}

// computeVisible returns entities overlapping the viewport grown by one
// tile, plus every hero.
func (w *World) computeVisible(viewport geom.Rect) []*Entity {
	area := viewport.Expanded(1).Intersection(w.bounds)
	visible := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		if e.Kind == KindHero || e.Frame.Overlaps(area) {
			visible = append(visible, e)
		}
	}
	return visible
}

func (w *World) inBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < w.cols && row < w.rows
}

// DetachHero takes a player's hero out of the world so it can be added to
// another one. It is a host operation and must not be called during Tick.
func (w *World) DetachHero(playerIndex int) (*Entity, bool) {
	id, ok := w.PlayerEntityID(playerIndex)
	if !ok {
		return nil, false
	}
	hero := w.index[id]
	w.players[playerIndex] = playerSlot{}
	delete(w.index, id)
	w.compact()
	w.gridDirty = true
	return hero, hero != nil
}

// DetachEquipment takes out every weapon carried by a player, so it can
// follow the hero to another world. Like DetachHero it must not be called
// during Tick.
func (w *World) DetachEquipment(playerIndex int) []*Entity {
	var carried []*Entity
	for _, e := range w.entities {
		if e.Kind == KindEquipment && e.PlayerIndex == playerIndex && w.index[e.ID] == e {
			carried = append(carried, e)
			delete(w.index, e.ID)
		}
	}
	if len(carried) > 0 {
		w.compact()
	}
	return carried
}

// PlaceHero moves a player's hero to a tile and stops it.
func (w *World) PlaceHero(playerIndex, col, row int, dir geom.Direction) bool {
	id, ok := w.PlayerEntityID(playerIndex)
	if !ok {
		return false
	}
	hero := w.index[id]
	if hero == nil {
		return false
	}
	hero.Frame.X = float32(col)
	hero.Frame.Y = float32(row)
	if dir.IsMoving() {
		hero.Direction = dir
	}
	hero.CurrentSpeed = 0
	hero.Offset = geom.Zero
	w.players[playerIndex].props = hero.Props()
	w.gridDirty = true
	return true
}
