package game

import (
	"sync/atomic"
	"time"

	"bitscape/internal/config"
	"bitscape/internal/geom"
)

// SnapshotLimits caps how much a snapshot can hold.
type SnapshotLimits struct {
	MaxWorlds   int // Worlds with a hero in them
	MaxEntities int // Per world
}

// DefaultSnapshotLimits is sized for a handful of hand-made maps.
var DefaultSnapshotLimits = SnapshotLimits{
	MaxWorlds:   config.MaxPlayers,
	MaxEntities: 4096,
}

// EntitySnapshot is a value copy of an entity for clients.
type EntitySnapshot struct {
	ID        EntityID       `json:"id"`
	Species   SpeciesID      `json:"species_id"`
	Kind      EntityKind     `json:"kind"`
	Frame     geom.Rect      `json:"frame"`
	Offset    geom.Vector2d  `json:"offset"`
	Direction geom.Direction `json:"direction"`
	HP        float32        `json:"hp,omitempty"`
	ZIndex    int32          `json:"z_index"`
	SheetID   uint32         `json:"sheet_id"`
	Sprite    geom.Rect      `json:"sprite"`
	Lock      LockType       `json:"lock,omitempty"`
	IsDying   bool           `json:"is_dying,omitempty"`
}

// PlayerSnapshot describes one connected player.
type PlayerSnapshot struct {
	Index   int         `json:"index"`
	World   uint32      `json:"world"`
	Hero    EntityProps `json:"hero"`
	Camera  geom.Rect   `json:"camera"`
	Pending int         `json:"pending_confirmations,omitempty"`
}

// WorldSnapshot holds the visible entities of one world, in draw order.
type WorldSnapshot struct {
	ID       uint32           `json:"id"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Tick     uint64           `json:"tick"`
	Entities []EntitySnapshot `json:"entities"`
}

// GameSnapshot is a complete copy of the hosted state for clients.
// All slices are pre-allocated and capped.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`
	Lang       string    `json:"lang"`
	Creative   bool      `json:"creative"`

	Worlds  []WorldSnapshot  `json:"worlds"`
	Players []PlayerSnapshot `json:"players"`

	EntityCount int `json:"entity_count"`
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Uses triple buffering: the tick goroutine writes one slot while readers
// see the last published one. A reader must be done with a snapshot
// before the next tick publishes again.
type SnapshotPool struct {
	snapshots [3]GameSnapshot
	limits    SnapshotLimits
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated slices.
func NewSnapshotPool(limits SnapshotLimits) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}
	for i := range pool.snapshots {
		worlds := make([]WorldSnapshot, limits.MaxWorlds)
		for j := range worlds {
			worlds[j].Entities = make([]EntitySnapshot, 0, limits.MaxEntities)
		}
		pool.snapshots[i] = GameSnapshot{
			Worlds:  worlds[:0],
			Players: make([]PlayerSnapshot, 0, config.MaxPlayers),
		}
	}
	return pool
}

// AcquireWrite gets the next write slot (producer only, called from the
// tick). Slices are reset but keep their capacity.
func (p *SnapshotPool) AcquireWrite() *GameSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Worlds = snap.Worlds[:0]
	snap.Players = snap.Players[:0]
	snap.EntityCount = 0

	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// nextWorld appends a world slot, reusing a previously allocated entity
// slice when one is available. It returns nil at the world limit.
func (p *SnapshotPool) nextWorld(snap *GameSnapshot) *WorldSnapshot {
	if len(snap.Worlds) >= p.limits.MaxWorlds {
		return nil
	}
	snap.Worlds = snap.Worlds[:len(snap.Worlds)+1]
	ws := &snap.Worlds[len(snap.Worlds)-1]
	ws.Entities = ws.Entities[:0]
	return ws
}

// PublishWrite makes the last acquired slot visible to readers.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead gets the latest published snapshot.
func (p *SnapshotPool) AcquireRead() *GameSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// GetLimits returns the snapshot limits.
func (p *SnapshotPool) GetLimits() SnapshotLimits {
	return p.limits
}

func entitySnapshot(e *Entity) EntitySnapshot {
	return EntitySnapshot{
		ID:        e.ID,
		Species:   e.Species,
		Kind:      e.Kind,
		Frame:     e.Frame,
		Offset:    e.Offset,
		Direction: e.Direction,
		HP:        e.HP,
		ZIndex:    e.ZIndex,
		SheetID:   e.Sprite.SheetID,
		Sprite:    e.Sprite.Frame,
		Lock:      e.Lock,
		IsDying:   e.IsDying,
	}
}
