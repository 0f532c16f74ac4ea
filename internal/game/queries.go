package game

import (
	"math"
	"slices"

	"bitscape/internal/config"
	"bitscape/internal/game/spatial"
	"bitscape/internal/geom"
)

// Read-only queries. Behaviors call these during the collection phase;
// they see the world as it was when the tick started.

func (w *World) ID() uint32                   { return w.id }
func (w *World) Bounds() geom.Rect            { return w.bounds }
func (w *World) Sim() *config.SimConfig       { return w.cfg }
func (w *World) CreativeMode() bool           { return w.creative }
func (w *World) TickCount() uint64            { return w.tick }
func (w *World) Len() int                     { return len(w.entities) }
func (w *World) GridStats() spatial.GridStats { return w.grid.Stats() }

// Exists reports whether id is in the world. Entities removed by an
// update collected this tick still exist until the apply phase.
func (w *World) Exists(id EntityID) bool {
	_, ok := w.index[id]
	return ok
}

// Props returns a snapshot of an entity.
func (w *World) Props(id EntityID) (EntityProps, bool) {
	if e, ok := w.index[id]; ok {
		return e.Props(), true
	}
	return EntityProps{}, false
}

// Entity returns a copy of an entity.
func (w *World) Entity(id EntityID) (*Entity, bool) {
	if e, ok := w.index[id]; ok {
		return e.Clone(), true
	}
	return nil, false
}

// ForEachEntity calls fn for every entity in iteration order until fn
// returns false. fn must not modify the entity.
func (w *World) ForEachEntity(fn func(e *Entity) bool) {
	for _, e := range w.entities {
		if !fn(e) {
			return
		}
	}
}

// VisibleIDs returns the ids updated during the last tick.
func (w *World) VisibleIDs() []EntityID {
	ids := make([]EntityID, len(w.visible))
	for i, e := range w.visible {
		ids[i] = e.ID
	}
	return ids
}

// VisibleEntities returns the ids of entities within viewport grown by
// one tile in every direction, clamped to the world, plus every hero.
func (w *World) VisibleEntities(viewport geom.Rect) []EntityID {
	visible := w.computeVisible(viewport)
	ids := make([]EntityID, len(visible))
	for i, e := range visible {
		ids[i] = e.ID
	}
	return ids
}

// =============================================================================
// PLAYERS
// =============================================================================

// Input returns the controls of a player for the current tick.
func (w *World) Input(playerIndex int) Input {
	if playerIndex < 0 || playerIndex >= len(w.input) {
		return Input{}
	}
	return w.input[playerIndex]
}

// PlayerProps returns the cached snapshot of a player's hero.
func (w *World) PlayerProps(playerIndex int) (EntityProps, bool) {
	if playerIndex < 0 || playerIndex >= len(w.players) || !w.players[playerIndex].active {
		return EntityProps{}, false
	}
	return w.players[playerIndex].props, true
}

// PlayerEntityID returns the hero id of a player.
func (w *World) PlayerEntityID(playerIndex int) (EntityID, bool) {
	if playerIndex < 0 || playerIndex >= len(w.players) || !w.players[playerIndex].active {
		return 0, false
	}
	return w.players[playerIndex].entityID, true
}

// PlayerIDs returns the hero ids of all active players.
func (w *World) PlayerIDs() []EntityID {
	var ids []EntityID
	for _, p := range w.players {
		if p.active {
			ids = append(ids, p.entityID)
		}
	}
	return ids
}

func (w *World) isPlayerEntity(id EntityID) bool {
	for _, p := range w.players {
		if p.active && p.entityID == id {
			return true
		}
	}
	return false
}

// IsHeroAt reports whether the first player's hero stands on a tile.
func (w *World) IsHeroAt(col, row int) bool {
	p, ok := w.PlayerProps(0)
	if !ok {
		return false
	}
	c, r := p.Tile()
	return c == col && r == row
}

// IsAnyHeroAt returns the lowest index of a player standing on a tile.
func (w *World) IsAnyHeroAt(col, row int) (int, bool) {
	for i, p := range w.players {
		if !p.active {
			continue
		}
		if c, r := p.props.Tile(); c == col && r == row {
			return i, true
		}
	}
	return 0, false
}

// Side picks a half of a row relative to an entity.
type Side uint8

const (
	SideLeft Side = iota
	SideRight
)

// NearestPlayerInRow finds the closest player on the given side of x
// whose hittable frame sits on row. Excluded ids are skipped.
func (w *World) NearestPlayerInRow(row int, x float32, side Side, exclude ...EntityID) (int, EntityProps, bool) {
	best, bestDist := -1, float32(math.MaxFloat32)
	var bestProps EntityProps
	for i, p := range w.players {
		if !p.active || slices.Contains(exclude, p.entityID) {
			continue
		}
		if _, r := p.props.Tile(); r != row {
			continue
		}
		px := p.props.HittableFrame.Center().X
		var dist float32
		switch side {
		case SideLeft:
			dist = x - px
		case SideRight:
			dist = px - x
		}
		if dist <= 0 || dist >= bestDist {
			continue
		}
		best, bestDist, bestProps = i, dist, p.props
	}
	return best, bestProps, best >= 0
}

// =============================================================================
// TILES AND OCCUPANCY
// =============================================================================

// OccupantAt returns the highest-priority entity on a tile, or 0.
func (w *World) OccupantAt(col, row int) EntityID {
	return EntityID(w.grid.Top(col, row))
}

// OccupantsAt returns every entity registered on a tile. The slice is
// owned by the world.
func (w *World) OccupantsAt(col, row int) []spatial.Occupant {
	return w.grid.At(col, row)
}

// HasWeightAt reports whether something heavy stands on a tile.
func (w *World) HasWeightAt(col, row int) bool {
	return w.grid.Any(col, row, spatial.Weighted)
}

// IDsInArea returns the distinct ids registered on the tiles area
// covers, minus exclude, in grid order.
func (w *World) IDsInArea(area geom.Rect, exclude ...EntityID) []EntityID {
	var ids []EntityID
	for _, occ := range w.grid.QueryArea(area) {
		id := EntityID(occ.ID)
		if slices.Contains(exclude, id) || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAreaBlocked reports whether a rigid entity not in exclude, or an
// obstacle tile, lies within area.
func (w *World) IsAreaBlocked(area geom.Rect, exclude ...EntityID) bool {
	if w.hasObstacleIn(area) {
		return true
	}
	return w.hasRigidIn(area, exclude...)
}

func (w *World) hasRigidIn(area geom.Rect, exclude ...EntityID) bool {
	for _, occ := range w.grid.QueryArea(area) {
		if occ.Has(spatial.Rigid) && !slices.Contains(exclude, EntityID(occ.ID)) {
			return true
		}
	}
	return false
}

func (w *World) hasObstacleIn(area geom.Rect) bool {
	if area.W <= 0 || area.H <= 0 {
		return false
	}
	minCol := int(math.Floor(float64(area.X)))
	minRow := int(math.Floor(float64(area.Y)))
	maxCol := int(math.Ceil(float64(area.MaxX()-1e-4))) - 1
	maxRow := int(math.Ceil(float64(area.MaxY()-1e-4))) - 1
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			if w.Biome(col, row).IsObstacle() {
				return true
			}
		}
	}
	return false
}

// Biome returns the terrain of a tile. Tiles outside the world are
// BiomeNothing.
func (w *World) Biome(col, row int) Biome {
	if !w.inBounds(col, row) {
		return BiomeNothing
	}
	return w.tiles[row*w.cols+col]
}

// IsObstacle reports whether a tile stops walkers.
func (w *World) IsObstacle(col, row int) bool {
	return w.Biome(col, row).IsObstacle()
}

// IsSlippery reports whether the tile under frame's center is slippery.
func (w *World) IsSlippery(frame geom.Rect) bool {
	return w.Biome(frame.Tile()).IsSlippery()
}

// =============================================================================
// PERSISTED STATE
// =============================================================================

// IsPressurePlateDown reports whether plates of a color are pressed.
func (w *World) IsPressurePlateDown(lock LockType) bool {
	if down, ok := w.plates[lock]; ok {
		return down
	}
	v, ok := w.store.Get(pressurePlateKey(lock))
	return ok && v == 1
}

// StoredValue reads a persisted flag.
func (w *World) StoredValue(key string) (int, bool) {
	return w.store.Get(key)
}

// InventoryCount returns how many units of an item a player holds.
func (w *World) InventoryCount(playerIndex int, species SpeciesID) int {
	return w.inventory.Count(playerIndex, species)
}
