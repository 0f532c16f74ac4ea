package game

import "bitscape/internal/game/spatial"

// updateBullet flies the bullet, stops it once its flight time runs out,
// and reports the first valid target on its current or previous tile.
//
// A stopped bullet lying on a hero's tile is picked up as ammo.
func (e *Entity) updateBullet(w *World, dt float32) []WorldStateUpdate {
	e.Sprite.Update(dt)
	if s, ok := LookupSpecies(e.Species); ok && s.Melee {
		return e.updateSlash(w, dt)
	}

	prevCol, prevRow := e.Tile()

	if e.isMoving() && dt > 0 {
		if !e.moveLinearly(w, dt) && e.isAtEdgeOfWorld(w, dt) {
			return []WorldStateUpdate{RemoveEntity{ID: e.ID}}
		}
		if e.Expires {
			e.RemainingLifespan -= dt
			if e.RemainingLifespan <= 0 {
				e.Expires = false
				e.CurrentSpeed = 0
			}
		}
	}

	if e.CurrentSpeed == 0 && !w.CreativeMode() {
		if index, ok := w.IsAnyHeroAt(e.Tile()); ok {
			return e.pickUpSequence(index)
		}
	}
	if e.CurrentSpeed == 0 || !e.Direction.IsMoving() {
		return nil
	}

	col, row := e.Tile()
	if target, ok := e.hitTargetAt(w, col, row); ok {
		return e.hit(target)
	}
	if prevCol != col || prevRow != row {
		if target, ok := e.hitTargetAt(w, prevCol, prevRow); ok {
			return e.hit(target)
		}
	}
	return nil
}

// updateSlash hits whatever stands on the slash's tile and removes the
// slash once its lifespan runs out.
func (e *Entity) updateSlash(w *World, dt float32) []WorldStateUpdate {
	e.RemainingLifespan -= dt
	if e.RemainingLifespan <= 0 {
		return []WorldStateUpdate{RemoveEntity{ID: e.ID}}
	}
	col, row := e.Tile()
	if target, ok := e.hitTargetAt(w, col, row); ok {
		return e.hit(target)
	}
	return nil
}

// isAtEdgeOfWorld reports whether the next step would leave the world.
func (e *Entity) isAtEdgeOfWorld(w *World, dt float32) bool {
	sim := w.Sim()
	delta := e.Direction.AsVector().Scale(e.CurrentSpeed * sim.BaseEntitySpeed * dt / sim.TileSize)
	return !w.Bounds().Contains(e.HittableFrame().OffsetBy(delta))
}

// hitTargetAt returns the first hittable occupant of a tile that is
// neither the bullet nor the entity that fired it.
func (e *Entity) hitTargetAt(w *World, col, row int) (EntityID, bool) {
	for _, occ := range w.OccupantsAt(col, row) {
		id := EntityID(occ.ID)
		if e.isValidHitTarget(id) && occ.Has(spatial.Hittable) {
			return id, true
		}
	}
	return 0, false
}

func (e *Entity) hit(target EntityID) []WorldStateUpdate {
	var damage float32
	if s, ok := LookupSpecies(e.Species); ok {
		damage = s.Damage
	}
	return []WorldStateUpdate{HandleHit{
		AttackerID: e.ParentID,
		BulletID:   e.ID,
		TargetID:   target,
		Damage:     damage,
	}}
}
