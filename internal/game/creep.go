package game

import "bitscape/internal/game/spatial"

// deathDuration is how long a dying monster lingers before removal.
const deathDuration = 0.5

// creepTier is one step of the fusion ladder, keyed by the sprite's
// horizontal atlas offset.
type creepTier struct {
	SpriteX float32
	HP      float32
	Damage  float32
}

var creepTiers = [...]creepTier{
	{SpriteX: 28, HP: 100, Damage: 3},
	{SpriteX: 44, HP: 600, Damage: 4},
	{SpriteX: 24, HP: 1300, Damage: 5},
	{SpriteX: 32, HP: 2000, Damage: 6},
}

// nextCreepTier returns the tier a creep reaches after fusing. The last
// tier saturates; unknown offsets count as the first tier.
func nextCreepTier(spriteX float32) creepTier {
	for i, t := range creepTiers {
		if t.SpriteX == spriteX {
			return creepTiers[min(i+1, len(creepTiers)-1)]
		}
	}
	return creepTiers[1]
}

// currentCreepTier returns the tier matching the sprite, or the first.
func currentCreepTier(spriteX float32) creepTier {
	for _, t := range creepTiers {
		if t.SpriteX == spriteX {
			return t
		}
	}
	return creepTiers[0]
}

func (e *Entity) updateMonster(w *World, dt float32) []WorldStateUpdate {
	e.Sprite.Update(dt)
	if e.IsDying {
		return nil
	}

	col, row := e.Tile()
	e.move(w, dt)
	e.Sprite.SetRow(directionRow(e.Direction))

	var updates []WorldStateUpdate
	updates = append(updates, e.meleeAttack(w, dt)...)
	updates = append(updates, e.fuseWithOtherCreeps(w, col, row)...)
	return updates
}

// meleeAttack hurts a hero standing on the creep's tile.
func (e *Entity) meleeAttack(w *World, dt float32) []WorldStateUpdate {
	if e.Cooldown > 0 {
		e.Cooldown -= dt
		return nil
	}
	index, ok := w.IsAnyHeroAt(e.Tile())
	if !ok {
		return nil
	}
	target, _ := w.PlayerProps(index)
	if target.IsInvulnerable {
		return nil
	}
	if s, ok := LookupSpecies(e.Species); ok {
		e.Cooldown = s.Cooldown
	}
	damage := currentCreepTier(e.Sprite.OriginalFrame.X).Damage
	return []WorldStateUpdate{HandleHit{AttackerID: e.ID, TargetID: target.ID, Damage: damage}}
}

// fuseWithOtherCreeps lets the lowest-id live creep centered on a tile
// absorb every other creep centered there, climbing one tier per creep
// absorbed. The others do nothing, so each creep is absorbed exactly once.
// Centers are taken from the grid, i.e. from before anyone moved this tick.
func (e *Entity) fuseWithOtherCreeps(w *World, col, row int) []WorldStateUpdate {
	var absorbed []EntityID
	for _, occ := range w.OccupantsAt(col, row) {
		other := EntityID(occ.ID)
		if !e.isValidHitTarget(other) || !occ.Has(spatial.Creep) || !occ.CenteredOn(col, row) {
			continue
		}
		if other < e.ID {
			return nil
		}
		absorbed = append(absorbed, other)
	}
	if len(absorbed) == 0 {
		return nil
	}

	updates := make([]WorldStateUpdate, 0, len(absorbed))
	for _, other := range absorbed {
		tier := nextCreepTier(e.Sprite.OriginalFrame.X)
		e.Sprite.SetOriginX(tier.SpriteX)
		e.HP = tier.HP
		updates = append(updates, RemoveEntity{ID: other})
	}
	return updates
}

// isValidHitTarget rejects empty tiles, the entity itself and its owner.
func (e *Entity) isValidHitTarget(id EntityID) bool {
	return id != 0 && id != e.ID && id != e.ParentID
}
