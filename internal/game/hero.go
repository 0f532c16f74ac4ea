package game

import "bitscape/internal/geom"

const heroMaxHP = 100

// setupHero claims the player slot named by PlayerIndex.
func (e *Entity) setupHero(w *World) {
	if e.PlayerIndex < 0 || e.PlayerIndex >= len(w.players) {
		e.PlayerIndex = 0
	}
	w.players[e.PlayerIndex] = playerSlot{active: true, entityID: e.ID, props: e.Props()}
}

func (e *Entity) updateHero(w *World, dt float32) []WorldStateUpdate {
	sliding := w.IsSlippery(e.HittableFrame()) && e.CurrentSpeed > 0

	if sliding {
		e.Sprite.Reset()
	} else {
		e.updateDirectionFromInput(w, dt)
		e.updateHeroSprite(dt)
	}

	if e.ImmobilizedFor > 0 {
		e.ImmobilizedFor -= dt
	} else if moved := e.moveLinearly(w, dt); !moved && sliding {
		e.CurrentSpeed = 0
	}

	if e.HP < heroMaxHP {
		e.HP = min(heroMaxHP, e.HP+w.Sim().HeroRecoveryPerSecond*dt)
	}

	updates := []WorldStateUpdate{
		CacheHeroProps{PlayerIndex: e.PlayerIndex, Props: e.Props()},
		toEngine(CenterCamera{PlayerIndex: e.PlayerIndex, X: e.Frame.X, Y: e.Frame.Y, Offset: e.Offset}),
	}
	return append(updates, e.footprints(w)...)
}

func (e *Entity) updateHeroSprite(dt float32) {
	e.Sprite.SetRow(directionRow(e.Direction))
	if e.CurrentSpeed > 0 {
		e.Sprite.Update(dt)
	} else {
		e.Sprite.Reset()
		e.Sprite.SetRow(directionRow(e.Direction))
	}
}

// footprints leaves a trail on the tile the hero just left, compared
// against the props cached at the end of the previous tick.
func (e *Entity) footprints(w *World) []WorldStateUpdate {
	previous, ok := w.PlayerProps(e.PlayerIndex)
	if !ok {
		return nil
	}
	prevCol, prevRow := previous.Tile()
	col, row := e.Tile()
	if prevCol == col && prevRow == row {
		return nil
	}
	if !w.Biome(prevCol, prevRow).KeepsFootprints() {
		return nil
	}

	trail := mustMakeEntity(SpeciesFootprints)
	trail.Frame.X = float32(prevCol)
	trail.Frame.Y = float32(prevRow)
	trail.Direction = geom.DirectionBetween(
		geom.Vector2d{X: float32(prevCol), Y: float32(prevRow)},
		geom.Vector2d{X: float32(col), Y: float32(row)},
	)
	trail.Sprite.SetRow(directionRow(trail.Direction))
	return []WorldStateUpdate{AddEntity{Entity: trail}}
}
