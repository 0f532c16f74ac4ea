package game

func (e *Entity) setupPressurePlate(w *World) {
	e.showPlateState(w.IsPressurePlateDown(e.Lock))
}

// updatePressurePlate reports a press or release of its color, at most
// once per cooldown and only when the state actually changes.
func (e *Entity) updatePressurePlate(w *World, dt float32) []WorldStateUpdate {
	if e.Cooldown > 0 {
		e.Cooldown -= dt
		return nil
	}

	col, row := e.Tile()
	_, heroOnTile := w.IsAnyHeroAt(col, row)
	pressed := heroOnTile || w.HasWeightAt(col, row)
	down := w.IsPressurePlateDown(e.Lock)

	if pressed == down {
		return nil
	}

	e.Cooldown = w.Sim().PressurePlateCooldown
	e.showPlateState(pressed)
	cue := SoundPlateUp
	if pressed {
		cue = SoundPlateDown
	}
	return []WorldStateUpdate{
		SetPressurePlateState{Lock: e.Lock, Down: pressed},
		toEngine(PlaySound{Cue: cue}),
	}
}

// showPlateState picks the pressed or released sprite frame.
func (e *Entity) showPlateState(down bool) {
	e.Sprite.Frame.X = e.Sprite.OriginalFrame.X
	if down {
		e.Sprite.Frame.X++
	}
}
