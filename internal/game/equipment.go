package game

import "bitscape/internal/geom"

// updateEquipment keeps a weapon glued to its hero and fires it on
// demand.
func (e *Entity) updateEquipment(w *World, dt float32) []WorldStateUpdate {
	hero, ok := w.PlayerProps(e.PlayerIndex)
	if !ok {
		return nil
	}
	s, ok := LookupSpecies(e.Species)
	if !ok {
		return nil
	}

	e.Frame.X = hero.Frame.X
	e.Frame.Y = hero.Frame.Y
	e.Direction = hero.Direction
	e.CurrentSpeed = hero.Speed
	e.ParentID = hero.ID
	e.Sprite.SetRow(directionRow(e.Direction))

	if s.RequiresAmmoToEquip {
		e.IsEquipped = w.InventoryCount(e.PlayerIndex, s.Ammo) > 0
	} else {
		e.IsEquipped = true
	}

	if e.Cooldown > 0 {
		e.Cooldown -= dt
		return nil
	}
	if s.Melee {
		return e.swing(w, hero, s)
	}
	if !e.IsEquipped || !w.Input(e.PlayerIndex).Attack {
		return nil
	}
	if s.Ammo != 0 && w.InventoryCount(e.PlayerIndex, s.Ammo) <= 0 {
		return []WorldStateUpdate{toEngine(PlaySound{Cue: SoundNoAmmo})}
	}

	e.Cooldown = s.Cooldown
	var updates []WorldStateUpdate
	if s.Ammo != 0 {
		updates = append(updates, toEngine(RemoveFromInventory{PlayerIndex: e.PlayerIndex, Species: s.Ammo}))
	}
	return append(updates,
		AddEntity{Entity: e.makeBullet(hero, s.Bullet)},
		toEngine(PlaySound{Cue: SoundKunaiThrown}),
	)
}

// swing fills the tiles in front of the hero with short-lived slashes.
func (e *Entity) swing(w *World, hero EntityProps, s Species) []WorldStateUpdate {
	if !e.IsEquipped || !w.Input(e.PlayerIndex).CloseAttack {
		return nil
	}
	e.Cooldown = s.Cooldown
	e.Sprite.Reset()

	var updates []WorldStateUpdate
	for _, offset := range slashOffsets(hero.Direction) {
		frame := hero.HittableFrame.OffsetBy(offset)
		if !w.Bounds().Contains(frame) {
			continue
		}
		slash := mustMakeEntity(s.Bullet)
		slash.Frame.X, slash.Frame.Y = frame.X, frame.Y
		slash.Direction = hero.Direction
		slash.ParentID = hero.ID
		slash.Sprite.SetRow(directionRow(hero.Direction))
		updates = append(updates, AddEntity{Entity: slash})
	}
	return append(updates, toEngine(PlaySound{Cue: SoundSwordSlash}))
}

// slashOffsets lists the tiles a swing covers, relative to the hero: the
// three tiles ahead plus the one beyond the middle. Diagonals swing to
// their horizontal side.
func slashOffsets(d geom.Direction) []geom.Vector2d {
	switch d {
	case geom.Up:
		return []geom.Vector2d{{X: -1, Y: -1}, {X: 0, Y: -2}, {X: 0, Y: -1}, {X: 1, Y: -1}}
	case geom.Right, geom.UpRight, geom.DownRight:
		return []geom.Vector2d{{X: 1, Y: -1}, {X: 2, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	case geom.Left, geom.UpLeft, geom.DownLeft:
		return []geom.Vector2d{{X: -1, Y: -1}, {X: -2, Y: 0}, {X: -1, Y: 0}, {X: -1, Y: 1}}
	}
	return []geom.Vector2d{{X: -1, Y: 1}, {X: 0, Y: 2}, {X: 0, Y: 1}, {X: 1, Y: 1}}
}

// makeBullet spawns a bullet on the hero's hittable tile, flying the way
// the hero faces and owned by the hero.
func (e *Entity) makeBullet(hero EntityProps, species SpeciesID) *Entity {
	bullet := mustMakeEntity(species)
	col, row := hero.Tile()
	bullet.Frame.X = float32(col)
	bullet.Frame.Y = float32(row)
	bullet.Direction = hero.Direction
	bullet.ParentID = hero.ID
	if s, ok := LookupSpecies(species); ok {
		bullet.CurrentSpeed = s.Speed
	}
	bullet.Sprite.SetRow(directionRow(bullet.Direction))
	return bullet
}
