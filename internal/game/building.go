package game

// updateBuilding opens the editor menu when a creative-mode player
// interacts with the building anywhere but its door.
func (e *Entity) updateBuilding(w *World) []WorldStateUpdate {
	if !w.CreativeMode() {
		return nil
	}
	for i := range w.players {
		hero, ok := w.PlayerProps(i)
		if !ok || !w.Input(i).Confirm {
			continue
		}
		if !e.isHeroInteracting(hero) || e.isAtDoor(hero) {
			continue
		}
		return []WorldStateUpdate{toEngine(ShowEntityOptions{Entity: e.Props(), Species: e.Species})}
	}
	return nil
}

// isHeroInteracting reports whether hero stands on the building or walks
// into it.
func (e *Entity) isHeroInteracting(hero EntityProps) bool {
	frame := e.HittableFrame()
	return hero.HittableFrame.Overlaps(frame) ||
		hero.HittableFrame.IsAroundAndPointedAt(frame, hero.Direction)
}

// isAtDoor reports whether hero stands below the bottom-center tile.
func (e *Entity) isAtDoor(hero EntityProps) bool {
	doorCol := int(e.Frame.X + e.Frame.W/2)
	doorRow := int(e.Frame.MaxY())
	col, row := hero.Tile()
	return col == doorCol && row == doorRow
}
