package game

func (e *Entity) updatePickableObject(w *World, dt float32) []WorldStateUpdate {
	e.Sprite.Update(dt)
	if w.CreativeMode() {
		return nil
	}
	if index, ok := w.IsAnyHeroAt(e.Tile()); ok {
		return e.pickUpSequence(index)
	}
	return nil
}

// pickUpSequence moves e into a player's inventory. The four effects are
// grouped in one Batch so they apply together or not at all.
func (e *Entity) pickUpSequence(playerIndex int) []WorldStateUpdate {
	var name string
	var icon *ToastIcon
	if s, ok := LookupSpecies(e.Species); ok {
		name = s.Name
		icon = &ToastIcon{SheetID: s.SheetID, Frame: s.Icon}
	}
	return []WorldStateUpdate{Batch{
		Owner: e.ID,
		Updates: []WorldStateUpdate{
			toEngine(AddToInventory{PlayerIndex: playerIndex, Species: e.Species, Reason: ReasonPickedUp}),
			RemoveEntity{ID: e.ID},
			toEngine(SaveGame{}),
			toEngine(ShowToast{Toast: Toast{
				Mode: ToastRegular,
				Key:  "toast.picked_up_item",
				Args: []string{name},
				Icon: icon,
			}}),
		},
	}}
}
