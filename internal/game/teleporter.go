package game

import (
	"strings"

	"bitscape/internal/geom"
)

func (e *Entity) updateTeleporter(w *World) []WorldStateUpdate {
	e.IsRigid = e.Lock != LockNone && !w.CreativeMode()

	index, ok := e.playerWalkingInto(w)
	if !ok {
		return nil
	}

	if e.Lock != LockNone && !w.CreativeMode() {
		if key, hasKey := e.Lock.Key(); hasKey && w.InventoryCount(index, key) > 0 {
			return []WorldStateUpdate{e.unlockConfirmation(index, key)}
		}
		return []WorldStateUpdate{toEngine(ShowToast{Toast: e.lockedToast()})}
	}
	if e.Destination == nil {
		return nil
	}
	return []WorldStateUpdate{
		toEngine(Teleport{PlayerIndex: index, Destination: *e.Destination}),
		toEngine(PlaySound{Cue: SoundTeleport}),
		StopHeroMovement{PlayerIndex: index},
	}
}

// playerWalkingInto finds a moving player on a tile next to the teleporter
// and facing it. Standing still next to it does nothing.
func (e *Entity) playerWalkingInto(w *World) (int, bool) {
	col, row := e.Tile()
	for i := range w.players {
		p, ok := w.PlayerProps(i)
		if !ok || p.Speed <= 0 {
			continue
		}
		pc, pr := p.Tile()
		switch p.Direction {
		case geom.Up:
			if pc == col && pr == row+1 {
				return i, true
			}
		case geom.Down:
			if pc == col && pr == row-1 {
				return i, true
			}
		case geom.Right:
			if pc == col-1 && pr == row {
				return i, true
			}
		case geom.Left:
			if pc == col+1 && pr == row {
				return i, true
			}
		}
	}
	return 0, false
}

func (e *Entity) lockedToast() Toast {
	if e.Lock == LockPermanent {
		return Toast{Mode: ToastRegular, Key: "teleporter.locked.permanent"}
	}
	return Toast{Mode: ToastRegular, Key: "teleporter.locked", Args: []string{strings.ToUpper(e.Lock.String())}}
}

// unlockConfirmation offers to spend a key. Accepting removes the lock
// for good.
func (e *Entity) unlockConfirmation(playerIndex int, key SpeciesID) WorldStateUpdate {
	return toEngine(Confirmation{
		Title: "teleporter.unlock.title",
		Text:  "teleporter.unlock.message",
		OnConfirm: []WorldStateUpdate{
			ChangeLock{ID: e.ID, Lock: LockNone},
			toEngine(RemoveFromInventory{PlayerIndex: playerIndex, Species: key}),
			toEngine(SaveGame{}),
		},
	})
}
