package game

import (
	"bitscape/internal/game/spatial"
	"bitscape/internal/geom"
)

// pushSpeedFactor keeps a pushed object just ahead of the hero pushing it.
const pushSpeedFactor = 1.2

// updatePushable slides the object away from the first hero walking into
// it. A push is refused when the next tile is blocked, and the hero is
// stopped when the next tile already carries weight.
func (e *Entity) updatePushable(w *World, dt float32) []WorldStateUpdate {
	e.CurrentSpeed = 0
	for index := range w.players {
		hero, ok := w.PlayerProps(index)
		if !ok || hero.Speed <= 0 || !isCardinal(hero.Direction) {
			continue
		}
		if !hero.HittableFrame.IsAroundAndPointedAt(e.HittableFrame(), hero.Direction) {
			continue
		}

		step := hero.Direction.AsVector()
		if !w.canOccupy(e, e.Frame.OffsetBy(step)) {
			return nil
		}
		if w.hasWeightIn(e.HittableFrame().OffsetBy(step), e.ID) {
			return []WorldStateUpdate{StopHeroMovement{PlayerIndex: index}}
		}

		e.Direction = hero.Direction
		e.CurrentSpeed = pushSpeedFactor * hero.Speed
		e.moveLinearly(w, dt)
		return nil
	}
	return nil
}

// hasWeightIn reports whether a weighted occupant other than exclude lies
// within area.
func (w *World) hasWeightIn(area geom.Rect, exclude EntityID) bool {
	for _, occ := range w.grid.QueryArea(area) {
		if EntityID(occ.ID) != exclude && occ.Has(spatial.Weighted) {
			return true
		}
	}
	return false
}

func isCardinal(d geom.Direction) bool {
	switch d {
	case geom.Up, geom.Right, geom.Down, geom.Left:
		return true
	}
	return false
}
