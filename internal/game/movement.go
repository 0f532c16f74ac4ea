package game

import (
	"fmt"

	"bitscape/internal/geom"
)

// Movement selects how an entity computes its next position.
type Movement uint8

const (
	MovementNone Movement = iota
	MovementStraight
	MovementFreeRoam
	MovementInput
	MovementChase
)

var movementNames = [...]string{
	MovementNone:     "none",
	MovementStraight: "straight",
	MovementFreeRoam: "free_roam",
	MovementInput:    "input",
	MovementChase:    "chase",
}

func (m Movement) String() string {
	if int(m) < len(movementNames) {
		return movementNames[m]
	}
	return fmt.Sprintf("movement(%d)", uint8(m))
}

func (m Movement) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Movement) UnmarshalText(text []byte) error {
	for i, name := range movementNames {
		if name == string(text) {
			*m = Movement(i)
			return nil
		}
	}
	return fmt.Errorf("unknown movement %q", text)
}

// move runs the entity's movement strategy and reports whether it moved.
func (e *Entity) move(w *World, dt float32) bool {
	switch e.Movement {
	case MovementStraight, MovementInput:
		return e.moveLinearly(w, dt)
	case MovementFreeRoam:
		return e.freeRoam(w, dt)
	case MovementChase:
		return e.chasePlayers(w, dt)
	}
	return false
}

// moveLinearly advances along Direction by
// CurrentSpeed * BaseEntitySpeed * dt / TileSize tiles. A blocked
// diagonal move slides along whichever single axis is free.
func (e *Entity) moveLinearly(w *World, dt float32) bool {
	if !e.isMoving() || dt <= 0 {
		return false
	}
	sim := w.Sim()
	delta := e.Direction.AsVector().Scale(e.CurrentSpeed * sim.BaseEntitySpeed * dt / sim.TileSize)
	if delta.X == 0 && delta.Y == 0 {
		return false
	}

	candidates := []geom.Vector2d{delta}
	if delta.X != 0 && delta.Y != 0 {
		candidates = append(candidates, geom.Vector2d{X: delta.X}, geom.Vector2d{Y: delta.Y})
	}
	for _, step := range candidates {
		if w.canOccupy(e, e.Frame.OffsetBy(step)) {
			e.commitStep(step, sim.TileSize)
			return true
		}
	}
	return false
}

// commitStep moves the frame and tracks the pixel offset since the last
// whole tile. Every full tile crossed is committed and subtracted.
func (e *Entity) commitStep(step geom.Vector2d, tileSize float32) {
	e.Frame = e.Frame.OffsetBy(step)
	e.Offset = e.Offset.Add(step.Scale(tileSize))
	for e.Offset.X >= tileSize {
		e.Offset.X -= tileSize
	}
	for e.Offset.X <= -tileSize {
		e.Offset.X += tileSize
	}
	for e.Offset.Y >= tileSize {
		e.Offset.Y -= tileSize
	}
	for e.Offset.Y <= -tileSize {
		e.Offset.Y += tileSize
	}
}

// canOccupy reports whether e may move its frame to next. Bullets ignore
// terrain; only rigid movers are stopped by rigid entities.
func (w *World) canOccupy(e *Entity, next geom.Rect) bool {
	hit := next
	if s, ok := LookupSpecies(e.Species); ok {
		in := s.HitInsets
		hit = next.Inset(in.Top, in.Right, in.Bottom, in.Left)
	}
	if !w.bounds.Contains(hit) {
		return false
	}
	if e.Kind != KindBullet && w.hasObstacleIn(hit) {
		return false
	}
	if e.IsRigid && w.hasRigidIn(hit, e.ID, e.ParentID) {
		return false
	}
	return true
}

// freeRoam moves straight and bounces off whatever stops it.
func (e *Entity) freeRoam(w *World, dt float32) bool {
	if e.moveLinearly(w, dt) {
		return true
	}
	if e.isMoving() {
		if e.Direction.HasHorizontalComponent() {
			e.Direction = e.Direction.HorizontalMirror()
		} else {
			e.Direction = e.Direction.Opposite()
		}
	}
	return false
}

// chasePlayers heads for the nearest player in the same row with a clear
// line of sight, checking the left side first. Without one it roams.
func (e *Entity) chasePlayers(w *World, dt float32) bool {
	if dir, ok := e.chaseDirection(w); ok {
		e.Direction = dir
		if e.CurrentSpeed == 0 {
			if s, ok := LookupSpecies(e.Species); ok {
				e.CurrentSpeed = s.Speed
			}
		}
	}
	return e.freeRoam(w, dt)
}

func (e *Entity) chaseDirection(w *World) (geom.Direction, bool) {
	hit := e.HittableFrame()
	_, row := hit.Tile()
	exclude := append(w.PlayerIDs(), e.ID)

	for _, side := range [...]Side{SideLeft, SideRight} {
		_, target, ok := w.NearestPlayerInRow(row, hit.Center().X, side, e.ID)
		if !ok {
			continue
		}
		var strip geom.Rect
		if side == SideLeft {
			strip = geom.Rect{X: target.HittableFrame.MaxX(), Y: float32(row), W: hit.X - target.HittableFrame.MaxX(), H: 1}
		} else {
			strip = geom.Rect{X: hit.MaxX(), Y: float32(row), W: target.HittableFrame.X - hit.MaxX(), H: 1}
		}
		if strip.W > 0 && w.IsAreaBlocked(strip, exclude...) {
			continue
		}
		if side == SideLeft {
			return geom.Left, true
		}
		return geom.Right, true
	}
	return geom.Unknown, false
}

// updateDirectionFromInput applies the player's input, but only while
// the entity is within StepCommitmentThreshold pixels of its last
// committed step. Mid-step, the current direction and speed are kept.
// After a turn, further turns wait DirectionChangeCooldown seconds.
func (e *Entity) updateDirectionFromInput(w *World, dt float32) {
	if e.directionCooldown > 0 {
		e.directionCooldown = max(0, e.directionCooldown-dt)
	}

	threshold := w.Sim().StepCommitmentThreshold
	if abs(e.Offset.X) >= threshold || abs(e.Offset.Y) >= threshold {
		return
	}

	in := w.Input(e.PlayerIndex)
	if !in.Direction.IsMoving() {
		e.CurrentSpeed = 0
		return
	}
	if in.Direction != e.Direction {
		if e.directionCooldown > 0 && e.CurrentSpeed > 0 {
			return
		}
		e.Direction = in.Direction
		e.Offset = geom.Zero
		e.directionCooldown = w.Sim().DirectionChangeCooldown
	}
	if s, ok := LookupSpecies(e.Species); ok {
		e.CurrentSpeed = s.Speed
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
