package geom

import (
	"fmt"
	"math"
)

// Direction is a discrete compass direction. The zero value is Unknown.
type Direction uint8

const (
	Unknown Direction = iota
	Up
	UpRight
	Right
	DownRight
	Down
	DownLeft
	Left
	UpLeft
	Still
)

var directionNames = [...]string{
	Unknown:   "unknown",
	Up:        "up",
	UpRight:   "up_right",
	Right:     "right",
	DownRight: "down_right",
	Down:      "down",
	DownLeft:  "down_left",
	Left:      "left",
	UpLeft:    "up_left",
	Still:     "still",
}

// diagonal is 1/sqrt(2), so diagonal moves cover the same distance.
const diagonal = float32(math.Sqrt2 / 2)

var directionVectors = [...]Vector2d{
	Up:        {X: 0, Y: -1},
	UpRight:   {X: diagonal, Y: -diagonal},
	Right:     {X: 1, Y: 0},
	DownRight: {X: diagonal, Y: diagonal},
	Down:      {X: 0, Y: 1},
	DownLeft:  {X: -diagonal, Y: diagonal},
	Left:      {X: -1, Y: 0},
	UpLeft:    {X: -diagonal, Y: -diagonal},
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	for i, name := range directionNames {
		if name == string(text) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("geom: unknown direction %q", text)
}

// AsVector returns the unit vector for d. Unknown and Still map to zero.
func (d Direction) AsVector() Vector2d {
	if d == Unknown || d == Still || int(d) >= len(directionVectors) {
		return Zero
	}
	return directionVectors[d]
}

// IsMoving reports whether d points somewhere.
func (d Direction) IsMoving() bool {
	return d != Unknown && d != Still
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	if !d.IsMoving() {
		return d
	}
	return Direction((int(d)-1+4)%8 + 1)
}

// TurnRight rotates d clockwise by 90 degrees.
func (d Direction) TurnRight() Direction {
	if !d.IsMoving() {
		return d
	}
	return Direction((int(d)-1+2)%8 + 1)
}

// TurnLeft rotates d counter-clockwise by 90 degrees.
func (d Direction) TurnLeft() Direction {
	if !d.IsMoving() {
		return d
	}
	return Direction((int(d)-1+6)%8 + 1)
}

// HorizontalMirror flips the horizontal component. Directions without
// one are returned unchanged.
func (d Direction) HorizontalMirror() Direction {
	switch d {
	case Right:
		return Left
	case Left:
		return Right
	case UpRight:
		return UpLeft
	case UpLeft:
		return UpRight
	case DownRight:
		return DownLeft
	case DownLeft:
		return DownRight
	}
	return d
}

// HasHorizontalComponent reports whether d moves along x.
func (d Direction) HasHorizontalComponent() bool {
	return d.HorizontalMirror() != d
}

// DirectionBetween returns the four-way direction that best points from
// one point to another, preferring the horizontal axis on ties. Points
// closer than Epsilon yield Unknown.
func DirectionBetween(from, to Vector2d) Direction {
	delta := to.Sub(from)
	if delta.IsZero() {
		return Unknown
	}
	if abs32(delta.X) >= abs32(delta.Y) {
		if delta.X > 0 {
			return Right
		}
		return Left
	}
	if delta.Y > 0 {
		return Down
	}
	return Up
}

// DirectionFromVector maps a vector to the closest of the eight compass
// directions. Near-zero vectors yield Unknown.
func DirectionFromVector(v Vector2d) Direction {
	if v.IsZero() {
		return Unknown
	}
	best := Unknown
	bestDot := float32(-2)
	n := v.Scale(1 / v.Length())
	for d := Up; d <= UpLeft; d++ {
		u := d.AsVector()
		if dot := u.X*n.X + u.Y*n.Y; dot > bestDot {
			best, bestDot = d, dot
		}
	}
	return best
}
