package geom

import "math"

// Epsilon is the tolerance used when comparing vectors. Two directions
// whose components differ by less than Epsilon are the same direction.
const Epsilon float32 = 0.001

// Vector2d is a 2D vector in tile units.
type Vector2d struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Zero is the zero vector.
var Zero = Vector2d{}

func (v Vector2d) Add(o Vector2d) Vector2d {
	return Vector2d{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector2d) Sub(o Vector2d) Vector2d {
	return Vector2d{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector2d) Scale(f float32) Vector2d {
	return Vector2d{X: v.X * f, Y: v.Y * f}
}

// Equal compares component-wise within Epsilon.
func (v Vector2d) Equal(o Vector2d) bool {
	return abs32(v.X-o.X) < Epsilon && abs32(v.Y-o.Y) < Epsilon
}

// IsZero reports whether v is the zero vector within Epsilon.
func (v Vector2d) IsZero() bool {
	return v.Equal(Zero)
}

func (v Vector2d) Length() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
