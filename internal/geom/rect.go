// Package geom holds the value types every other package builds on:
// axis-aligned rectangles, 2D vectors and compass directions.
//
// Coordinates are expressed in tiles. A rectangle at (2, 3) with size
// (1, 1) covers exactly the tile in column 2, row 3; fractional values
// describe an entity caught between two tiles while it moves.
package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in tile coordinates.
type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// NewRect builds a rectangle and panics if any component is NaN or a
// dimension is negative. Callers validate untrusted input first.
func NewRect(x, y, w, h float32) Rect {
	r := Rect{X: x, Y: y, W: w, H: h}
	if err := r.Validate(); err != nil {
		panic(err)
	}
	return r
}

// Validate reports NaN components and negative dimensions.
func (r Rect) Validate() error {
	for _, v := range [...]float32{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("geom: rect %v has a non-finite component", r)
		}
	}
	if r.W < 0 || r.H < 0 {
		return fmt.Errorf("geom: rect %v has a negative dimension", r)
	}
	return nil
}

func (r Rect) MaxX() float32 { return r.X + r.W }
func (r Rect) MaxY() float32 { return r.Y + r.H }

// Origin returns the top-left corner.
func (r Rect) Origin() Vector2d {
	return Vector2d{X: r.X, Y: r.Y}
}

// Center returns the center point.
func (r Rect) Center() Vector2d {
	return Vector2d{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Tile returns the column and row of the tile holding the center.
func (r Rect) Tile() (col, row int) {
	c := r.Center()
	return int(math.Floor(float64(c.X))), int(math.Floor(float64(c.Y)))
}

// Contains reports whether other lies entirely inside r.
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.MaxX() <= r.MaxX() && other.MaxY() <= r.MaxY()
}

// ContainsPoint reports whether (x, y) lies inside r. The right and
// bottom edges are exclusive.
func (r Rect) ContainsPoint(x, y float32) bool {
	return x >= r.X && x < r.MaxX() && y >= r.Y && y < r.MaxY()
}

// Overlaps reports whether the two rectangles share area. Rectangles that
// only touch along an edge do not overlap.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.MaxX() && other.X < r.MaxX() &&
		r.Y < other.MaxY() && other.Y < r.MaxY()
}

// Offset returns r moved by (dx, dy).
func (r Rect) Offset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// OffsetBy returns r moved by v.
func (r Rect) OffsetBy(v Vector2d) Rect {
	return r.Offset(v.X, v.Y)
}

// Expanded grows r by margin on every side.
func (r Rect) Expanded(margin float32) Rect {
	return Rect{X: r.X - margin, Y: r.Y - margin, W: r.W + 2*margin, H: r.H + 2*margin}
}

// Inset shrinks r by the given amounts from each edge. Dimensions never go
// below zero.
func (r Rect) Inset(top, right, bottom, left float32) Rect {
	out := Rect{X: r.X + left, Y: r.Y + top, W: r.W - left - right, H: r.H - top - bottom}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

// Intersection clamps r to bounds. The result has zero size when they do
// not overlap.
func (r Rect) Intersection(bounds Rect) Rect {
	x0 := max(r.X, bounds.X)
	y0 := max(r.Y, bounds.Y)
	x1 := min(r.MaxX(), bounds.MaxX())
	y1 := min(r.MaxY(), bounds.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IsAroundAndPointedAt reports whether an entity occupying r and facing
// direction would bump into other with a single tile step.
func (r Rect) IsAroundAndPointedAt(other Rect, direction Direction) bool {
	v := direction.AsVector()
	if v.IsZero() {
		return false
	}
	return r.OffsetBy(v).Overlaps(other)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f x %.2f)", r.X, r.Y, r.W, r.H)
}
