// Package spatial provides the per-tile occupancy index used for
// collision and targeting queries.
//
// The grid is rebuilt wholesale once per tick from entity frames and is
// never mutated while behaviors read it. Cells are preallocated slices
// in row-major order (cells[row*cols+col]) so Clear keeps their capacity
// between ticks.
package spatial

import (
	"math"
	"slices"

	"bitscape/internal/geom"
)

// Flags describe how an occupant interacts with others on its tile.
type Flags uint8

const (
	Rigid    Flags = 1 << iota // blocks rigid movers
	Weighted                   // presses pressure plates
	Hittable                   // valid bullet/melee target
	Creep                      // can fuse with other creeps
)

// Occupant is one entity registered on a tile.
type Occupant struct {
	ID       uint32
	ParentID uint32
	Priority int32
	Flags    Flags

	// Tile holding the center of the registered frame. Set by Insert.
	Col, Row int32
}

// Has reports whether all bits of f are set.
func (o Occupant) Has(f Flags) bool {
	return o.Flags&f == f
}

// HitGrid maps each tile of a world to the entities overlapping it.
type HitGrid struct {
	cols, rows int
	cells      [][]Occupant
	scratch    []Occupant // reusable buffer for area queries
}

// coverEpsilon keeps a frame ending exactly on a tile edge from spilling
// into the next tile because of float rounding.
const coverEpsilon = 1e-4

// NewHitGrid creates a grid of cols x rows tiles. maxEntities is used to
// preallocate cell capacity.
func NewHitGrid(cols, rows, maxEntities int) *HitGrid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]Occupant, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 2 {
		perCell = 2
	}
	for i := range cells {
		cells[i] = make([]Occupant, 0, perCell)
	}

	return &HitGrid{
		cols:    cols,
		rows:    rows,
		cells:   cells,
		scratch: make([]Occupant, 0, 32),
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *HitGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// CenteredOn reports whether the occupant's frame was centered on a tile.
func (o Occupant) CenteredOn(col, row int) bool {
	return int(o.Col) == col && int(o.Row) == row
}

// Insert registers occ on every tile frame overlaps. Tiles outside the
// grid are skipped. Within a cell occupants stay sorted by descending
// priority; equal priorities keep insertion order.
func (g *HitGrid) Insert(occ Occupant, frame geom.Rect) {
	minCol, minRow, maxCol, maxRow, ok := g.span(frame)
	if !ok {
		return
	}
	col, row := frame.Tile()
	occ.Col, occ.Row = int32(col), int32(row)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			cell := g.cells[idx]
			pos := len(cell)
			for pos > 0 && cell[pos-1].Priority < occ.Priority {
				pos--
			}
			g.cells[idx] = slices.Insert(cell, pos, occ)
		}
	}
}

// At returns the occupants of a tile, highest priority first. Out of range
// tiles have no occupants. The slice is owned by the grid.
func (g *HitGrid) At(col, row int) []Occupant {
	if !g.inRange(col, row) {
		return nil
	}
	return g.cells[row*g.cols+col]
}

// Top returns the id of the highest-priority occupant of a tile, or 0.
func (g *HitGrid) Top(col, row int) uint32 {
	if cell := g.At(col, row); len(cell) > 0 {
		return cell[0].ID
	}
	return 0
}

// Any reports whether some occupant of the tile carries flags f.
func (g *HitGrid) Any(col, row int, f Flags) bool {
	for _, occ := range g.At(col, row) {
		if occ.Has(f) {
			return true
		}
	}
	return false
}

// QueryArea returns every occupant registered on the tiles overlapped by
// area. Entities spanning several tiles appear once per tile; callers
// dedupe when it matters.
//
// IMPORTANT: The returned slice is reused on subsequent calls.
func (g *HitGrid) QueryArea(area geom.Rect) []Occupant {
	g.scratch = g.scratch[:0]
	minCol, minRow, maxCol, maxRow, ok := g.span(area)
	if !ok {
		return g.scratch
	}
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

func (g *HitGrid) inRange(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

// span converts a frame into an inclusive, clamped tile range.
func (g *HitGrid) span(r geom.Rect) (minCol, minRow, maxCol, maxRow int, ok bool) {
	if r.W <= 0 || r.H <= 0 {
		return 0, 0, 0, 0, false
	}
	minCol = int(math.Floor(float64(r.X)))
	minRow = int(math.Floor(float64(r.Y)))
	maxCol = int(math.Ceil(float64(r.MaxX()-coverEpsilon))) - 1
	maxRow = int(math.Ceil(float64(r.MaxY()-coverEpsilon))) - 1
	minCol = max(minCol, 0)
	minRow = max(minRow, 0)
	maxCol = min(maxCol, g.cols-1)
	maxRow = min(maxRow, g.rows-1)
	return minCol, minRow, maxCol, maxRow, minCol <= maxCol && minRow <= maxRow
}

// Stats returns grid statistics for debugging/profiling.
func (g *HitGrid) Stats() GridStats {
	var total, maxInCell, nonEmpty int
	for _, cell := range g.cells {
		count := len(cell)
		total += count
		if count > maxInCell {
			maxInCell = count
		}
		if count > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(total) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntries:   total,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid statistics for debugging.
type GridStats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntries   int
	MaxInCell      int
	AvgPerNonEmpty float64
}
