// Package matrix turns loosely formatted price tables into immutable width × height price grids
// and resolves a price for an arbitrary requested size.
package matrix

import (
	"slices"
	"sort"
)

// RawTable is one source table before normalization. Rows[0] is the header row.
// Cells hold strings, numbers or nil as originally read.
// RowLabels optionally carries an index column that the source kept outside the grid.
type RawTable struct {
	Rows      [][]any
	RowLabels []any
}

// Cell is one matrix entry. Valid == false marks an absent cell (blank or non-numeric source),
// which is distinct from a real zero price.
type Cell struct {
	Value int64
	Valid bool
}

// PriceMatrix is a rectangular price grid keyed by ascending width and height labels in mm.
// It is never mutated after Build returns it and is safe to share between goroutines.
type PriceMatrix struct {
	widths  []int
	heights []int
	cells   [][]Cell // [height index][width index]
}

func newPriceMatrix(widths, heights []int, cells [][]Cell) *PriceMatrix {
	return &PriceMatrix{widths: widths, heights: heights, cells: cells}
}

// Widths returns a copy of the column axis.
func (m *PriceMatrix) Widths() []int { return slices.Clone(m.widths) }

// Heights returns a copy of the row axis.
func (m *PriceMatrix) Heights() []int { return slices.Clone(m.heights) }

// Size returns the number of heights and widths.
func (m *PriceMatrix) Size() (rows, cols int) { return len(m.heights), len(m.widths) }

// Cell returns the entry at exact axis labels. ok is false when either label is not on its axis.
func (m *PriceMatrix) Cell(height, width int) (Cell, bool) {
	hi := sort.SearchInts(m.heights, height)
	wi := sort.SearchInts(m.widths, width)
	if hi == len(m.heights) || m.heights[hi] != height || wi == len(m.widths) || m.widths[wi] != width {
		return Cell{}, false
	}
	return m.cells[hi][wi], true
}

// PricedCells counts the cells holding a price.
func (m *PriceMatrix) PricedCells() int {
	n := 0
	for _, row := range m.cells {
		for _, c := range row {
			if c.Valid {
				n++
			}
		}
	}
	return n
}

// Rows returns a deep copy of the grid in height-major order.
func (m *PriceMatrix) Rows() [][]Cell {
	out := make([][]Cell, len(m.cells))
	for i, row := range m.cells {
		out[i] = slices.Clone(row)
	}
	return out
}

// Equal reports whether two matrices have identical axes and cells.
func (m *PriceMatrix) Equal(o *PriceMatrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !slices.Equal(m.widths, o.widths) || !slices.Equal(m.heights, o.heights) {
		return false
	}
	for i := range m.cells {
		if !slices.Equal(m.cells[i], o.cells[i]) {
			return false
		}
	}
	return true
}
