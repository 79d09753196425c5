package matrix

import "sort"

// ResolvedPrice is the matrix cell chosen for a requested size.
// HasPrice is false when that cell is absent; Price is then meaningless.
type ResolvedPrice struct {
	Width    int
	Height   int
	Price    int64
	HasPrice bool
}

// Resolve picks, independently per axis, the smallest label >= the requested value and falls back
// to the largest label when the request exceeds all of them. It never fails and never extrapolates.
func (m *PriceMatrix) Resolve(width, height int) ResolvedPrice {
	wi := nearestFit(m.widths, width)
	hi := nearestFit(m.heights, height)
	c := m.cells[hi][wi]
	return ResolvedPrice{
		Width:    m.widths[wi],
		Height:   m.heights[hi],
		Price:    c.Value,
		HasPrice: c.Valid,
	}
}

func nearestFit(labels []int, want int) int {
	i := sort.SearchInts(labels, want)
	if i == len(labels) {
		return len(labels) - 1
	}
	return i
}
