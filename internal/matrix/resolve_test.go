package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pergolaMatrix(t *testing.T) *PriceMatrix {
	t.Helper()
	m, _, err := newTestBuilder().Build("pergola", RawTable{Rows: [][]any{
		{"", "3000", "4000", "5000"},
		{"2000", 7000, 8000, 9000},
		{"2500", 8000, "", 10000},
	}})
	require.NoError(t, err)
	return m
}

func TestResolve(t *testing.T) {
	m := pergolaMatrix(t)

	tests := []struct {
		name          string
		width, height int
		want          ResolvedPrice
	}{
		{"rounds both axes up", 4200, 2300, ResolvedPrice{Width: 5000, Height: 2500, Price: 10000, HasPrice: true}},
		{"clamps oversize width", 6000, 2000, ResolvedPrice{Width: 5000, Height: 2000, Price: 9000, HasPrice: true}},
		{"clamps both axes", 9000, 9000, ResolvedPrice{Width: 5000, Height: 2500, Price: 10000, HasPrice: true}},
		{"exact labels", 3000, 2000, ResolvedPrice{Width: 3000, Height: 2000, Price: 7000, HasPrice: true}},
		{"below smallest", 10, 0, ResolvedPrice{Width: 3000, Height: 2000, Price: 7000, HasPrice: true}},
		{"negative request", -100, -1, ResolvedPrice{Width: 3000, Height: 2000, Price: 7000, HasPrice: true}},
		{"absent cell", 3500, 2100, ResolvedPrice{Width: 4000, Height: 2500, HasPrice: false}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, m.Resolve(tc.width, tc.height))
		})
	}
}

func TestResolve_Monotonic(t *testing.T) {
	m := pergolaMatrix(t)

	prev := m.Resolve(0, 2000)
	for w := 1; w <= 7000; w += 50 {
		got := m.Resolve(w, 2000)
		assert.GreaterOrEqual(t, got.Width, prev.Width, "width %d", w)
		if w <= 5000 {
			assert.GreaterOrEqual(t, got.Width, w)
		} else {
			assert.Equal(t, 5000, got.Width)
		}
		prev = got
	}

	prev = m.Resolve(3000, 0)
	for h := 1; h <= 4000; h += 25 {
		got := m.Resolve(3000, h)
		assert.GreaterOrEqual(t, got.Height, prev.Height, "height %d", h)
		prev = got
	}
}

func TestResolve_SingleCell(t *testing.T) {
	m, _, err := newTestBuilder().Build("one", RawTable{Rows: [][]any{
		{"", "3000"},
		{"2000", "4 500"},
	}})
	require.NoError(t, err)

	got := m.Resolve(10000, 1)
	assert.Equal(t, ResolvedPrice{Width: 3000, Height: 2000, Price: 4500, HasPrice: true}, got)
}
