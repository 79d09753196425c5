package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

type fakeFetcher struct {
	mu     sync.Mutex
	tables map[string]matrix.RawTable
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, locator string) (matrix.RawTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, locator)
	if err, ok := f.errs[locator]; ok {
		return matrix.RawTable{}, err
	}
	t, ok := f.tables[locator]
	if !ok {
		return matrix.RawTable{}, errors.New("no such source")
	}
	return t, nil
}

func grid(price any) matrix.RawTable {
	return matrix.RawTable{Rows: [][]any{
		{"", "3000", "4000", "5000"},
		{"2000", 7000, 8000, 9000},
		{"2500", 8000, 9000, price},
	}}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "pergoladeluxe", Canonical("  Pergola\tDeluxe "))
	assert.Equal(t, "pergoladeluxe", Canonical("PERGOLA DELUXE"))
	// decomposed "ý" equals the precomposed form
	assert.Equal(t, Canonical("Mark\u00fdza"), Canonical("Marky\u0301za"))
	assert.Equal(t, "", Canonical("   "))
}

func TestLoader_Load(t *testing.T) {
	ff := &fakeFetcher{
		tables: map[string]matrix.RawTable{
			"a.csv":   grid(10000),
			"b.csv":   grid(11000),
			"bad.csv": {Rows: [][]any{{"x", "y"}, {"z", "w"}}},
			"c.csv":   grid(12000),
		},
		errs: map[string]error{"down.csv": errors.New("connection refused")},
	}
	sources := []Source{
		{Name: "Pergola Deluxe", Locator: "a.csv"},
		{Name: "Screen ZIP", Locator: "b.csv"},
		{Name: "Broken", Locator: "bad.csv"},
		{Name: "Offline", Locator: "down.csv"},
		{Name: "PERGOLA  deluxe", Locator: "c.csv"},
	}

	cat, report := NewLoader(ff, nil, nil, WithConcurrency(2)).Load(context.Background(), sources)

	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"PERGOLA  deluxe", "Screen ZIP"}, cat.Names())
	assert.Equal(t, []string{"pergoladeluxe"}, report.Duplicates)
	assert.Equal(t, 3, report.Loaded())

	failed := report.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, "Broken", failed[0].Name)
	assert.Equal(t, "Offline", failed[1].Name)
	for _, o := range failed {
		assert.ErrorIs(t, o.Err, common.ErrIngestion)
	}

	// last listed wins
	p, ok := cat.Lookup("Pergola Deluxe")
	require.True(t, ok)
	assert.Equal(t, "c.csv", p.Locator)
	assert.Equal(t, int64(12000), p.Matrix.Resolve(4200, 2300).Price)

	_, ok = cat.Lookup("Broken")
	assert.False(t, ok)
}

func TestLoader_ReloadIsIdempotent(t *testing.T) {
	ff := &fakeFetcher{tables: map[string]matrix.RawTable{"a.csv": grid(10000), "b.csv": grid("")}}
	sources := []Source{{Name: "A", Locator: "a.csv"}, {Name: "B", Locator: "b.csv"}}
	l := NewLoader(ff, nil, nil)

	first, _ := l.Load(context.Background(), sources)
	second, _ := l.Load(context.Background(), sources)

	require.Equal(t, first.Names(), second.Names())
	for _, p := range first.Products() {
		q, ok := second.Lookup(p.Name)
		require.True(t, ok)
		assert.True(t, p.Matrix.Equal(q.Matrix), p.Name)
		assert.Equal(t, p.Matrix.Rows(), q.Matrix.Rows())
	}
	assert.NotSame(t, first, second)
}

func TestLoader_ExpandsWorkbookSheets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ceniky.xlsx")
	writeWorkbook(t, path, []string{"Pergola", "Screen", "Poznámky"}, map[string][][]any{
		"Pergola":  {{"", 3000, 4000}, {2000, 7000, 8000}},
		"Screen":   {{"", 1000}, {2500, 3200}},
		"Poznámky": {{"Platí od 1. 1."}},
	})

	sources := []Source{{Name: "Ceníky", Locator: path + "#*"}}
	cat, report := NewLoader(NewSourceFetcher(nil, nil), nil, nil).Load(context.Background(), sources)

	assert.Equal(t, []string{"Pergola", "Screen"}, cat.Names())
	require.Len(t, report.Outcomes, 3)
	assert.Error(t, report.Outcomes[2].Err)

	p, ok := cat.Lookup("screen")
	require.True(t, ok)
	got := p.Matrix.Resolve(800, 2000)
	assert.Equal(t, matrix.ResolvedPrice{Width: 1000, Height: 2500, Price: 3200, HasPrice: true}, got)
}

func TestLoader_ExpandWithoutSheetSupport(t *testing.T) {
	ff := &fakeFetcher{tables: map[string]matrix.RawTable{"a.csv": grid(1)}}
	cat, report := NewLoader(ff, nil, nil).Load(context.Background(), []Source{
		{Name: "Book", Locator: "book.xlsx#*"},
		{Name: "A", Locator: "a.csv"},
	})
	assert.Equal(t, 1, cat.Len())
	require.Len(t, report.Failed(), 1)
	assert.Equal(t, "Book", report.Failed()[0].Name)
}
