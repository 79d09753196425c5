package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStore_Reload(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "ceniky.txt")
	pergola := filepath.Join(dir, "pergola.csv")
	writeFile(t, pergola, ",3000,4000\n2000,100,200\n")
	writeFile(t, list, "Pergola = "+pergola+"\nnonsense line\n")

	s := NewStore(NewLoader(NewSourceFetcher(nil, nil), nil, nil), list, nil)
	assert.Equal(t, 0, s.Current().Len())

	report, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Skipped, 1)
	assert.Equal(t, 1, s.Current().Len())
	first := s.Current()

	// broken source list: previous catalog kept
	writeFile(t, list, "# nothing here\n")
	_, err = s.Reload(context.Background())
	require.ErrorIs(t, err, common.ErrSourceList)
	assert.Same(t, first, s.Current())

	// every product failing: previous catalog kept
	writeFile(t, list, "Pergola = "+filepath.Join(dir, "gone.csv")+"\n")
	report, err = s.Reload(context.Background())
	require.ErrorIs(t, err, common.ErrIngestion)
	assert.Len(t, report.Failed(), 1)
	assert.True(t, report.KeptPrevious)
	assert.Same(t, first, s.Current())

	// new price swaps in a new catalog
	writeFile(t, pergola, ",3000,4000\n2000,150,250\n")
	writeFile(t, list, "Pergola - "+pergola+"\n")
	report, err = s.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, report.KeptPrevious)
	assert.NotSame(t, first, s.Current())
	p, ok := s.Current().Lookup("pergola")
	require.True(t, ok)
	assert.Equal(t, int64(150), p.Matrix.Resolve(1, 1).Price)
}

func TestStore_ConcurrentReadersSeeCompleteCatalogs(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "ceniky.txt")
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	writeFile(t, a, ",3000\n2000,1\n")
	writeFile(t, b, ",3000\n2000,2\n")
	writeFile(t, list, "A = "+a+"\nB = "+b+"\n")

	s := NewStore(NewLoader(NewSourceFetcher(nil, nil), nil, nil), list, nil)
	_, err := s.Reload(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				c := s.Current()
				assert.Equal(t, 2, c.Len())
			}
		}()
	}
	for ctx.Err() == nil {
		_, err := s.Reload(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
}

func TestStore_SwapNil(t *testing.T) {
	s := NewStore(nil, "", nil)
	s.Swap(nil)
	assert.NotNil(t, s.Current())
	assert.Equal(t, 0, s.Current().Len())
}
