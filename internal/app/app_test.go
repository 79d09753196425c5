package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/llm"
)

func testConfig(t *testing.T, sources string) *common.Config {
	t.Helper()
	return &common.Config{
		Server:   common.ServerConfig{GRPCAddr: ":0", HistorySize: 10},
		Catalog:  common.CatalogConfig{SourcesPath: sources, FetchConcurrency: 2},
		Distance: common.DistanceConfig{CacheDriver: "none"},
		Pricing:  common.DefaultPricing(),
	}
}

func TestNew_QuotesFromLoadedCatalog(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "pergola.csv")
	list := filepath.Join(dir, "ceniky.txt")
	require.NoError(t, os.WriteFile(table, []byte(",3000,4000\n2000,100,200\n"), 0o644))
	require.NoError(t, os.WriteFile(list, []byte("Pergola = "+table+"\n"), 0o644))

	a, err := New(context.Background(), testConfig(t, list), nil)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 1, a.Catalog.Current().Len())

	h := 2000
	res := a.Processor.QuoteItems(context.Background(), []llm.LineRequest{{Product: "pergola", Width: 3500, Height: &h}})
	require.Len(t, res.Items, 1)
	assert.Equal(t, constants.ItemPriced, res.Items[0].Status)
	assert.Equal(t, int64(200), res.Items[0].Lines[0].Amount)
	assert.Equal(t, 1, a.History.Len())
}

func TestNew_MissingSourceListIsFatal(t *testing.T) {
	_, err := New(context.Background(), testConfig(t, filepath.Join(t.TempDir(), "missing.txt")), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSourceList)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	NewLogger(&buf, "nonsense").Info("info is the fallback")
	assert.Contains(t, buf.String(), "info is the fallback")
}
