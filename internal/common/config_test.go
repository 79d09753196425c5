package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CATALOG_SOURCES", "")
	t.Setenv("PRICING_CONFIG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "./ceniky.txt", cfg.Catalog.SourcesPath)
	assert.Equal(t, 4, cfg.Catalog.FetchConcurrency)
	assert.Equal(t, 20*time.Second, cfg.Catalog.FetchTimeout)
	assert.Equal(t, []int{12, 13, 14, 15}, cfg.Pricing.MarkupTiers)
	assert.Equal(t, 15.0, cfg.Pricing.TransportRatePerKM)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_SOURCES", "/etc/quoter/sources.txt")
	t.Setenv("CATALOG_RELOAD_INTERVAL", "15m")
	t.Setenv("TRANSPORT_RATE_PER_KM", "18.5")
	t.Setenv("TRANSPORT_ORIGIN", "Brno")
	t.Setenv("DISTANCE_CACHE", "Redis")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/etc/quoter/sources.txt", cfg.Catalog.SourcesPath)
	assert.Equal(t, 15*time.Minute, cfg.Catalog.ReloadInterval)
	assert.Equal(t, 18.5, cfg.Pricing.TransportRatePerKM)
	assert.Equal(t, "Brno", cfg.Pricing.Origin)
	assert.Equal(t, "redis", cfg.Distance.CacheDriver)
}

func TestLoadConfig_BadRate(t *testing.T) {
	t.Setenv("TRANSPORT_RATE_PER_KM", "fifteen")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, CodeConfig, CodeOf(err))
}

func TestPricingConfig_MergeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	doc := `
origin: "Olomouc"
markup_tiers: [10, 20]
default_heights:
  - pattern: "(?i)zip"
    height_mm: 3000
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p := DefaultPricing()
	require.NoError(t, p.MergeFile(path))

	assert.Equal(t, "Olomouc", p.Origin)
	assert.Equal(t, []int{10, 20}, p.MarkupTiers)
	assert.Equal(t, []DefaultHeight{{Pattern: "(?i)zip", HeightMM: 3000}}, p.DefaultHeights)
	// untouched keys keep their defaults
	assert.Equal(t, 15.0, p.TransportRatePerKM)
	assert.Equal(t, 0.6, p.RowLabelRatio)
}

func TestPricingConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *PricingConfig)
	}{
		{"zero rate", func(p *PricingConfig) { p.TransportRatePerKM = 0 }},
		{"negative tier", func(p *PricingConfig) { p.MarkupTiers = []int{12, -1} }},
		{"bad exempt regexp", func(p *PricingConfig) { p.MarkupExemptRegexp = "(" }},
		{"bad default height", func(p *PricingConfig) { p.DefaultHeights = []DefaultHeight{{Pattern: "x", HeightMM: 0}} }},
		{"ratio above one", func(p *PricingConfig) { p.ColumnLabelRatio = 1.5 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPricing()
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("text", "  ", Required).
		Field("note", "abcdef", Required, MaxLength(3)).
		Field("width", 0, PositiveInt).
		Field("quote_id", "nope", Required, UUID)

	require.Len(t, v.Failures(), 4)
	assert.Equal(t, "text is required", v.Failures()[0].Error())
	assert.ErrorIs(t, v.Err(), ErrValidation)
	assert.Equal(t, codes.InvalidArgument, status.Code(ValidateAndReturnError(v)))

	// first failing rule per field only
	one := NewValidator().Field("id", "", Required, UUID)
	assert.Len(t, one.Failures(), 1)

	ok := NewValidator().Field("text", "pergola 4000x3000", Required, MaxLength(100))
	assert.NoError(t, ok.Err())
	assert.NoError(t, ValidateAndReturnError(ok))
}
