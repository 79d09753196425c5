package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/distance"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

func defaultPolicy(t *testing.T) Policy {
	t.Helper()
	p, err := PolicyFromConfig(common.DefaultPricing())
	require.NoError(t, err)
	return p
}

func fixedDistance(km float64) distance.Lookup {
	return distance.LookupFunc(func(context.Context, string, string) (float64, error) { return km, nil })
}

func TestCompose_ProductMarkupsAndTransport(t *testing.T) {
	c := NewComposer(defaultPolicy(t), fixedDistance(100), nil)
	rp := matrix.ResolvedPrice{Width: 5000, Height: 2500, Price: 10000, HasPrice: true}

	lines, err := c.Compose(context.Background(), "Pergola Deluxe", rp, "Brno")
	require.NoError(t, err)

	assert.Equal(t, []Line{
		{Kind: constants.LineProduct, Label: "Pergola Deluxe", Dimensions: "5000×2500", Amount: 10000},
		{Kind: constants.LineMarkup, Label: "Montáž 12 %", Amount: 1200},
		{Kind: constants.LineMarkup, Label: "Montáž 13 %", Amount: 1300},
		{Kind: constants.LineMarkup, Label: "Montáž 14 %", Amount: 1400},
		{Kind: constants.LineMarkup, Label: "Montáž 15 %", Amount: 1500},
		{Kind: constants.LineTransport, Label: "Doprava Brno", Dimensions: "100.0 km", Amount: 3000},
	}, lines)
	assert.Equal(t, int64(18400), Total(lines))
}

func TestCompose_ExemptProduct(t *testing.T) {
	c := NewComposer(defaultPolicy(t), nil, nil)
	rp := matrix.ResolvedPrice{Width: 3000, Height: 2500, Price: 8000, HasPrice: true}

	lines, err := c.Compose(context.Background(), "Screen ZIP", rp, "")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, constants.LineProduct, lines[0].Kind)
}

func TestCompose_NoPrice(t *testing.T) {
	c := NewComposer(defaultPolicy(t), fixedDistance(10), nil)
	lines, err := c.Compose(context.Background(), "Pergola", matrix.ResolvedPrice{Width: 3000, Height: 2000}, "Brno")
	assert.Nil(t, lines)
	assert.ErrorIs(t, err, common.ErrNoPrice)
	assert.Equal(t, common.CodeNoPrice, common.CodeOf(err))
}

func TestCompose_ZeroPriceIsAPrice(t *testing.T) {
	c := NewComposer(defaultPolicy(t), nil, nil)
	lines, err := c.Compose(context.Background(), "Pergola", matrix.ResolvedPrice{Width: 3000, Height: 2000, HasPrice: true}, "")
	require.NoError(t, err)
	assert.Len(t, lines, 5)
	assert.Equal(t, int64(0), Total(lines))
}

func TestCompose_TransportUnavailable(t *testing.T) {
	failing := distance.LookupFunc(func(context.Context, string, string) (float64, error) {
		return 0, errors.New("ZERO_RESULTS")
	})
	rp := matrix.ResolvedPrice{Width: 3000, Height: 2000, Price: 1000, HasPrice: true}

	for name, lookup := range map[string]distance.Lookup{"failing": failing, "missing": nil} {
		t.Run(name, func(t *testing.T) {
			c := NewComposer(defaultPolicy(t), lookup, nil)
			lines, err := c.Compose(context.Background(), "Pergola", rp, "Atlantis")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrTransportUnavailable)
			require.Len(t, lines, 5)
			for _, l := range lines {
				assert.NotEqual(t, constants.LineTransport, l.Kind)
			}
		})
	}
}

func TestMarkupLines_Independent(t *testing.T) {
	tiers := []int{12, 13, 14, 15}
	for _, base := range []int64{0, 1, 4, 37, 999, 1234, 10000, 12345, 99999} {
		lines := MarkupLines(base, tiers)
		require.Len(t, lines, len(tiers))
		for i, k := range tiers {
			want := int64(matrix.RoundHalfUp(float64(base) * float64(k) / 100))
			assert.Equal(t, want, lines[i].Amount, "base %d tier %d", base, k)
		}
	}
	// 1.5 rounds up, 1.3 and 1.4 round down
	assert.Equal(t, []int64{1, 1, 2}, amounts(MarkupLines(10, []int{13, 14, 15})))
}

func TestTransportLine(t *testing.T) {
	tests := []struct {
		km, rate float64
		want     int64
		dims     string
	}{
		{100, 15, 3000, "100.0 km"},
		{12.34, 15, 370, "12.3 km"},
		{0.05, 15, 2, "0.1 km"},
		{0, 15, 0, "0.0 km"},
	}
	for _, tc := range tests {
		l := TransportLine("Brno", tc.km, tc.rate)
		assert.Equal(t, tc.want, l.Amount, "km %.2f", tc.km)
		assert.Equal(t, tc.dims, l.Dimensions)
	}
}

func TestPolicyFromConfig_Invalid(t *testing.T) {
	cfg := common.DefaultPricing()
	cfg.MarkupExemptRegexp = "("
	_, err := PolicyFromConfig(cfg)
	assert.Error(t, err)

	cfg = common.DefaultPricing()
	cfg.MarkupExemptRegexp = ""
	p, err := PolicyFromConfig(cfg)
	require.NoError(t, err)
	assert.False(t, p.IsExempt("Screen"))
}

func amounts(lines []Line) []int64 {
	out := make([]int64, len(lines))
	for i, l := range lines {
		out[i] = l.Amount
	}
	return out
}
