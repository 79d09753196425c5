// Package quote turns a resolved matrix price into the ordered quote lines shown to the customer.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/distance"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

// Line is one row of a quote. Amount is in whole currency units.
type Line struct {
	Kind       constants.LineKind
	Label      string
	Dimensions string
	Amount     int64
}

// Policy holds the pricing rules applied on top of matrix prices.
type Policy struct {
	MarkupTiers []int          // percent
	Exempt      *regexp.Regexp // products matching get no markup lines; nil exempts nothing
	RatePerKM   float64
	Origin      string
}

// PolicyFromConfig compiles the configured pricing rules.
func PolicyFromConfig(p common.PricingConfig) (Policy, error) {
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	pol := Policy{
		MarkupTiers: append([]int(nil), p.MarkupTiers...),
		RatePerKM:   p.TransportRatePerKM,
		Origin:      p.Origin,
	}
	if p.MarkupExemptRegexp != "" {
		pol.Exempt = regexp.MustCompile(p.MarkupExemptRegexp)
	}
	return pol, nil
}

// IsExempt reports whether product gets no installation markup.
func (p Policy) IsExempt(product string) bool {
	return p.Exempt != nil && p.Exempt.MatchString(product)
}

// ProductLine is the first line of every priced item.
func ProductLine(name string, rp matrix.ResolvedPrice) Line {
	return Line{
		Kind:       constants.LineProduct,
		Label:      name,
		Dimensions: fmt.Sprintf("%d×%d", rp.Width, rp.Height),
		Amount:     rp.Price,
	}
}

// MarkupLines computes each tier from the unrounded base price, independently of the others.
func MarkupLines(base int64, tiers []int) []Line {
	out := make([]Line, 0, len(tiers))
	for _, k := range tiers {
		out = append(out, Line{
			Kind:   constants.LineMarkup,
			Label:  fmt.Sprintf("Montáž %d %%", k),
			Amount: int64(matrix.RoundHalfUp(float64(base) * float64(k) / 100)),
		})
	}
	return out
}

// TransportLine charges the round trip: round(km × 2 × rate).
func TransportLine(place string, km, rate float64) Line {
	return Line{
		Kind:       constants.LineTransport,
		Label:      "Doprava " + place,
		Dimensions: fmt.Sprintf("%.1f km", km),
		Amount:     int64(matrix.RoundHalfUp(km * 2 * rate)),
	}
}

// Total sums line amounts.
func Total(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Amount
	}
	return sum
}

// Composer assembles product, markup and transport lines.
type Composer struct {
	policy   Policy
	distance distance.Lookup
	timeout  time.Duration
	logger   *slog.Logger
}

type ComposerOption func(*Composer)

// WithDistanceTimeout bounds each distance lookup.
func WithDistanceTimeout(d time.Duration) ComposerOption {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func NewComposer(policy Policy, lookup distance.Lookup, logger *slog.Logger, opts ...ComposerOption) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Composer{policy: policy, distance: lookup, timeout: 15 * time.Second, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Composer) Policy() Policy { return c.policy }

// Compose returns the lines for one item. An absent price fails with ErrNoPrice and no lines.
// A failed distance lookup returns the lines without transport together with an
// ErrTransportUnavailable error, which callers treat as a warning.
func (c *Composer) Compose(ctx context.Context, name string, rp matrix.ResolvedPrice, place string) ([]Line, error) {
	if !rp.HasPrice {
		return nil, common.NewAppError(common.CodeNoPrice,
			fmt.Sprintf("%s has no price at %d×%d", name, rp.Width, rp.Height), common.ErrNoPrice)
	}

	lines := []Line{ProductLine(name, rp)}
	if !c.policy.IsExempt(name) {
		lines = append(lines, MarkupLines(rp.Price, c.policy.MarkupTiers)...)
	}
	if place == "" {
		return lines, nil
	}

	km, err := c.lookup(ctx, place)
	if err != nil {
		c.logger.Warn("quote.transport.unavailable", "product", name, "place", place, "error", err)
		return lines, common.NewAppError(common.CodeTransportUnavailable,
			fmt.Sprintf("no distance to %q", place), fmt.Errorf("%w: %w", common.ErrTransportUnavailable, err))
	}
	return append(lines, TransportLine(place, km, c.policy.RatePerKM)), nil
}

func (c *Composer) lookup(ctx context.Context, place string) (float64, error) {
	if c.distance == nil {
		return 0, fmt.Errorf("no distance provider configured")
	}
	ctx, cancel := common.WithTimeout(ctx, c.timeout)
	defer cancel()
	km, err := c.distance.DistanceKM(ctx, c.policy.Origin, place)
	if err != nil {
		return 0, err
	}
	if km < 0 {
		return 0, fmt.Errorf("negative distance %.1f", km)
	}
	return km, nil
}
