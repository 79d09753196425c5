package pipeline

import (
	"fmt"
	"regexp"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

type heightRule struct {
	pattern *regexp.Regexp
	height  int
}

// DefaultHeights supplies a height for products ordered by width only (screens are priced at a
// fixed height). The first matching rule wins.
type DefaultHeights struct {
	rules []heightRule
}

func NewDefaultHeights(cfg []common.DefaultHeight) (DefaultHeights, error) {
	var d DefaultHeights
	for _, dh := range cfg {
		re, err := regexp.Compile(dh.Pattern)
		if err != nil {
			return DefaultHeights{}, fmt.Errorf("default height %q: %w", dh.Pattern, err)
		}
		if dh.HeightMM <= 0 {
			return DefaultHeights{}, fmt.Errorf("default height %q: %d mm is not positive", dh.Pattern, dh.HeightMM)
		}
		d.rules = append(d.rules, heightRule{pattern: re, height: dh.HeightMM})
	}
	return d, nil
}

// For returns the default height for product.
func (d DefaultHeights) For(product string) (int, bool) {
	for _, r := range d.rules {
		if r.pattern.MatchString(product) {
			return r.height, true
		}
	}
	return 0, false
}
