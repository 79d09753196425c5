// Package catalog loads the configured price lists into an immutable product catalog and keeps
// the current catalog available for concurrent readers.
package catalog

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

// Canonical returns the lookup key for a product name: NFC, lower case, no whitespace.
func Canonical(name string) string {
	s := norm.NFC.String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// Product is one priced product of a catalog.
type Product struct {
	Key     string
	Name    string
	Locator string
	Matrix  *matrix.PriceMatrix
	Info    matrix.BuildInfo
}

// Catalog maps canonical product keys to price matrices. It is never modified after Load returns it.
type Catalog struct {
	products map[string]*Product
	order    []string
	builtAt  time.Time
	report   Report
}

// Empty returns a catalog with no products.
func Empty() *Catalog {
	return &Catalog{products: map[string]*Product{}}
}

// Lookup finds a product by any spelling that canonicalizes to the same key.
func (c *Catalog) Lookup(name string) (*Product, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.products[Canonical(name)]
	return p, ok
}

// Names returns the display names in source list order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.products[k].Name)
	}
	return out
}

// Products returns the products in source list order.
func (c *Catalog) Products() []*Product {
	if c == nil {
		return nil
	}
	out := make([]*Product, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.products[k])
	}
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Report returns the per-product outcomes of the load that produced c.
func (c *Catalog) Report() Report { return c.report }

// Outcome is the result of loading one source entry.
type Outcome struct {
	Name       string
	Locator    string
	Key        string
	Err        error
	Transposed bool
	Rows, Cols int
	Elapsed    time.Duration
}

// Report summarizes a load.
type Report struct {
	Outcomes   []Outcome
	Duplicates []string
	Skipped    []LineError
	// KeptPrevious is set when no product loaded and the previous catalog stayed active.
	KeptPrevious bool
}

// Loaded counts the outcomes without an error.
func (r Report) Loaded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that carry an error.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
