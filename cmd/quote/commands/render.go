package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/pipeline"
)

var czk = message.NewPrinter(language.Czech)

func money(n int64) string { return czk.Sprintf("%d Kč", n) }

func renderResult(w io.Writer, res pipeline.Result) {
	if res.NotRecognized != "" {
		fmt.Fprintln(w, res.NotRecognized)
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Položka", "Rozměr", "Cena"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, l := range res.Lines() {
		table.Append([]string{l.Label, l.Dimensions, money(l.Amount)})
	}
	table.SetFooter([]string{"", "Celkem", money(res.Total())})
	table.Render()

	for _, e := range res.Warnings() {
		fmt.Fprintf(w, "! %s", e.Message)
		if e.Product != "" {
			fmt.Fprintf(w, " (%s)", e.Product)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "id %s\n", res.ID)
}

func renderCatalog(w io.Writer, cat *catalog.Catalog) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Produkt", "Šířky", "Výšky", "Ceny", "Zdroj"})
	for _, p := range cat.Products() {
		note := p.Locator
		if p.Info.Transposed {
			note += " (transponováno)"
		}
		table.Append([]string{
			p.Name,
			axis(p.Matrix.Widths()),
			axis(p.Matrix.Heights()),
			strconv.Itoa(p.Matrix.PricedCells()),
			note,
		})
	}
	table.Render()

	for _, o := range cat.Report().Failed() {
		fmt.Fprintf(w, "! %s: %v\n", o.Name, o.Err)
	}
}

// axis previews a label list as "first..last (n)".
func axis(v []int) string {
	switch len(v) {
	case 0:
		return "-"
	case 1, 2, 3:
		s := make([]string, len(v))
		for i, n := range v {
			s[i] = strconv.Itoa(n)
		}
		return strings.Join(s, ", ")
	}
	return fmt.Sprintf("%d..%d (%d)", v[0], v[len(v)-1], len(v))
}
