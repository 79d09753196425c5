package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/pipeline"
)

const (
	QuoteSheet  = "Nabídka"
	IssuesSheet = "Poznámky"
)

// Service produces XLSX bytes for quotes and catalog previews.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// QuoteXLSX writes the quote lines with a total row, followed by the request text.
// Items that could not be priced and session warnings go to a second sheet.
func (s *Service) QuoteXLSX(res pipeline.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", QuoteSheet); err != nil {
		return nil, err
	}

	headers := []any{"Položka", "Rozměr", "Typ", "Cena"}
	if err := f.SetSheetRow(QuoteSheet, "A1", &headers); err != nil {
		return nil, err
	}

	row := 2
	write := func(values ...any) error {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		row++
		return f.SetSheetRow(QuoteSheet, cell, &values)
	}

	for _, l := range res.Lines() {
		if err := write(l.Label, l.Dimensions, string(l.Kind), l.Amount); err != nil {
			return nil, err
		}
	}
	if err := write("Celkem", "", "", res.Total()); err != nil {
		return nil, err
	}
	row++
	if res.Text != "" {
		if err := write("Poptávka", truncate(res.Text, 2000)); err != nil {
			return nil, err
		}
	}
	if err := write("ID", res.ID); err != nil {
		return nil, err
	}
	if err := write("Vytvořeno", res.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(QuoteSheet, "A", "A", 32) // label
	_ = f.SetColWidth(QuoteSheet, "B", "B", 14) // dimensions
	_ = f.SetColWidth(QuoteSheet, "C", "C", 12) // kind
	_ = f.SetColWidth(QuoteSheet, "D", "D", 14) // amount

	issues := 0
	if _, err := f.NewSheet(IssuesSheet); err != nil {
		return nil, err
	}
	header := []any{"Produkt", "Stav", "Zpráva"}
	if err := f.SetSheetRow(IssuesSheet, "A1", &header); err != nil {
		return nil, err
	}
	if res.NotRecognized != "" {
		issues++
		vals := []any{"", string(constants.EventNotRecognized), res.NotRecognized}
		cell, _ := excelize.CoordinatesToCellName(1, issues+1)
		if err := f.SetSheetRow(IssuesSheet, cell, &vals); err != nil {
			return nil, err
		}
	}
	for _, it := range res.Items {
		msg := ""
		switch {
		case it.Err != nil:
			msg = it.Err.Error()
		case it.Warning != nil:
			msg = it.Warning.Error()
		default:
			continue
		}
		issues++
		vals := []any{it.Request.Product, string(it.Status), msg}
		cell, _ := excelize.CoordinatesToCellName(1, issues+1)
		if err := f.SetSheetRow(IssuesSheet, cell, &vals); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(IssuesSheet, "A", "A", 28)
	_ = f.SetColWidth(IssuesSheet, "C", "C", 80)
	if idx, err := f.GetSheetIndex(QuoteSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"quote_id", res.ID,
		"lines", len(res.Lines()),
		"issues", issues,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CatalogXLSX writes one sheet per product holding its normalized price matrix, heights down
// the first column and widths across the first row. Absent cells stay empty.
func (s *Service) CatalogXLSX(cat *catalog.Catalog) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	used := map[string]bool{}
	for i, p := range cat.Products() {
		sheet := sheetName(p.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		header := []any{"výška \\ šířka"}
		for _, w := range p.Matrix.Widths() {
			header = append(header, w)
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return nil, err
		}
		heights := p.Matrix.Heights()
		for r, cells := range p.Matrix.Rows() {
			vals := []any{heights[r]}
			for _, c := range cells {
				if c.Valid {
					vals = append(vals, c.Value)
				} else {
					vals = append(vals, nil)
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.catalog.ok",
		"products", cat.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// sheetName trims to Excel's 31 character limit, drops forbidden characters and keeps names unique.
func sheetName(name string, used map[string]bool) string {
	clean := []rune{}
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		clean = append(clean, r)
	}
	if len(clean) == 0 {
		clean = []rune("Produkt")
	}
	if len(clean) > 31 {
		clean = clean[:31]
	}
	base := string(clean)
	out := base
	for n := 2; used[strings.ToLower(out)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		out = string(r) + suffix
	}
	used[strings.ToLower(out)] = true
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
