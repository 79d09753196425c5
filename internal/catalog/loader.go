package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

// Loader fetches every source concurrently and then builds the catalog sequentially in source
// list order, so a later entry with the same canonical key always replaces an earlier one.
type Loader struct {
	fetcher     Fetcher
	builder     *matrix.Builder
	logger      *slog.Logger
	concurrency int
	timeout     time.Duration
}

type LoaderOption func(*Loader)

func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func NewLoader(fetcher Fetcher, builder *matrix.Builder, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if builder == nil {
		builder = matrix.NewBuilder(matrix.DefaultStrategy(), logger)
	}
	l := &Loader{
		fetcher:     fetcher,
		builder:     builder,
		logger:      logger,
		concurrency: 4,
		timeout:     20 * time.Second,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

type fetched struct {
	source  Source
	table   matrix.RawTable
	err     error
	elapsed time.Duration
}

// Load never fails as a whole: a product that cannot be fetched or built is recorded in the
// report and left out of the catalog.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Catalog, Report) {
	loadID := uuid.New().String()
	start := time.Now()
	l.logger.Info("catalog.load.start", "load_id", loadID, "sources", len(sources))

	var report Report
	expanded := l.expand(ctx, sources, &report)

	results := make([]fetched, len(expanded))
	g := new(errgroup.Group)
	g.SetLimit(l.concurrency)
	for i, src := range expanded {
		g.Go(func() error {
			fctx, cancel := common.WithTimeout(ctx, l.timeout)
			defer cancel()
			t0 := time.Now()
			table, err := l.fetcher.Fetch(fctx, src.Locator)
			results[i] = fetched{source: src, table: table, err: err, elapsed: time.Since(t0)}
			return nil
		})
	}
	_ = g.Wait()

	cat := Empty()
	for _, r := range results {
		out := Outcome{Name: r.source.Name, Locator: r.source.Locator, Key: Canonical(r.source.Name), Elapsed: r.elapsed}
		switch {
		case r.err != nil:
			out.Err = productError(r.source.Name, fmt.Errorf("fetch: %w", r.err))
		case out.Key == "":
			out.Err = productError(r.source.Name, fmt.Errorf("blank product name"))
		default:
			m, info, err := l.builder.Build(r.source.Name, r.table)
			if err != nil {
				out.Err = err
				break
			}
			out.Transposed = info.Transposed
			out.Rows, out.Cols = m.Size()
			if prev, dup := cat.products[out.Key]; dup {
				report.Duplicates = append(report.Duplicates, out.Key)
				l.logger.Warn("catalog.duplicate_product",
					"load_id", loadID,
					"key", out.Key,
					"replaced", prev.Locator,
					"by", r.source.Locator,
				)
			} else {
				cat.order = append(cat.order, out.Key)
			}
			cat.products[out.Key] = &Product{
				Key:     out.Key,
				Name:    r.source.Name,
				Locator: r.source.Locator,
				Matrix:  m,
				Info:    info,
			}
		}

		if out.Err != nil {
			l.logger.Warn("catalog.product.failed", "load_id", loadID, "product", out.Name, "error", out.Err)
		} else {
			l.logger.Debug("catalog.product.loaded",
				"load_id", loadID,
				"product", out.Name,
				"rows", out.Rows,
				"cols", out.Cols,
				"transposed", out.Transposed,
				"elapsed_ms", out.Elapsed.Milliseconds(),
			)
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	cat.builtAt = time.Now()
	cat.report = report
	l.logger.Info("catalog.load.done",
		"load_id", loadID,
		"products", cat.Len(),
		"failed", len(report.Failed()),
		"duplicates", len(report.Duplicates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cat, report
}

// expand replaces workbook entries ending in "#*" by one entry per sheet, named after the sheet.
func (l *Loader) expand(ctx context.Context, sources []Source, report *Report) []Source {
	lister, canList := l.fetcher.(SheetLister)
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		base, frag, ok := strings.Cut(s.Locator, "#")
		if !ok || frag != AllSheets {
			out = append(out, s)
			continue
		}
		if !canList {
			report.Outcomes = append(report.Outcomes, Outcome{Name: s.Name, Locator: s.Locator, Key: Canonical(s.Name),
				Err: productError(s.Name, fmt.Errorf("source cannot be expanded into sheets"))})
			continue
		}
		fctx, cancel := common.WithTimeout(ctx, l.timeout)
		sheets, err := lister.Sheets(fctx, base)
		cancel()
		if err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{Name: s.Name, Locator: s.Locator, Key: Canonical(s.Name),
				Err: productError(s.Name, fmt.Errorf("list sheets: %w", err))})
			continue
		}
		for _, sheet := range sheets {
			out = append(out, Source{Name: sheet, Locator: base + "#" + sheet})
		}
	}
	return out
}

func productError(name string, cause error) error {
	return common.NewAppError(common.CodeIngestion,
		fmt.Sprintf("price table %q", name),
		fmt.Errorf("%w: %w", common.ErrIngestion, cause))
}
