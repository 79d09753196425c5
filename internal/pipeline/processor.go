// Package pipeline runs one quote request end to end: extraction, catalog lookup,
// dimension resolution and line composition.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/llm"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
	"github.com/joseph-ayodele/pergola-quoter/internal/quote"
)

// CatalogSource hands out the current catalog. *catalog.Store implements it.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Recorder receives every finished result.
type Recorder interface {
	Append(Result)
}

// ItemQuote is the outcome for one requested item. Lines is empty unless Status is ItemPriced.
// Warning carries non-fatal conditions (a missing transport line).
type ItemQuote struct {
	Request  llm.LineRequest
	Product  string // catalog display name; empty on a lookup miss
	Status   constants.ItemStatus
	Resolved matrix.ResolvedPrice
	Lines    []quote.Line
	Err      error
	Warning  error
}

// Total sums the item's lines.
func (q ItemQuote) Total() int64 { return quote.Total(q.Lines) }

// Result is a finished quote request.
type Result struct {
	ID            string
	Text          string
	CreatedAt     time.Time
	Items         []ItemQuote
	Events        []Event
	NotRecognized string // set when the text named no known product
}

// Lines returns the lines of every priced item in request order.
func (r Result) Lines() []quote.Line {
	var out []quote.Line
	for _, it := range r.Items {
		out = append(out, it.Lines...)
	}
	return out
}

func (r Result) Total() int64 { return quote.Total(r.Lines()) }

// Warnings returns the events at warn level or above in the order they were recorded.
func (r Result) Warnings() []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Level >= slog.LevelWarn {
			out = append(out, e)
		}
	}
	return out
}

// Processor coordinates extraction then pricing for each request.
type Processor struct {
	logger    *slog.Logger
	catalog   CatalogSource
	extractor llm.Extractor
	composer  *quote.Composer
	heights   DefaultHeights
	recorder  Recorder
	timeout   time.Duration
}

type Option func(*Processor)

func WithRecorder(r Recorder) Option { return func(p *Processor) { p.recorder = r } }

func WithDefaultHeights(d DefaultHeights) Option { return func(p *Processor) { p.heights = d } }

// WithExtractTimeout bounds the call to the extractor.
func WithExtractTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewProcessor(logger *slog.Logger, cat CatalogSource, extractor llm.Extractor, composer *quote.Composer, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:    logger,
		catalog:   cat,
		extractor: extractor,
		composer:  composer,
		timeout:   60 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Quote extracts the items from free text and prices each of them. An error is returned only
// when the extractor itself fails; per-item problems are reported on the items.
func (p *Processor) Quote(ctx context.Context, text string) (Result, error) {
	ctx, sess := NewSession(ctx, p.catalog.Current(), p.logger)
	sess.Record(slog.LevelInfo, constants.EventSessionStart, "", "catalog with %d products", sess.Catalog.Len())

	if p.extractor == nil {
		return Result{}, fmt.Errorf("processor: no extractor configured")
	}
	exCtx, cancel := common.WithTimeout(ctx, p.timeout)
	extraction, _, err := p.extractor.Extract(exCtx, llm.ExtractRequest{Text: text, Products: sess.Catalog.Names()})
	cancel()
	if err != nil {
		p.logger.Error("processor.extract.failed", "req_id", sess.ID, "error", err)
		return Result{}, fmt.Errorf("extract: %w", err)
	}

	switch x := extraction.(type) {
	case llm.Unrecognized:
		sess.Record(slog.LevelWarn, constants.EventNotRecognized, "", "%s", x.Message)
		return p.finish(sess, text, nil, x.Message), nil
	case llm.Recognized:
		sess.Record(slog.LevelInfo, constants.EventExtracted, "", "%d items", len(x.Items))
		return p.finish(sess, text, p.priceAll(ctx, sess, x.Items), ""), nil
	default:
		return Result{}, fmt.Errorf("extract: unexpected result %T", extraction)
	}
}

// QuoteItems prices already structured requests, skipping extraction.
func (p *Processor) QuoteItems(ctx context.Context, reqs []llm.LineRequest) Result {
	ctx, sess := NewSession(ctx, p.catalog.Current(), p.logger)
	sess.Record(slog.LevelInfo, constants.EventSessionStart, "", "catalog with %d products", sess.Catalog.Len())

	items := make([]llm.ItemResult, len(reqs))
	for i, r := range reqs {
		items[i] = llm.ItemResult{Request: r}
		if r.Width <= 0 || (r.Height != nil && *r.Height <= 0) {
			items[i].Err = common.NewAppError(common.CodeMalformedDimension,
				fmt.Sprintf("%s: dimensions must be positive", r.Product), common.ErrMalformedDimension)
		}
	}
	return p.finish(sess, "", p.priceAll(ctx, sess, items), "")
}

func (p *Processor) priceAll(ctx context.Context, sess *Session, items []llm.ItemResult) []ItemQuote {
	out := make([]ItemQuote, 0, len(items))
	for _, it := range items {
		out = append(out, p.price(ctx, sess, it))
	}
	return out
}

func (p *Processor) price(ctx context.Context, sess *Session, it llm.ItemResult) ItemQuote {
	req := it.Request
	q := ItemQuote{Request: req}

	if it.Err != nil {
		q.Status, q.Err = constants.ItemMalformedDimension, it.Err
		sess.Record(slog.LevelWarn, constants.EventMalformedDimension, req.Product, "%v", it.Err)
		return q
	}

	prod, ok := sess.Catalog.Lookup(req.Product)
	if !ok {
		q.Status = constants.ItemLookupMiss
		q.Err = common.NewAppError(common.CodeLookupMiss,
			fmt.Sprintf("%q is not in the catalog", req.Product), common.ErrLookupMiss)
		sess.Record(slog.LevelWarn, constants.EventLookupMiss, req.Product, "no catalog entry for %q", req.Product)
		return q
	}
	q.Product = prod.Name

	height, err := p.height(sess, prod.Name, req)
	if err != nil {
		q.Status, q.Err = constants.ItemMalformedDimension, err
		sess.Record(slog.LevelWarn, constants.EventMalformedDimension, prod.Name, "%v", err)
		return q
	}

	rp := prod.Matrix.Resolve(req.Width, height)
	q.Resolved = rp
	if req.Width > rp.Width || height > rp.Height {
		sess.Record(slog.LevelInfo, constants.EventClamped, prod.Name,
			"%d×%d exceeds the price list, priced at %d×%d", req.Width, height, rp.Width, rp.Height)
	}

	lines, err := p.composer.Compose(ctx, prod.Name, rp, req.Place)
	switch {
	case errors.Is(err, common.ErrNoPrice):
		q.Status, q.Err = constants.ItemNoPrice, err
		sess.Record(slog.LevelWarn, constants.EventNoPrice, prod.Name, "no price at %d×%d", rp.Width, rp.Height)
		return q
	case errors.Is(err, common.ErrTransportUnavailable):
		q.Warning = err
		sess.Record(slog.LevelWarn, constants.EventTransportUnavailable, prod.Name, "transport to %q omitted", req.Place)
	case err != nil:
		q.Status, q.Err = constants.ItemNoPrice, err
		sess.Record(slog.LevelError, constants.EventNoPrice, prod.Name, "%v", err)
		return q
	}

	q.Status, q.Lines = constants.ItemPriced, lines
	sess.Record(slog.LevelInfo, constants.EventPriced, prod.Name, "%d×%d = %d", rp.Width, rp.Height, q.Total())
	return q
}

func (p *Processor) height(sess *Session, product string, req llm.LineRequest) (int, error) {
	if req.Height != nil {
		return *req.Height, nil
	}
	if h, ok := p.heights.For(product); ok {
		sess.Record(slog.LevelInfo, constants.EventDefaultHeight, product, "no height given, using %d mm", h)
		return h, nil
	}
	return 0, common.NewAppError(common.CodeMalformedDimension,
		fmt.Sprintf("%s: height missing", product), common.ErrMalformedDimension)
}

func (p *Processor) finish(sess *Session, text string, items []ItemQuote, notRecognized string) Result {
	priced := 0
	for _, it := range items {
		if it.Status == constants.ItemPriced {
			priced++
		}
	}
	sess.Record(slog.LevelInfo, constants.EventSessionEnd, "", "%d of %d items priced", priced, len(items))

	res := Result{
		ID:            sess.ID,
		Text:          text,
		CreatedAt:     sess.Started,
		Items:         items,
		Events:        sess.Events(),
		NotRecognized: notRecognized,
	}
	p.logger.Info("processor.quote.ok",
		"req_id", sess.ID,
		"items", len(items),
		"priced", priced,
		"total", res.Total(),
		"warnings", len(res.Warnings()),
		"elapsed_ms", sess.Elapsed().Milliseconds(),
	)
	if p.recorder != nil {
		p.recorder.Append(res)
	}
	return res
}
