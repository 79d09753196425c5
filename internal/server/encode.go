package server

import (
	"time"

	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/pipeline"
	"github.com/joseph-ayodele/pergola-quoter/internal/quote"
)

// structpb.NewStruct only accepts []any and map[string]any containers, hence the conversions below.

func encodeResult(r pipeline.Result) map[string]any {
	items := make([]any, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, encodeItem(it))
	}
	events := make([]any, 0, len(r.Events))
	for _, e := range r.Events {
		events = append(events, map[string]any{
			"time":    e.Time.Format(time.RFC3339Nano),
			"level":   e.Level.String(),
			"kind":    string(e.Kind),
			"product": e.Product,
			"message": e.Message,
		})
	}
	out := map[string]any{
		"id":         r.ID,
		"created_at": r.CreatedAt.Format(time.RFC3339),
		"items":      items,
		"lines":      encodeLines(r.Lines()),
		"total":      r.Total(),
		"events":     events,
	}
	if r.NotRecognized != "" {
		out["not_recognized"] = r.NotRecognized
	}
	return out
}

func encodeItem(it pipeline.ItemQuote) map[string]any {
	req := map[string]any{
		"product":  it.Request.Product,
		"width_mm": it.Request.Width,
	}
	if it.Request.Height != nil {
		req["height_mm"] = *it.Request.Height
	}
	if it.Request.Place != "" {
		req["place"] = it.Request.Place
	}
	out := map[string]any{
		"request": req,
		"status":  string(it.Status),
		"lines":   encodeLines(it.Lines),
		"total":   it.Total(),
	}
	if it.Product != "" {
		out["product"] = it.Product
	}
	if it.Resolved.Width > 0 {
		out["resolved"] = map[string]any{
			"width_mm":  it.Resolved.Width,
			"height_mm": it.Resolved.Height,
		}
	}
	if it.Err != nil {
		out["error"] = it.Err.Error()
	}
	if it.Warning != nil {
		out["warning"] = it.Warning.Error()
	}
	return out
}

func encodeLines(lines []quote.Line) []any {
	out := make([]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{
			"kind":       string(l.Kind),
			"label":      l.Label,
			"dimensions": l.Dimensions,
			"amount":     l.Amount,
		})
	}
	return out
}

func encodeSummary(r pipeline.Result) map[string]any {
	products := make([]any, 0, len(r.Items))
	for _, it := range r.Items {
		products = append(products, it.Request.Product)
	}
	return map[string]any{
		"id":         r.ID,
		"created_at": r.CreatedAt.Format(time.RFC3339),
		"text":       r.Text,
		"products":   products,
		"total":      r.Total(),
	}
}

func encodeProduct(p *catalog.Product) map[string]any {
	return map[string]any{
		"name":         p.Name,
		"key":          p.Key,
		"source":       p.Locator,
		"widths":       ints(p.Matrix.Widths()),
		"heights":      ints(p.Matrix.Heights()),
		"priced_cells": p.Matrix.PricedCells(),
		"transposed":   p.Info.Transposed,
	}
}

func encodeReport(r catalog.Report) map[string]any {
	failed := []any{}
	for _, o := range r.Failed() {
		failed = append(failed, map[string]any{"name": o.Name, "source": o.Locator, "error": o.Err.Error()})
	}
	dups := make([]any, 0, len(r.Duplicates))
	for _, d := range r.Duplicates {
		dups = append(dups, d)
	}
	skipped := make([]any, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		skipped = append(skipped, s.Error())
	}
	return map[string]any{
		"loaded":        r.Loaded(),
		"failed":        failed,
		"duplicates":    dups,
		"skipped":       skipped,
		"kept_previous": r.KeptPrevious,
	}
}

func ints(v []int) []any {
	out := make([]any, len(v))
	for i, n := range v {
		out[i] = n
	}
	return out
}
