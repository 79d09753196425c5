package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
)

// DefaultNotFoundMessage is shown when the model flags the text as unrecognized without saying why.
const DefaultNotFoundMessage = "V textu nebyl rozpoznán žádný produkt z ceníku."

type extractionDoc struct {
	Items    []itemDoc `json:"items"`
	NotFound bool      `json:"not_found"`
	Message  string    `json:"message"`
}

type itemDoc struct {
	Product string          `json:"product"`
	Width   json.RawMessage `json:"width_mm"`
	Height  json.RawMessage `json:"height_mm"`
	Place   string          `json:"place"`
}

// ToExtraction converts a schema-valid extraction document into the typed result.
// Dimension problems stay on the item they belong to.
func ToExtraction(doc []byte) (Extraction, error) {
	var d extractionDoc
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	if d.NotFound || len(d.Items) == 0 {
		msg := strings.TrimSpace(d.Message)
		if msg == "" {
			msg = DefaultNotFoundMessage
		}
		return Unrecognized{Message: msg}, nil
	}

	out := Recognized{Items: make([]ItemResult, 0, len(d.Items))}
	for _, it := range d.Items {
		req := LineRequest{Product: strings.TrimSpace(it.Product), Place: strings.TrimSpace(it.Place)}

		w, err := dimension(it.Width)
		if err != nil {
			out.Items = append(out.Items, ItemResult{Request: req, Err: malformed(req.Product, "width", err)})
			continue
		}
		req.Width = w

		if len(it.Height) > 0 && string(it.Height) != "null" {
			h, err := dimension(it.Height)
			if err != nil {
				out.Items = append(out.Items, ItemResult{Request: req, Err: malformed(req.Product, "height", err)})
				continue
			}
			req.Height = &h
		}
		out.Items = append(out.Items, ItemResult{Request: req})
	}
	return out, nil
}

func dimension(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	var (
		n  int
		ok bool
	)
	if str, isStr := v.(string); isStr {
		var f float64
		if f, ok = evalDimension(str); ok {
			n = int(matrix.RoundHalfUp(f))
		}
	} else {
		n, ok = matrix.Normalize(v)
	}
	if !ok {
		return 0, fmt.Errorf("%s is not a number", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

func malformed(product, axis string, cause error) error {
	return common.NewAppError(common.CodeMalformedDimension,
		fmt.Sprintf("%s: unreadable %s", product, axis),
		fmt.Errorf("%w: %w", common.ErrMalformedDimension, cause))
}
