package llm

import "context"

// ExtractRequest is the free-text order plus the product names the catalog currently knows.
type ExtractRequest struct {
	Text     string
	Products []string
}

// LineRequest is one item the customer asked for. Dimensions are millimetres.
// Height is nil when the text did not mention one.
type LineRequest struct {
	Product string `json:"product"`
	Width   int    `json:"width_mm"`
	Height  *int   `json:"height_mm,omitempty"`
	Place   string `json:"place,omitempty"`
}

// ItemResult carries either a usable LineRequest or the reason the item could not be converted.
// Err wraps common.ErrMalformedDimension; other items of the same extraction are unaffected.
type ItemResult struct {
	Request LineRequest
	Err     error
}

// Extraction is either Recognized or Unrecognized.
type Extraction interface {
	isExtraction()
}

// Recognized lists the items found in the order text, in order.
type Recognized struct {
	Items []ItemResult
}

// Unrecognized means the text names no known product. Message is meant for the user.
type Unrecognized struct {
	Message string
}

func (Recognized) isExtraction()   {}
func (Unrecognized) isExtraction() {}

// Extractor is the interface the quote pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (Extraction, []byte /*rawJSON*/, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, req ExtractRequest) (Extraction, []byte, error)

func (f ExtractorFunc) Extract(ctx context.Context, req ExtractRequest) (Extraction, []byte, error) {
	return f(ctx, req)
}
