package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/async"
	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/export"
	"github.com/joseph-ayodele/pergola-quoter/internal/llm"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
	"github.com/joseph-ayodele/pergola-quoter/internal/pipeline"
)

const maxTextLength = 8000

// Quoter runs quote requests. *pipeline.Processor implements it.
type Quoter interface {
	Quote(ctx context.Context, text string) (pipeline.Result, error)
	QuoteItems(ctx context.Context, reqs []llm.LineRequest) pipeline.Result
}

// CatalogStore is the catalog side of the service. *catalog.Store implements it.
type CatalogStore interface {
	Current() *catalog.Catalog
	Reload(ctx context.Context) (catalog.Report, error)
}

// HistoryStore is the read side of the quote history.
type HistoryStore interface {
	List(limit int) []pipeline.Result
	Get(id string) (pipeline.Result, error)
}

type QuoteService struct {
	quoter  Quoter
	catalog CatalogStore
	history HistoryStore
	export  *export.Service
	timeout time.Duration
	reloads async.Queue
	logger  *slog.Logger
}

type ServiceOption func(*QuoteService)

// WithReloadQueue lets ReloadCatalog hand {"async": true} requests to q instead of reloading inline.
func WithReloadQueue(q async.Queue) ServiceOption {
	return func(s *QuoteService) { s.reloads = q }
}

func NewQuoteService(q Quoter, cat CatalogStore, hist HistoryStore, exp *export.Service, timeout time.Duration, logger *slog.Logger, opts ...ServiceOption) *QuoteService {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = export.NewService(logger)
	}
	s := &QuoteService{quoter: q, catalog: cat, history: hist, export: exp, timeout: timeout, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Quote accepts either {"text": "..."} or {"items": [{"product", "width_mm", "height_mm", "place"}]}.
func (s *QuoteService) Quote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(common.WithSource(ctx, "grpc"))
	fields := req.GetFields()
	text := strings.TrimSpace(fields["text"].GetStringValue())
	items := fields["items"].GetListValue().GetValues()

	if text == "" && len(items) == 0 {
		s.logger.Error("quote request missing text and items", "req_id", rid)
		return nil, status.Error(codes.InvalidArgument, "text or items is required")
	}

	ctx, cancel := common.WithTimeout(ctx, s.timeout)
	defer cancel()

	var res pipeline.Result
	if text != "" {
		v := common.NewValidator().Field("text", text, common.Required, common.MaxLength(maxTextLength))
		if err := common.ValidateAndReturnError(v); err != nil {
			return nil, err
		}
		var err error
		res, err = s.quoter.Quote(ctx, text)
		if err != nil {
			s.logger.Error("quote failed", "req_id", rid, "error", err)
			return nil, status.Errorf(codes.Unavailable, "extract: %v", err)
		}
	} else {
		reqs, err := decodeItems(items)
		if err != nil {
			return nil, err
		}
		res = s.quoter.QuoteItems(ctx, reqs)
	}

	s.logger.Info("quote served", "req_id", rid, "quote_id", res.ID, "items", len(res.Items), "total", res.Total())
	return structpb.NewStruct(encodeResult(res))
}

// decodeItems rejects only requests without a product name. Dimensions that are missing, not
// numeric or out of range become 0 so the processor reports the item as MALFORMED_DIMENSION
// while the other items are still priced.
func decodeItems(values []*structpb.Value) ([]llm.LineRequest, error) {
	out := make([]llm.LineRequest, 0, len(values))
	val := common.NewValidator()
	for i, v := range values {
		f := v.GetStructValue().GetFields()
		product := strings.TrimSpace(f[constants.FieldProduct].GetStringValue())
		val.Field(fmt.Sprintf("items[%d].product", i), product, common.Required)

		r := llm.LineRequest{
			Product: product,
			Width:   dimension(f[constants.FieldWidth]),
			Place:   strings.TrimSpace(f[constants.FieldPlace].GetStringValue()),
		}
		if h := f[constants.FieldHeight]; h != nil && h.GetKind() != nil {
			if _, isNull := h.GetKind().(*structpb.Value_NullValue); !isNull {
				height := dimension(h)
				r.Height = &height
			}
		}
		out = append(out, r)
	}
	if err := common.ValidateAndReturnError(val); err != nil {
		return nil, err
	}
	return out, nil
}

// maxDimension bounds accepted millimetre values; anything larger is treated as malformed.
const maxDimension = 1_000_000

func dimension(v *structpb.Value) int {
	var f float64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f = matrix.RoundHalfUp(k.NumberValue)
	case *structpb.Value_StringValue:
		n, ok := matrix.Normalize(k.StringValue)
		if !ok {
			return 0
		}
		f = float64(n)
	default:
		return 0
	}
	if math.IsNaN(f) || f <= 0 || f > maxDimension {
		return 0
	}
	return int(f)
}

func (s *QuoteService) ListProducts(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	cat := s.catalog.Current()
	products := make([]any, 0, cat.Len())
	for _, p := range cat.Products() {
		products = append(products, encodeProduct(p))
	}
	out := map[string]any{
		"products": products,
		"count":    cat.Len(),
	}
	if !cat.BuiltAt().IsZero() {
		out["built_at"] = cat.BuiltAt().Format(time.RFC3339)
	}
	return structpb.NewStruct(out)
}

func (s *QuoteService) ReloadCatalog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(common.WithSource(ctx, "grpc"))
	if req.GetFields()["async"].GetBoolValue() {
		if s.reloads == nil {
			return nil, status.Error(codes.FailedPrecondition, "background reloads are not enabled")
		}
		if err := s.reloads.Enqueue(ctx, async.Job{Reason: "grpc"}); err != nil {
			return nil, status.Error(codes.Unavailable, err.Error())
		}
		s.logger.Info("catalog reload queued", "req_id", rid)
		return structpb.NewStruct(map[string]any{"queued": true, "products": s.catalog.Current().Len()})
	}
	report, err := s.catalog.Reload(ctx)
	if err != nil && errors.Is(err, common.ErrSourceList) {
		s.logger.Error("catalog reload failed", "req_id", rid, "error", err)
		return nil, common.ToStatus(err)
	}
	out := encodeReport(report)
	out["products"] = s.catalog.Current().Len()
	if err != nil {
		// the previous catalog stays active
		out["error"] = err.Error()
	}
	s.logger.Info("catalog reloaded", "req_id", rid, "loaded", report.Loaded(), "failed", len(report.Failed()))
	return structpb.NewStruct(out)
}

func (s *QuoteService) History(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := int(req.GetFields()["limit"].GetNumberValue())
	if limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	quotes := []any{}
	if s.history != nil {
		for _, r := range s.history.List(limit) {
			quotes = append(quotes, encodeSummary(r))
		}
	}
	return structpb.NewStruct(map[string]any{"quotes": quotes})
}

func (s *QuoteService) ExportQuote(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(req.GetFields()["id"].GetStringValue())
	v := common.NewValidator().Field("id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, status.Error(codes.NotFound, "quote history is disabled")
	}
	res, err := s.history.Get(id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	xlsx, err := s.export.QuoteXLSX(res)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "quote_id", id, "err", err)
		return nil, common.InternalErrorf("export: %v", err)
	}
	return structpb.NewStruct(map[string]any{
		"filename": "nabidka-" + id[:8] + ".xlsx",
		"xlsx":     xlsx,
	})
}
