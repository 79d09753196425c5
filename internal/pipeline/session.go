package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/constants"
	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

// Event is one structured record of what happened while quoting.
type Event struct {
	Time    time.Time
	Level   slog.Level
	Kind    constants.EventKind
	Product string
	Message string
}

// Session is the state of one quote request. It is passed explicitly to every stage and
// is not shared between requests. The catalog is the snapshot current when the session started.
type Session struct {
	ID      string
	Catalog *catalog.Catalog
	Started time.Time

	events []Event
	logger *slog.Logger
	now    func() time.Time
}

// NewSession takes the request id from ctx (minting one when absent) and pins cat.
func NewSession(ctx context.Context, cat *catalog.Catalog, logger *slog.Logger) (context.Context, *Session) {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		cat = catalog.Empty()
	}
	ctx, id := common.EnsureRequestID(ctx)
	logger = logger.With("req_id", id)
	if src := common.SourceFromContext(ctx); src != "" {
		logger = logger.With("source", src)
	}
	s := &Session{ID: id, Catalog: cat, logger: logger, now: time.Now}
	s.Started = s.now()
	return ctx, s
}

// Record appends an event and mirrors it to the log.
func (s *Session) Record(level slog.Level, kind constants.EventKind, product, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	s.events = append(s.events, Event{Time: s.now(), Level: level, Kind: kind, Product: product, Message: msg})
	s.logger.Log(context.Background(), level, "pipeline.event", "kind", string(kind), "product", product, "message", msg)
}

// Events returns a copy of the recorded events in order.
func (s *Session) Events() []Event {
	return slices.Clone(s.events)
}

func (s *Session) Elapsed() time.Duration { return s.now().Sub(s.Started) }
