package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
)

// Store publishes the current catalog. Readers take a snapshot with Current and keep using it
// for the whole request; Reload builds a complete new catalog before swapping it in.
type Store struct {
	current     atomic.Pointer[Catalog]
	loader      *Loader
	sourcesPath string
	logger      *slog.Logger

	mu sync.Mutex
}

func NewStore(loader *Loader, sourcesPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{loader: loader, sourcesPath: sourcesPath, logger: logger}
	s.current.Store(Empty())
	return s
}

// Current returns the catalog snapshot. It is never nil.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Swap publishes c.
func (s *Store) Swap(c *Catalog) {
	if c == nil {
		c = Empty()
	}
	s.current.Store(c)
}

// Reload re-reads the source list and rebuilds the catalog. An unusable source list fails with
// ErrSourceList and leaves the current catalog in place, as does a load in which every product
// failed while the current catalog still has products.
func (s *Store) Reload(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	sources, skipped, err := ReadSourceFile(s.sourcesPath)
	for _, le := range skipped {
		s.logger.Warn("catalog.sources.skipped_line", "path", s.sourcesPath, "line", le.Line, "text", le.Text)
	}
	if err != nil {
		s.logger.Error("catalog.reload.source_list_error", "path", s.sourcesPath, "error", err)
		return Report{Skipped: skipped}, err
	}

	next, report := s.loader.Load(ctx, sources)
	report.Skipped = skipped
	next.report = report

	prev := s.Current()
	if next.Len() == 0 && prev.Len() > 0 {
		report.KeptPrevious = true
		s.logger.Error("catalog.reload.kept_previous",
			"path", s.sourcesPath,
			"failed", len(report.Failed()),
			"previous_products", prev.Len(),
		)
		return report, common.NewAppError(common.CodeIngestion, "no product could be loaded; keeping previous catalog",
			fmt.Errorf("%w: %d sources failed", common.ErrIngestion, len(report.Failed())))
	}

	s.current.Store(next)
	s.logger.Info("catalog.reload.swapped",
		"products", next.Len(),
		"previous_products", prev.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// SourcesPath returns the source list file the store reloads from.
func (s *Store) SourcesPath() string { return s.sourcesPath }
