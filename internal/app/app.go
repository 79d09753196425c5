package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/distance"
	"github.com/joseph-ayodele/pergola-quoter/internal/distance/google"
	"github.com/joseph-ayodele/pergola-quoter/internal/history"
	"github.com/joseph-ayodele/pergola-quoter/internal/llm/openai"
	"github.com/joseph-ayodele/pergola-quoter/internal/matrix"
	"github.com/joseph-ayodele/pergola-quoter/internal/pipeline"
	"github.com/joseph-ayodele/pergola-quoter/internal/quote"
)

// App is the wired quoting stack shared by the daemon and the CLI.
type App struct {
	Config    *common.Config
	Catalog   *catalog.Store
	History   *history.Store[pipeline.Result]
	Processor *pipeline.Processor

	closers []io.Closer
	logger  *slog.Logger
}

// NewLogger returns a text logger at the given level name (debug, info, warn, error).
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// New builds the stack and loads the catalog once. A missing or empty source list is fatal here;
// individual products that fail to load are only reported.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	builder := matrix.NewBuilder(matrix.OrientationStrategy{
		RowLabelRatio:    cfg.Pricing.RowLabelRatio,
		ColumnLabelRatio: cfg.Pricing.ColumnLabelRatio,
	}, logger)
	loader := catalog.NewLoader(catalog.NewSourceFetcher(nil, logger), builder, logger,
		catalog.WithConcurrency(cfg.Catalog.FetchConcurrency),
		catalog.WithFetchTimeout(cfg.Catalog.FetchTimeout),
	)
	a.Catalog = catalog.NewStore(loader, cfg.Catalog.SourcesPath, logger)
	report, err := a.Catalog.Reload(ctx)
	if err != nil && errors.Is(err, common.ErrSourceList) {
		return nil, err
	}
	if err != nil {
		logger.Warn("catalog.initial_load_incomplete", "error", err)
	}
	logger.Info("catalog.loaded", "products", a.Catalog.Current().Len(), "failed", len(report.Failed()))

	lookup, err := a.distance(ctx)
	if err != nil {
		return nil, err
	}

	policy, err := quote.PolicyFromConfig(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	heights, err := pipeline.NewDefaultHeights(cfg.Pricing.DefaultHeights)
	if err != nil {
		return nil, err
	}

	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	composer := quote.NewComposer(policy, lookup, logger, quote.WithDistanceTimeout(cfg.Distance.Timeout))

	a.History = history.NewStore(cfg.Server.HistorySize, func(r pipeline.Result) string { return r.ID })
	a.Processor = pipeline.NewProcessor(logger, a.Catalog, extractor, composer,
		pipeline.WithRecorder(a.History),
		pipeline.WithDefaultHeights(heights),
		pipeline.WithExtractTimeout(cfg.LLM.Timeout),
	)
	return a, nil
}

func (a *App) distance(ctx context.Context) (distance.Lookup, error) {
	cfg := a.Config.Distance
	var lookup distance.Lookup = google.NewClient(google.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, a.logger)

	switch cfg.CacheDriver {
	case "redis":
		rc, err := distance.NewRedisCache(ctx, distance.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "connect distance cache", err)
		}
		a.closers = append(a.closers, rc)
		lookup = distance.NewCached(lookup, rc, cfg.CacheTTL, a.logger)
	case "memory":
		mc := distance.NewMemoryCache(1000)
		a.closers = append(a.closers, mc)
		lookup = distance.NewCached(lookup, mc, cfg.CacheTTL, a.logger)
	}
	return distance.NewLogged(lookup, a.logger), nil
}

// Close releases the distance cache.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("app.close_failed", "error", err)
		}
	}
}
