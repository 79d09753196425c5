package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/pergola-quoter/internal/app"
	"github.com/joseph-ayodele/pergola-quoter/internal/async"
	"github.com/joseph-ayodele/pergola-quoter/internal/catalog"
	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/export"
	"github.com/joseph-ayodele/pergola-quoter/internal/server"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(2)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err, "sources", cfg.Catalog.SourcesPath)
		os.Exit(1)
	}
	defer a.Close()

	refresh := make(chan []string, 1)
	reloader := async.NewReloader(a.Catalog, logger,
		async.WithInterval(cfg.Catalog.ReloadInterval),
		async.WithReloadTimeout(cfg.Catalog.ReloadTimeout),
		async.WithOnDone(func(async.Job, catalog.Report, error) {
			if cfg.Catalog.Watch {
				sendLatest(refresh, watchFiles(cfg.Catalog.SourcesPath, logger))
			}
		}),
	)
	if cfg.Catalog.Watch {
		changes, errs, err := catalog.Watch(ctx, catalog.WatchConfig{
			Files:    watchFiles(cfg.Catalog.SourcesPath, logger),
			Debounce: cfg.Catalog.WatchDebounce,
			Logger:   logger,
			Refresh:  refresh,
		})
		if err != nil {
			logger.Warn("catalog watch disabled", "error", err)
		} else {
			go reloader.Follow(ctx, changes, errs)
		}
	}

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	svc := server.NewQuoteService(a.Processor, a.Catalog, a.History, export.NewService(logger), cfg.Server.QuoteTimeout, logger,
		server.WithReloadQueue(reloader))
	server.RegisterQuoteServer(grpcServer, svc)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr, "products", a.Catalog.Current().Len())

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reloader.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// watchFiles lists the source list and the price tables on local disk so edits to them trigger a reload too.
func watchFiles(path string, logger *slog.Logger) []string {
	files, err := catalog.WatchFiles(path)
	if err != nil {
		logger.Warn("read source list for watch", "error", err)
	}
	return files
}

// sendLatest replaces any list still waiting in ch with files. ch has a single sender.
func sendLatest(ch chan []string, files []string) {
	select {
	case <-ch:
	default:
	}
	ch <- files
}
