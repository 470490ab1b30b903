// Command journal-sync runs one sync session for a location: it loads the
// graph from the local cache and the remote store, keeps it reconciled by
// polling, and persists local mutations through the save pipeline until
// interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appsync "github.com/silv3rmat/tainted-journal/application/sync"
	"github.com/silv3rmat/tainted-journal/infrastructure/cache"
	"github.com/silv3rmat/tainted-journal/infrastructure/config"
	"github.com/silv3rmat/tainted-journal/infrastructure/remote"
	"github.com/silv3rmat/tainted-journal/pkg/extensions"
	"github.com/silv3rmat/tainted-journal/pkg/identity"
	"github.com/silv3rmat/tainted-journal/pkg/observability"
)

func main() {
	locationID := flag.Int64("location", 1, "location id to sync")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	resolver := identity.NewResolver(cfg.TokenPath, logger)
	if err := resolver.Watch(); err != nil {
		logger.Warn("identity watcher unavailable", zap.Error(err))
	}
	defer resolver.Close()
	logger.Info("session author", zap.String("author", resolver.Author()))

	localCache, err := cache.Open(cfg.CachePath, logger)
	if err != nil {
		logger.Fatal("Failed to open local cache", zap.Error(err))
	}
	defer localCache.Close()

	metrics := observability.NewCollector("journal_sync")
	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsAddress, metrics, logger)
	}

	client := remote.NewClient(cfg.RemoteBaseURL, nil, logger)

	timings := appsync.DefaultTimings()
	timings.PollInterval = cfg.PollInterval
	timings.SettleDelay = cfg.SettleDelay
	timings.EditDefer = cfg.EditDefer
	timings.ThrottleWindow = cfg.ThrottleWindow
	timings.SaveCooldown = cfg.SaveCooldown

	engine := appsync.NewEngine(*locationID, client, localCache, timings, metrics, logger)
	engine.Hooks().Register(extensions.HookStatusChanged, func(data interface{}) {
		if status, ok := data.(appsync.Status); ok {
			logger.Info("save status", zap.String("status", string(status)))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := engine.Start(ctx); err != nil {
		logger.Fatal("Failed to start sync session", zap.Error(err))
	}
	defer engine.Close()

	logger.Info("sync session running",
		zap.Int64("location", *locationID),
		zap.String("remote", cfg.RemoteBaseURL),
		zap.Bool("empty", engine.EmptyState()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down sync session...")
}

func serveMetrics(addr string, metrics *observability.Collector, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	logger.Info("metrics listening", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
