// Command devserver runs the in-memory overwrite store the sync engine talks
// to during development. It mirrors the production store's contract: fetch
// returns the location detail, save replaces the whole graph.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/silv3rmat/tainted-journal/domain/graph"
	"github.com/silv3rmat/tainted-journal/infrastructure/config"
	"github.com/silv3rmat/tainted-journal/infrastructure/persistence/memory"
	"github.com/silv3rmat/tainted-journal/interfaces/http/rest"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	store := memory.NewLocationStore()
	seed(store)

	handler := rest.NewRouter(store, logger).Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting dev store",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down dev store...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}

// seed puts one editable location in the store so a fresh client has
// something to sync against
func seed(store *memory.LocationStore) {
	number := 1
	store.Seed(graph.Location{
		ID:      1,
		Number:  &number,
		Name:    "Dev Location",
		HasData: true,
	}, nil)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
