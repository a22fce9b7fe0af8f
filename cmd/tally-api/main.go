// Command tally-api runs the reference expense API: SQLite-backed CRUD
// that publishes a change event to the feed after every mutation.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/config"
	"tally/internal/feed"
	"tally/internal/log"
	"tally/internal/resource"
	"tally/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
	log.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	var publisher resource.EventPublisher
	if cfg.AMQPURL != "" {
		feedClient, err := feed.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("Change feed unavailable, mutations will not be broadcast", "error", err)
		} else {
			defer feedClient.Close()
			publisher = feedClient
		}
	}

	service := resource.NewService(repo, publisher)
	defer service.Close()

	srv := resource.NewServer(":"+cfg.APIPort, service)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting expense API", "port", cfg.APIPort, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
