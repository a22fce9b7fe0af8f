// Command tally runs the dashboard engine: it fetches the expense
// snapshot from the API, streams change events from the feed, and serves
// the aggregated dashboard over HTTP and websockets.
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

	"tally/internal/api"
	"tally/internal/cache"
	"tally/internal/config"
	"tally/internal/feed"
	"tally/internal/hub"
	"tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/session"
	"tally/internal/store"
	"tally/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine, real environments set vars directly.
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

	// Widget cache: Redis when reachable, in-process LRU otherwise.
	var widgetCache cache.Cache
	if redis := cache.NewRedis(ctx, cfg.RedisAddr); redis != nil {
		defer redis.Close()
		widgetCache = redis
	} else {
		widgetCache = cache.NewMemory(256)
	}

	rates := api.NewRateClient(cfg.CurrencyURL+"/"+cfg.CurrencyBase, cfg.CurrencyBase, cfg.CurrencyTarget, widgetCache)

	var news *api.NewsClient
	if cfg.NewsURL != "" {
		news = api.NewNewsClient(cfg.NewsURL, cfg.NewsLimit, widgetCache)
	}

	var sess session.Session
	if cfg.SessionFile != "" {
		sess = session.NewFile(cfg.SessionFile)
	} else {
		sess = session.NewMemory()
	}

	var eventFeed store.Feed
	if cfg.AMQPURL != "" {
		feedClient, err := feed.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Warn("Change feed unavailable, running fetch-only", "error", err)
		} else {
			defer feedClient.Close()
			eventFeed = feedClient
		}
	}

	h := hub.New()
	go h.Run()
	defer h.Close()

	st := store.New()
	engine := store.NewEngine(st, api.NewClient(cfg.APIBaseURL), eventFeed)
	engine.OnApplied = func(ev store.Event, applied store.EventKind) {
		metrics.ObserveApplied(string(applied))
		metrics.SetStoreSize(st.Len())
		h.BroadcastEvent(ev, applied)
	}
	engine.OnStatus = func(s store.Status) {
		metrics.SetStreaming(s == store.StatusStreaming)
		slog.Info("Engine status changed", "status", s)
	}

	srv := web.NewServer(":"+cfg.Port, st, engine, rates, news, sess, h)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := engine.Start(gctx); err != nil {
			return err
		}
		metrics.SetStoreSize(st.Len())
		return nil
	})

	g.Go(func() error {
		slog.Info("Starting dashboard server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		engine.Stop()

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
