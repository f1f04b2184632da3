// vorticog runs the turn-based economic simulation engine and its API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/vorticog/internal/agents"
	"github.com/talgya/vorticog/internal/api"
	"github.com/talgya/vorticog/internal/config"
	"github.com/talgya/vorticog/internal/contracts"
	"github.com/talgya/vorticog/internal/engine"
	"github.com/talgya/vorticog/internal/entropy"
	"github.com/talgya/vorticog/internal/events"
	"github.com/talgya/vorticog/internal/finance"
	"github.com/talgya/vorticog/internal/logistics"
	"github.com/talgya/vorticog/internal/quality"
	"github.com/talgya/vorticog/internal/research"
	"github.com/talgya/vorticog/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	})))

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("config load failed", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("store open failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.Seed(ctx); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}

	seed := entropy.Seed(cfg.Seed)
	rng := rand.New(rand.NewSource(seed))
	slog.Info("world initialized", "db", cfg.DBPath, "seed", seed)

	publisher, err := events.NewNatsPublisher(os.Getenv("NATS_URL"))
	if err != nil {
		slog.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	var sink events.EventSink
	if publisher != nil {
		sink = publisher
	}
	bridge := events.NewBridge(st, sink)

	inspector := quality.NewInspector(st, rng)
	lab := research.NewLab(st)
	shipper := logistics.NewShipper(st, bridge, rng, seed)
	factory := engine.NewFactory(st, inspector, lab, bridge)
	ledger := finance.NewLedger(st)
	manager := contracts.NewManager(st, shipper)
	brain := agents.NewBrain(st)
	spawner := agents.NewSpawner(st, rng)

	hub := api.NewHub()
	processor := engine.NewProcessor(st, factory, shipper, manager, ledger, lab, bridge,
		func(summary engine.TurnSummary) { hub.Broadcast(summary) })

	limiter := api.NewRateLimiter(cfg.RateLimit.MaxPerWindow,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	for scope, limit := range cfg.RateLimit.Scopes {
		limiter.SetScopeLimit(scope, limit)
	}

	server, err := api.NewServer(cfg.ListenAddr, st, brain, spawner, manager, bridge,
		processor, hub, limiter, os.Getenv("ADMIN_KEY"))
	if err != nil {
		slog.Error("server setup failed", "error", err)
		os.Exit(1)
	}

	if cfg.AutoTurn {
		runner := engine.NewRunner(processor, time.Duration(cfg.TurnIntervalMs)*time.Millisecond)
		runner.Speed = cfg.TurnSpeed
		go runner.Run(ctx)
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
