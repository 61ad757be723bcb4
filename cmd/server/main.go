package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/jsonlens/internal/api"
	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/config"
	"github.com/dgallion1/jsonlens/internal/pathstore"
	"github.com/dgallion1/jsonlens/internal/pipeline"
	"github.com/dgallion1/jsonlens/internal/settings"
	"github.com/dgallion1/jsonlens/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadEnvFile(); err != nil {
		log.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	engine, err := beautify.ParseEngine(cfg.RepairEngine)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := &beautify.Beautifier{
		Engine:   engine,
		Latency:  stats.NewLatency(time.Hour),
		Counters: &stats.Counters{},
		Log:      log,
	}

	// Settings persist in pathstore when configured, otherwise in memory.
	initial := settings.Settings{
		Enabled:             true,
		URLPatterns:         cfg.URLPatterns,
		FieldNames:          cfg.FieldNames,
		RepairTruncatedJSON: cfg.RepairTruncatedJSON,
	}
	var ps *pathstore.Client
	var backend settings.Backend
	if cfg.PathstoreURL != "" {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		backend = settings.NewPathstoreBackend(ps, cfg.SettingsKey)
	}
	store := settings.NewStore(initial, backend)
	if err := store.Load(ctx); err != nil {
		log.Warn("failed to load settings, using defaults", "error", err)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, b, store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, b, store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting jsonlens", "port", cfg.Port, "engine", engine, "pathstore", cfg.PathstoreURL != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
