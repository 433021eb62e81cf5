package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/export"
	"github.com/joseph-ayodele/fleet-telemetry/internal/ingest"
	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pdftext"
	"github.com/joseph-ayodele/fleet-telemetry/internal/progress"
	"github.com/joseph-ayodele/fleet-telemetry/internal/reconcile"
	repo "github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/server"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services/audit"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services/importer"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services/pdfconvert"
)

func main() {
	inmem := flag.Bool("inmem", false, "use an in-memory SQLite store")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.Driver = repo.DriverSQLite
		cfg.Database.DSN = ""
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := repo.HealthCheck(ctx, store, cfg.Database.DialTimeout, logger); err != nil {
		logger.Error("store health failed", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := progress.NewHub(m, logger)
	defer hub.Close()
	notifier := progress.Fanout{hub, progress.NewLogNotifier(logger)}

	defaults := services.Defaults{
		BatchSize:    cfg.Pipeline.BatchSize,
		ChunkSize:    cfg.Pipeline.ChunkSize,
		MinWorkers:   cfg.Pipeline.MinWorkers,
		WriteWorkers: cfg.Pipeline.WriteWorkers,
	}
	fs := ingest.NewLocalFS(logger)
	pages := pdftext.NewExtractor(pdftext.Config{Pdftotext: cfg.PDF.Pdftotext}, logger)

	srv := server.New(server.Deps{
		Store:    store,
		Importer: importer.NewService(store, fs, notifier, m, defaults, logger),
		PDF:      pdfconvert.NewService(pages, store, fs, notifier, m, defaults, logger),
		Audit:    audit.NewService(store, reconcile.Config{MinWorkers: cfg.Pipeline.MinWorkers}, m, logger),
		Export:   export.NewService(store, logger),
		Progress: hub,
		Gatherer: reg,
		Logger:   logger,
	})

	if dir := cfg.Server.WatchDir; dir != "" {
		events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{dir},
			AllowedExts: constants.SpreadsheetExtensions,
			InitialScan: true,
			Debounce:    cfg.Server.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dir", dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching for imports", "dir", dir, "debounce", cfg.Server.Debounce)
		go srv.WatchImports(ctx, events, services.ProcessRequest{SourceFolder: dir, OutputFolder: cfg.Server.WatchOutDir})
	}

	httpSrv := srv.HTTPServer(cfg.Server.Addr)
	go func() {
		logger.Info("http serving", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
