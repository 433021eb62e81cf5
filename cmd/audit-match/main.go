package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/reconcile"
	repo "github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services/audit"
)

func main() {
	var (
		in      = flag.String("in", "", "master audit workbook (required)")
		out     = flag.String("out", "", "annotated workbook path (defaults to processed_<in> next to the input)")
		batch   = flag.Int("batch", 0, "rows matched per wave (0 = default)")
		workers = flag.Int("workers", 0, "minimum concurrent row lookups (never fewer than GOMAXPROCS)")
	)
	flag.Parse()

	if strings.TrimSpace(*in) == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		os.Exit(2)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*in), "processed_"+filepath.Base(*in))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := repo.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := audit.NewService(store, reconcile.Config{BatchSize: *batch, MinWorkers: *workers}, nil, logger)
	resp, err := svc.ProcessFile(ctx, *in, *out)
	if err != nil {
		logger.Error("audit failed", "in", *in, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Audit complete!\n")
	for _, line := range resp.Results {
		fmt.Printf("- %s\n", line)
	}
	fmt.Printf("- Output: %s\n", *out)
}
