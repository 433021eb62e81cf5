package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/ingest"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pdftext"
	"github.com/joseph-ayodele/fleet-telemetry/internal/progress"
	repo "github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services/importer"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services/pdfconvert"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		mode    = flag.String("mode", "import", "job to run: import (spreadsheets) or pdf (trip reports)")
		src     = flag.String("src", "", "source folder")
		out     = flag.String("out", "", "output folder for per-report workbooks (required for -mode pdf)")
		reqPath = flag.String("request", "", "JSON request file; overrides -src/-out/-batch/-chunk/-keep")
		batch   = flag.Int("batch", 0, "files per batch (0 = configured default)")
		chunk   = flag.Int("chunk", 0, "records per store write (0 = configured default)")
		keep    = flag.Bool("keep", false, "keep source files after a committed batch")
		inmem   = flag.Bool("inmem", false, "use an in-memory SQLite store")
		debug   = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	aliases := services.ImportAliases
	if *mode == "pdf" {
		aliases = services.PDFAliases
	}
	req, err := buildRequest(*reqPath, aliases, services.ProcessRequest{
		SourceFolder: *src,
		OutputFolder: *out,
		BatchSize:    *batch,
		ChunkSize:    *chunk,
		KeepSources:  *keep,
	})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if req.SourceFolder == "" {
		printError("Error: -src (or sourceFolder in -request) is required\n")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.Driver = repo.DriverSQLite
		cfg.Database.DSN = ""
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
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

	defaults := services.Defaults{
		BatchSize:    cfg.Pipeline.BatchSize,
		ChunkSize:    cfg.Pipeline.ChunkSize,
		MinWorkers:   cfg.Pipeline.MinWorkers,
		WriteWorkers: cfg.Pipeline.WriteWorkers,
	}
	fs := ingest.NewLocalFS(logger)
	notifier := progress.NewLogNotifier(logger)

	var resp services.Response
	switch *mode {
	case "import":
		resp, _ = importer.NewService(store, fs, notifier, nil, defaults, logger).Process(ctx, req)
	case "pdf":
		pages := pdftext.NewExtractor(pdftext.Config{Pdftotext: cfg.PDF.Pdftotext}, logger)
		resp, _ = pdfconvert.NewService(pages, store, fs, notifier, nil, defaults, logger).Process(ctx, req)
	default:
		printError("Error: unknown -mode %q (want import or pdf)\n", *mode)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
	if !resp.Success {
		os.Exit(1)
	}
}

// buildRequest reads the JSON request file when given, else returns fallback.
func buildRequest(path string, aliases services.FolderAliases, fallback services.ProcessRequest) (services.ProcessRequest, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return services.ProcessRequest{}, fmt.Errorf("read request: %w", err)
	}
	return services.DecodeProcessRequest(data, aliases)
}
