package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/sheets"
)

// SpreadsheetExtractor reads import workbooks. Office lock files yield no records.
type SpreadsheetExtractor struct {
	logger *slog.Logger
}

func NewSpreadsheetExtractor(logger *slog.Logger) *SpreadsheetExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpreadsheetExtractor{logger: logger}
}

func (x *SpreadsheetExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{SourceType: constants.SPREADSHEET}
	name := filepath.Base(path)
	if strings.HasPrefix(name, constants.OfficeLockPrefix) {
		x.logger.Debug("extract.sheet.lockfile", "file", name)
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	recs, err := sheets.ReadLocationHistory(path, x.logger)
	if err != nil {
		return res, err
	}
	res.Records = recs
	res.Duration = time.Since(start)
	x.logger.Debug("extract.sheet.ok", "file", name, "records", len(recs), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

// Router dispatches on file extension.
type Router struct {
	byFormat map[constants.SourceFormat]Extractor
}

func NewRouter(pdf, spreadsheet Extractor) *Router {
	return &Router{byFormat: map[constants.SourceFormat]Extractor{
		constants.PDF:         pdf,
		constants.SPREADSHEET: spreadsheet,
	}}
}

func (r *Router) Extract(ctx context.Context, path string) (Result, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	x, ok := r.byFormat[constants.MapExtToFormat(ext)]
	if !ok || x == nil {
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	return x.Extract(ctx, path)
}
