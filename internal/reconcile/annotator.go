// Package reconcile annotates a master audit workbook with geo-temporal
// match verdicts from the canonical store.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pipeline"
)

// DefaultBatchSize is how many audit rows are matched per wave.
const DefaultBatchSize = 500

// RowMatcher resolves one audit row against the store.
type RowMatcher interface {
	Match(ctx context.Context, vehicleID, fromDate, toDate string, lat, lng float64) (entity.MatchResult, error)
}

// Workbook is the audit workbook being annotated. SetVerdict must be safe
// for concurrent use.
type Workbook interface {
	Rows() ([]entity.AuditRow, int, error)
	SetVerdict(idx int, status constants.MatchStatus, matchedAt, file string) error
}

type Config struct {
	BatchSize int

	// MinWorkers is the lookup pool floor; the pool never runs fewer than
	// GOMAXPROCS workers.
	MinWorkers int
}

type Summary struct {
	Rows    int
	Matched int
	Missed  int
	Skipped int
	Failed  int
	Elapsed time.Duration
}

type Annotator struct {
	matcher RowMatcher
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAnnotator(matcher RowMatcher, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Annotator{matcher: matcher, cfg: cfg, metrics: m, logger: logger}
}

// Annotate matches every complete row and writes its verdict. A row whose
// dates do not parse or whose lookup fails is logged and left untouched.
func (a *Annotator) Annotate(ctx context.Context, wb Workbook) (Summary, error) {
	start := time.Now()
	rows, skipped, err := wb.Rows()
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Rows: len(rows), Skipped: skipped}
	for range skipped {
		a.metrics.AuditRow("skipped")
	}

	var matched, missed, failed atomic.Int64
	workers := pipeline.ExtractionWorkers(a.cfg.MinWorkers)
	for bi, batch := range pipeline.Partition(rows, a.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("annotate cancelled at batch %d: %w", bi+1, err)
		}
		_ = pipeline.ForEach(ctx, workers, batch, func(ctx context.Context, _ int, row entity.AuditRow) error {
			res, err := a.matcher.Match(ctx, row.VehicleID, row.FromDate, row.ToDate, row.Lat, row.Lng)
			if err != nil {
				failed.Add(1)
				a.metrics.AuditRow("failed")
				a.logger.Warn("reconcile.row.failed", "row", row.Index, "vehicle_id", row.VehicleID, "error", err)
				return nil
			}
			status, ts, file := Verdict(res)
			if err := wb.SetVerdict(row.Index, status, ts, file); err != nil {
				failed.Add(1)
				a.metrics.AuditRow("failed")
				a.logger.Error("reconcile.row.write_failed", "row", row.Index, "error", err)
				return nil
			}
			if res.Matched {
				matched.Add(1)
				a.metrics.AuditRow("yes")
			} else {
				missed.Add(1)
				a.metrics.AuditRow("no")
			}
			a.logger.Debug("reconcile.row.ok", "row", row.Index, "status", status, "file", file)
			return nil
		})
	}

	sum.Matched = int(matched.Load())
	sum.Missed = int(missed.Load())
	sum.Failed = int(failed.Load())
	sum.Elapsed = time.Since(start)
	a.logger.Info("reconcile.done",
		"rows", sum.Rows,
		"matched", sum.Matched,
		"missed", sum.Missed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

// Verdict renders a match result as the three annotation cells.
func Verdict(res entity.MatchResult) (constants.MatchStatus, string, string) {
	file := res.FirstCandidateFile
	if res.Candidates == 0 || file == "" {
		file = constants.NoFileFound
	}
	if !res.Matched {
		return constants.MatchNo, "", file
	}
	ts := ""
	if res.MatchedAt != nil {
		ts = res.MatchedAt.Format(constants.MatchedTimestampLayout)
	}
	return constants.MatchYes, ts, file
}
