// Package pipeline runs the batch extraction job: enumerate a source folder,
// extract files in parallel batches, write the records in chunks, and remove
// the sources of every batch that committed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
	"github.com/joseph-ayodele/fleet-telemetry/internal/extract"
	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
	"github.com/joseph-ayodele/fleet-telemetry/internal/progress"
)

const (
	DefaultBatchSize    = 500
	DefaultChunkSize    = 10_000
	DefaultMinWorkers   = 4
	DefaultWriteWorkers = 4
)

// MsgNoFiles is reported when the source folder holds no matching files.
const MsgNoFiles = "No files found in the specified folder"

// Store is the write side of the canonical store.
type Store interface {
	InsertMany(ctx context.Context, records []entity.LocationHistory) error
}

// FileSystem is where sources are enumerated and cleaned up.
type FileSystem interface {
	DirExists(dir string) (bool, error)
	List(root string, exts map[string]struct{}, recursive bool) ([]string, error)
	Remove(path string) error
	MkdirAll(dir string) error
}

type Config struct {
	SourceDir  string
	OutputDir  string // created before enumeration when set
	Extensions map[string]struct{}
	Recursive  bool
	// KeepSources disables removal of committed source files.
	KeepSources bool

	BatchSize    int
	ChunkSize    int
	MinWorkers   int
	WriteWorkers int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MinWorkers <= 0 {
		c.MinWorkers = DefaultMinWorkers
	}
	if c.WriteWorkers <= 0 {
		c.WriteWorkers = DefaultWriteWorkers
	}
	return c
}

// Summary describes a finished run. The counts are informational; per-file
// and per-chunk failures are only logged.
type Summary struct {
	JobID         string
	Status        constants.JobStatus
	Message       string
	Files         int
	Processed     int
	Failed        int
	Records       int
	Deleted       int
	FailedBatches int
	Elapsed       time.Duration
}

type Pipeline struct {
	extractor extract.Extractor
	store     Store
	fs        FileSystem
	notifier  progress.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New wires a pipeline. The notifier is called from worker goroutines and
// must be safe for concurrent use; it and m may be nil.
func New(extractor extract.Extractor, store Store, fs FileSystem, notifier progress.Notifier, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: extractor,
		store:     store,
		fs:        fs,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// Run executes one job. It returns an error only for job-level failures:
// a missing source folder, an uncreatable output folder, enumeration
// failure, or cancellation between batches.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (Summary, error) {
	start := time.Now()
	cfg = cfg.withDefaults()

	jobID := common.JobIDFromContext(ctx)
	if jobID == "" {
		jobID = uuid.NewString()
		ctx = common.WithJobID(ctx, jobID)
	}
	log := p.logger.With("job_id", jobID)
	sum := Summary{JobID: jobID, Status: constants.JobStatusRunning}

	exists, err := p.fs.DirExists(cfg.SourceDir)
	if err != nil || !exists {
		if err != nil {
			log.Warn("pipeline.source.stat_failed", "dir", cfg.SourceDir, "error", err)
		}
		return p.fail(log, sum, start, common.NewAppError("SOURCE_NOT_FOUND",
			fmt.Sprintf("source folder %s does not exist", cfg.SourceDir), common.ErrSourceNotFound))
	}

	if cfg.OutputDir != "" {
		if err := p.fs.MkdirAll(cfg.OutputDir); err != nil {
			return p.fail(log, sum, start, common.NewAppError("OUTPUT_DIR_ERROR",
				fmt.Sprintf("cannot create output folder %s", cfg.OutputDir), err))
		}
		p.notify(log, 5, "Output folder ready")
	}

	files, err := p.fs.List(cfg.SourceDir, cfg.Extensions, cfg.Recursive)
	if err != nil {
		return p.fail(log, sum, start, common.NewAppError("LIST_ERROR",
			fmt.Sprintf("cannot list %s", cfg.SourceDir), err))
	}
	total := len(files)
	sum.Files = total
	p.notify(log, 10, fmt.Sprintf("Found %d files to process", total))

	if total == 0 {
		p.notify(log, 100, MsgNoFiles)
		sum.Status = constants.JobStatusNoFiles
		sum.Message = MsgNoFiles
		sum.Elapsed = time.Since(start)
		log.Info("pipeline.job.no_files", "dir", cfg.SourceDir)
		return sum, nil
	}

	workers := ExtractionWorkers(cfg.MinWorkers)
	batches := Partition(files, cfg.BatchSize)
	log.Info("pipeline.job.start",
		"dir", cfg.SourceDir,
		"files", total,
		"batches", len(batches),
		"extract_workers", workers,
		"write_workers", cfg.WriteWorkers,
	)

	done := 0
	for bi, batch := range batches {
		if err := ctx.Err(); err != nil {
			return p.fail(log, sum, start, fmt.Errorf("job cancelled after %d of %d batches: %w", bi, len(batches), err))
		}
		bs := p.runBatch(ctx, log, cfg, workers, bi, done, total, batch)
		sum.Processed += bs.processed
		sum.Failed += bs.failed
		sum.Records += bs.records
		sum.Deleted += bs.deleted
		if bs.writeFailed {
			sum.FailedBatches++
		}
		done += len(batch)
		p.notify(log, 10+done*80/total, fmt.Sprintf("Completed batch %d of %d", bi+1, len(batches)))
	}

	sum.Elapsed = time.Since(start)
	sum.Status = constants.JobStatusCompleted
	sum.Message = fmt.Sprintf("Processed %d files in %.2f seconds", total, sum.Elapsed.Seconds())
	p.notify(log, 100, fmt.Sprintf("All files processed in %.2f seconds", sum.Elapsed.Seconds()))
	log.Info("pipeline.job.done",
		"files", total,
		"processed", sum.Processed,
		"failed", sum.Failed,
		"records", sum.Records,
		"deleted", sum.Deleted,
		"failed_batches", sum.FailedBatches,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

type fileOutcome struct {
	path string
	res  extract.Result
	err  error
}

type batchStats struct {
	processed   int
	failed      int
	records     int
	deleted     int
	writeFailed bool
}

func (p *Pipeline) runBatch(ctx context.Context, log *slog.Logger, cfg Config, workers, bi, offset, total int, batch []string) batchStats {
	start := time.Now()
	log = log.With("batch", bi+1)
	log.Debug("pipeline.batch.start", "files", len(batch))

	outcomes := make([]fileOutcome, len(batch))
	_ = ForEach(ctx, workers, batch, func(ctx context.Context, i int, path string) error {
		p.notify(log, 10+(offset+i)*80/total, "Processing "+filepath.Base(path))
		res, err := p.extractFile(ctx, path)
		outcomes[i] = fileOutcome{path: path, res: res, err: err}
		if err != nil {
			p.metrics.FileProcessed(metrics.StatusFailed)
			log.Warn("pipeline.file.failed", "file", path, "error", err)
			return nil
		}
		p.metrics.FileProcessed(metrics.StatusOK)
		return nil
	})

	var bs batchStats
	var records []entity.LocationHistory
	for _, o := range outcomes {
		if o.err != nil {
			bs.failed++
			continue
		}
		bs.processed++
		records = append(records, o.res.Records...)
	}

	var written atomic.Int64
	chunks := Partition(records, cfg.ChunkSize)
	writeErr := ForEach(ctx, cfg.WriteWorkers, chunks, func(ctx context.Context, ci int, chunk []entity.LocationHistory) error {
		if err := p.store.InsertMany(ctx, chunk); err != nil {
			p.metrics.ChunkWritten(metrics.StatusFailed, len(chunk))
			log.Error("pipeline.chunk.failed", "chunk", ci+1, "records", len(chunk), "error", err)
			return fmt.Errorf("chunk %d: %w", ci+1, err)
		}
		p.metrics.ChunkWritten(metrics.StatusOK, len(chunk))
		written.Add(int64(len(chunk)))
		return nil
	})
	bs.records = int(written.Load())

	if writeErr != nil {
		bs.writeFailed = true
		log.Error("pipeline.batch.write_failed", "records", len(records), "written", bs.records, "error", writeErr)
	} else if !cfg.KeepSources {
		for _, o := range outcomes {
			if o.err != nil {
				continue
			}
			if err := p.fs.Remove(o.path); err != nil {
				p.metrics.SourceDeleted(metrics.StatusFailed)
				log.Warn("pipeline.source.delete_failed", "file", o.path, "error", err)
				continue
			}
			p.metrics.SourceDeleted(metrics.StatusOK)
			bs.deleted++
		}
	}

	p.metrics.ObserveBatch(time.Since(start))
	log.Info("pipeline.batch.done",
		"files", len(batch),
		"processed", bs.processed,
		"failed", bs.failed,
		"records", bs.records,
		"chunks", len(chunks),
		"deleted", bs.deleted,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return bs
}

func (p *Pipeline) extractFile(ctx context.Context, path string) (res extract.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: panic: %v", common.ErrPerFileExtraction, filepath.Base(path), r)
		}
	}()
	return p.extractor.Extract(ctx, path)
}

// notify never fails the job: errors and panics from the notifier are logged.
func (p *Pipeline) notify(log *slog.Logger, percent int, message string) {
	if p.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("pipeline.progress.failed", "error", fmt.Errorf("%w: panic: %v", common.ErrNotifier, r))
		}
	}()
	if err := p.notifier.Notify(min(max(percent, 0), 100), message); err != nil {
		log.Warn("pipeline.progress.failed", "error", fmt.Errorf("%w: %v", common.ErrNotifier, err))
	}
}

func (p *Pipeline) fail(log *slog.Logger, sum Summary, start time.Time, err error) (Summary, error) {
	sum.Status = constants.JobStatusFailed
	sum.Message = err.Error()
	sum.Elapsed = time.Since(start)
	p.notify(log, 0, "Error: "+err.Error())
	log.Error("pipeline.job.failed", "error", err)
	return sum, err
}
