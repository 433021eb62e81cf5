// Package pdfconvert runs the PDF conversion job: each report in the source
// folder becomes an extraction workbook in the output folder, and its rows
// are persisted to the canonical store.
package pdfconvert

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/extract"
	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pipeline"
	"github.com/joseph-ayodele/fleet-telemetry/internal/progress"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

const kind = "PDFs"

type Service struct {
	pages    extract.PageSource
	store    pipeline.Store
	fs       pipeline.FileSystem
	notifier progress.Notifier
	metrics  *metrics.Metrics
	defaults services.Defaults
	logger   *slog.Logger
}

func NewService(pages extract.PageSource, store pipeline.Store, fs pipeline.FileSystem, notifier progress.Notifier, m *metrics.Metrics, defaults services.Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pages:    pages,
		store:    store,
		fs:       fs,
		notifier: notifier,
		metrics:  m,
		defaults: defaults,
		logger:   logger,
	}
}

// Process converts the PDFs directly inside the source folder. The output
// folder is required and must not be the source folder.
func (s *Service) Process(ctx context.Context, req services.ProcessRequest) (services.Response, pipeline.Summary) {
	if err := req.Validate(true); err != nil {
		s.logger.Warn("pdfconvert.request.invalid", "error", err)
		return services.Rejected(kind, err)
	}
	s.logger.Info("pdfconvert.job.start", "source", req.SourceFolder, "output", req.OutputFolder)
	x := extract.NewPDFExtractor(s.pages, req.OutputFolder, s.logger)
	p := pipeline.New(x, s.store, s.fs, s.notifier, s.metrics, s.logger)
	sum, err := p.Run(ctx, s.defaults.PipelineConfig(req, constants.PDFExtensions, false))
	return services.PipelineResponse(kind, sum, err), sum
}
