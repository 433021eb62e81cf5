// Package importer runs the spreadsheet import job: every workbook under the
// source folder is read into the canonical store and removed once written.
package importer

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

const kind = "spreadsheets"

type Service struct {
	pipeline *pipeline.Pipeline
	defaults services.Defaults
	logger   *slog.Logger
}

func NewService(store pipeline.Store, fs pipeline.FileSystem, notifier progress.Notifier, m *metrics.Metrics, defaults services.Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pipeline: pipeline.New(extract.NewSpreadsheetExtractor(logger), store, fs, notifier, m, logger),
		defaults: defaults,
		logger:   logger,
	}
}

// Process imports the request's source folder recursively.
func (s *Service) Process(ctx context.Context, req services.ProcessRequest) (services.Response, pipeline.Summary) {
	if err := req.Validate(false); err != nil {
		s.logger.Warn("import.request.invalid", "error", err)
		return services.Rejected(kind, err)
	}
	s.logger.Info("import.job.start", "source", req.SourceFolder)
	sum, err := s.pipeline.Run(ctx, s.defaults.PipelineConfig(req, constants.SpreadsheetExtensions, true))
	return services.PipelineResponse(kind, sum, err), sum
}
