// Package audit runs the master audit job: annotate a workbook with match
// verdicts and hand back the annotated bytes.
package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/match"
	"github.com/joseph-ayodele/fleet-telemetry/internal/metrics"
	"github.com/joseph-ayodele/fleet-telemetry/internal/reconcile"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
	"github.com/joseph-ayodele/fleet-telemetry/internal/sheets"
)

type Service struct {
	annotator *reconcile.Annotator
	logger    *slog.Logger
}

func NewService(store match.Querier, cfg reconcile.Config, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		annotator: reconcile.NewAnnotator(match.NewMatcher(store, logger), cfg, m, logger),
		logger:    logger,
	}
}

// ProcessWorkbook annotates the workbook read from r and returns it serialized.
func (s *Service) ProcessWorkbook(ctx context.Context, r io.Reader) ([]byte, reconcile.Summary, error) {
	wb, err := sheets.OpenAuditWorkbook(r, s.logger)
	if err != nil {
		return nil, reconcile.Summary{}, err
	}
	defer func() {
		if err := wb.Close(); err != nil {
			s.logger.Warn("audit.workbook.close_failed", "error", err)
		}
	}()

	sum, err := s.annotator.Annotate(ctx, wb)
	if err != nil {
		return nil, sum, err
	}
	out, err := wb.Bytes()
	if err != nil {
		return nil, sum, err
	}
	return out, sum, nil
}

// ProcessFile annotates the workbook at in and writes the result to out.
func (s *Service) ProcessFile(ctx context.Context, in, out string) (services.Response, error) {
	f, err := os.Open(in)
	if err != nil {
		err = common.WrapError(err, "open audit workbook")
		return failed(err), err
	}
	defer f.Close()

	data, sum, err := s.ProcessWorkbook(ctx, f)
	if err != nil {
		return failed(err), err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return failed(err), fmt.Errorf("write %s: %w", out, err)
	}
	s.logger.Info("audit.file.ok", "in", in, "out", out, "rows", sum.Rows, "matched", sum.Matched)
	return Response(sum), nil
}

// Response renders a finished annotation run. Skipped and failed rows are
// left to the Summary and the logs.
func Response(sum reconcile.Summary) services.Response {
	return services.Response{
		Success: true,
		Message: services.MsgCompleted,
		Results: []string{
			fmt.Sprintf("rows read: %d", sum.Rows),
			fmt.Sprintf("matched: %d", sum.Matched),
			fmt.Sprintf("not matched: %d", sum.Missed),
			fmt.Sprintf("elapsed: %.2fs", sum.Elapsed.Seconds()),
		},
	}
}

func failed(err error) services.Response {
	return services.Response{Success: false, Message: fmt.Sprintf("Error processing audit workbook: %v", err)}
}
