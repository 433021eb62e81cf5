package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/export"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pdftext"
	"github.com/joseph-ayodele/fleet-telemetry/internal/reportparse"
)

// PageSource yields the raw text of each page of a PDF.
type PageSource interface {
	Pages(ctx context.Context, path string) ([]pdftext.Page, error)
}

// PDFExtractor reconstructs the detail table of a trip report. When OutputDir
// is set it also writes the rows to "<name> <date range>.xlsx" there.
type PDFExtractor struct {
	pages     PageSource
	outputDir string
	logger    *slog.Logger
}

func NewPDFExtractor(pages PageSource, outputDir string, logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{pages: pages, outputDir: outputDir, logger: logger}
}

func (x *PDFExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	name := filepath.Base(path)
	res := Result{SourceType: constants.PDF}

	pages, err := x.pages.Pages(ctx, path)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %v", common.ErrPerFileExtraction, name, err)
	}
	res.Pages = len(pages)

	group := reportparse.GroupName(name)
	scanner := reportparse.NewScanner()
	var cells [][]string
	row := 0
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for tokens := range scanner.Rows(p.Text) {
			raw, ok := reportparse.SplitRow(tokens)
			if !ok {
				continue
			}
			row++
			res.Records = append(res.Records, raw.Record(reportparse.Source{FileName: name, Page: p.Number, Row: row}))
			cells = append(cells, raw.Cells(group))
		}
	}
	res.DateRange = scanner.DateRange()

	if x.outputDir != "" {
		out := filepath.Join(x.outputDir, OutputName(name, res.DateRange))
		if err := export.SaveExtractionWorkbook(out, cells); err != nil {
			return res, fmt.Errorf("%w: %s: %v", common.ErrPerFileExtraction, name, err)
		}
		res.Output = out
	}

	res.Duration = time.Since(start)
	x.logger.Debug("extract.pdf.ok",
		"file", name,
		"pages", res.Pages,
		"records", len(res.Records),
		"date_range", res.DateRange,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// OutputName is "<base> <date range>.xlsx", or "<base>.xlsx" without a range.
func OutputName(pdfName, dateRange string) string {
	base := strings.TrimSuffix(pdfName, filepath.Ext(pdfName))
	if dateRange == "" {
		return base + ".xlsx"
	}
	return base + " " + dateRange + ".xlsx"
}
