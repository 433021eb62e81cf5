// Package pdftext turns a PDF into one raw text string per page.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

type Config struct {
	// Pdftotext is the poppler binary used when the native reader fails.
	// Empty disables the fallback.
	Pdftotext string
	MaxPages  int // 0 = no limit
}

// Page is the raw text of one page; Number is 1-based.
type Page struct {
	Number int
	Text   string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner used by the pdftotext fallback.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Pages returns the text of every page in order.
func (e *Extractor) Pages(ctx context.Context, path string) ([]Page, error) {
	pages, err := e.nativePages(path)
	if err == nil {
		return pages, nil
	}
	if e.cfg.Pdftotext == "" {
		return nil, err
	}
	e.logger.Warn("pdftext.native.failed", "path", path, "error", err, "fallback", e.cfg.Pdftotext)
	return e.pdftotextPages(ctx, path)
}

func (e *Extractor) nativePages(path string) (pages []Page, err error) {
	// The reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	n := r.NumPage()
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		n = e.cfg.MaxPages
	}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, Page{Number: i, Text: txt})
	}
	return pages, nil
}
