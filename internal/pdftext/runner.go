package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner runs the pdftotext binary; tests stub it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// pdftotextArgs asks poppler for raw-order UTF-8 text on stdout, one form
// feed after each page. A page cap becomes -l so poppler stops early.
func pdftotextArgs(path string, maxPages int) []string {
	args := []string{"-raw", "-enc", "UTF-8", "-eol", "unix"}
	if maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(maxPages))
	}
	return append(args, path, "-")
}

// splitPages cuts pdftotext output at form feeds; the output ends with one.
func splitPages(out []byte, maxPages int) ([]Page, error) {
	chunks := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	if len(chunks) == 1 && strings.TrimSpace(chunks[0]) == "" {
		return nil, errors.New("pdftotext produced no text")
	}
	if maxPages > 0 && len(chunks) > maxPages {
		chunks = chunks[:maxPages]
	}
	pages := make([]Page, len(chunks))
	for i, c := range chunks {
		pages[i] = Page{Number: i + 1, Text: c}
	}
	return pages, nil
}

func (e *Extractor) pdftotextPages(ctx context.Context, path string) ([]Page, error) {
	start := time.Now()
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, pdftotextArgs(path, e.cfg.MaxPages)...)
	if err != nil {
		e.logger.Error("pdftext.pdftotext.failed",
			"path", path,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", truncate(string(errb), 8<<10),
		)
		return nil, fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	pages, err := splitPages(out, e.cfg.MaxPages)
	if err != nil {
		e.logger.Warn("pdftext.pdftotext.empty", "path", path, "stdout_bytes", len(out))
		return nil, err
	}
	e.logger.Debug("pdftext.pdftotext.ok",
		"path", path,
		"pages", len(pages),
		"stdout_bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
