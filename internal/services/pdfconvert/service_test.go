package pdfconvert

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/ingest"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pdftext"
	"github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

// reportPages serves the same two-page report for every file.
type reportPages struct {
	mu    sync.Mutex
	calls []string
}

func (r *reportPages) Pages(_ context.Context, path string) ([]pdftext.Page, error) {
	r.mu.Lock()
	r.calls = append(r.calls, filepath.Base(path))
	r.mu.Unlock()
	return []pdftext.Page{
		{Number: 1, Text: "Vehicle Activity Summary"},
		{Number: 2, Text: "12/09/2023 04:11:50 AM Depot 0 205 0.00 00:02:00 00:30:00 35.4878 73.8558 Total 0.0 From : Monday, September 11, 2023 To: Tuesday, September 12, 2023"},
	}, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestProcessConvertsReports(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "converted")
	touch(t, filepath.Join(src, "AA112.pdf"))
	touch(t, filepath.Join(src, "BB7.PDF"))
	require.NoError(t, os.Mkdir(filepath.Join(src, "nested"), 0o755))
	touch(t, filepath.Join(src, "nested", "CC9.pdf"))

	pages := &reportPages{}
	store := repository.NewMemoryStore()
	svc := NewService(pages, store, ingest.NewLocalFS(nil), nil, nil, services.Defaults{}, nil)

	resp, sum := svc.Process(context.Background(), services.ProcessRequest{SourceFolder: src, OutputFolder: out})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, constants.JobStatusCompleted, sum.Status)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 2, store.Len())
	assert.ElementsMatch(t, []string{"AA112.pdf", "BB7.PDF"}, pages.calls)

	assert.FileExists(t, filepath.Join(out, "AA112 11-September-2023 12-September-2023.xlsx"))
	assert.FileExists(t, filepath.Join(out, "BB7 11-September-2023 12-September-2023.xlsx"))
	assert.NoFileExists(t, filepath.Join(src, "AA112.pdf"))
	assert.FileExists(t, filepath.Join(src, "nested", "CC9.pdf"))

	recs := store.All()
	groups := []string{recs[0].GroupName, recs[1].GroupName}
	assert.ElementsMatch(t, []string{"AA112", "BB7"}, groups)
}

func TestProcessRequiresDistinctOutput(t *testing.T) {
	src := t.TempDir()
	svc := NewService(&reportPages{}, repository.NewMemoryStore(), ingest.NewLocalFS(nil), nil, nil, services.Defaults{}, nil)

	resp, sum := svc.Process(context.Background(), services.ProcessRequest{SourceFolder: src})
	assert.False(t, resp.Success)
	assert.Equal(t, constants.JobStatusFailed, sum.Status)

	resp, _ = svc.Process(context.Background(), services.ProcessRequest{SourceFolder: src, OutputFolder: src})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "must differ from sourceFolder")
}
