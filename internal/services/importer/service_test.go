package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/ingest"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pipeline"
	"github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

func writeImport(t *testing.T, path string, rows [][]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	header := []any{"Group Name", "RDT", "LandMark", "Speed", "Direction", "Distance", "Travel Time", "Stop Time", "LAT", "LON"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestProcessImportsRecursively(t *testing.T) {
	dir := t.TempDir()
	writeImport(t, filepath.Join(dir, "AA112.xlsx"), [][]any{
		{"AA112", "12/09/2023 04:11:50 AM", "Depot", "0", "205", "0.00", "00:02:00", "00:30:00", "35.4878", "73.8558"},
	})
	writeImport(t, filepath.Join(dir, "north", "BB7.xlsx"), [][]any{
		{"BB7", "12/09/2023 05:00:00 PM", "Yard", "10", "90", "1.20", "00:05:00", "00:00:00", "35.5", "73.9"},
		{"BB7", "12/09/2023 05:10:00 PM", "Gate", "12", "90", "1.40", "00:05:00", "00:00:00", "35.6", "73.9"},
	})

	store := repository.NewMemoryStore()
	svc := NewService(store, ingest.NewLocalFS(nil), nil, nil, services.Defaults{}, nil)

	resp, sum := svc.Process(context.Background(), services.ProcessRequest{SourceFolder: dir})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, services.MsgCompleted, resp.Message)
	assert.Equal(t, constants.JobStatusCompleted, sum.Status)
	assert.Equal(t, 2, sum.Files)
	assert.Equal(t, 3, sum.Records)
	assert.Equal(t, 3, store.Len())
	assert.NoFileExists(t, filepath.Join(dir, "AA112.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "north", "BB7.xlsx"))
}

func TestProcessMissingFolder(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), ingest.NewLocalFS(nil), nil, nil, services.Defaults{}, nil)
	resp, sum := svc.Process(context.Background(), services.ProcessRequest{SourceFolder: filepath.Join(t.TempDir(), "gone")})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Error processing spreadsheets")
	assert.Equal(t, constants.JobStatusFailed, sum.Status)
}

func TestProcessRejectsInvalidRequest(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), ingest.NewLocalFS(nil), nil, nil, services.Defaults{}, nil)
	resp, sum := svc.Process(context.Background(), services.ProcessRequest{})
	assert.False(t, resp.Success)
	assert.Equal(t, constants.JobStatusFailed, sum.Status)
	assert.Zero(t, sum.Files)
}

func TestProcessEmptyFolder(t *testing.T) {
	svc := NewService(repository.NewMemoryStore(), ingest.NewLocalFS(nil), nil, nil, services.Defaults{}, nil)
	resp, sum := svc.Process(context.Background(), services.ProcessRequest{SourceFolder: t.TempDir()})
	assert.True(t, resp.Success)
	assert.Equal(t, pipeline.MsgNoFiles, resp.Message)
	assert.Equal(t, constants.JobStatusNoFiles, sum.Status)
}
