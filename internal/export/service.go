package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// Querier is the read side of the canonical store.
type Querier interface {
	QueryByVehicleAndTimeRange(ctx context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error)
}

// importHeaders extends the extraction headers with the optional provenance columns.
var importHeaders = append(append([]string{}, constants.ExtractionHeaders...), "File Name", "Page", "Row")

// Service produces XLSX bytes of stored location history.
type Service struct {
	store  Querier
	logger *slog.Logger
}

func NewService(store Querier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportLocationHistoryXLSX returns the samples of one vehicle in [from, to]
// laid out in the import format, so the workbook can be imported again.
func (s *Service) ExportLocationHistoryXLSX(ctx context.Context, vehicleID string, from, to time.Time) ([]byte, error) {
	start := time.Now()

	recs, err := s.store.QueryByVehicleAndTimeRange(ctx, vehicleID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query location history: %w", err)
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = ImportCells(r)
	}
	f, err := NewWorkbook(constants.ExtractionSheet, importHeaders, rows)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"vehicle_id", vehicleID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ImportCells renders a record in import column order (columns 0-12).
func ImportCells(r entity.LocationHistory) []string {
	rdt := ""
	if r.RDT != nil {
		rdt = r.RDT.Format(constants.ImportTimestampLayout)
	}
	return []string{
		r.GroupName,
		rdt,
		r.LandMark,
		formatFloat(r.Speed),
		formatFloat(r.Direction),
		formatFloat(r.Distance),
		r.TravelTime,
		r.StopTime,
		formatFloat(r.Lat),
		formatFloat(r.Lng),
		r.FileName,
		formatInt(r.Page),
		formatInt(r.Row),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
