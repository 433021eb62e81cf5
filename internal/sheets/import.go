package sheets

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// ReadLocationHistory reads the first sheet of an import workbook, skipping
// the header row. A row that cannot be read is logged and skipped; a file
// that cannot be opened fails as a whole.
func ReadLocationHistory(path string, logger *slog.Logger) ([]entity.LocationHistory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := filepath.Base(path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrPerFileExtraction, name, err)
	}
	defer func() { _ = f.Close() }()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, nil
	}
	rows, err := f.Rows(sheetList[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrPerFileExtraction, name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.LocationHistory
	rowNum := 0
	for rows.Next() {
		rowNum++
		if rowNum == 1 {
			continue
		}
		cols, err := rows.Columns()
		if err != nil {
			logger.Warn("sheets.import.row_skipped", "file", name, "row", rowNum,
				"error", fmt.Errorf("%w: %v", common.ErrPerRowParse, err))
			continue
		}
		if isBlank(cols) {
			continue
		}
		out = append(out, importRecord(cols, name))
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrPerFileExtraction, name, err)
	}
	return out, nil
}

func importRecord(cols []string, fallbackFile string) entity.LocationHistory {
	cell := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	rec := entity.LocationHistory{
		GroupName:  cell(constants.ImportColGroupName),
		RDT:        parseImportTimestamp(cell(constants.ImportColRDT)),
		LandMark:   cell(constants.ImportColLandMark),
		Speed:      parseFloat(cell(constants.ImportColSpeed)),
		Direction:  parseFloat(cell(constants.ImportColDirection)),
		Distance:   parseFloat(cell(constants.ImportColDistance)),
		TravelTime: cell(constants.ImportColTravelTime),
		StopTime:   cell(constants.ImportColStopTime),
		Lat:        parseFloat(cell(constants.ImportColLat)),
		Lng:        parseFloat(cell(constants.ImportColLng)),
		FileName:   cell(constants.ImportColFileName),
		Page:       parseInt(cell(constants.ImportColPage)),
		Row:        parseInt(cell(constants.ImportColRow)),
	}
	if rec.FileName == "" {
		rec.FileName = fallbackFile
	}
	return rec
}

func parseImportTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(constants.ImportTimestampLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	v := parseFloat(s)
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
