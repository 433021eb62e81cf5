package sheets

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// auditDateLayout renders date-formatted numeric cells (dd/MM/yyyy HH:mm:ss).
const auditDateLayout = "02/01/2006 15:04:05"

// AuditWorkbook is an opened master audit workbook. Reads happen up front;
// SetVerdict may be called from many goroutines.
type AuditWorkbook struct {
	mu     sync.Mutex
	f      *excelize.File
	sheet  string
	logger *slog.Logger
}

// OpenAuditWorkbook reads a workbook from r and targets its first sheet.
func OpenAuditWorkbook(r io.Reader, logger *slog.Logger) (*AuditWorkbook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open audit workbook: %w", err)
	}
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("open audit workbook: no sheets")
	}
	return &AuditWorkbook{f: f, sheet: sheetList[0], logger: logger}, nil
}

// Rows returns every data row (header excluded) that has all required cells.
// The second return value counts rows skipped for a missing cell.
func (w *AuditWorkbook) Rows() ([]entity.AuditRow, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	all, err := w.f.GetRows(w.sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("read audit rows: %w", err)
	}
	var out []entity.AuditRow
	skipped := 0
	for idx := 1; idx < len(all); idx++ {
		row, ok := w.readRow(idx)
		if !ok {
			if !isBlank(all[idx]) {
				skipped++
				w.logger.Debug("sheets.audit.row_skipped", "row", idx)
			}
			continue
		}
		out = append(out, row)
	}
	return out, skipped, nil
}

func (w *AuditWorkbook) readRow(idx int) (entity.AuditRow, bool) {
	from, ok := w.stringValue(constants.AuditColFromDate, idx)
	if !ok {
		return entity.AuditRow{}, false
	}
	to, ok := w.stringValue(constants.AuditColToDate, idx)
	if !ok {
		return entity.AuditRow{}, false
	}
	vehicle, ok := w.stringValue(constants.AuditColVehicleID, idx)
	if !ok {
		return entity.AuditRow{}, false
	}
	lat, ok := w.numberValue(constants.AuditColLat, idx)
	if !ok {
		return entity.AuditRow{}, false
	}
	lng, ok := w.numberValue(constants.AuditColLng, idx)
	if !ok {
		return entity.AuditRow{}, false
	}
	return entity.AuditRow{Index: idx, VehicleID: vehicle, FromDate: from, ToDate: to, Lat: lat, Lng: lng}, true
}

// SetVerdict writes status, matched timestamp, and source file into row idx.
func (w *AuditWorkbook) SetVerdict(idx int, status constants.MatchStatus, matchedAt, file string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for col, v := range map[int]string{
		constants.AuditColStatus:           string(status),
		constants.AuditColMatchedTimestamp: matchedAt,
		constants.AuditColSourceFile:       file,
	} {
		cell, err := excelize.CoordinatesToCellName(col+1, idx+1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStr(w.sheet, cell, v); err != nil {
			return fmt.Errorf("write %s: %w", cell, err)
		}
	}
	return nil
}

// Bytes serializes the workbook.
func (w *AuditWorkbook) Bytes() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var buf bytes.Buffer
	if _, err := w.f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *AuditWorkbook) Close() error {
	return w.f.Close()
}

// cell holds one resolved value. Formula cells resolve to their result.
type cell struct {
	text    string
	number  float64
	numeric bool
	date    bool
}

func (w *AuditWorkbook) resolve(col, idx int) (cell, bool) {
	name, err := excelize.CoordinatesToCellName(col+1, idx+1)
	if err != nil {
		return cell{}, false
	}
	if formula, _ := w.f.GetCellFormula(w.sheet, name); formula != "" {
		v, err := w.f.CalcCellValue(w.sheet, name, excelize.Options{RawCellValue: true})
		if err != nil || strings.TrimSpace(v) == "" {
			return cell{}, false
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return cell{text: v, number: n, numeric: true, date: w.isDateStyled(name)}, true
		}
		return cell{text: strings.TrimSpace(v)}, true
	}

	typ, err := w.f.GetCellType(w.sheet, name)
	if err != nil {
		return cell{}, false
	}
	raw, err := w.f.GetCellValue(w.sheet, name, excelize.Options{RawCellValue: true})
	if err != nil || raw == "" {
		return cell{}, false
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cell{text: strings.TrimSpace(raw)}, true
		}
		return cell{text: raw, number: n, numeric: true, date: w.isDateStyled(name)}, true
	case excelize.CellTypeBool:
		return cell{text: strconv.FormatBool(raw == "1" || strings.EqualFold(raw, "true"))}, true
	case excelize.CellTypeDate:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return cell{text: strings.TrimSpace(raw)}, true
		}
		return cell{text: t.Format(auditDateLayout)}, true
	case excelize.CellTypeError:
		return cell{}, false
	default:
		return cell{text: strings.TrimSpace(raw)}, true
	}
}

// stringValue renders text cells trimmed, date-formatted numbers as
// dd/MM/yyyy HH:mm:ss, and other numbers truncated to an integer.
func (w *AuditWorkbook) stringValue(col, idx int) (string, bool) {
	c, ok := w.resolve(col, idx)
	if !ok {
		return "", false
	}
	if !c.numeric {
		return c.text, true
	}
	if c.date {
		t, err := excelize.ExcelDateToTime(c.number, false)
		if err != nil {
			return "", false
		}
		return t.Format(auditDateLayout), true
	}
	return strconv.FormatInt(int64(math.Trunc(c.number)), 10), true
}

func (w *AuditWorkbook) numberValue(col, idx int) (float64, bool) {
	c, ok := w.resolve(col, idx)
	if !ok {
		return 0, false
	}
	if c.numeric {
		return c.number, true
	}
	n, err := strconv.ParseFloat(c.text, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (w *AuditWorkbook) isDateStyled(name string) bool {
	idx, err := w.f.GetCellStyle(w.sheet, name)
	if err != nil || idx == 0 {
		return false
	}
	style, err := w.f.GetStyle(idx)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return isBuiltInDateFormat(style.NumFmt)
}

func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom number format renders a date or
// time, ignoring quoted literals and bracketed sections such as colors.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdhs")
}
