package reportparse

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// rdtLayout accepts one- or two-digit day, month and hour.
const rdtLayout = "2/1/2006 3:04:05 PM"

const headTokens = 3

// tailColumn binds one positional token, counted from the end of the row, to
// the record field it fills.
type tailColumn struct {
	name  string
	apply func(rec *entity.LocationHistory, token string)
}

// tailColumns lists the fixed trailing columns of a detail row, in order.
var tailColumns = [...]tailColumn{
	{"speed", func(r *entity.LocationHistory, v string) { r.Speed = parseNumber(v) }},
	{"direction", func(r *entity.LocationHistory, v string) { r.Direction = parseNumber(v) }},
	{"distance", func(r *entity.LocationHistory, v string) { r.Distance = parseNumber(v) }},
	{"travelTime", func(r *entity.LocationHistory, v string) { r.TravelTime = v }},
	{"stopTime", func(r *entity.LocationHistory, v string) { r.StopTime = v }},
	{"lat", func(r *entity.LocationHistory, v string) { r.Lat = parseNumber(v) }},
	{"lng", func(r *entity.LocationHistory, v string) { r.Lng = parseNumber(v) }},
}

// MinRowTokens is the shortest token count a detail row can have: the three
// timestamp tokens and the trailing columns, with an empty landmark.
const MinRowTokens = headTokens + len(tailColumns)

// Source identifies where a row came from.
type Source struct {
	FileName string
	Page     int
	Row      int
}

// RawRow is a detail row split into its columns, before any value parsing.
type RawRow struct {
	Timestamp string
	Landmark  string
	Tail      [len(tailColumns)]string
}

// SplitRow maps positional tokens onto columns. The first three tokens are
// the timestamp, the last seven the fixed columns, and whatever sits between
// them is the landmark. Rows shorter than MinRowTokens are rejected.
func SplitRow(tokens []string) (RawRow, bool) {
	if len(tokens) < MinRowTokens {
		return RawRow{}, false
	}
	var raw RawRow
	raw.Timestamp = strings.Join(tokens[:headTokens], " ")
	tailStart := len(tokens) - len(tailColumns)
	raw.Landmark = strings.Join(tokens[headTokens:tailStart], " ")
	copy(raw.Tail[:], tokens[tailStart:])
	return raw, true
}

// Record converts the raw columns to a LocationHistory. Values that do not
// parse are left absent.
func (r RawRow) Record(src Source) entity.LocationHistory {
	rec := entity.LocationHistory{
		GroupName: GroupName(src.FileName),
		RDT:       ParseTimestamp(r.Timestamp),
		LandMark:  r.Landmark,
		FileName:  src.FileName,
	}
	for i, col := range tailColumns {
		col.apply(&rec, r.Tail[i])
	}
	if src.Page > 0 {
		page := src.Page
		rec.Page = &page
	}
	if src.Row > 0 {
		row := src.Row
		rec.Row = &row
	}
	return rec
}

// Cells renders the row in extraction-workbook column order.
func (r RawRow) Cells(groupName string) []string {
	cells := make([]string, 0, 3+len(r.Tail))
	cells = append(cells, groupName, r.Timestamp, r.Landmark)
	return append(cells, r.Tail[:]...)
}

// ParseTimestamp parses a report timestamp in UTC, or returns nil.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	if n := len(fields); n > 0 {
		fields[n-1] = strings.ToUpper(fields[n-1])
	}
	t, err := time.ParseInLocation(rdtLayout, strings.Join(fields, " "), time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// GroupName derives the vehicle identifier from a report file name: the
// leading whitespace-delimited token of the name without its extension, so a
// bare "AA112.pdf" yields "AA112" rather than "AA112.pdf".
func GroupName(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	fields := strings.Fields(base)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseNumber(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
