package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
)

type datePattern struct {
	layout   string
	dateOnly bool
}

// datePatterns is tried in order; day-first wins over month-first for
// ambiguous inputs such as 03/04/2023.
var datePatterns = []datePattern{
	{"2/1/2006", true},
	{"2/1/2006 15:04:05", false},
	{"2006-1-2", true},
	{"2006-1-2 15:04:05", false},
	{"1/2/2006", true},
	{"1/2/2006 15:04:05", false},
}

// ParseDate parses an audit date cell against the accepted patterns and
// returns the calendar date at midnight UTC. Date-only patterns also accept
// the leading date of a date-time value.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	datePart, _, _ := strings.Cut(s, " ")
	for _, p := range datePatterns {
		if t, err := time.ParseInLocation(p.layout, s, time.UTC); err == nil {
			return truncateDay(t), nil
		}
		if p.dateOnly && datePart != s {
			if t, err := time.ParseInLocation(p.layout, datePart, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrDateFormatUnrecognized, s)
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow expands a from/to pair into [from 00:00:00, to 23:59:59].
func ParseWindow(from, to string) (Window, error) {
	start, err := ParseDate(from)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return Window{}, err
	}
	return Window{
		Start: start,
		End:   end.Add(23*time.Hour + 59*time.Minute + 59*time.Second),
	}, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
