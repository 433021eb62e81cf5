package reportparse

import (
	"regexp"
	"strings"
	"time"
)

var (
	reFrom = regexp.MustCompile(`From\s*:\s*([A-Za-z]+,\s+[A-Za-z]+\s+\d{1,2},\s+\d{4})`)
	reTo   = regexp.MustCompile(`To\s*:\s*([A-Za-z]+,\s+[A-Za-z]+\s+\d{1,2},\s+\d{4})`)
)

const (
	longDateLayout  = "Monday, January 2, 2006"
	rangeDateLayout = "02-January-2006"
)

// ExtractDateRange finds "From : <weekday>, <Month> <day>, <year>" and the
// matching "To:" date and renders them as "dd-Month-yyyy dd-Month-yyyy".
// It returns "" when either date is missing or does not parse.
func ExtractDateRange(text string) string {
	fm := reFrom.FindStringSubmatch(text)
	tm := reTo.FindStringSubmatch(text)
	if fm == nil || tm == nil {
		return ""
	}
	from, err := parseLongDate(fm[1])
	if err != nil {
		return ""
	}
	to, err := parseLongDate(tm[1])
	if err != nil {
		return ""
	}
	return from.Format(rangeDateLayout) + " " + to.Format(rangeDateLayout)
}

func parseLongDate(s string) (time.Time, error) {
	return time.ParseInLocation(longDateLayout, strings.Join(strings.Fields(s), " "), time.UTC)
}
