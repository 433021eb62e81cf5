package reportparse

import (
	"regexp"
)

var (
	reLineBreak = regexp.MustCompile(`\r\n|\r|\n`)
	reAM        = regexp.MustCompile(`\s+AM\s+`)
	rePM        = regexp.MustCompile(`\s+PM\s+`)

	// reRowStart anchors one detail row: D/M/YYYY H:MM:SS AM|PM.
	reRowStart = regexp.MustCompile(`(?i)(?:0?[1-9]|[12][0-9]|3[01])/(?:0?[1-9]|1[0-2])/\d{4}\s+\d{1,2}:\d{2}:\d{2}\s+(?:AM|PM)`)

	// reLeadingDate opens the detail table; everything before it is the summary table.
	reLeadingDate = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)
)

// Normalize flattens line breaks to single spaces and repairs the spacing the
// text stripper mangles around meridiem markers.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reLineBreak.ReplaceAllString(s, " ")
	s = reAM.ReplaceAllString(s, " AM ")
	s = rePM.ReplaceAllString(s, " PM ")
	return s
}
