package reportparse

import (
	"iter"
	"slices"
	"strings"
)

// CandidateRows splits one page of extracted text into row candidates. Each
// row runs from one row anchor to the next (or to the end of the page). A page
// without anchors yields its whole token stream as a single row.
//
// The sequence is recomputed on every range, so ranging twice gives the same rows.
func CandidateRows(pageText string) iter.Seq[string] {
	return func(yield func(string) bool) {
		normalized := Normalize(pageText)
		starts := reRowStart.FindAllStringIndex(normalized, -1)
		if len(starts) == 0 {
			if fields := strings.Fields(normalized); len(fields) > 0 {
				yield(strings.Join(fields, " "))
			}
			return
		}
		for i, loc := range starts {
			end := len(normalized)
			if i+1 < len(starts) {
				end = starts[i+1][0]
			}
			row := strings.TrimSpace(normalized[loc[0]:end])
			if row == "" {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Scanner carries the per-document state across pages: whether the detail
// table has started, and the report date range seen on trip-boundary rows.
// A Scanner is not safe for concurrent use; use one per document.
type Scanner struct {
	started   bool
	dateRange string
}

// NewScanner returns a Scanner positioned before the detail table.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Rows yields the tokenized rows of one page that belong to the detail table.
func (s *Scanner) Rows(pageText string) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		for row := range CandidateRows(pageText) {
			if !s.started && reLeadingDate.MatchString(row) {
				s.started = true
			}
			if !s.started {
				continue
			}
			if !yield(s.tokenize(row)) {
				return
			}
		}
	}
}

// DateRange returns the last non-empty date range found so far, or "".
func (s *Scanner) DateRange() string {
	return s.dateRange
}

// Started reports whether the detail table has been reached.
func (s *Scanner) Started() bool {
	return s.started
}

func (s *Scanner) tokenize(row string) []string {
	tokens := strings.Fields(row)
	if !strings.Contains(row, "From") {
		return tokens
	}
	// Trip boundary: the stripper glues the report footer onto the last row.
	if r := ExtractDateRange(row); r != "" {
		s.dateRange = r
	}
	switch {
	case strings.Contains(row, "Total"):
		return strings.Fields(cutAt(row, "Total"))
	case slices.Contains(tokens, "Activity"):
		return strings.Fields(cutAt(row, "Activity"))
	}
	return tokens
}

// cutAt returns the text before the first space-delimited occurrence of keyword.
func cutAt(s, keyword string) string {
	before, _, _ := strings.Cut(s, " "+keyword+" ")
	return before
}
