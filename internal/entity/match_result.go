package entity

import "time"

// MatchResult is the verdict of a geo-temporal lookup for one audit row.
type MatchResult struct {
	Matched bool
	// Set only when Matched.
	MatchedAt   *time.Time
	MatchedFile string

	// Candidates is how many records the store returned for the vehicle/window.
	Candidates int
	// FirstCandidateFile is the source file of the first returned candidate,
	// whether or not that candidate passed the distance test.
	FirstCandidateFile string
}
