package constants

// MatchStatus is the verdict written into the audit workbook status column.
type MatchStatus string

// Stable values (the audit workbook consumers compare these exact strings).
const (
	MatchYes MatchStatus = "YES"
	MatchNo  MatchStatus = "NO"
)

// NoFileFound is written to the source-file column when the store query returned no candidates.
const NoFileFound = "No File Found"

// JobStatus is the outcome reported for a batch job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusNoFiles   JobStatus = "NO_FILES"
	JobStatusFailed    JobStatus = "FAILED"
)
