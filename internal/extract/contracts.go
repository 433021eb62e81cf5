package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// Extractor turns one source file into canonical records.
type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Result struct {
	Records    []entity.LocationHistory
	SourceType constants.SourceFormat
	Pages      int
	// DateRange is the report range found on trip-boundary rows, or "".
	DateRange string
	// Output is the extraction workbook written for the file, if any.
	Output   string
	Duration time.Duration
}
