package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// RadiusMeters is the inclusive distance threshold for a positive match.
const RadiusMeters = 200.0

// Querier is the read side of the canonical store.
type Querier interface {
	QueryByVehicleAndTimeRange(ctx context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error)
}

// Matcher decides whether the canonical store holds telemetry for a vehicle
// near a reference point inside a date window.
type Matcher struct {
	store  Querier
	logger *slog.Logger
}

// NewMatcher returns a Matcher reading candidates from store.
func NewMatcher(store Querier, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{store: store, logger: logger}
}

// Match returns the first candidate, in store order, whose position lies
// within RadiusMeters of (lat, lng). Candidates without a position are skipped.
// An unrecognized date returns an error wrapping common.ErrDateFormatUnrecognized.
func (m *Matcher) Match(ctx context.Context, vehicleID, fromDate, toDate string, lat, lng float64) (entity.MatchResult, error) {
	w, err := ParseWindow(fromDate, toDate)
	if err != nil {
		return entity.MatchResult{}, err
	}
	candidates, err := m.store.QueryByVehicleAndTimeRange(ctx, vehicleID, w.Start, w.End)
	if err != nil {
		return entity.MatchResult{}, err
	}
	return Evaluate(candidates, lat, lng), nil
}

// Evaluate applies the distance rule to an ordered candidate list.
func Evaluate(candidates []entity.LocationHistory, lat, lng float64) entity.MatchResult {
	res := entity.MatchResult{
		Candidates:         len(candidates),
		FirstCandidateFile: constants.NoFileFound,
	}
	if len(candidates) == 0 {
		return res
	}
	if name := candidates[0].FileName; name != "" {
		res.FirstCandidateFile = name
	}
	for _, c := range candidates {
		if !c.HasPosition() {
			continue
		}
		if Haversine(lat, lng, *c.Lat, *c.Lng) <= RadiusMeters {
			res.Matched = true
			res.MatchedAt = c.RDT
			res.MatchedFile = c.FileName
			return res
		}
	}
	return res
}
