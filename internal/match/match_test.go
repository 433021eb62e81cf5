package match

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-telemetry/constants"
	"github.com/joseph-ayodele/fleet-telemetry/internal/common"
	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

type fakeQuerier struct {
	records []entity.LocationHistory
	err     error

	gotVehicle string
	gotStart   time.Time
	gotEnd     time.Time
}

func (f *fakeQuerier) QueryByVehicleAndTimeRange(_ context.Context, vehicleID string, start, end time.Time) ([]entity.LocationHistory, error) {
	f.gotVehicle, f.gotStart, f.gotEnd = vehicleID, start, end
	return f.records, f.err
}

// northOf returns the latitude d meters due north of lat.
func northOf(lat, d float64) float64 {
	return lat + (d/EarthRadiusMeters)*180/math.Pi
}

func ptr[T any](v T) *T { return &v }

func sample(file string, lat, lng float64, at time.Time) entity.LocationHistory {
	return entity.LocationHistory{GroupName: "AA112", FileName: file, Lat: ptr(lat), Lng: ptr(lng), RDT: ptr(at)}
}

func TestHaversine(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(35.4878, 73.8558, 35.4878, 73.8558))

	a := Haversine(35.4878, 73.8558, 31.5204, 74.3587)
	b := Haversine(31.5204, 74.3587, 35.4878, 73.8558)
	assert.InDelta(t, a, b, 1e-6)
	assert.InDelta(t, 443_000, a, 5_000)

	assert.InDelta(t, 150.0, Haversine(10, 20, northOf(10, 150), 20), 1e-6)
}

func TestMatchDistanceBoundary(t *testing.T) {
	at := time.Date(2023, time.September, 12, 4, 11, 50, 0, time.UTC)
	ctx := context.Background()

	near := &fakeQuerier{records: []entity.LocationHistory{sample("AA112 a.pdf", northOf(35.4878, 199), 73.8558, at)}}
	res, err := NewMatcher(near, nil).Match(ctx, "AA112", "12/09/2023", "12/09/2023", 35.4878, 73.8558)
	require.NoError(t, err)
	assert.True(t, res.Matched)
	require.NotNil(t, res.MatchedAt)
	assert.Equal(t, at, *res.MatchedAt)
	assert.Equal(t, "AA112 a.pdf", res.MatchedFile)

	far := &fakeQuerier{records: []entity.LocationHistory{sample("AA112 a.pdf", northOf(35.4878, 201), 73.8558, at)}}
	res, err = NewMatcher(far, nil).Match(ctx, "AA112", "12/09/2023", "12/09/2023", 35.4878, 73.8558)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Nil(t, res.MatchedAt)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, "AA112 a.pdf", res.FirstCandidateFile)
}

func TestMatchQueriesFullDayWindow(t *testing.T) {
	q := &fakeQuerier{}
	res, err := NewMatcher(q, nil).Match(context.Background(), "AA112", "11/09/2023", "2023-09-12", 1, 1)
	require.NoError(t, err)

	assert.Equal(t, "AA112", q.gotVehicle)
	assert.Equal(t, time.Date(2023, time.September, 11, 0, 0, 0, 0, time.UTC), q.gotStart)
	assert.Equal(t, time.Date(2023, time.September, 12, 23, 59, 59, 0, time.UTC), q.gotEnd)

	assert.False(t, res.Matched)
	assert.Zero(t, res.Candidates)
	assert.Equal(t, constants.NoFileFound, res.FirstCandidateFile)
}

func TestMatchErrors(t *testing.T) {
	_, err := NewMatcher(&fakeQuerier{}, nil).Match(context.Background(), "AA112", "12th Sept", "12/09/2023", 0, 0)
	assert.ErrorIs(t, err, common.ErrDateFormatUnrecognized)

	boom := errors.New("boom")
	_, err = NewMatcher(&fakeQuerier{err: boom}, nil).Match(context.Background(), "AA112", "12/09/2023", "12/09/2023", 0, 0)
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateFirstQualifyingCandidateWins(t *testing.T) {
	t1 := time.Date(2023, time.September, 12, 1, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	candidates := []entity.LocationHistory{
		{FileName: "", RDT: ptr(t1)}, // no position
		sample("far.pdf", northOf(10, 5000), 20, t1),
		sample("first.pdf", northOf(10, 50), 20, t1),
		sample("second.pdf", 10, 20, t2),
	}

	want := entity.MatchResult{
		Matched:            true,
		MatchedAt:          ptr(t1),
		MatchedFile:        "first.pdf",
		Candidates:         4,
		FirstCandidateFile: constants.NoFileFound,
	}
	for range 3 {
		if diff := cmp.Diff(want, Evaluate(candidates, 10, 20)); diff != "" {
			t.Fatalf("match result mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"03/04/2023", time.Date(2023, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"3/4/2023", time.Date(2023, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"03/04/2023 17:30:00", time.Date(2023, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"2023-04-03", time.Date(2023, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{" 2023-04-03 08:00:00 ", time.Date(2023, time.April, 3, 0, 0, 0, 0, time.UTC)},
		{"04/25/2023", time.Date(2023, time.April, 25, 0, 0, 0, 0, time.UTC)},
		{"25/04/2023 08:00:00 AM", time.Date(2023, time.April, 25, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDate("")
	assert.ErrorIs(t, err, common.ErrDateFormatUnrecognized)
}
