package reportparse

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = "12/09/2023 04:11:50 AM 1||PSO (Thor Filling Station)N35Tehsil ChilasGilgit- Baltistan 0 205 0.00 00:02:00 00:30:00 35.4878 73.8558"

func TestScannerParsesDetailRow(t *testing.T) {
	s := NewScanner()
	rows := slices.Collect(s.Rows(samplePage))
	require.Len(t, rows, 1)

	raw, ok := SplitRow(rows[0])
	require.True(t, ok)
	rec := raw.Record(Source{FileName: "AA112 Activity Report.pdf", Page: 1, Row: 1})

	assert.Equal(t, "AA112", rec.GroupName)
	assert.Equal(t, "1||PSO (Thor Filling Station)N35Tehsil ChilasGilgit- Baltistan", rec.LandMark)
	require.NotNil(t, rec.Speed)
	assert.Equal(t, 0.0, *rec.Speed)
	require.NotNil(t, rec.Direction)
	assert.Equal(t, 205.0, *rec.Direction)
	require.NotNil(t, rec.Distance)
	assert.Equal(t, 0.0, *rec.Distance)
	assert.Equal(t, "00:02:00", rec.TravelTime)
	assert.Equal(t, "00:30:00", rec.StopTime)
	require.NotNil(t, rec.Lat)
	assert.Equal(t, 35.4878, *rec.Lat)
	require.NotNil(t, rec.Lng)
	assert.Equal(t, 73.8558, *rec.Lng)

	require.NotNil(t, rec.RDT)
	assert.Equal(t, time.Date(2023, time.September, 12, 4, 11, 50, 0, time.UTC), *rec.RDT)
	require.NotNil(t, rec.Page)
	assert.Equal(t, 1, *rec.Page)
}

func TestCandidateRowsSplitsOnAnchors(t *testing.T) {
	text := "Summary header\r\n12/09/2023 04:11:50\nAM a 1 2 3 4 5 6 7\n12/09/2023 4:12:00   PM   b 1 2 3 4 5 6 7"
	got := slices.Collect(CandidateRows(text))
	want := []string{
		"12/09/2023 04:11:50 AM a 1 2 3 4 5 6 7",
		"12/09/2023 4:12:00 PM b 1 2 3 4 5 6 7",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	// Recomputed on each range.
	assert.Equal(t, got, slices.Collect(CandidateRows(text)))
}

func TestCandidateRowsWithoutAnchors(t *testing.T) {
	got := slices.Collect(CandidateRows("Fleet   Activity\nReport"))
	assert.Equal(t, []string{"Fleet Activity Report"}, got)
	assert.Empty(t, slices.Collect(CandidateRows("  \n ")))
}

func TestScannerIgnoresRowsBeforeDetailTable(t *testing.T) {
	s := NewScanner()
	assert.Empty(t, slices.Collect(s.Rows("Vehicle summary page")))
	assert.False(t, s.Started())

	rows := slices.Collect(s.Rows(samplePage))
	assert.Len(t, rows, 1)
	assert.True(t, s.Started())

	// Gate stays open for later pages of the same document.
	rows = slices.Collect(s.Rows("cover text"))
	assert.Equal(t, [][]string{{"cover", "text"}}, rows)
}

func TestScannerStripsTripFooter(t *testing.T) {
	page := "13/09/2023 10:00:00 AM Depot 5 90 1.5 00:10:00 00:00:00 35.1 73.2 Total 12.0 From : Monday, September 11, 2023 To: Tuesday, September 12, 2023"
	s := NewScanner()
	rows := slices.Collect(s.Rows(page))
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"13/09/2023", "10:00:00", "AM", "Depot", "5", "90", "1.5", "00:10:00", "00:00:00", "35.1", "73.2"}, rows[0])
	assert.Equal(t, "11-September-2023 12-September-2023", s.DateRange())
}

func TestExtractDateRange(t *testing.T) {
	text := "Report From : Monday, September 11, 2023 and To: Tuesday, September 12, 2023"
	assert.Equal(t, "11-September-2023 12-September-2023", ExtractDateRange(text))

	assert.Empty(t, ExtractDateRange("From : Monday, September 11, 2023"))
	assert.Empty(t, ExtractDateRange("From : Monday, Septober 11, 2023 To: Tuesday, September 12, 2023"))
}

func TestSplitRowRejectsShortRows(t *testing.T) {
	_, ok := SplitRow([]string{"12/09/2023", "04:11:50", "AM", "1", "2", "3", "4", "5", "6"})
	assert.False(t, ok)

	raw, ok := SplitRow([]string{"12/09/2023", "04:11:50", "AM", "x", "n/a", "3", "00:00:00", "00:00:00", "bad", "73.1"})
	require.True(t, ok)
	assert.Empty(t, raw.Landmark)
	rec := raw.Record(Source{FileName: "BB7.pdf"})
	assert.Nil(t, rec.Speed)
	assert.Nil(t, rec.Direction)
	assert.Nil(t, rec.Lat)
	require.NotNil(t, rec.Lng)
	assert.Equal(t, "BB7", rec.GroupName)
	assert.Nil(t, rec.Page)
	assert.Nil(t, rec.Row)
}

func TestParseTimestamp(t *testing.T) {
	ts := ParseTimestamp("1/9/2023 4:05:06 pm")
	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2023, time.September, 1, 16, 5, 6, 0, time.UTC), *ts)

	assert.Nil(t, ParseTimestamp("2023-09-01 16:05:06"))
	assert.Nil(t, ParseTimestamp(""))
}

func TestRawRowCells(t *testing.T) {
	raw, ok := SplitRow([]string{"12/09/2023", "04:11:50", "AM", "Depot", "0", "205", "0.00", "00:02:00", "00:30:00", "35.4878", "73.8558"})
	require.True(t, ok)
	assert.Equal(t,
		[]string{"AA112", "12/09/2023 04:11:50 AM", "Depot", "0", "205", "0.00", "00:02:00", "00:30:00", "35.4878", "73.8558"},
		raw.Cells("AA112"))
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "AA112", GroupName("/reports/AA112 11-September-2023.pdf"))
	assert.Equal(t, "AA112", GroupName("AA112.pdf"))
	assert.Equal(t, "", GroupName("   .pdf"))
}
