package constants

// ExtractionHeaders are the header cells of the output extraction workbook.
var ExtractionHeaders = []string{
	"Group Name", "RDT", "LandMark", "Speed", "Direction", "Distance",
	"Travel Time", "Stop Time", "LAT", "LON",
}

// ExtractionSheet is the single sheet of the output extraction workbook.
const ExtractionSheet = "Data"

// Import spreadsheet columns (0-based). Columns past ImportColLng are optional provenance.
const (
	ImportColGroupName = iota
	ImportColRDT
	ImportColLandMark
	ImportColSpeed
	ImportColDirection
	ImportColDistance
	ImportColTravelTime
	ImportColStopTime
	ImportColLat
	ImportColLng
	ImportColFileName
	ImportColPage
	ImportColRow
)

// ImportTimestampLayout is dd/MM/yyyy hh:mm:ss a.
const ImportTimestampLayout = "02/01/2006 03:04:05 PM"

// Master audit workbook columns (0-based).
const (
	AuditColFromDate  = 1
	AuditColToDate    = 2
	AuditColLat       = 5
	AuditColLng       = 6
	AuditColVehicleID = 8

	AuditColStatus           = 14
	AuditColMatchedTimestamp = 15
	AuditColSourceFile       = 16
)

// MatchedTimestampLayout is MM/dd/yyyy hh:mm:ss a.
const MatchedTimestampLayout = "01/02/2006 03:04:05 PM"
