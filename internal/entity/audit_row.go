package entity

// AuditRow is one data row of the master audit workbook, as read before matching.
type AuditRow struct {
	Index     int // 0-based sheet row index; the header is row 0
	VehicleID string
	FromDate  string
	ToDate    string
	Lat       float64
	Lng       float64
}
