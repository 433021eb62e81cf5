package entity

import "time"

// LocationHistory is the canonical GPS sample produced from a PDF trip report or an
// import spreadsheet. Absent values stay nil; they are never defaulted to zero
// and encode as JSON null.
type LocationHistory struct {
	GroupName  string     `json:"groupName"`
	RDT        *time.Time `json:"rdt"`
	LandMark   string     `json:"landMark"`
	Speed      *float64   `json:"speed"`
	Direction  *float64   `json:"direction"`
	Distance   *float64   `json:"distance"`
	TravelTime string     `json:"travelTime"`
	StopTime   string     `json:"stopTime"`
	Lat        *float64   `json:"lat"`
	Lng        *float64   `json:"lng"`

	// Provenance
	FileName string `json:"fileName"`
	Page     *int   `json:"page"`
	Row      *int   `json:"row"`
}

// HasPosition reports whether the record can take part in geo-temporal matching.
func (l LocationHistory) HasPosition() bool {
	return l.Lat != nil && l.Lng != nil
}
