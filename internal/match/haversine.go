package match

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distance.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
