package geo

import (
	"errors"
	"math"
)

// earthRadiusMeters is the mean Earth radius used for great-circle math.
const earthRadiusMeters = 6371000.0

// ErrInvalidCoordinate reports a latitude or longitude outside its valid range.
var ErrInvalidCoordinate = errors.New("coordinate out of range")

// ValidCoordinates reports whether lat is in [-90,90] and lon in [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// CheckCoordinates returns ErrInvalidCoordinate for out-of-range values.
func CheckCoordinates(lat, lon float64) error {
	if !ValidCoordinates(lat, lon) {
		return ErrInvalidCoordinate
	}
	return nil
}

// Distance returns the great-circle distance in meters between two points
// using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// WithinRadius reports whether the two points are at most radiusMeters apart.
func WithinRadius(lat1, lon1, lat2, lon2, radiusMeters float64) bool {
	return Distance(lat1, lon1, lat2, lon2) <= radiusMeters
}
