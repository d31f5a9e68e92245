package session

import (
	"fmt"

	"geoattend/internal/geo"
)

// DefaultRadiusMeters is the geofence radius applied when the command
// does not carry one.
const DefaultRadiusMeters = 30.0

// Location is a geofence center plus radius. Immutable by convention:
// always construct through NewLocation.
type Location struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Description  string
}

// NewLocation validates coordinates and applies the default radius when
// radiusMeters is zero or negative.
func NewLocation(lat, lon, radiusMeters float64, description string) (Location, error) {
	if err := geo.CheckCoordinates(lat, lon); err != nil {
		return Location{}, fmt.Errorf("%w: latitude must be in [-90,90] and longitude in [-180,180]", ErrValidation)
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return Location{Latitude: lat, Longitude: lon, RadiusMeters: radiusMeters, Description: description}, nil
}
