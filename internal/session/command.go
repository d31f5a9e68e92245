package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateSessionCommand is the field-level contract accepted by session
// creation. Latitude/longitude arrive as json.Number so callers may send
// either numbers or numeric strings.
type CreateSessionCommand struct {
	ProgramID           int         `json:"program_id" validate:"required,gt=0"`
	CourseID            int         `json:"course_id" validate:"required,gt=0"`
	StreamID            *int        `json:"stream_id" validate:"omitempty,gt=0"`
	TimeCreated         string      `json:"time_created" validate:"required"`
	TimeEnded           string      `json:"time_ended" validate:"required"`
	Latitude            json.Number `json:"latitude" validate:"required"`
	Longitude           json.Number `json:"longitude" validate:"required"`
	RadiusMeters        json.Number `json:"radius_meters"`
	LocationDescription string      `json:"location_description"`
}

// Parse validates the command shape and converts it into an unsaved
// Session candidate. No port is consulted here; cross-context rules run
// in the service.
func (c CreateSessionCommand) Parse(minDuration time.Duration, defaultRadius float64) (Session, error) {
	if err := validate.Struct(c); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	start, err := parseTimestamp(c.TimeCreated)
	if err != nil {
		return Session{}, fmt.Errorf("%w: time_created: %v", ErrValidation, err)
	}
	end, err := parseTimestamp(c.TimeEnded)
	if err != nil {
		return Session{}, fmt.Errorf("%w: time_ended: %v", ErrValidation, err)
	}
	window, err := NewTimeWindow(start, end, minDuration)
	if err != nil {
		return Session{}, err
	}

	lat, err := c.Latitude.Float64()
	if err != nil {
		return Session{}, fmt.Errorf("%w: latitude must be numeric", ErrValidation)
	}
	lon, err := c.Longitude.Float64()
	if err != nil {
		return Session{}, fmt.Errorf("%w: longitude must be numeric", ErrValidation)
	}
	radius := defaultRadius
	if c.RadiusMeters != "" {
		radius, err = c.RadiusMeters.Float64()
		if err != nil {
			return Session{}, fmt.Errorf("%w: radius_meters must be numeric", ErrValidation)
		}
	}
	loc, err := NewLocation(lat, lon, radius, c.LocationDescription)
	if err != nil {
		return Session{}, err
	}

	return Session{
		ProgramID: c.ProgramID,
		CourseID:  c.CourseID,
		StreamID:  c.StreamID,
		Window:    window,
		Location:  loc,
	}, nil
}

// UpdateSessionCommand replaces a session's time window and/or location.
// Window fields must come as a pair, as must coordinates.
type UpdateSessionCommand struct {
	TimeCreated         *string      `json:"time_created"`
	TimeEnded           *string      `json:"time_ended"`
	Latitude            *json.Number `json:"latitude"`
	Longitude           *json.Number `json:"longitude"`
	RadiusMeters        *json.Number `json:"radius_meters"`
	LocationDescription *string      `json:"location_description"`
}

// Apply derives a new Session value from current with the command's
// replacements, re-running all window and location invariants.
func (c UpdateSessionCommand) Apply(current Session, minDuration time.Duration) (Session, error) {
	updated := current

	if (c.TimeCreated == nil) != (c.TimeEnded == nil) {
		return Session{}, fmt.Errorf("%w: time_created and time_ended must be updated together", ErrValidation)
	}
	if c.TimeCreated != nil {
		start, err := parseTimestamp(*c.TimeCreated)
		if err != nil {
			return Session{}, fmt.Errorf("%w: time_created: %v", ErrValidation, err)
		}
		end, err := parseTimestamp(*c.TimeEnded)
		if err != nil {
			return Session{}, fmt.Errorf("%w: time_ended: %v", ErrValidation, err)
		}
		window, err := NewTimeWindow(start, end, minDuration)
		if err != nil {
			return Session{}, err
		}
		updated = updated.WithWindow(window)
	}

	if (c.Latitude == nil) != (c.Longitude == nil) {
		return Session{}, fmt.Errorf("%w: latitude and longitude must be updated together", ErrValidation)
	}
	if c.Latitude != nil || c.RadiusMeters != nil || c.LocationDescription != nil {
		loc := updated.Location
		lat, lon := loc.Latitude, loc.Longitude
		if c.Latitude != nil {
			var err error
			if lat, err = c.Latitude.Float64(); err != nil {
				return Session{}, fmt.Errorf("%w: latitude must be numeric", ErrValidation)
			}
			if lon, err = c.Longitude.Float64(); err != nil {
				return Session{}, fmt.Errorf("%w: longitude must be numeric", ErrValidation)
			}
		}
		radius := loc.RadiusMeters
		if c.RadiusMeters != nil {
			var err error
			if radius, err = c.RadiusMeters.Float64(); err != nil {
				return Session{}, fmt.Errorf("%w: radius_meters must be numeric", ErrValidation)
			}
		}
		desc := loc.Description
		if c.LocationDescription != nil {
			desc = *c.LocationDescription
		}
		newLoc, err := NewLocation(lat, lon, radius, desc)
		if err != nil {
			return Session{}, err
		}
		updated = updated.WithLocation(newLoc)
	}

	return updated, nil
}

// parseTimestamp accepts RFC3339 and normalizes to UTC.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}
