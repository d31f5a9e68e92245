package report

import (
	"geoattend/internal/geo"
	"geoattend/internal/session"
)

// RadiusPolicy decides whether geofence membership is required for a
// Present classification or recorded as a diagnostic only.
type RadiusPolicy string

const (
	// RadiusEnforce requires the earliest check-in to be inside the
	// geofence for a Present classification.
	RadiusEnforce RadiusPolicy = "enforce"
	// RadiusAdvisory classifies on the time window alone; the
	// within-radius flag is still recorded for auditing.
	RadiusAdvisory RadiusPolicy = "advisory"
)

// Aggregator classifies eligible students as present or absent.
// Classification depends only on its inputs; wall-clock time never
// enters except through the session's fixed window.
type Aggregator struct {
	policy RadiusPolicy
}

// NewAggregator builds an aggregator; an empty policy means enforce.
func NewAggregator(policy RadiusPolicy) Aggregator {
	if policy == "" {
		policy = RadiusEnforce
	}
	return Aggregator{policy: policy}
}

// Classify produces one row per eligible student, in input order. A
// student is present iff their earliest check-in falls inside the
// session window (inclusive) and, under the enforce policy, inside the
// geofence.
func (a Aggregator) Classify(s session.Session, students []Student, records []AttendanceRecord) []Row {
	earliest := make(map[string]AttendanceRecord, len(records))
	for _, rec := range records {
		if cur, ok := earliest[rec.StudentID]; !ok || rec.RecordedAt.Before(cur.RecordedAt) {
			earliest[rec.StudentID] = rec
		}
	}

	rows := make([]Row, 0, len(students))
	for _, st := range students {
		row := Row{
			StudentID:   st.ID,
			StudentName: st.Name,
			Email:       st.Email,
			Program:     st.Program,
			Stream:      st.Stream,
			Status:      StatusAbsent,
		}
		if rec, ok := earliest[st.ID]; ok {
			when := rec.RecordedAt
			lat, lon := rec.Latitude, rec.Longitude
			within := geo.WithinRadius(lat, lon, s.Location.Latitude, s.Location.Longitude, s.Location.RadiusMeters)
			row.RecordedAt = &when
			row.Latitude = &lat
			row.Longitude = &lon
			row.WithinRadius = &within

			if s.Window.Contains(when) && (within || a.policy == RadiusAdvisory) {
				row.Status = StatusPresent
			}
		}
		rows = append(rows, row)
	}
	return rows
}
