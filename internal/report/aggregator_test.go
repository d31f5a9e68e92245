package report

import (
	"testing"
	"time"

	"geoattend/internal/session"
)

var windowStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testSession(t *testing.T) session.Session {
	t.Helper()
	w, err := session.NewTimeWindow(windowStart, windowStart.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	loc, err := session.NewLocation(51.5074, -0.1278, 30, "lecture hall A")
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	return session.Session{ID: "sess-1", LecturerID: "lect-1", Window: w, Location: loc}
}

func TestClassify(t *testing.T) {
	s := testSession(t)
	students := []Student{
		{ID: "s1", Name: "Ada"},
		{ID: "s2", Name: "Grace"},
	}
	agg := NewAggregator(RadiusEnforce)

	t.Run("PresentAndAbsent", func(t *testing.T) {
		records := []AttendanceRecord{
			{StudentID: "s1", RecordedAt: windowStart.Add(10 * time.Minute), Latitude: 51.5074, Longitude: -0.1278},
		}
		rows := agg.Classify(s, students, records)
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].Status != StatusPresent {
			t.Fatalf("s1 should be present, got %s", rows[0].Status)
		}
		if rows[0].WithinRadius == nil || !*rows[0].WithinRadius {
			t.Fatal("s1 within_radius flag should be true")
		}
		if rows[1].Status != StatusAbsent {
			t.Fatalf("s2 should be absent, got %s", rows[1].Status)
		}
		if rows[1].WithinRadius != nil || rows[1].RecordedAt != nil {
			t.Fatal("s2 diagnostics should be unknown")
		}
	})

	t.Run("OutsideWindowIsAbsent", func(t *testing.T) {
		records := []AttendanceRecord{
			{StudentID: "s1", RecordedAt: windowStart.Add(2 * time.Hour), Latitude: 51.5074, Longitude: -0.1278},
		}
		rows := agg.Classify(s, students, records)
		if rows[0].Status != StatusAbsent {
			t.Fatalf("late check-in must be absent, got %s", rows[0].Status)
		}
		if rows[0].WithinRadius == nil || !*rows[0].WithinRadius {
			t.Fatal("radius diagnostic still recorded for late check-in")
		}
	})

	t.Run("WindowEndpointsInclusive", func(t *testing.T) {
		for _, when := range []time.Time{windowStart, windowStart.Add(time.Hour)} {
			records := []AttendanceRecord{
				{StudentID: "s1", RecordedAt: when, Latitude: 51.5074, Longitude: -0.1278},
			}
			rows := agg.Classify(s, students, records)
			if rows[0].Status != StatusPresent {
				t.Fatalf("check-in at %v must be present", when)
			}
		}
	})

	t.Run("OutsideRadiusIsAbsent", func(t *testing.T) {
		records := []AttendanceRecord{
			// ~550m north of the hall.
			{StudentID: "s1", RecordedAt: windowStart.Add(10 * time.Minute), Latitude: 51.5124, Longitude: -0.1278},
		}
		rows := agg.Classify(s, students, records)
		if rows[0].Status != StatusAbsent {
			t.Fatalf("out-of-fence check-in must be absent, got %s", rows[0].Status)
		}
		if rows[0].WithinRadius == nil || *rows[0].WithinRadius {
			t.Fatal("within_radius diagnostic should be false")
		}
	})

	t.Run("AdvisoryPolicyIgnoresRadius", func(t *testing.T) {
		advisory := NewAggregator(RadiusAdvisory)
		records := []AttendanceRecord{
			{StudentID: "s1", RecordedAt: windowStart.Add(10 * time.Minute), Latitude: 51.5124, Longitude: -0.1278},
		}
		rows := advisory.Classify(s, students, records)
		if rows[0].Status != StatusPresent {
			t.Fatalf("advisory policy must classify on time alone, got %s", rows[0].Status)
		}
		if rows[0].WithinRadius == nil || *rows[0].WithinRadius {
			t.Fatal("diagnostic flag must still record the geofence miss")
		}
	})

	t.Run("EarliestRecordWins", func(t *testing.T) {
		records := []AttendanceRecord{
			{StudentID: "s1", RecordedAt: windowStart.Add(40 * time.Minute), Latitude: 51.5074, Longitude: -0.1278},
			{StudentID: "s1", RecordedAt: windowStart.Add(-10 * time.Minute), Latitude: 51.5074, Longitude: -0.1278},
		}
		rows := agg.Classify(s, students, records)
		// The earliest record is before the window; a later valid one
		// does not rescue the classification.
		if rows[0].Status != StatusAbsent {
			t.Fatalf("earliest record must decide, got %s", rows[0].Status)
		}
		if !rows[0].RecordedAt.Equal(windowStart.Add(-10 * time.Minute)) {
			t.Fatalf("row must carry the earliest record, got %v", rows[0].RecordedAt)
		}
	})

	t.Run("UnknownStudentIgnored", func(t *testing.T) {
		records := []AttendanceRecord{
			{StudentID: "ghost", RecordedAt: windowStart.Add(10 * time.Minute), Latitude: 51.5074, Longitude: -0.1278},
		}
		rows := agg.Classify(s, students, records)
		for _, row := range rows {
			if row.Status != StatusAbsent {
				t.Fatal("records for non-eligible students must not classify anyone")
			}
		}
	})

	t.Run("NoStudents", func(t *testing.T) {
		rows := agg.Classify(s, nil, nil)
		if len(rows) != 0 {
			t.Fatalf("expected no rows, got %d", len(rows))
		}
	})
}
