package session

import (
	"context"
	"time"
)

// ListFilter scopes ListByLecturer queries.
type ListFilter struct {
	ProgramID *int
	Limit     int
	Offset    int
}

// Repository is the persistence contract for sessions. The in-process
// overlap check is a fast reject; the storage layer must also enforce a
// hard exclusion constraint on (lecturer_id, time range) so concurrent
// creations cannot both win.
type Repository interface {
	// HasOverlapping reports whether any session of the lecturer has a
	// half-open interval intersecting [start, end).
	HasOverlapping(ctx context.Context, lecturerID string, start, end time.Time) (bool, error)

	// Save persists a new session and returns it with the assigned id.
	// Returns ErrOverlappingSession when the storage-level exclusion
	// constraint rejects the write.
	Save(ctx context.Context, s Session) (Session, error)

	// GetByID returns (nil, nil) when no session matches.
	GetByID(ctx context.Context, id string) (*Session, error)

	// ListByLecturer returns the lecturer's sessions, newest first.
	ListByLecturer(ctx context.Context, lecturerID string, f ListFilter) ([]Session, error)

	// Update replaces the stored window and location for s.ID.
	Update(ctx context.Context, s Session) error
}

// AcademicStructure is the read-only view of the academic catalog.
type AcademicStructure interface {
	CourseBelongsToProgram(ctx context.Context, courseID, programID int) (bool, error)
	ProgramHasStreams(ctx context.Context, programID int) (bool, error)
	StreamBelongsToProgram(ctx context.Context, streamID, programID int) (bool, error)
	// CourseLecturer returns the id of the lecturer assigned to the course.
	CourseLecturer(ctx context.Context, courseID int) (string, error)
}

// UserDirectory exposes the lecturer account status.
type UserDirectory interface {
	IsLecturerActive(ctx context.Context, lecturerID string) (bool, error)
}

// EventPublisher delivers domain events. Callers must invoke Publish only
// after the triggering write has durably committed; delivery is
// at-least-once from that point.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload map[string]any) error
}
