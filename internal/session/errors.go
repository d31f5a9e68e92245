package session

import "errors"

// Sentinel errors for session scheduling. Callers wrap them with
// fmt.Errorf("...: %w") and check with errors.Is; the HTTP layer maps
// each kind to a status code.
var (
	// ErrValidation indicates a malformed command or an invalid
	// time window / location value.
	ErrValidation = errors.New("validation failed")

	// ErrOverlappingSession indicates the lecturer already has a session
	// whose time window intersects the candidate's.
	ErrOverlappingSession = errors.New("overlapping session for lecturer")

	// ErrCourseNotInProgram indicates the course is not part of the
	// program named by the command.
	ErrCourseNotInProgram = errors.New("course does not belong to program")

	// ErrStreamMismatch covers both a missing stream when the program
	// requires one and a stream given when the program has none, as well
	// as a stream from a different program.
	ErrStreamMismatch = errors.New("stream does not match program")

	// ErrLecturerNotAssigned indicates the course's assigned lecturer is
	// not the one creating the session.
	ErrLecturerNotAssigned = errors.New("lecturer not assigned to course")

	// ErrInactiveLecturer indicates the lecturer account is not active.
	ErrInactiveLecturer = errors.New("lecturer is not active")

	// ErrPermissionDenied indicates the requester is neither the session
	// owner nor an administrator.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrSessionNotFound indicates no session exists with the given id.
	ErrSessionNotFound = errors.New("session not found")
)
