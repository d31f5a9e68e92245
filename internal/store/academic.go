package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"geoattend/internal/session"
)

// AcademicStore is the read-only view of the academic catalog: programs,
// courses, streams and lecturer assignments. The catalog is maintained
// elsewhere; this service only queries it.
//
// Expected schema:
//
//	CREATE TABLE courses (
//	    id          INT PRIMARY KEY,
//	    program_id  INT NOT NULL,
//	    lecturer_id TEXT NOT NULL,
//	    name        TEXT NOT NULL
//	);
//	-- streams and programs as in reports.go
type AcademicStore struct {
	db *sql.DB
}

// NewAcademicStore creates the adapter.
func NewAcademicStore(db *sql.DB) *AcademicStore {
	return &AcademicStore{db: db}
}

// CourseBelongsToProgram reports whether the course is part of the program.
func (a *AcademicStore) CourseBelongsToProgram(ctx context.Context, courseID, programID int) (bool, error) {
	var exists bool
	err := a.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1 AND program_id = $2)
	`, courseID, programID).Scan(&exists)
	return exists, err
}

// ProgramHasStreams reports whether the program declares any streams.
func (a *AcademicStore) ProgramHasStreams(ctx context.Context, programID int) (bool, error) {
	var exists bool
	err := a.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM streams WHERE program_id = $1)
	`, programID).Scan(&exists)
	return exists, err
}

// StreamBelongsToProgram reports whether the stream is part of the program.
func (a *AcademicStore) StreamBelongsToProgram(ctx context.Context, streamID, programID int) (bool, error) {
	var exists bool
	err := a.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM streams WHERE id = $1 AND program_id = $2)
	`, streamID, programID).Scan(&exists)
	return exists, err
}

// CourseLecturer returns the id of the lecturer assigned to the course,
// or an empty string when the course is unknown.
func (a *AcademicStore) CourseLecturer(ctx context.Context, courseID int) (string, error) {
	var lecturerID string
	err := a.db.QueryRowContext(ctx, `SELECT lecturer_id FROM courses WHERE id = $1`, courseID).Scan(&lecturerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return lecturerID, err
}

var _ session.AcademicStructure = (*AcademicStore)(nil)

// UserStore reads lecturer account status from the users table.
//
//	CREATE TABLE users (
//	    id     TEXT PRIMARY KEY,
//	    role   TEXT NOT NULL,
//	    active BOOLEAN NOT NULL DEFAULT TRUE
//	);
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates the adapter.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// IsLecturerActive reports whether the lecturer exists and is active.
func (u *UserStore) IsLecturerActive(ctx context.Context, lecturerID string) (bool, error) {
	var active bool
	err := u.db.QueryRowContext(ctx, `
		SELECT active FROM users WHERE id = $1 AND role = $2
	`, lecturerID, session.RoleLecturer).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lecturer lookup: %w", err)
	}
	return active, nil
}

var _ session.UserDirectory = (*UserStore)(nil)
