package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"geoattend/internal/session"
)

// SessionStore persists sessions in Postgres.
//
// Expected schema:
//
//	CREATE EXTENSION IF NOT EXISTS btree_gist;
//	CREATE TABLE sessions (
//	    id            UUID PRIMARY KEY,
//	    program_id    INT NOT NULL,
//	    course_id     INT NOT NULL,
//	    lecturer_id   TEXT NOT NULL,
//	    stream_id     INT,
//	    starts_at     TIMESTAMPTZ NOT NULL,
//	    ends_at       TIMESTAMPTZ NOT NULL,
//	    latitude      DOUBLE PRECISION NOT NULL,
//	    longitude     DOUBLE PRECISION NOT NULL,
//	    radius_m      DOUBLE PRECISION NOT NULL,
//	    location_note TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    EXCLUDE USING gist (lecturer_id WITH =, tstzrange(starts_at, ends_at) WITH &&)
//	);
//
// The exclusion constraint is the authoritative guard against two
// concurrent creations double-booking a lecturer; HasOverlapping is only
// the fast reject.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates the adapter.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionColumns = `id, program_id, course_id, lecturer_id, stream_id, starts_at, ends_at, latitude, longitude, radius_m, location_note, created_at`

// HasOverlapping reports whether the lecturer has a session intersecting
// the half-open interval [start, end).
func (s *SessionStore) HasOverlapping(ctx context.Context, lecturerID string, start, end time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sessions
			WHERE lecturer_id = $1 AND starts_at < $3 AND ends_at > $2
		)
	`, lecturerID, start, end).Scan(&exists)
	return exists, err
}

// Save inserts a new session and returns it with the assigned id. An
// exclusion-constraint violation maps to session.ErrOverlappingSession.
func (s *SessionStore) Save(ctx context.Context, sess session.Session) (session.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, sess.ID, sess.ProgramID, sess.CourseID, sess.LecturerID, sess.StreamID,
		sess.Window.Start, sess.Window.End,
		sess.Location.Latitude, sess.Location.Longitude, sess.Location.RadiusMeters, sess.Location.Description,
		sess.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23P01 exclusion_violation: a concurrent creation won the slot.
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return session.Session{}, fmt.Errorf("lecturer %s: %w", sess.LecturerID, session.ErrOverlappingSession)
		}
		return session.Session{}, err
	}
	return sess, nil
}

// GetByID returns (nil, nil) when no session matches.
func (s *SessionStore) GetByID(ctx context.Context, id string) (*session.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

// ListByLecturer returns the lecturer's sessions, newest first, with an
// optional program filter.
func (s *SessionStore) ListByLecturer(ctx context.Context, lecturerID string, f session.ListFilter) ([]session.Session, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE lecturer_id = $1`
	args := []any{lecturerID}
	if f.ProgramID != nil {
		query += fmt.Sprintf(" AND program_id = $%d", len(args)+1)
		args = append(args, *f.ProgramID)
	}
	query += fmt.Sprintf(" ORDER BY starts_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Update replaces the stored window and location for the session id.
func (s *SessionStore) Update(ctx context.Context, sess session.Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET starts_at = $2, ends_at = $3, latitude = $4, longitude = $5, radius_m = $6, location_note = $7
		WHERE id = $1
	`, sess.ID, sess.Window.Start, sess.Window.End,
		sess.Location.Latitude, sess.Location.Longitude, sess.Location.RadiusMeters, sess.Location.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			return fmt.Errorf("lecturer %s: %w", sess.LecturerID, session.ErrOverlappingSession)
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", sess.ID, session.ErrSessionNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (session.Session, error) {
	var (
		sess     session.Session
		streamID sql.NullInt64
		note     string
	)
	err := row.Scan(&sess.ID, &sess.ProgramID, &sess.CourseID, &sess.LecturerID, &streamID,
		&sess.Window.Start, &sess.Window.End,
		&sess.Location.Latitude, &sess.Location.Longitude, &sess.Location.RadiusMeters, &note,
		&sess.CreatedAt)
	if err != nil {
		return session.Session{}, err
	}
	if streamID.Valid {
		v := int(streamID.Int64)
		sess.StreamID = &v
	}
	sess.Location.Description = note
	sess.Window.Start = sess.Window.Start.UTC()
	sess.Window.End = sess.Window.End.UTC()
	return sess, nil
}

var _ session.Repository = (*SessionStore)(nil)
