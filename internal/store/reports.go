package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"geoattend/internal/report"
	"geoattend/internal/session"
)

// ReportStore persists reports and reads the session, enrollment and
// check-in data the report pipeline needs.
//
// Expected schema (beyond sessions):
//
//	CREATE TABLE students (
//	    id      TEXT PRIMARY KEY,
//	    name    TEXT NOT NULL,
//	    email   TEXT NOT NULL DEFAULT ''
//	);
//	CREATE TABLE enrollments (
//	    student_id TEXT NOT NULL REFERENCES students(id),
//	    program_id INT NOT NULL,
//	    stream_id  INT
//	);
//	CREATE TABLE programs (id INT PRIMARY KEY, name TEXT NOT NULL);
//	CREATE TABLE streams  (id INT PRIMARY KEY, program_id INT NOT NULL, name TEXT NOT NULL);
//	CREATE TABLE check_ins (
//	    session_id  UUID NOT NULL REFERENCES sessions(id),
//	    student_id  TEXT NOT NULL,
//	    recorded_at TIMESTAMPTZ NOT NULL,
//	    latitude    DOUBLE PRECISION NOT NULL,
//	    longitude   DOUBLE PRECISION NOT NULL
//	);
//	CREATE TABLE reports (
//	    id            UUID PRIMARY KEY,
//	    session_id    UUID NOT NULL REFERENCES sessions(id),
//	    generated_by  TEXT NOT NULL,
//	    generated_at  TIMESTAMPTZ NOT NULL,
//	    export_status TEXT NOT NULL DEFAULT 'not_exported',
//	    file_path     TEXT,
//	    file_type     TEXT
//	);
//	CREATE TABLE report_rows (
//	    report_id     UUID NOT NULL REFERENCES reports(id),
//	    position      INT NOT NULL,
//	    student_id    TEXT NOT NULL,
//	    student_name  TEXT NOT NULL,
//	    email         TEXT NOT NULL DEFAULT '',
//	    program       TEXT NOT NULL DEFAULT '',
//	    stream        TEXT NOT NULL DEFAULT '',
//	    status        TEXT NOT NULL,
//	    recorded_at   TIMESTAMPTZ,
//	    within_radius BOOLEAN,
//	    latitude      DOUBLE PRECISION,
//	    longitude     DOUBLE PRECISION
//	);
type ReportStore struct {
	db       *sql.DB
	sessions *SessionStore
}

// NewReportStore creates the adapter; session reads are delegated to the
// session store so both ports see identical rows.
func NewReportStore(db *sql.DB, sessions *SessionStore) *ReportStore {
	return &ReportStore{db: db, sessions: sessions}
}

// GetSession returns (nil, nil) when no session matches.
func (r *ReportStore) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return r.sessions.GetByID(ctx, sessionID)
}

// GetEligibleStudents returns students enrolled in the session's program
// (and stream, when the session has one), ordered by student id.
func (r *ReportStore) GetEligibleStudents(ctx context.Context, sessionID string) ([]report.Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT st.id, st.name, st.email, COALESCE(p.name, ''), COALESCE(sm.name, '')
		FROM sessions s
		JOIN enrollments e ON e.program_id = s.program_id
			AND (s.stream_id IS NULL OR e.stream_id = s.stream_id)
		JOIN students st ON st.id = e.student_id
		LEFT JOIN programs p ON p.id = e.program_id
		LEFT JOIN streams sm ON sm.id = e.stream_id
		WHERE s.id = $1
		ORDER BY st.id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Student
	for rows.Next() {
		var st report.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Program, &st.Stream); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetAttendanceForSession returns every raw check-in for the session.
func (r *ReportStore) GetAttendanceForSession(ctx context.Context, sessionID string) ([]report.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, recorded_at, latitude, longitude
		FROM check_ins
		WHERE session_id = $1
		ORDER BY recorded_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.AttendanceRecord
	for rows.Next() {
		var rec report.AttendanceRecord
		if err := rows.Scan(&rec.StudentID, &rec.RecordedAt, &rec.Latitude, &rec.Longitude); err != nil {
			return nil, err
		}
		rec.RecordedAt = rec.RecordedAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateReport writes the report header and its rows in one transaction.
func (r *ReportStore) CreateReport(ctx context.Context, rep report.Report) (report.Report, error) {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return report.Report{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, session_id, generated_by, generated_at, export_status)
		VALUES ($1, $2, $3, $4, $5)
	`, rep.ID, rep.SessionID, rep.GeneratedBy, rep.GeneratedAt, string(rep.ExportStatus))
	if err != nil {
		return report.Report{}, err
	}

	for i, row := range rep.Rows {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO report_rows
				(report_id, position, student_id, student_name, email, program, stream, status, recorded_at, within_radius, latitude, longitude)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`, rep.ID, i, row.StudentID, row.StudentName, row.Email, row.Program, row.Stream,
			string(row.Status), row.RecordedAt, row.WithinRadius, row.Latitude, row.Longitude)
		if err != nil {
			return report.Report{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return report.Report{}, err
	}
	return rep, nil
}

// GetReport loads a report with its rows; (nil, nil) when absent.
func (r *ReportStore) GetReport(ctx context.Context, reportID string) (*report.Report, error) {
	var (
		rep      report.Report
		status   string
		filePath sql.NullString
		fileType sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, generated_by, generated_at, export_status, file_path, file_type
		FROM reports WHERE id = $1
	`, reportID).Scan(&rep.ID, &rep.SessionID, &rep.GeneratedBy, &rep.GeneratedAt, &status, &filePath, &fileType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rep.GeneratedAt = rep.GeneratedAt.UTC()
	rep.ExportStatus = report.ExportStatus(status)
	rep.FilePath = filePath.String
	rep.FileType = fileType.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, student_name, email, program, stream, status, recorded_at, within_radius, latitude, longitude
		FROM report_rows WHERE report_id = $1 ORDER BY position
	`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row        report.Row
			rowStatus  string
			recordedAt sql.NullTime
			within     sql.NullBool
			lat, lon   sql.NullFloat64
		)
		if err := rows.Scan(&row.StudentID, &row.StudentName, &row.Email, &row.Program, &row.Stream,
			&rowStatus, &recordedAt, &within, &lat, &lon); err != nil {
			return nil, err
		}
		row.Status = report.Status(rowStatus)
		if recordedAt.Valid {
			t := recordedAt.Time.UTC()
			row.RecordedAt = &t
		}
		if within.Valid {
			b := within.Bool
			row.WithinRadius = &b
		}
		if lat.Valid {
			v := lat.Float64
			row.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			row.Longitude = &v
		}
		rep.Rows = append(rep.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rep.Statistics = report.ComputeStatistics(rep.Rows)
	return &rep, nil
}

// UpdateExportDetails flips the export status exactly once. The
// conditional UPDATE makes the already-exported check atomic at the
// storage layer, so a concurrent export cannot slip between read and
// write.
func (r *ReportStore) UpdateExportDetails(ctx context.Context, reportID, filePath, fileType string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET export_status = $2, file_path = $3, file_type = $4
		WHERE id = $1 AND export_status = $5
	`, reportID, string(report.ExportStatusExported), filePath, fileType, string(report.ExportStatusNotExported))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, reportID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("report %s: %w", reportID, report.ErrReportNotFound)
	}
	return fmt.Errorf("report %s: %w", reportID, report.ErrAlreadyExported)
}

var _ report.Repository = (*ReportStore)(nil)
