package report

import (
	"context"

	"geoattend/internal/session"
)

// Repository is the persistence contract for report generation and
// export. Session, student and attendance reads go through the same
// port so one adapter serves the whole pipeline.
type Repository interface {
	// GetSession returns (nil, nil) when no session matches.
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)

	// GetEligibleStudents returns the students expected to attend the
	// session, in a stable order.
	GetEligibleStudents(ctx context.Context, sessionID string) ([]Student, error)

	// GetAttendanceForSession returns every raw check-in recorded
	// against the session.
	GetAttendanceForSession(ctx context.Context, sessionID string) ([]AttendanceRecord, error)

	// CreateReport persists a new report with its rows and returns it
	// with the assigned id.
	CreateReport(ctx context.Context, r Report) (Report, error)

	// GetReport returns (nil, nil) when no report matches. Rows are
	// included.
	GetReport(ctx context.Context, reportID string) (*Report, error)

	// UpdateExportDetails records the export artifact atomically: it
	// must reject with ErrAlreadyExported when the report has already
	// been exported, even under concurrent calls.
	UpdateExportDetails(ctx context.Context, reportID, filePath, fileType string) error
}

// Exporter turns report rows into file bytes for one file type.
type Exporter interface {
	ExportBytes(rows []Row, stats Statistics) ([]byte, error)
}

// Storage persists export artifacts. SaveExport must write atomically
// (temp file then rename) and returns the final path.
type Storage interface {
	SaveExport(data []byte, filenameHint string) (string, error)
}
