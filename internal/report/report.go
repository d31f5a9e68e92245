// Package report classifies check-ins against a session's time window
// and geofence, reduces the rows to summary statistics, and owns the
// one-shot export state transition.
package report

import (
	"errors"
	"time"
)

// Status classifies an eligible student for one session.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// ExportStatus tracks the one-time NotExported -> Exported transition.
type ExportStatus string

const (
	ExportStatusNotExported ExportStatus = "not_exported"
	ExportStatusExported    ExportStatus = "exported"
)

// Sentinel errors for report generation and export.
var (
	ErrReportNotFound  = errors.New("report not found")
	ErrReportAccess    = errors.New("not authorized to access report")
	ErrAlreadyExported = errors.New("report already exported")
	ErrUnknownFileType = errors.New("unknown export file type")
)

// Student is an eligible student for a session, read through the
// report repository.
type Student struct {
	ID      string
	Name    string
	Email   string
	Program string
	Stream  string
}

// AttendanceRecord is a raw check-in produced by the recording
// subsystem. Read-only input to classification.
type AttendanceRecord struct {
	StudentID  string
	RecordedAt time.Time
	Latitude   float64
	Longitude  float64
}

// Row is one classified student. WithinRadius stays nil when no check-in
// exists; it is a diagnostic flag independent of the Present decision.
type Row struct {
	StudentID    string
	StudentName  string
	Email        string
	Program      string
	Stream       string
	Status       Status
	RecordedAt   *time.Time
	WithinRadius *bool
	Latitude     *float64
	Longitude    *float64
}

// Statistics summarises classified rows. Percentages are rounded to two
// decimal places. Rows with unknown radius status count toward neither
// diagnostic counter.
type Statistics struct {
	TotalStudents      int
	PresentCount       int
	PresentPercentage  float64
	AbsentCount        int
	AbsentPercentage   float64
	WithinRadiusCount  int
	OutsideRadiusCount int
}

// Report is a persisted snapshot of classified attendance for one
// session. ID is empty until the repository assigns one. FilePath and
// FileType are set exactly once, by the export step.
type Report struct {
	ID           string
	SessionID    string
	GeneratedBy  string
	GeneratedAt  time.Time
	Statistics   Statistics
	Rows         []Row
	ExportStatus ExportStatus
	FilePath     string
	FileType     string
}

// Exported reports whether the one-shot export transition has happened.
func (r Report) Exported() bool {
	return r.ExportStatus == ExportStatusExported || r.FilePath != ""
}
