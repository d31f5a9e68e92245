package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"geoattend/internal/session"
)

// ExportResult is the metadata returned after a successful export.
type ExportResult struct {
	ReportID string
	FilePath string
	FileType string
}

// ExportService performs the one-time conversion of a report into a
// file artifact. It owns the export-status transition; byte production
// and storage are delegated to collaborators keyed by file type.
type ExportService struct {
	repo      Repository
	storage   Storage
	events    session.EventPublisher
	exporters map[string]Exporter
	log       zerolog.Logger
}

// NewExportService wires the export use case with no exporters
// registered.
func NewExportService(repo Repository, storage Storage, events session.EventPublisher, log zerolog.Logger) *ExportService {
	return &ExportService{
		repo:      repo,
		storage:   storage,
		events:    events,
		exporters: make(map[string]Exporter),
		log:       log,
	}
}

// Register binds an exporter to a file type such as "csv".
func (e *ExportService) Register(fileType string, exp Exporter) {
	e.exporters[fileType] = exp
}

// Export produces the file artifact for a report exactly once. Metadata
// is updated only after bytes were produced and stored; a storage
// failure leaves the report untouched. The repository re-checks the
// already-exported state at the point of the metadata write, closing the
// race between concurrent export attempts.
func (e *ExportService) Export(ctx context.Context, requester session.Actor, reportID, fileType string) (ExportResult, error) {
	rep, err := e.repo.GetReport(ctx, reportID)
	if err != nil {
		return ExportResult{}, err
	}
	if rep == nil {
		return ExportResult{}, fmt.Errorf("report %s: %w", reportID, ErrReportNotFound)
	}

	sess, err := e.repo.GetSession(ctx, rep.SessionID)
	if err != nil {
		return ExportResult{}, err
	}
	if sess == nil || !sess.OwnedBy(requester) {
		return ExportResult{}, fmt.Errorf("report %s: %w", reportID, ErrReportAccess)
	}

	if rep.Exported() {
		return ExportResult{}, fmt.Errorf("report %s: %w", reportID, ErrAlreadyExported)
	}

	exp, ok := e.exporters[fileType]
	if !ok {
		return ExportResult{}, fmt.Errorf("%w: %q", ErrUnknownFileType, fileType)
	}

	data, err := exp.ExportBytes(rep.Rows, rep.Statistics)
	if err != nil {
		return ExportResult{}, fmt.Errorf("encode %s export: %w", fileType, err)
	}

	hint := fmt.Sprintf("attendance_%s.%s", rep.SessionID, fileType)
	path, err := e.storage.SaveExport(data, hint)
	if err != nil {
		return ExportResult{}, err
	}

	if err := e.repo.UpdateExportDetails(ctx, reportID, path, fileType); err != nil {
		return ExportResult{}, err
	}

	if e.events != nil {
		if err := e.events.Publish(ctx, "report.exported", map[string]any{
			"report_id": reportID,
			"file_type": fileType,
		}); err != nil {
			e.log.Error().Err(err).Str("report_id", reportID).Msg("event publish failed")
		}
	}

	return ExportResult{ReportID: reportID, FilePath: path, FileType: fileType}, nil
}
