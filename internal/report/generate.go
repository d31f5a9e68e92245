package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"geoattend/internal/session"
)

// Generator assembles and persists attendance reports.
type Generator struct {
	repo   Repository
	agg    Aggregator
	events session.EventPublisher
	now    func() time.Time
	log    zerolog.Logger
}

// NewGenerator wires the report generation use case.
func NewGenerator(repo Repository, agg Aggregator, events session.EventPublisher, log zerolog.Logger) *Generator {
	return &Generator{repo: repo, agg: agg, events: events, now: time.Now, log: log}
}

// Generate builds, persists and returns the report for a session. The
// requester must own the session or be an administrator. Persistence
// failures propagate unchanged.
func (g *Generator) Generate(ctx context.Context, requester session.Actor, sessionID string) (Report, error) {
	sess, err := g.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}
	if sess == nil {
		return Report{}, fmt.Errorf("session %s: %w", sessionID, session.ErrSessionNotFound)
	}
	if !sess.OwnedBy(requester) {
		return Report{}, fmt.Errorf("session %s: %w", sessionID, ErrReportAccess)
	}

	students, err := g.repo.GetEligibleStudents(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}
	records, err := g.repo.GetAttendanceForSession(ctx, sessionID)
	if err != nil {
		return Report{}, err
	}

	rows := g.agg.Classify(*sess, students, records)
	rep := Report{
		SessionID:    sessionID,
		GeneratedBy:  requester.ID,
		GeneratedAt:  g.now().UTC(),
		Statistics:   ComputeStatistics(rows),
		Rows:         rows,
		ExportStatus: ExportStatusNotExported,
	}

	saved, err := g.repo.CreateReport(ctx, rep)
	if err != nil {
		return Report{}, err
	}

	g.publish(ctx, "report.generated", map[string]any{
		"report_id":    saved.ID,
		"session_id":   saved.SessionID,
		"generated_by": saved.GeneratedBy,
	})
	return saved, nil
}

// Get is an ownership-gated report read: the requester must own the
// underlying session or be an administrator.
func (g *Generator) Get(ctx context.Context, requester session.Actor, reportID string) (Report, error) {
	rep, err := g.repo.GetReport(ctx, reportID)
	if err != nil {
		return Report{}, err
	}
	if rep == nil {
		return Report{}, fmt.Errorf("report %s: %w", reportID, ErrReportNotFound)
	}
	sess, err := g.repo.GetSession(ctx, rep.SessionID)
	if err != nil {
		return Report{}, err
	}
	if sess == nil || !sess.OwnedBy(requester) {
		return Report{}, fmt.Errorf("report %s: %w", reportID, ErrReportAccess)
	}
	return *rep, nil
}

func (g *Generator) publish(ctx context.Context, name string, payload map[string]any) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, name, payload); err != nil {
		g.log.Error().Err(err).Str("event", name).Msg("event publish failed")
	}
}
