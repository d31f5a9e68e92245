package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"geoattend/internal/session"
)

type fakeReportRepo struct {
	sessions map[string]session.Session
	students []Student
	records  []AttendanceRecord
	reports  map[string]*Report
	nextID   int

	createErr error
	updateErr error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{
		sessions: make(map[string]session.Session),
		reports:  make(map[string]*Report),
	}
}

func (r *fakeReportRepo) GetSession(_ context.Context, sessionID string) (*session.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeReportRepo) GetEligibleStudents(_ context.Context, _ string) ([]Student, error) {
	return r.students, nil
}

func (r *fakeReportRepo) GetAttendanceForSession(_ context.Context, _ string) ([]AttendanceRecord, error) {
	return r.records, nil
}

func (r *fakeReportRepo) CreateReport(_ context.Context, rep Report) (Report, error) {
	if r.createErr != nil {
		return Report{}, r.createErr
	}
	r.nextID++
	rep.ID = fmt.Sprintf("rep-%d", r.nextID)
	stored := rep
	r.reports[rep.ID] = &stored
	return rep, nil
}

func (r *fakeReportRepo) GetReport(_ context.Context, reportID string) (*Report, error) {
	rep, ok := r.reports[reportID]
	if !ok {
		return nil, nil
	}
	cp := *rep
	return &cp, nil
}

func (r *fakeReportRepo) UpdateExportDetails(_ context.Context, reportID, filePath, fileType string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	rep, ok := r.reports[reportID]
	if !ok {
		return fmt.Errorf("report %s: %w", reportID, ErrReportNotFound)
	}
	if rep.Exported() {
		return fmt.Errorf("report %s: %w", reportID, ErrAlreadyExported)
	}
	rep.FilePath = filePath
	rep.FileType = fileType
	rep.ExportStatus = ExportStatusExported
	return nil
}

type captureEvents struct {
	published []string
}

func (c *captureEvents) Publish(_ context.Context, name string, _ map[string]any) error {
	c.published = append(c.published, name)
	return nil
}

func generatorFixture(t *testing.T) (*Generator, *fakeReportRepo, *captureEvents) {
	t.Helper()
	repo := newFakeReportRepo()
	repo.sessions["sess-1"] = testSession(t)
	events := &captureEvents{}
	gen := NewGenerator(repo, NewAggregator(RadiusEnforce), events, zerolog.Nop())
	return gen, repo, events
}

var owner = session.Actor{ID: "lect-1", Role: session.RoleLecturer}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("EndToEnd", func(t *testing.T) {
		gen, repo, events := generatorFixture(t)
		repo.students = []Student{{ID: "s1", Name: "Ada"}, {ID: "s2", Name: "Grace"}}
		repo.records = []AttendanceRecord{
			{StudentID: "s1", RecordedAt: windowStart.Add(10 * time.Minute), Latitude: 51.5074, Longitude: -0.1278},
		}

		rep, err := gen.Generate(ctx, owner, "sess-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rep.ID == "" {
			t.Fatal("expected repo-assigned report id")
		}
		if rep.ExportStatus != ExportStatusNotExported {
			t.Fatalf("new report must be not_exported, got %s", rep.ExportStatus)
		}
		if rep.Rows[0].Status != StatusPresent || rep.Rows[1].Status != StatusAbsent {
			t.Fatalf("unexpected classification: %+v", rep.Rows)
		}
		if rep.Statistics.PresentCount != 1 || rep.Statistics.PresentPercentage != 50.0 {
			t.Fatalf("unexpected statistics: %+v", rep.Statistics)
		}
		if len(events.published) != 1 || events.published[0] != "report.generated" {
			t.Fatalf("expected report.generated event, got %v", events.published)
		}
	})

	t.Run("SessionNotFound", func(t *testing.T) {
		gen, _, _ := generatorFixture(t)
		_, err := gen.Generate(ctx, owner, "missing")
		if !errors.Is(err, session.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("NonOwnerDenied", func(t *testing.T) {
		gen, _, _ := generatorFixture(t)
		stranger := session.Actor{ID: "lect-2", Role: session.RoleLecturer}
		_, err := gen.Generate(ctx, stranger, "sess-1")
		if !errors.Is(err, ErrReportAccess) {
			t.Fatalf("expected ErrReportAccess, got %v", err)
		}
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		gen, _, _ := generatorFixture(t)
		admin := session.Actor{ID: "admin-1", Role: session.RoleAdmin}
		if _, err := gen.Generate(ctx, admin, "sess-1"); err != nil {
			t.Fatalf("admin must succeed regardless of ownership: %v", err)
		}
	})

	t.Run("PersistenceFailurePropagates", func(t *testing.T) {
		gen, repo, events := generatorFixture(t)
		boom := errors.New("disk full")
		repo.createErr = boom
		_, err := gen.Generate(ctx, owner, "sess-1")
		if !errors.Is(err, boom) {
			t.Fatalf("expected persistence error unchanged, got %v", err)
		}
		if len(events.published) != 0 {
			t.Fatal("no event when the write failed")
		}
	})

	t.Run("NoEligibleStudents", func(t *testing.T) {
		gen, _, _ := generatorFixture(t)
		rep, err := gen.Generate(ctx, owner, "sess-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rep.Statistics != (Statistics{}) {
			t.Fatalf("expected all-zero statistics, got %+v", rep.Statistics)
		}
	})
}
