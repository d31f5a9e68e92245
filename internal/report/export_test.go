package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"geoattend/internal/session"
)

type fakeStorage struct {
	saved map[string][]byte
	err   error
}

func (s *fakeStorage) SaveExport(data []byte, hint string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	path := "/exports/2026/03/" + hint
	s.saved[path] = data
	return path, nil
}

func exportFixture(t *testing.T) (*ExportService, *fakeReportRepo, *fakeStorage) {
	t.Helper()
	repo := newFakeReportRepo()
	repo.sessions["sess-1"] = testSession(t)
	storage := &fakeStorage{}
	svc := NewExportService(repo, storage, &captureEvents{}, zerolog.Nop())
	svc.Register("csv", CSVExporter{})
	return svc, repo, storage
}

func seedReport(t *testing.T, repo *fakeReportRepo) Report {
	t.Helper()
	when := windowStart.Add(10 * time.Minute)
	within := true
	lat, lon := 51.5074, -0.1278
	rep, err := repo.CreateReport(context.Background(), Report{
		SessionID:   "sess-1",
		GeneratedBy: "lect-1",
		GeneratedAt: windowStart.Add(2 * time.Hour),
		Rows: []Row{
			{StudentID: "s1", StudentName: "Ada", Email: "ada@example.edu", Program: "CS", Status: StatusPresent,
				RecordedAt: &when, WithinRadius: &within, Latitude: &lat, Longitude: &lon},
			{StudentID: "s2", StudentName: "Grace", Status: StatusAbsent},
		},
		ExportStatus: ExportStatusNotExported,
	})
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}
	rep.Statistics = ComputeStatistics(rep.Rows)
	return rep
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("ExportsOnce", func(t *testing.T) {
		svc, repo, storage := exportFixture(t)
		rep := seedReport(t, repo)

		res, err := svc.Export(ctx, owner, rep.ID, "csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.FileType != "csv" || res.FilePath == "" {
			t.Fatalf("unexpected result: %+v", res)
		}
		if _, ok := storage.saved[res.FilePath]; !ok {
			t.Fatal("bytes not stored at returned path")
		}

		_, err = svc.Export(ctx, owner, rep.ID, "csv")
		if !errors.Is(err, ErrAlreadyExported) {
			t.Fatalf("second export must fail with ErrAlreadyExported, got %v", err)
		}
	})

	t.Run("UpdateRechecksAtWritePoint", func(t *testing.T) {
		svc, repo, _ := exportFixture(t)
		rep := seedReport(t, repo)

		// Simulate a concurrent export winning between the read and the
		// metadata write.
		if err := repo.UpdateExportDetails(ctx, rep.ID, "/exports/other.csv", "csv"); err != nil {
			t.Fatalf("setup: %v", err)
		}
		_, err := svc.Export(ctx, owner, rep.ID, "csv")
		if !errors.Is(err, ErrAlreadyExported) {
			t.Fatalf("expected ErrAlreadyExported, got %v", err)
		}
	})

	t.Run("StorageFailureLeavesMetadataUntouched", func(t *testing.T) {
		svc, repo, storage := exportFixture(t)
		rep := seedReport(t, repo)
		storage.err = errors.New("volume gone")

		_, err := svc.Export(ctx, owner, rep.ID, "csv")
		if !errors.Is(err, storage.err) {
			t.Fatalf("expected storage error, got %v", err)
		}
		stored, _ := repo.GetReport(ctx, rep.ID)
		if stored.Exported() || stored.FilePath != "" {
			t.Fatal("metadata must be untouched after a storage failure")
		}
	})

	t.Run("UnknownFileType", func(t *testing.T) {
		svc, repo, _ := exportFixture(t)
		rep := seedReport(t, repo)
		_, err := svc.Export(ctx, owner, rep.ID, "xlsx")
		if !errors.Is(err, ErrUnknownFileType) {
			t.Fatalf("expected ErrUnknownFileType, got %v", err)
		}
	})

	t.Run("ReportNotFound", func(t *testing.T) {
		svc, _, _ := exportFixture(t)
		_, err := svc.Export(ctx, owner, "nope", "csv")
		if !errors.Is(err, ErrReportNotFound) {
			t.Fatalf("expected ErrReportNotFound, got %v", err)
		}
	})

	t.Run("NonOwnerDenied", func(t *testing.T) {
		svc, repo, _ := exportFixture(t)
		rep := seedReport(t, repo)
		stranger := session.Actor{ID: "lect-2", Role: session.RoleLecturer}
		_, err := svc.Export(ctx, stranger, rep.ID, "csv")
		if !errors.Is(err, ErrReportAccess) {
			t.Fatalf("expected ErrReportAccess, got %v", err)
		}
	})
}

func TestCSVExporter(t *testing.T) {
	when := windowStart.Add(10 * time.Minute)
	within := true
	lat, lon := 51.5074, -0.1278
	rows := []Row{
		{StudentID: "s1", StudentName: "Ada", Email: "ada@example.edu", Program: "CS", Stream: "A",
			Status: StatusPresent, RecordedAt: &when, WithinRadius: &within, Latitude: &lat, Longitude: &lon},
		{StudentID: "s2", StudentName: "Grace", Status: StatusAbsent},
	}

	data, err := CSVExporter{}.ExportBytes(rows, ComputeStatistics(rows))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	wantHeader := "student_id,student_name,email,program,stream,status,time_recorded,within_radius,latitude,longitude"
	if lines[0] != wantHeader {
		t.Fatalf("header mismatch:\n got %s\nwant %s", lines[0], wantHeader)
	}
	if lines[1] != "s1,Ada,ada@example.edu,CS,A,Present,2026-03-02T09:10:00Z,true,51.5074,-0.1278" {
		t.Fatalf("present row mismatch: %s", lines[1])
	}
	if lines[2] != "s2,Grace,,,,Absent,,,," {
		t.Fatalf("absent row mismatch: %s", lines[2])
	}
}
