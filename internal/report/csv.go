package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// csvHeader is the fixed column order of the exported file.
var csvHeader = []string{
	"student_id", "student_name", "email", "program", "stream",
	"status", "time_recorded", "within_radius", "latitude", "longitude",
}

// CSVExporter encodes report rows as RFC4180 CSV.
type CSVExporter struct{}

// ExportBytes writes the header and one record per row. Unknown values
// (no check-in) are left as empty cells.
func (CSVExporter) ExportBytes(rows []Row, _ Statistics) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.StudentID,
			row.StudentName,
			row.Email,
			row.Program,
			row.Stream,
			string(row.Status),
			formatTime(row.RecordedAt),
			formatBool(row.WithinRadius),
			formatFloat(row.Latitude),
			formatFloat(row.Longitude),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
