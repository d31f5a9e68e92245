package report

import "math"

// ComputeStatistics reduces classified rows to counts and percentages.
// Empty input yields the zero value; percentages never divide by zero.
func ComputeStatistics(rows []Row) Statistics {
	stats := Statistics{TotalStudents: len(rows)}
	for _, row := range rows {
		if row.Status == StatusPresent {
			stats.PresentCount++
		}
		if row.WithinRadius != nil {
			if *row.WithinRadius {
				stats.WithinRadiusCount++
			} else {
				stats.OutsideRadiusCount++
			}
		}
	}
	stats.AbsentCount = stats.TotalStudents - stats.PresentCount
	if stats.TotalStudents > 0 {
		total := float64(stats.TotalStudents)
		stats.PresentPercentage = round2(float64(stats.PresentCount) / total * 100)
		stats.AbsentPercentage = round2(float64(stats.AbsentCount) / total * 100)
	}
	return stats
}

// round2 rounds to two decimals, half to even. The present and absent
// shares scale to two integers summing to 10000, so an exact half in
// one is mirrored in the other and they round in opposite directions,
// keeping the percentages summing to 100.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
