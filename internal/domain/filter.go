package domain

import (
	"math"
	"time"
)

// FilterByTime returns the reports whose timestamp falls inside the filter
// window ending at now. Order is preserved.
func FilterByTime(reports []HazardReport, f TimeFilter, now time.Time) []HazardReport {
	cutoff := now.Add(-f.Window())
	out := make([]HazardReport, 0, len(reports))
	for _, r := range reports {
		if !r.Time.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// ValidHeatmapPoint reports whether p has a latitude in [-90,90], a longitude
// in [-180,180] and an intensity in [0,1].
func ValidHeatmapPoint(p HeatmapPoint) bool {
	switch {
	case math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsNaN(p.Intensity):
		return false
	case p.Lat < -90 || p.Lat > 90:
		return false
	case p.Lng < -180 || p.Lng > 180:
		return false
	case p.Intensity < 0 || p.Intensity > 1:
		return false
	}
	return true
}

// ValidateHeatmapPoints keeps the valid points and returns how many were dropped.
func ValidateHeatmapPoints(points []HeatmapPoint) (valid []HeatmapPoint, dropped int) {
	valid = make([]HeatmapPoint, 0, len(points))
	for _, p := range points {
		if !ValidHeatmapPoint(p) {
			dropped++
			continue
		}
		valid = append(valid, p)
	}
	return valid, dropped
}

// SummaryStats counts reports by severity bucket.
type SummaryStats struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// ComputeSummaryStats counts total, high-or-critical, moderate and low reports.
func ComputeSummaryStats(reports []HazardReport) SummaryStats {
	stats := SummaryStats{Total: len(reports)}
	for _, r := range reports {
		switch r.Severity {
		case SeverityHigh, SeverityCritical:
			stats.High++
		case SeverityModerate:
			stats.Medium++
		case SeverityLow:
			stats.Low++
		}
	}
	return stats
}

// CountUp returns the displayed value of a count-up animation from 0 to
// target after elapsed of duration. The sequence is monotonic and reaches
// target once elapsed >= duration.
func CountUp(target int, elapsed, duration time.Duration) int {
	if duration <= 0 || elapsed >= duration {
		return target
	}
	if elapsed <= 0 {
		return 0
	}
	progress := float64(elapsed) / float64(duration)
	return int(math.Floor(float64(target) * progress))
}

// CountUpStats applies CountUp to every field of s.
func CountUpStats(s SummaryStats, elapsed, duration time.Duration) SummaryStats {
	return SummaryStats{
		Total:  CountUp(s.Total, elapsed, duration),
		High:   CountUp(s.High, elapsed, duration),
		Medium: CountUp(s.Medium, elapsed, duration),
		Low:    CountUp(s.Low, elapsed, duration),
	}
}
