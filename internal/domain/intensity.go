package domain

import (
	"math"
	"time"
)

// decayHours is the span over which time-mode intensity decays to its floor.
const decayHours = 168.0

const timeFloor = 0.1

// IntensityContext carries the set-level inputs ComputeIntensity needs:
// the largest report count in the filtered set and the reference time.
type IntensityContext struct {
	MaxCount int
	Now      time.Time
}

// NewIntensityContext derives the context for a filtered report set.
func NewIntensityContext(reports []HazardReport, now time.Time) IntensityContext {
	maxCount := 0
	for _, r := range reports {
		if c := reportCount(r); c > maxCount {
			maxCount = c
		}
	}
	return IntensityContext{MaxCount: maxCount, Now: now}
}

// ComputeIntensity returns the heatmap intensity of one report under mode.
// Unknown modes are treated as density.
func ComputeIntensity(r HazardReport, mode HeatmapMode, ictx IntensityContext) float64 {
	switch mode {
	case ModeSeverity:
		return severityIntensity(r)
	case ModeTime:
		return timeIntensity(r.Time, ictx.Now)
	default:
		return densityIntensity(r, ictx.MaxCount)
	}
}

// HeatmapPoints computes one point per report. The reports are expected to
// be the already time-filtered set.
func HeatmapPoints(reports []HazardReport, mode HeatmapMode, now time.Time) []HeatmapPoint {
	if len(reports) == 0 {
		return nil
	}
	ictx := NewIntensityContext(reports, now)
	points := make([]HeatmapPoint, len(reports))
	for i, r := range reports {
		points[i] = HeatmapPoint{
			Lat:       r.Lat,
			Lng:       r.Lng,
			Intensity: ComputeIntensity(r, mode, ictx),
		}
	}
	return points
}

// SeverityWeight is the fallback severity-mode intensity when no score is present.
func SeverityWeight(s Severity) float64 {
	switch s {
	case SeverityLow:
		return 0.3
	case SeverityModerate:
		return 0.6
	case SeverityHigh, SeverityCritical:
		return 1.0
	default:
		return 0.5
	}
}

func reportCount(r HazardReport) int {
	if r.ReportCount > 0 {
		return r.ReportCount
	}
	return 1
}

func densityIntensity(r HazardReport, maxCount int) float64 {
	if maxCount <= 0 {
		return 1
	}
	return math.Min(1, float64(reportCount(r))/float64(maxCount))
}

func severityIntensity(r HazardReport) float64 {
	if r.HasScore() {
		return clamp01(float64(r.SeverityScore) / 10)
	}
	return SeverityWeight(r.Severity)
}

func timeIntensity(t, now time.Time) float64 {
	hoursAgo := now.Sub(t).Hours()
	if hoursAgo <= 0 {
		return 1
	}
	return math.Max(timeFloor, math.Min(1, 1-hoursAgo/decayHours))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
