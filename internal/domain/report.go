package domain

import (
	"context"
	"strings"
	"time"
)

// Severity is the canonical severity level of a hazard report.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = ""
)

// ParseSeverity maps an upstream severity label onto the canonical enum.
// "medium" is an alias of "moderate".
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "moderate", "medium":
		return SeverityModerate
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityUnknown
	}
}

// Color returns the marker color for the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityLow:
		return "#34f5c5"
	case SeverityModerate:
		return "#1dcdfe"
	case SeverityHigh:
		return "#df932f"
	case SeverityCritical:
		return "#c91b1b"
	default:
		return "#95a5a6"
	}
}

// HazardReport is a single observed coastal hazard. SeverityScore and
// ReportCount are optional; zero means absent.
type HazardReport struct {
	ID            string    `json:"id,omitempty"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	HazardType    string    `json:"hazardType"`
	Severity      Severity  `json:"severity"`
	SeverityScore int       `json:"severityScore,omitempty"`
	ReportCount   int       `json:"reportCount,omitempty"`
	Time          time.Time `json:"time"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`

	// Metadata from the map-data endpoint and the live feed.
	Status   string `json:"status,omitempty"`
	Reporter string `json:"reporter,omitempty"`
	Urgent   bool   `json:"urgent,omitempty"`
}

// HasScore reports whether a severity score in [1,10] is present.
func (r HazardReport) HasScore() bool {
	return r.SeverityScore > 0
}

// HeatmapPoint is a derived (lat, lng, intensity) tuple.
type HeatmapPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// HeatmapMode selects which report attribute drives intensity.
type HeatmapMode string

const (
	ModeDensity  HeatmapMode = "density"
	ModeSeverity HeatmapMode = "severity"
	ModeTime     HeatmapMode = "time"
)

// ParseHeatmapMode returns the mode named by s, falling back to density.
func ParseHeatmapMode(s string) HeatmapMode {
	switch HeatmapMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSeverity:
		return ModeSeverity
	case ModeTime:
		return ModeTime
	default:
		return ModeDensity
	}
}

// TimeFilter selects a rolling lookback window.
type TimeFilter string

const (
	Filter1h  TimeFilter = "1h"
	Filter6h  TimeFilter = "6h"
	Filter24h TimeFilter = "24h"
	Filter7d  TimeFilter = "7d"
	Filter30d TimeFilter = "30d"
)

// ParseTimeFilter returns the filter named by s, falling back to 24h.
func ParseTimeFilter(s string) TimeFilter {
	f := TimeFilter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Filter1h, Filter6h, Filter24h, Filter7d, Filter30d:
		return f
	default:
		return Filter24h
	}
}

// Window returns the lookback duration of the filter.
func (f TimeFilter) Window() time.Duration {
	switch f {
	case Filter1h:
		return time.Hour
	case Filter6h:
		return 6 * time.Hour
	case Filter7d:
		return 168 * time.Hour
	case Filter30d:
		return 720 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// ReportSource supplies the initial set of hazard reports.
type ReportSource interface {
	LoadReports(ctx context.Context) ([]HazardReport, error)
}

// ReportSourceFunc adapts a function to ReportSource.
type ReportSourceFunc func(ctx context.Context) ([]HazardReport, error)

func (f ReportSourceFunc) LoadReports(ctx context.Context) ([]HazardReport, error) {
	return f(ctx)
}
