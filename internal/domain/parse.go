package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the live report topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// WireReport is the JSON shape of a hazard report on the live feed. It uses
// the backend's snake_case field names.
type WireReport struct {
	ID            string  `json:"id,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	HazardType    string  `json:"hazard_type"`
	Severity      string  `json:"severity"`
	SeverityScore int     `json:"severity_score,omitempty"`
	ReportCount   int     `json:"report_count,omitempty"`
	Time          string  `json:"time,omitempty"`
	Location      string  `json:"location,omitempty"`
	Description   string  `json:"description,omitempty"`
	Status        string  `json:"status,omitempty"`
	Reporter      string  `json:"reporter,omitempty"`
	Urgent        bool    `json:"urgent,omitempty"`
}

// reportTimeLayouts are tried in order by ParseReportTime. The second is the
// backend's map-data "created_at" format.
var reportTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseReportTime parses the timestamp formats used across report sources.
func ParseReportTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range reportTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised report time %q", s)
}

// ParseRawEvent deserializes a RawEvent's value into a HazardReport. Missing
// timestamps fall back to the message timestamp, then to the current time.
func ParseRawEvent(raw RawEvent) (HazardReport, error) {
	var w WireReport
	if err := json.Unmarshal(raw.Value, &w); err != nil {
		return HazardReport{}, fmt.Errorf("parse hazard report: %w", err)
	}

	reportTime := raw.Timestamp
	if w.Time != "" {
		t, err := ParseReportTime(w.Time)
		if err != nil {
			return HazardReport{}, fmt.Errorf("parse hazard report: %w", err)
		}
		reportTime = t
	}
	if reportTime.IsZero() {
		reportTime = clock.Now().UTC()
	}

	return FromWire(w, reportTime), nil
}

// FromWire converts a WireReport into a HazardReport with the given timestamp,
// normalizing the hazard type label and assigning an ID when absent.
func FromWire(w WireReport, t time.Time) HazardReport {
	r := HazardReport{
		ID:            w.ID,
		Lat:           w.Lat,
		Lng:           w.Lng,
		HazardType:    HazardLabel(w.HazardType),
		Severity:      ParseSeverity(w.Severity),
		SeverityScore: clampScore(w.SeverityScore),
		ReportCount:   max(w.ReportCount, 0),
		Time:          t,
		Location:      strings.TrimSpace(w.Location),
		Description:   w.Description,
		Status:        w.Status,
		Reporter:      w.Reporter,
		Urgent:        w.Urgent,
	}
	if r.ID == "" {
		r.ID = generateID(r.HazardType, r.Lat, r.Lng, r.Time)
	}
	return r
}

// ToWire converts a report into its feed representation.
func ToWire(r HazardReport) WireReport {
	return WireReport{
		ID:            r.ID,
		Lat:           r.Lat,
		Lng:           r.Lng,
		HazardType:    r.HazardType,
		Severity:      string(r.Severity),
		SeverityScore: r.SeverityScore,
		ReportCount:   r.ReportCount,
		Time:          r.Time.UTC().Format(time.RFC3339),
		Location:      r.Location,
		Description:   r.Description,
		Status:        r.Status,
		Reporter:      r.Reporter,
		Urgent:        r.Urgent,
	}
}

// hazardLabels maps backend hazard codes onto display labels.
var hazardLabels = map[string]string{
	"tsunami":          "Tsunami Warning",
	"storm_surge":      "Storm Surge",
	"high_waves":       "High Waves",
	"swell_surge":      "Swell Surge",
	"coastal_flooding": "Coastal Flooding",
	"unusual_tides":    "Abnormal Tides",
	"coastal_erosion":  "Coastal Erosion",
	"coastal_current":  "Coastal Current",
	"other":            "Other",
}

// HazardLabel returns the display label for a hazard code. Labels that are
// already human readable pass through unchanged.
func HazardLabel(code string) string {
	code = strings.TrimSpace(code)
	if label, ok := hazardLabels[strings.ToLower(code)]; ok {
		return label
	}
	return code
}

func clampScore(score int) int {
	switch {
	case score <= 0:
		return 0
	case score > 10:
		return 10
	default:
		return score
	}
}

// generateID produces a deterministic ID from the report's key fields so that
// replaying the same message yields the same ID.
func generateID(hazardType string, lat, lng float64, t time.Time) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%s", hazardType, lat, lng, t.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(input))
	return "hz-" + hex.EncodeToString(hash[:8])
}
