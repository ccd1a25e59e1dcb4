package hazardmap

import (
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
)

// markerRadius is the pixel radius of report markers.
const markerRadius = 10

// HeatSpot is a heatmap point projected into container pixels.
type HeatSpot struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
	Color     string  `json:"color"`
	Glow      bool    `json:"glow"`
	InView    bool    `json:"inView"`
	Intensity float64 `json:"intensity"`
}

// Overlay is the screen-space heat layer for one viewport.
type Overlay struct {
	Viewport Viewport   `json:"viewport"`
	Spots    []HeatSpot `json:"spots"`
}

// spotStyle returns the color and pixel diameter of a heat spot.
func spotStyle(mode domain.HeatmapMode, intensity float64) (color string, size float64) {
	switch mode {
	case domain.ModeSeverity:
		return tiered(intensity, "#e74c3c", "#f39c12", "#27ae60"), 25 + intensity*50
	case domain.ModeTime:
		return tiered(intensity, "#e74c3c", "#1dcdfe", "#3498db"), 15 + intensity*45
	default:
		return tiered(intensity, "#e74c3c", "#f39c12", "#34f5c5"), 20 + intensity*40
	}
}

func tiered(intensity float64, high, mid, low string) string {
	switch {
	case intensity > 0.7:
		return high
	case intensity > 0.4:
		return mid
	default:
		return low
	}
}

// LegendEntry is one row of the heatmap legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Legend describes the active heatmap mode.
type Legend struct {
	Mode    domain.HeatmapMode `json:"mode"`
	Title   string             `json:"title"`
	Entries []LegendEntry      `json:"entries"`
}

// LegendFor returns the legend shown for mode.
func LegendFor(mode domain.HeatmapMode) Legend {
	switch mode {
	case domain.ModeSeverity:
		return Legend{Mode: mode, Title: "Severity", Entries: []LegendEntry{
			{Label: "High", Color: "#e74c3c"},
			{Label: "Medium", Color: "#f39c12"},
			{Label: "Low", Color: "#27ae60"},
		}}
	case domain.ModeTime:
		return Legend{Mode: mode, Title: "Recency", Entries: []LegendEntry{
			{Label: "Recent", Color: "#e74c3c"},
			{Label: "Past days", Color: "#1dcdfe"},
			{Label: "Older", Color: "#3498db"},
		}}
	default:
		return Legend{Mode: domain.ModeDensity, Title: "Report density", Entries: []LegendEntry{
			{Label: "High", Color: "#e74c3c"},
			{Label: "Medium", Color: "#f39c12"},
			{Label: "Low", Color: "#34f5c5"},
		}}
	}
}

// Marker is a report pin on the map.
type Marker struct {
	ID            string          `json:"id,omitempty"`
	Lat           float64         `json:"lat"`
	Lng           float64         `json:"lng"`
	Color         string          `json:"color"`
	Radius        int             `json:"radius"`
	HazardType    string          `json:"hazardType"`
	Severity      domain.Severity `json:"severity"`
	SeverityScore int             `json:"severityScore,omitempty"`
	ReportCount   int             `json:"reportCount,omitempty"`
	Location      string          `json:"location"`
	Description   string          `json:"description"`
	Time          string          `json:"time"`
}

func markerFor(r domain.HazardReport) Marker {
	return Marker{
		ID:            r.ID,
		Lat:           r.Lat,
		Lng:           r.Lng,
		Color:         r.Severity.Color(),
		Radius:        markerRadius,
		HazardType:    r.HazardType,
		Severity:      r.Severity,
		SeverityScore: r.SeverityScore,
		ReportCount:   r.ReportCount,
		Location:      r.Location,
		Description:   r.Description,
		Time:          r.Time.UTC().Format(time.RFC3339),
	}
}
