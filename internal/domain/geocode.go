package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// maxLocationLen bounds stored location names.
const maxLocationLen = 255

// CoordinateLabel is the fallback location name for a coordinate pair.
func CoordinateLabel(lat, lng float64) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", lat, lng)
}

// EnrichWithGeocoding fills in a report's location name from its coordinates
// when none is set. If geocoder is nil or the lookup fails, the coordinate
// label is used instead (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, report HazardReport, geocoder Geocoder, logger *slog.Logger) HazardReport {
	if report.Location != "" {
		return report
	}
	if geocoder == nil {
		report.Location = CoordinateLabel(report.Lat, report.Lng)
		return report
	}

	result, err := geocoder.ReverseGeocode(ctx, report.Lat, report.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"report_id", report.ID,
			"lat", report.Lat,
			"lng", report.Lng,
			"error", err,
		)
		report.Location = CoordinateLabel(report.Lat, report.Lng)
		return report
	}
	if result.DisplayName == "" {
		report.Location = CoordinateLabel(report.Lat, report.Lng)
		return report
	}

	name := result.DisplayName
	if len(name) > maxLocationLen {
		name = name[:maxLocationLen]
	}
	report.Location = name
	return report
}
