package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
)

// ReportTransformer parses feed messages into hazard reports and names
// their location.
type ReportTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a ReportTransformer. Pass a nil geocoder to label
// unnamed reports with their coordinates.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *ReportTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.HazardReport, error) {
	report, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.HazardReport{}, err
	}
	return domain.EnrichWithGeocoding(ctx, report, t.geocoder, t.logger), nil
}
