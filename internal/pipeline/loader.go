package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
)

// MapLoader adds loaded reports to the hazard map.
type MapLoader struct {
	Sink hazardmap.ReportSink
}

func (l MapLoader) LoadBatch(_ context.Context, reports []domain.HazardReport) error {
	l.Sink.AddReports("feed", reports...)
	return nil
}

// Chain loads every batch into each loader in order and stops at the first
// failure, so later loaders only see batches the earlier ones accepted. Put
// idempotent loaders first: a failed batch is retried from the start.
type Chain []BatchLoader

func (c Chain) LoadBatch(ctx context.Context, reports []domain.HazardReport) error {
	for i, l := range c {
		if err := l.LoadBatch(ctx, reports); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}
