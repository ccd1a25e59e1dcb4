package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
)

// ReportStore persists reports and replays them in arrival order.
type ReportStore interface {
	domain.ReportSource
	LoadBatch(ctx context.Context, reports []domain.HazardReport) error
}

// storedSource loads reports from the backend and mirrors them into the
// store. When the backend is unreachable the stored reports are served
// instead.
type storedSource struct {
	remote domain.ReportSource
	store  ReportStore
	logger *slog.Logger
}

func (s storedSource) LoadReports(ctx context.Context) ([]domain.HazardReport, error) {
	reports, err := s.remote.LoadReports(ctx)
	if err == nil {
		if serr := s.store.LoadBatch(ctx, reports); serr != nil {
			s.logger.Warn("mirroring reports to store failed", "error", serr)
		}
		return reports, nil
	}

	stored, serr := s.store.LoadReports(ctx)
	if serr != nil {
		return nil, errors.Join(err, fmt.Errorf("read report store: %w", serr))
	}
	if len(stored) == 0 {
		return nil, err
	}
	s.logger.Warn("backend reports unavailable, using stored reports", "error", err, "stored", len(stored))
	return stored, nil
}

// storedSink saves live reports before adding them to the map.
type storedSink struct {
	next   hazardmap.ReportSink
	store  ReportStore
	logger *slog.Logger
}

func (s storedSink) AddReports(source string, reports ...domain.HazardReport) hazardmap.View {
	if err := s.store.LoadBatch(context.Background(), reports); err != nil {
		s.logger.Warn("saving live reports failed", "source", source, "error", err)
	}
	return s.next.AddReports(source, reports...)
}
