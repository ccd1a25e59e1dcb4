package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
)

// Dashboard owns the overview charts, the headline metrics and the report
// statistics poll.
type Dashboard struct {
	backend  Backend
	registry *chart.Registry
	rng      domain.Rand
	metrics  *observability.Metrics
	logger   *slog.Logger
	ticker   *Ticker

	mu         sync.Mutex
	headline   domain.DashboardMetrics
	stats      domain.ReportStats
	statsKnown bool
	generation uint64
}

// NewDashboard creates the dashboard section controller. statsPeriod is the
// report statistics poll interval.
func NewDashboard(deps Deps, statsPeriod time.Duration) *Dashboard {
	d := &Dashboard{
		backend:  deps.Backend,
		registry: deps.Registry,
		rng:      deps.Rand,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With("section", "dashboard"),
		headline: domain.BaselineDashboardMetrics,
	}
	d.ticker = NewTicker("dashboard_stats", deps.Clock, statsPeriod, d.pollStats, deps.Metrics.ActiveTimers, deps.Logger)
	return d
}

// Start draws the tsunami activity and performance charts, jitters the
// headline metrics and starts polling report statistics.
func (d *Dashboard) Start(ctx context.Context) {
	d.registry.Create(chart.CanvasTsunamiActivity, chart.TsunamiActivity(chart.TsunamiEvents), chart.SourceStatic)
	d.registry.Create(chart.CanvasPerformance, chart.Performance(chart.CurrentPerformance), chart.SourceStatic)

	d.mu.Lock()
	d.headline = domain.JitterDashboardMetrics(d.rng, domain.BaselineDashboardMetrics)
	d.mu.Unlock()

	d.ticker.StartImmediate(ctx)
}

// Stop halts the statistics poll and drops any response still in flight.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	d.generation++
	d.mu.Unlock()
	d.ticker.Stop()
}

// RefreshStats fetches report statistics. On failure the previous numbers
// are kept.
func (d *Dashboard) RefreshStats(ctx context.Context) error {
	d.mu.Lock()
	gen := d.generation
	d.mu.Unlock()

	stats, err := d.backend.DashboardStats(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		d.metrics.RefreshTotal.WithLabelValues("dashboard_stats", outcomeStale).Inc()
		return ErrStale
	}
	if err != nil {
		d.metrics.RefreshTotal.WithLabelValues("dashboard_stats", outcomeKept).Inc()
		d.logger.Warn("dashboard stats unavailable", "error", err)
		return fmt.Errorf("refresh dashboard stats: %w", err)
	}
	d.stats, d.statsKnown = stats, true
	d.metrics.RefreshTotal.WithLabelValues("dashboard_stats", outcomeLive).Inc()
	return nil
}

// Stats returns the last fetched report statistics. ok is false until the
// first successful fetch.
func (d *Dashboard) Stats() (stats domain.ReportStats, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats, d.statsKnown
}

// Metrics returns the headline numbers shown on the overview cards.
func (d *Dashboard) Metrics() domain.DashboardMetrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.headline
}

func (d *Dashboard) pollStats(ctx context.Context) {
	_ = d.RefreshStats(ctx)
}
