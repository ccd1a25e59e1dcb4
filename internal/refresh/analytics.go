package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Backend is the subset of the analyst API the polling controllers use.
type Backend interface {
	BuoyData(ctx context.Context) ([]domain.BuoySeries, error)
	RefreshData(ctx context.Context) error
	StormSurge(ctx context.Context) (domain.SurgeForecast, error)
	Seismic(ctx context.Context) ([]domain.SeismicPlate, error)
	RiskAssessment(ctx context.Context) ([]domain.RiskRegion, error)
	DashboardStats(ctx context.Context) (domain.ReportStats, error)
}

// Periods of the analytics timers.
type Periods struct {
	BuoyPoll    time.Duration
	RiskPoll    time.Duration
	AutoRefresh time.Duration
}

// DefaultPeriods returns the standard analytics polling periods.
func DefaultPeriods() Periods {
	return Periods{
		BuoyPoll:    5 * time.Minute,
		RiskPoll:    10 * time.Minute,
		AutoRefresh: 7 * time.Second,
	}
}

// Deps are the collaborators shared by the section controllers.
type Deps struct {
	Backend  Backend
	Registry *chart.Registry
	Clock    clockwork.Clock
	Rand     domain.Rand
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Analytics drives the buoy, storm surge, seismic and risk charts while the
// analytics section is active.
type Analytics struct {
	backend Backend
	clock   clockwork.Clock
	rng     domain.Rand
	logger  *slog.Logger

	Buoys   *Controller[[]domain.BuoySeries]
	Surge   *Controller[domain.SurgeForecast]
	Seismic *Controller[[]domain.SeismicPlate]
	Risk    *Controller[[]domain.RiskRegion]

	buoyTicker *Ticker
	riskTicker *Ticker
	autoTicker *Ticker

	mu       sync.Mutex
	baseline []domain.Buoy
	active   bool
}

// NewAnalytics wires the analytics controllers and timers. deps.Rand must
// be safe for concurrent use.
func NewAnalytics(deps Deps, periods Periods) *Analytics {
	a := &Analytics{
		backend:  deps.Backend,
		clock:    deps.Clock,
		rng:      deps.Rand,
		logger:   deps.Logger,
		baseline: slices.Clone(domain.IndianOceanBuoys),
	}

	a.Buoys = NewController(Spec[[]domain.BuoySeries]{
		Name:     "dart_buoy",
		CanvasID: chart.CanvasDARTBuoy,
		Fetch:    deps.Backend.BuoyData,
		Build: func(data []domain.BuoySeries, source chart.Source) chart.Config {
			return chart.Buoys(data, source != chart.SourceLive)
		},
		Synthetic: func() []domain.BuoySeries {
			return chart.SimulatedBuoySeries(a.rng, a.clock.Now(), a.Baseline())
		},
	}, deps.Registry, deps.Metrics, deps.Logger)

	a.Surge = NewController(Spec[domain.SurgeForecast]{
		Name:     "storm_surge",
		CanvasID: chart.CanvasStormSurge,
		Fetch:    deps.Backend.StormSurge,
		Build: func(f domain.SurgeForecast, _ chart.Source) chart.Config {
			return chart.StormSurge(f.TimeLabels, f.Regions)
		},
		Synthetic: func() domain.SurgeForecast {
			f := chart.SimulatedSurge(a.rng, a.clock.Now())
			f.Alerts = slices.Clone(domain.FallbackSurgeAlerts)
			return f
		},
	}, deps.Registry, deps.Metrics, deps.Logger)

	a.Seismic = NewController(Spec[[]domain.SeismicPlate]{
		Name:     "seismic",
		CanvasID: chart.CanvasSeismic,
		Fetch:    deps.Backend.Seismic,
		Build: func(plates []domain.SeismicPlate, _ chart.Source) chart.Config {
			return chart.Seismic(plates)
		},
		Synthetic: func() []domain.SeismicPlate {
			return chart.SimulatedSeismic(a.rng)
		},
	}, deps.Registry, deps.Metrics, deps.Logger)

	a.Risk = NewController(Spec[[]domain.RiskRegion]{
		Name:     "risk_assessment",
		CanvasID: chart.CanvasRiskHeatmap,
		Fetch:    deps.Backend.RiskAssessment,
		Build: func(regions []domain.RiskRegion, _ chart.Source) chart.Config {
			return chart.RiskAssessment(regions)
		},
		Synthetic: func() []domain.RiskRegion {
			return slices.Clone(domain.FallbackRiskAssessment)
		},
	}, deps.Registry, deps.Metrics, deps.Logger)

	gauge := deps.Metrics.ActiveTimers
	a.buoyTicker = NewTicker("buoy_poll", deps.Clock, periods.BuoyPoll, a.refreshBuoys, gauge, deps.Logger)
	a.riskTicker = NewTicker("risk_poll", deps.Clock, periods.RiskPoll, a.refreshRisk, gauge, deps.Logger)
	a.autoTicker = NewTicker("auto_refresh", deps.Clock, periods.AutoRefresh, a.refreshAll, gauge, deps.Logger)
	return a
}

// Start draws the analytics charts and starts buoy polling, risk polling
// and the auto-refresh. Buoys and risk are fetched immediately.
func (a *Analytics) Start(ctx context.Context) {
	a.mu.Lock()
	a.active = true
	a.mu.Unlock()

	a.Buoys.Construct()
	a.Surge.Construct()
	a.Seismic.Construct()
	a.Risk.Construct()

	a.buoyTicker.StartImmediate(ctx)
	a.riskTicker.StartImmediate(ctx)
	a.autoTicker.Start(ctx)
	a.logger.Info("analytics polling started")
}

// Stop halts every analytics timer. Responses still in flight are discarded.
func (a *Analytics) Stop() {
	a.mu.Lock()
	a.active = false
	a.mu.Unlock()

	// Tickers first: Stop waits for in-flight calls, whose cancelled
	// results are dropped. Then invalidate manual refreshes still running.
	a.buoyTicker.Stop()
	a.riskTicker.Stop()
	a.autoTicker.Stop()

	a.Buoys.Stop()
	a.Surge.Stop()
	a.Seismic.Stop()
	a.Risk.Stop()
	a.logger.Info("analytics polling stopped")
}

// Active reports whether the analytics timers are running.
func (a *Analytics) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// RefreshAll refreshes every analytics chart in turn.
func (a *Analytics) RefreshAll(ctx context.Context) error {
	return errors.Join(
		a.Buoys.Refresh(ctx),
		a.Surge.Refresh(ctx),
		a.Seismic.Refresh(ctx),
		a.Risk.Refresh(ctx),
	)
}

// ManualBuoyRefresh asks the backend to pull new buoy readings, then
// re-fetches the buoy chart.
func (a *Analytics) ManualBuoyRefresh(ctx context.Context) error {
	if err := a.backend.RefreshData(ctx); err != nil {
		a.logger.Error("buoy data refresh failed", "error", err)
		return fmt.Errorf("manual buoy refresh: %w", err)
	}
	return a.Buoys.Refresh(ctx)
}

// Baseline returns the buoy wave heights the simulated chart is built around.
func (a *Analytics) Baseline() []domain.Buoy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.baseline)
}

// Drift nudges every baseline wave height and, while analytics is active,
// redraws the buoy chart.
func (a *Analytics) Drift() {
	a.mu.Lock()
	for i := range a.baseline {
		a.baseline[i].WaveHeight = domain.DriftWaveHeight(a.rng, a.baseline[i].WaveHeight)
	}
	active := a.active
	a.mu.Unlock()

	if active {
		a.Buoys.Construct()
	}
}

func (a *Analytics) refreshBuoys(ctx context.Context) {
	_ = a.Buoys.Refresh(ctx)
}

func (a *Analytics) refreshRisk(ctx context.Context) {
	_ = a.Risk.Refresh(ctx)
}

func (a *Analytics) refreshAll(ctx context.Context) {
	if err := a.RefreshAll(ctx); err != nil {
		a.logger.Debug("auto-refresh completed with fallbacks", "error", err)
	}
}
