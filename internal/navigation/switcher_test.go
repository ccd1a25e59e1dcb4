package navigation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/navigation"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/refresh"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingBackend fails every call so charts fall back to synthetic data,
// and counts how often it is hit.
type countingBackend struct {
	calls atomic.Int32
}

var errOffline = errors.New("offline")

func (b *countingBackend) hit() error {
	b.calls.Add(1)
	return errOffline
}

func (b *countingBackend) BuoyData(context.Context) ([]domain.BuoySeries, error) {
	return nil, b.hit()
}
func (b *countingBackend) RefreshData(context.Context) error { return b.hit() }
func (b *countingBackend) StormSurge(context.Context) (domain.SurgeForecast, error) {
	return domain.SurgeForecast{}, b.hit()
}
func (b *countingBackend) Seismic(context.Context) ([]domain.SeismicPlate, error) {
	return nil, b.hit()
}
func (b *countingBackend) RiskAssessment(context.Context) ([]domain.RiskRegion, error) {
	return nil, b.hit()
}
func (b *countingBackend) DashboardStats(context.Context) (domain.ReportStats, error) {
	return domain.ReportStats{}, b.hit()
}

type fixture struct {
	switcher  *navigation.Switcher
	backend   *countingBackend
	registry  *chart.Registry
	clock     *clockwork.FakeClock
	metrics   *observability.Metrics
	hazardMap *hazardmap.Controller
	simulator *hazardmap.Simulator
	loads     *atomic.Int32
	ended     *atomic.Bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	metrics := observability.NewMetricsForTesting()
	registry := chart.NewRegistry(clock, discardLogger(), chart.Canvases...)
	backend := &countingBackend{}
	deps := refresh.Deps{
		Backend:  backend,
		Registry: registry,
		Clock:    clock,
		Rand:     domain.SyncRand(rand.New(rand.NewPCG(1, 2))),
		Metrics:  metrics,
		Logger:   discardLogger(),
	}
	hazardMap := hazardmap.NewController(hazardmap.Options{Clock: clock, Logger: discardLogger(), Metrics: metrics})
	simulator := hazardmap.NewSimulator(hazardMap, clock, 30*time.Second, rand.New(rand.NewPCG(4, 4)), discardLogger())

	loads := &atomic.Int32{}
	source := domain.ReportSourceFunc(func(context.Context) ([]domain.HazardReport, error) {
		loads.Add(1)
		return []domain.HazardReport{{Lat: 19.07, Lng: 72.87, HazardType: "storm_surge", Severity: domain.SeverityHigh, Time: now}}, nil
	})

	ended := &atomic.Bool{}
	sections := map[string]navigation.Section{
		navigation.SectionDashboard:  navigation.DashboardSection{Dashboard: refresh.NewDashboard(deps, 5*time.Minute)},
		navigation.SectionAnalytics:  navigation.AnalyticsSection{Analytics: refresh.NewAnalytics(deps, refresh.DefaultPeriods())},
		navigation.SectionStatistics: navigation.StatisticsSection{Registry: registry},
		navigation.SectionReports: navigation.ReportsSection{
			Map:       hazardMap,
			Source:    source,
			Simulator: simulator,
			Logger:    discardLogger(),
		},
	}
	sw := navigation.NewSwitcher(sections, metrics, discardLogger(),
		func(context.Context) { registry.DestroyAll() },
		func(context.Context) { ended.Store(true) },
	)
	return &fixture{
		switcher:  sw,
		backend:   backend,
		registry:  registry,
		clock:     clock,
		metrics:   metrics,
		hazardMap: hazardMap,
		simulator: simulator,
		loads:     loads,
		ended:     ended,
	}
}

func TestSwitcher_StartsOnDashboard(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.switcher.Start(context.Background()))
	t.Cleanup(func() { f.switcher.Close(context.Background()) })

	assert.Equal(t, navigation.SectionDashboard, f.switcher.Current())
	_, ok := f.registry.Get(chart.CanvasTsunamiActivity)
	assert.True(t, ok)
	_, ok = f.registry.Get(chart.CanvasPerformance)
	assert.True(t, ok)
}

func TestSwitcher_UnknownSection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.switcher.Start(context.Background()))
	t.Cleanup(func() { f.switcher.Close(context.Background()) })

	err := f.switcher.Switch(context.Background(), "settings")

	require.ErrorIs(t, err, navigation.ErrUnknownSection)
	assert.Equal(t, navigation.SectionDashboard, f.switcher.Current())
}

func TestSwitcher_LeavingAnalyticsStopsPolling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionAnalytics))
	t.Cleanup(func() { f.switcher.Close(ctx) })

	for _, id := range []string{chart.CanvasDARTBuoy, chart.CanvasStormSurge, chart.CanvasSeismic} {
		_, ok := f.registry.Get(id)
		assert.True(t, ok, "chart %s drawn", id)
	}
	// Buoy and risk fetch immediately.
	require.Eventually(t, func() bool { return f.backend.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionDashboard))
	afterSwitch := f.backend.calls.Load()

	// Only the dashboard stats poll remains; it fetches once on entry.
	require.Eventually(t, func() bool { return f.backend.calls.Load() == afterSwitch+1 }, 2*time.Second, 5*time.Millisecond)
	f.clock.Advance(4 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, afterSwitch+1, f.backend.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveTimers))
}

func TestSwitcher_StatisticsDrawsStaticCharts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.switcher.Switch(context.Background(), navigation.SectionStatistics))
	t.Cleanup(func() { f.switcher.Close(context.Background()) })

	for _, id := range []string{
		chart.CanvasAlertDistribution,
		chart.CanvasMethodComparison,
		chart.CanvasSeasonalPatterns,
		chart.CanvasStationPerformance,
	} {
		c, ok := f.registry.Get(id)
		require.True(t, ok, "chart %s drawn", id)
		assert.Equal(t, chart.SourceStatic, c.Source)
	}
	assert.Zero(t, f.backend.calls.Load())
}

func TestSwitcher_ReportsInitializesMapOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t.Cleanup(func() { f.switcher.Close(ctx) })

	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionReports))
	assert.True(t, f.hazardMap.Initialized())
	assert.True(t, f.simulator.Running())
	assert.Equal(t, 1, f.hazardMap.Snapshot().TotalCount)

	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionDataManagement))
	assert.False(t, f.simulator.Running())

	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionReports))
	assert.Equal(t, int32(1), f.loads.Load(), "reports are loaded once")
	assert.True(t, f.simulator.Running())
}

func TestSwitcher_CloseReleasesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionAnalytics))

	f.switcher.Close(ctx)
	f.switcher.Close(ctx)

	assert.Empty(t, f.registry.List())
	assert.True(t, f.ended.Load())
	assert.Zero(t, testutil.ToFloat64(f.metrics.ActiveTimers))
	require.ErrorIs(t, f.switcher.Switch(ctx, navigation.SectionDashboard), navigation.ErrClosed)
}

func TestSwitcher_CountsSwitches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t.Cleanup(func() { f.switcher.Close(ctx) })

	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionDataManagement))
	require.NoError(t, f.switcher.Switch(ctx, navigation.SectionDataManagement))

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SectionSwitches.WithLabelValues(navigation.SectionDataManagement)))
}

// blockingSection enters only when release is closed and counts Leave calls.
type blockingSection struct {
	entering chan struct{}
	release  chan struct{}
	leaves   atomic.Int32
}

func newBlockingSection() *blockingSection {
	return &blockingSection{entering: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingSection) Enter(ctx context.Context) error {
	close(b.entering)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *blockingSection) Leave() { b.leaves.Add(1) }

func TestSwitcher_CurrentDoesNotWaitForSlowEnter(t *testing.T) {
	reports := newBlockingSection()
	sw := navigation.NewSwitcher(map[string]navigation.Section{navigation.SectionReports: reports},
		observability.NewMetricsForTesting(), discardLogger())
	ctx := context.Background()
	require.NoError(t, sw.Start(ctx))

	errc := make(chan error, 1)
	go func() { errc <- sw.Switch(ctx, navigation.SectionReports) }()
	<-reports.entering

	current := make(chan string, 1)
	go func() { current <- sw.Current() }()
	select {
	case got := <-current:
		assert.Equal(t, navigation.SectionReports, got)
	case <-time.After(time.Second):
		t.Fatal("Current blocked while the section was entering")
	}

	close(reports.release)
	require.NoError(t, <-errc)
	sw.Close(ctx)
}

func TestSwitcher_CloseDuringEnterLeavesSection(t *testing.T) {
	reports := newBlockingSection()
	ended := &atomic.Bool{}
	sw := navigation.NewSwitcher(map[string]navigation.Section{navigation.SectionReports: reports},
		observability.NewMetricsForTesting(), discardLogger(),
		func(context.Context) { ended.Store(true) })
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- sw.Switch(ctx, navigation.SectionReports) }()
	<-reports.entering

	sw.Close(ctx)
	assert.True(t, ended.Load(), "close does not wait for the entering section")

	close(reports.release)
	require.ErrorIs(t, <-errc, navigation.ErrClosed)
	assert.GreaterOrEqual(t, reports.leaves.Load(), int32(1), "section left after a late enter")
}
