package refresh_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/refresh"
	"github.com/jonboulle/clockwork"
)

var (
	now         = time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC)
	errBackend  = errors.New("backend unavailable")
	waitFor     = 2 * time.Second
	pollEvery   = 5 * time.Millisecond
	testPeriods = refresh.Periods{BuoyPoll: 5 * time.Minute, RiskPoll: 10 * time.Minute, AutoRefresh: 7 * time.Second}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend counts calls per endpoint and fails every call while fail is
// set. While holdBuoys is set, BuoyData blocks until its context ends.
type fakeBackend struct {
	fail      atomic.Bool
	holdBuoys atomic.Bool

	buoyCalls    atomic.Int32
	refreshCalls atomic.Int32
	surgeCalls   atomic.Int32
	seismicCalls atomic.Int32
	riskCalls    atomic.Int32
	statsCalls   atomic.Int32
}

func (f *fakeBackend) err() error {
	if f.fail.Load() {
		return errBackend
	}
	return nil
}

func (f *fakeBackend) BuoyData(ctx context.Context) ([]domain.BuoySeries, error) {
	f.buoyCalls.Add(1)
	if f.holdBuoys.Load() {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return []domain.BuoySeries{{
		BuoyID: "23001",
		Name:   "Arabian Sea",
		Readings: []domain.BuoyReading{
			{Timestamp: now.Add(-time.Hour), WaveHeight: 2.2},
			{Timestamp: now, WaveHeight: 2.6},
		},
	}}, nil
}

func (f *fakeBackend) RefreshData(context.Context) error {
	f.refreshCalls.Add(1)
	return f.err()
}

func (f *fakeBackend) StormSurge(context.Context) (domain.SurgeForecast, error) {
	f.surgeCalls.Add(1)
	if err := f.err(); err != nil {
		return domain.SurgeForecast{}, err
	}
	return domain.SurgeForecast{
		TimeLabels: []string{"12:00", "14:00"},
		Regions:    []domain.SurgeForecastRegion{{Name: "Bay of Bengal", Data: []float64{2.8, 3.3}}},
	}, nil
}

func (f *fakeBackend) Seismic(context.Context) ([]domain.SeismicPlate, error) {
	f.seismicCalls.Add(1)
	if err := f.err(); err != nil {
		return nil, err
	}
	return []domain.SeismicPlate{{Name: "Burma Plate", Data: []domain.XY{{X: 7.4, Y: 8.1}}}}, nil
}

func (f *fakeBackend) RiskAssessment(context.Context) ([]domain.RiskRegion, error) {
	f.riskCalls.Add(1)
	if err := f.err(); err != nil {
		return nil, err
	}
	return []domain.RiskRegion{{Region: "Sumatra Coast", Score: 9.1, Level: "very-high"}}, nil
}

func (f *fakeBackend) DashboardStats(context.Context) (domain.ReportStats, error) {
	f.statsCalls.Add(1)
	if err := f.err(); err != nil {
		return domain.ReportStats{}, err
	}
	return domain.ReportStats{TotalReports: 42, TodayReports: 3, CriticalReports: 1}, nil
}

type fixture struct {
	backend  *fakeBackend
	registry *chart.Registry
	clock    *clockwork.FakeClock
	metrics  *observability.Metrics
	deps     refresh.Deps
}

func newFixture() *fixture {
	clock := clockwork.NewFakeClockAt(now)
	backend := &fakeBackend{}
	registry := chart.NewRegistry(clock, discardLogger(), chart.Canvases...)
	metrics := observability.NewMetricsForTesting()
	return &fixture{
		backend:  backend,
		registry: registry,
		clock:    clock,
		metrics:  metrics,
		deps: refresh.Deps{
			Backend:  backend,
			Registry: registry,
			Clock:    clock,
			Rand:     domain.SyncRand(rand.New(rand.NewPCG(3, 5))),
			Metrics:  metrics,
			Logger:   discardLogger(),
		},
	}
}

func counter(c *atomic.Int32) func() bool {
	return func() bool { return c.Load() > 0 }
}
