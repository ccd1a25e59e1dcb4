package refresh_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/refresh"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seriesSpec builds a minimal line chart whose title records the source.
func seriesSpec(fetch func(context.Context) ([]float64, error)) refresh.Spec[[]float64] {
	return refresh.Spec[[]float64]{
		Name:     "test",
		CanvasID: chart.CanvasStormSurge,
		Fetch:    fetch,
		Build: func(data []float64, source chart.Source) chart.Config {
			return chart.Config{
				Kind:     chart.KindLine,
				Title:    string(source),
				Labels:   []string{"a"},
				Datasets: []chart.Dataset{{Label: "series", Data: data}},
			}
		},
		Synthetic: func() []float64 { return []float64{0.5} },
	}
}

func TestController_ConstructWithoutDataIsSynthetic(t *testing.T) {
	f := newFixture()
	c := refresh.NewController(seriesSpec(nil), f.registry, f.metrics, discardLogger())

	c.Construct()

	got, ok := f.registry.Get(chart.CanvasStormSurge)
	require.True(t, ok)
	assert.Equal(t, chart.SourceSynthetic, got.Source)
	assert.Equal(t, []float64{0.5}, got.Config.Datasets[0].Data)
}

func TestController_RefreshUpdatesSyntheticChartInPlace(t *testing.T) {
	f := newFixture()
	c := refresh.NewController(seriesSpec(func(context.Context) ([]float64, error) {
		return []float64{2.4}, nil
	}), f.registry, f.metrics, discardLogger())
	c.Construct()
	before, _ := f.registry.Get(chart.CanvasStormSurge)

	f.clock.Advance(time.Minute)
	require.NoError(t, c.Refresh(context.Background()))

	got, _ := f.registry.Get(chart.CanvasStormSurge)
	assert.Equal(t, before.CreatedAt, got.CreatedAt, "chart is updated, not recreated")
	assert.Equal(t, now.Add(time.Minute), got.UpdatedAt)
	assert.Greater(t, got.Version, before.Version)
	assert.Equal(t, chart.SourceLive, got.Source)
	assert.Equal(t, "live", got.Config.Title, "live data replaces the simulated title")
	assert.Equal(t, []float64{2.4}, got.Config.Datasets[0].Data)
	data, source := c.Current()
	assert.Equal(t, []float64{2.4}, data)
	assert.Equal(t, chart.SourceLive, source)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshTotal.WithLabelValues("test", "live")))
}

func TestController_SecondRefreshUpdatesInPlace(t *testing.T) {
	f := newFixture()
	value := 1.0
	c := refresh.NewController(seriesSpec(func(context.Context) ([]float64, error) {
		value++
		return []float64{value}, nil
	}), f.registry, f.metrics, discardLogger())

	require.NoError(t, c.Refresh(context.Background()))
	first, _ := f.registry.Get(chart.CanvasStormSurge)
	require.NoError(t, c.Refresh(context.Background()))
	second, _ := f.registry.Get(chart.CanvasStormSurge)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Greater(t, second.Version, first.Version)
	assert.Equal(t, []float64{3}, second.Config.Datasets[0].Data)
}

func TestController_FailureKeepsLastGoodChart(t *testing.T) {
	f := newFixture()
	fail := false
	c := refresh.NewController(seriesSpec(func(context.Context) ([]float64, error) {
		if fail {
			return nil, errBackend
		}
		return []float64{4.2}, nil
	}), f.registry, f.metrics, discardLogger())

	require.NoError(t, c.Refresh(context.Background()))
	fail = true
	err := c.Refresh(context.Background())

	require.ErrorIs(t, err, errBackend)
	got, _ := f.registry.Get(chart.CanvasStormSurge)
	assert.Equal(t, chart.SourceLive, got.Source)
	assert.Equal(t, []float64{4.2}, got.Config.Datasets[0].Data)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshTotal.WithLabelValues("test", "kept")))

	// Rebuilding after a failure still uses the last live data.
	c.Construct()
	got, _ = f.registry.Get(chart.CanvasStormSurge)
	assert.Equal(t, chart.SourceLive, got.Source)
}

func TestController_FailureWithoutDataFallsBack(t *testing.T) {
	f := newFixture()
	c := refresh.NewController(seriesSpec(func(context.Context) ([]float64, error) {
		return nil, errBackend
	}), f.registry, f.metrics, discardLogger())

	err := c.Refresh(context.Background())

	require.ErrorIs(t, err, errBackend)
	got, ok := f.registry.Get(chart.CanvasStormSurge)
	require.True(t, ok)
	assert.Equal(t, chart.SourceSynthetic, got.Source)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshTotal.WithLabelValues("test", "fallback")))
}

func TestController_ResultAfterStopIsDiscarded(t *testing.T) {
	f := newFixture()
	started := make(chan struct{})
	release := make(chan struct{})
	c := refresh.NewController(seriesSpec(func(context.Context) ([]float64, error) {
		close(started)
		<-release
		return []float64{9.9}, nil
	}), f.registry, f.metrics, discardLogger())
	c.Construct()

	errc := make(chan error, 1)
	go func() { errc <- c.Refresh(context.Background()) }()
	<-started
	c.Stop()
	close(release)

	err := <-errc
	assert.True(t, errors.Is(err, refresh.ErrStale))
	got, _ := f.registry.Get(chart.CanvasStormSurge)
	assert.Equal(t, chart.SourceSynthetic, got.Source)
	assert.Equal(t, []float64{0.5}, got.Config.Datasets[0].Data)
}

func TestController_UnmountedCanvasIsNoop(t *testing.T) {
	f := newFixture()
	f.registry.Unmount(chart.CanvasStormSurge)
	c := refresh.NewController(seriesSpec(func(context.Context) ([]float64, error) {
		return []float64{1}, nil
	}), f.registry, f.metrics, discardLogger())

	require.NoError(t, c.Refresh(context.Background()))
	_, ok := f.registry.Get(chart.CanvasStormSurge)
	assert.False(t, ok)
}

func TestController_CancelledRefreshIsDiscarded(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	c := refresh.NewController(seriesSpec(func(ctx context.Context) ([]float64, error) {
		cancel()
		return nil, ctx.Err()
	}), f.registry, f.metrics, discardLogger())

	err := c.Refresh(ctx)

	assert.ErrorIs(t, err, refresh.ErrStale)
	_, ok := f.registry.Get(chart.CanvasStormSurge)
	assert.False(t, ok, "no fallback chart drawn for a cancelled refresh")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshTotal.WithLabelValues("test", "stale")))
}
