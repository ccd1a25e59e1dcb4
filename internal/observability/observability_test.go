package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_RespectsLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger = NewLogger(&config.Config{LogLevel: "verbose"})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ReportsReceived.WithLabelValues("feed").Inc()
	a.HeatmapPointsDropped.Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(a.ReportsReceived.WithLabelValues("feed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(a.HeatmapPointsDropped), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.HeatmapPointsDropped), 0)
}
