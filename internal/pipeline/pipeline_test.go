package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.HazardReport, error) {
	if m.err != nil {
		return domain.HazardReport{}, m.err
	}
	return domain.ParseRawEvent(raw)
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.HazardReport
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []domain.HazardReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("store unavailable")
	}
	m.loaded = append(m.loaded, reports...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, "rpt-1", "high")

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, "rpt-1", ldr.loaded[0].ID)
	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportsLoaded))
	assert.Zero(t, testutil.ToFloat64(metrics.FeedRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(ctx))
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	var commits atomic.Int32
	bad := domain.RawEvent{Value: []byte("not json"), Commit: func(context.Context) error {
		commits.Add(1)
		return nil
	}}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{bad}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.False(t, p.Ready())
	assert.Equal(t, int32(1), commits.Load(), "poison message is committed so it is not redelivered")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ParseErrors))
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var committed atomic.Bool
	raw := makeRawEvent(t, "rpt-5", "low")
	raw.Commit = func(context.Context) error {
		committed.Store(true)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.True(t, committed.Load())
}

func TestPipeline_Run_LoadFailureRetriesWithBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var commits atomic.Int32
	raw := makeRawEvent(t, "rpt-6", "critical")
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	// The same batch is redelivered after the failed load.
	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}, {raw}}}
	ldr := &mockLoader{failures: 1}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10, pipeline.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Zero(t, commits.Load(), "nothing committed before a successful load")
	clock.Advance(200 * time.Millisecond)

	require.Eventually(t, func() bool { return ldr.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), commits.Load())
}

func TestPipeline_Run_ExtractErrorStopsOnCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ext := &mockExtractor{err: errors.New("broker down")}
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10, pipeline.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cancel()
	require.NoError(t, <-done)
}

func TestReportTransformer_Transform(t *testing.T) {
	raw := makeRawEvent(t, "rpt-3", "moderate")

	tfm := pipeline.NewTransformer(nil, discardLogger())
	out, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)

	want := domain.HazardReport{
		ID:            "rpt-3",
		Lat:           19.076,
		Lng:           72.8777,
		HazardType:    "Storm Surge",
		Severity:      domain.SeverityModerate,
		SeverityScore: 7,
		ReportCount:   3,
		Time:          time.Date(2025, time.September, 10, 11, 0, 0, 0, time.UTC),
		Location:      "Lat: 19.0760, Lng: 72.8777",
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("transform mismatch (-want +got):\n%s", diff)
	}
}

func TestReportTransformer_Invalid(t *testing.T) {
	tfm := pipeline.NewTransformer(nil, discardLogger())
	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestMapLoader_AddsToHazardMap(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC))
	m := observability.NewMetricsForTesting()
	hm := hazardmap.NewController(hazardmap.Options{Clock: clock, Logger: discardLogger(), Metrics: m})
	require.NoError(t, hm.Initialize(context.Background(), nil, nil))

	err := pipeline.MapLoader{Sink: hm}.LoadBatch(context.Background(), []domain.HazardReport{
		{ID: "a", Lat: 19.07, Lng: 72.87, Severity: domain.SeverityHigh, Time: clock.Now()},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, hm.Snapshot().TotalCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsReceived.WithLabelValues("feed")))
}

func TestChain_StopsAtFirstFailure(t *testing.T) {
	first := &mockLoader{failures: 1}
	second := &mockLoader{}
	chain := pipeline.Chain{first, second}
	reports := []domain.HazardReport{{ID: "a"}}

	err := chain.LoadBatch(context.Background(), reports)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader 0")
	assert.Empty(t, second.loaded)

	require.NoError(t, chain.LoadBatch(context.Background(), reports))
	assert.Len(t, first.loaded, 1)
	assert.Len(t, second.loaded, 1)
}

// --- helpers ---

func makeRawEvent(t *testing.T, id, severity string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(domain.WireReport{
		ID:            id,
		Lat:           19.076,
		Lng:           72.8777,
		HazardType:    "storm_surge",
		Severity:      severity,
		SeverityScore: 7,
		ReportCount:   3,
		Time:          "2025-09-10T11:00:00Z",
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(id),
		Value: data,
	}
}
