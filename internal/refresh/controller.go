package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
)

// ErrStale is returned by Refresh when the controller was stopped while the
// fetch was in flight. The result is discarded.
var ErrStale = errors.New("refresh result discarded")

// Refresh outcomes recorded in metrics.
const (
	outcomeLive     = "live"
	outcomeKept     = "kept"
	outcomeFallback = "fallback"
	outcomeStale    = "stale"
)

// Spec describes one chart's data flow.
type Spec[T any] struct {
	// Name labels metrics and logs.
	Name     string
	CanvasID string
	// Fetch loads live data from the backend.
	Fetch func(ctx context.Context) (T, error)
	// Build turns data into a chart configuration.
	Build func(data T, source chart.Source) chart.Config
	// Synthetic generates stand-in data when nothing live is known.
	Synthetic func() T
}

// Controller keeps one chart in sync with its backend endpoint.
//
// Refresh failures never surface as chart errors: the chart keeps its last
// live data, or is rebuilt from the synthetic generator when there is none.
// Overlapping refreshes are not serialized; the last one to finish wins.
type Controller[T any] struct {
	spec     Spec[T]
	registry *chart.Registry
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu         sync.Mutex
	lastGood   *T
	current    T
	source     chart.Source
	generation uint64
}

// NewController creates a controller. Nothing is drawn until Construct or
// Refresh is called.
func NewController[T any](spec Spec[T], registry *chart.Registry, metrics *observability.Metrics, logger *slog.Logger) *Controller[T] {
	return &Controller[T]{
		spec:     spec,
		registry: registry,
		metrics:  metrics,
		logger:   logger.With("chart", spec.Name),
	}
}

// Construct draws the chart from the last live data, or from the synthetic
// generator when nothing has been fetched yet.
func (c *Controller[T]) Construct() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastGood != nil {
		c.drawLocked(*c.lastGood, chart.SourceLive)
		return
	}
	c.drawLocked(c.spec.Synthetic(), chart.SourceSynthetic)
}

// Refresh fetches live data and applies it. The returned error reports the
// fetch failure after recovery has been applied; ErrStale means the result
// arrived after Stop or after ctx ended and was dropped.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	data, err := c.spec.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || ctx.Err() != nil {
		c.metrics.RefreshTotal.WithLabelValues(c.spec.Name, outcomeStale).Inc()
		c.logger.Debug("discarding refresh result after stop or cancellation")
		return ErrStale
	}

	if err != nil {
		if c.lastGood != nil {
			c.metrics.RefreshTotal.WithLabelValues(c.spec.Name, outcomeKept).Inc()
			c.logger.Warn("refresh failed, keeping last data", "error", err)
			return fmt.Errorf("refresh %s: %w", c.spec.Name, err)
		}
		c.drawLocked(c.spec.Synthetic(), chart.SourceSynthetic)
		c.metrics.RefreshTotal.WithLabelValues(c.spec.Name, outcomeFallback).Inc()
		c.logger.Warn("refresh failed, using simulated data", "error", err)
		return fmt.Errorf("refresh %s: %w", c.spec.Name, err)
	}

	c.lastGood = &data
	cfg := c.spec.Build(data, chart.SourceLive)
	if _, ok := c.registry.Update(c.spec.CanvasID, cfg, chart.SourceLive); ok {
		c.current, c.source = data, chart.SourceLive
	} else {
		c.drawLocked(data, chart.SourceLive)
	}
	c.metrics.RefreshTotal.WithLabelValues(c.spec.Name, outcomeLive).Inc()
	return nil
}

// Stop invalidates in-flight refreshes. Later Refresh calls work normally.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

// Current returns the data behind the chart and where it came from. The
// source is empty before the first Construct or Refresh.
func (c *Controller[T]) Current() (T, chart.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.source
}

func (c *Controller[T]) drawLocked(data T, source chart.Source) {
	c.current, c.source = data, source
	c.registry.Create(c.spec.CanvasID, c.spec.Build(data, source), source)
}
