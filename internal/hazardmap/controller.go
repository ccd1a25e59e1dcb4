package hazardmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultProbeInterval is how often Initialize checks whether the map
// container exists.
const DefaultProbeInterval = 100 * time.Millisecond

// boundsPadding is the fraction of the marker extent added on each side
// when fitting the map to the visible markers.
const boundsPadding = 0.1

var (
	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("hazard map already initialized")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("hazard map closed")
	// ErrStaleReload is returned when a reload finished after the
	// controller was closed.
	ErrStaleReload = errors.New("hazard map reload discarded")
)

// MapProbe reports whether the map container is available to draw into.
type MapProbe interface {
	Ready() bool
}

// MapProbeFunc adapts a function to MapProbe.
type MapProbeFunc func() bool

func (f MapProbeFunc) Ready() bool { return f() }

// View is an immutable snapshot of everything the map displays. Markers,
// heatmap, grid input and stats are always derived from the same filtered
// report set.
type View struct {
	Version     uint64                `json:"version"`
	Mode        domain.HeatmapMode    `json:"mode"`
	Filter      domain.TimeFilter     `json:"filter"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Markers     []Marker              `json:"markers"`
	Heatmap     []domain.HeatmapPoint `json:"heatmap"`
	Bounds      *Bounds               `json:"bounds,omitempty"`
	Stats       domain.SummaryStats   `json:"stats"`
	Legend      Legend                `json:"legend"`
	Viewport    Viewport              `json:"viewport"`
	TotalCount  int                   `json:"totalCount"`
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Clock         clockwork.Clock
	Logger        *slog.Logger
	Metrics       *observability.Metrics
	Notifications *Notifications
	ProbeInterval time.Duration
}

// Controller owns the authoritative report list and the derived map view.
// It is safe for concurrent use; hooks run after the lock is released.
type Controller struct {
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
	notes         *Notifications
	probeInterval time.Duration

	mu          sync.Mutex
	reports     []domain.HazardReport
	mode        domain.HeatmapMode
	filter      domain.TimeFilter
	viewport    Viewport
	points      []domain.HeatmapPoint
	view        View
	version     uint64
	generation  uint64
	initialized bool
	closed      bool

	hooks hooks
}

// NewController creates an uninitialized controller in density mode with
// the 24h filter.
func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Notifications == nil {
		opts.Notifications = NewNotifications(opts.Clock, DefaultNotificationTTL)
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = DefaultProbeInterval
	}
	return &Controller{
		clock:         opts.Clock,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		notes:         opts.Notifications,
		probeInterval: opts.ProbeInterval,
		mode:          domain.ModeDensity,
		filter:        domain.Filter24h,
		viewport:      DefaultViewport(),
	}
}

// Notifications returns the controller's notification feed.
func (c *Controller) Notifications() *Notifications {
	return c.notes
}

// Initialize waits for the map container, then loads the initial reports and
// renders them. A nil probe is treated as ready.
func (c *Controller) Initialize(ctx context.Context, probe MapProbe, initial []domain.HazardReport) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.initialized:
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.mu.Unlock()

	if err := c.waitForMap(ctx, probe); err != nil {
		return fmt.Errorf("wait for map container: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.viewport = DefaultViewport()
	c.reports = append(make([]domain.HazardReport, 0, len(initial)), initial...)
	c.initialized = true
	view := c.recomputeLocked()
	c.mu.Unlock()

	c.metrics.ReportsReceived.WithLabelValues("initial").Add(float64(len(initial)))
	c.logger.Info("hazard map initialized",
		"reports", len(initial),
		"visible", len(view.Markers),
		"mode", view.Mode,
		"filter", view.Filter,
	)
	c.hooks.fireReports(view)
	return nil
}

func (c *Controller) waitForMap(ctx context.Context, probe MapProbe) error {
	for probe != nil && !probe.Ready() {
		c.logger.Debug("map container not found, retrying", "interval", c.probeInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.probeInterval):
		}
	}
	return nil
}

// CheckReadiness returns nil once the map has been initialized.
func (c *Controller) CheckReadiness(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return errors.New("hazard map has not been initialized yet")
	}
	return nil
}

// Initialized reports whether Initialize has completed.
func (c *Controller) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// SetHeatmapMode switches the intensity mode and re-renders the heatmap and
// legend. Unknown modes fall back to density.
func (c *Controller) SetHeatmapMode(mode domain.HeatmapMode) View {
	mode = domain.ParseHeatmapMode(string(mode))

	c.mu.Lock()
	c.mode = mode
	view := c.recomputeLocked()
	c.mu.Unlock()

	c.logger.Debug("heatmap mode changed", "mode", mode)
	c.hooks.fireFilter(view)
	return view
}

// SetTimeFilter switches the lookback window and re-renders markers,
// heatmap and stats.
func (c *Controller) SetTimeFilter(filter domain.TimeFilter) View {
	filter = domain.ParseTimeFilter(string(filter))

	c.mu.Lock()
	c.filter = filter
	view := c.recomputeLocked()
	c.mu.Unlock()

	c.logger.Debug("time filter changed", "filter", filter, "visible", len(view.Markers))
	c.hooks.fireFilter(view)
	return view
}

// AddReport appends a report and re-renders under the current filter and mode.
func (c *Controller) AddReport(report domain.HazardReport) View {
	return c.AddReports("live", report)
}

// AddReports appends reports in order, attributing them to source in metrics.
func (c *Controller) AddReports(source string, reports ...domain.HazardReport) View {
	c.mu.Lock()
	c.reports = append(c.reports, reports...)
	view := c.recomputeLocked()
	c.mu.Unlock()

	c.metrics.ReportsReceived.WithLabelValues(source).Add(float64(len(reports)))
	c.hooks.fireReports(view)
	return view
}

// Reload replaces the report list from source. On failure the current list
// is kept and an error notification is pushed. A reload that completes after
// Close is discarded.
func (c *Controller) Reload(ctx context.Context, source domain.ReportSource) (View, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return View{}, ErrClosed
	}
	gen := c.generation
	c.mu.Unlock()

	reports, err := source.LoadReports(ctx)

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale report reload")
		return View{}, ErrStaleReload
	}
	if err != nil {
		view := c.view
		c.mu.Unlock()
		c.logger.Warn("report reload failed, keeping previous reports", "error", err)
		c.notes.Push(KindError, "Unable to refresh hazard reports. Showing last known data.")
		return view, fmt.Errorf("reload reports: %w", err)
	}
	c.reports = append(make([]domain.HazardReport, 0, len(reports)), reports...)
	view := c.recomputeLocked()
	c.mu.Unlock()

	c.hooks.fireReports(view)
	return view, nil
}

// RenderHeatmap validates points and stores the valid ones as the current
// heat layer. Invalid points are dropped and counted. It returns the number
// of points kept.
func (c *Controller) RenderHeatmap(points []domain.HeatmapPoint) int {
	c.mu.Lock()
	kept := c.renderHeatmapLocked(points)
	c.version++
	c.view.Version = c.version
	c.view.Heatmap = kept
	overlay := c.overlayLocked(c.viewport)
	c.mu.Unlock()

	c.hooks.fireViewport(overlay)
	return len(kept)
}

func (c *Controller) renderHeatmapLocked(points []domain.HeatmapPoint) []domain.HeatmapPoint {
	valid, dropped := domain.ValidateHeatmapPoints(points)
	if dropped > 0 {
		c.metrics.HeatmapPointsDropped.Add(float64(dropped))
		c.logger.Debug("dropped invalid heatmap points", "dropped", dropped)
	}
	c.points = valid
	return valid
}

// SetViewport applies a pan or zoom and re-projects the heat layer.
func (c *Controller) SetViewport(v Viewport) Overlay {
	v = v.normalize()

	c.mu.Lock()
	c.viewport = v
	c.view.Viewport = v
	overlay := c.overlayLocked(v)
	c.mu.Unlock()

	c.hooks.fireViewport(overlay)
	return overlay
}

// Overlay projects the current heat layer through v without changing the
// controller's viewport.
func (c *Controller) Overlay(v Viewport) Overlay {
	v = v.normalize()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlayLocked(v)
}

func (c *Controller) overlayLocked(v Viewport) Overlay {
	spots := make([]HeatSpot, len(c.points))
	for i, p := range c.points {
		x, y := v.Project(LatLng{Lat: p.Lat, Lng: p.Lng})
		color, size := spotStyle(c.mode, p.Intensity)
		spots[i] = HeatSpot{
			X:         x,
			Y:         y,
			Size:      size,
			Color:     color,
			Glow:      p.Intensity > 0.7,
			InView:    v.Contains(x, y),
			Intensity: p.Intensity,
		}
	}
	return Overlay{Viewport: v, Spots: spots}
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Close stops accepting reloads. In-flight reloads are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.generation++
}

// recomputeLocked rebuilds the view from the report list. Callers hold mu.
func (c *Controller) recomputeLocked() View {
	start := c.clock.Now()
	now := start

	filtered := domain.FilterByTime(c.reports, c.filter, now)
	markers := make([]Marker, len(filtered))
	for i, r := range filtered {
		markers[i] = markerFor(r)
	}
	heat := c.renderHeatmapLocked(domain.HeatmapPoints(filtered, c.mode, now))

	c.version++
	c.view = View{
		Version:     c.version,
		Mode:        c.mode,
		Filter:      c.filter,
		GeneratedAt: now,
		Markers:     markers,
		Heatmap:     heat,
		Bounds:      boundsOf(markers, boundsPadding),
		Stats:       domain.ComputeSummaryStats(filtered),
		Legend:      LegendFor(c.mode),
		Viewport:    c.viewport,
		TotalCount:  len(c.reports),
	}

	c.metrics.ReportsVisible.Set(float64(len(filtered)))
	c.metrics.ViewRenderDuration.Observe(c.clock.Since(start).Seconds())
	return c.view
}
