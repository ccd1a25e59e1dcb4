// Package chart holds the dashboard's chart instances keyed by canvas and the
// builders that produce each widget's configuration.
package chart

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Kind is the chart type understood by the rendering shell.
type Kind string

const (
	KindLine     Kind = "line"
	KindBar      Kind = "bar"
	KindDoughnut Kind = "doughnut"
	KindRadar    Kind = "radar"
	KindScatter  Kind = "scatter"
	KindBubble   Kind = "bubble"
)

// Source records where a chart's current series came from.
type Source string

const (
	// SourceStatic marks charts built from fixed reference data.
	SourceStatic Source = "static"
	// SourceLive marks series fetched from the analyst backend.
	SourceLive Source = "live"
	// SourceSynthetic marks series produced by a local generator.
	SourceSynthetic Source = "synthetic"
	// SourceFallback marks fixed tables shown when the backend failed.
	SourceFallback Source = "fallback"
)

// Point is an x/y sample; R is the bubble radius and is zero for plain
// scatter points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r,omitempty"`
}

// Dataset is one series of a chart. Category charts use Data, scatter and
// bubble charts use Points.
type Dataset struct {
	Label            string    `json:"label,omitempty"`
	Data             []float64 `json:"data,omitempty"`
	Points           []Point   `json:"points,omitempty"`
	BorderColor      string    `json:"borderColor,omitempty"`
	BackgroundColor  string    `json:"backgroundColor,omitempty"`
	BackgroundColors []string  `json:"backgroundColors,omitempty"`
	BorderWidth      int       `json:"borderWidth"`
	PointRadius      int       `json:"pointRadius,omitempty"`
	Fill             bool      `json:"fill,omitempty"`
	Tension          float64   `json:"tension,omitempty"`
	Axis             string    `json:"axis,omitempty"`
}

// Axis describes one scale.
type Axis struct {
	Title       string   `json:"title,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	BeginAtZero bool     `json:"beginAtZero,omitempty"`
	Position    string   `json:"position,omitempty"`
	Time        bool     `json:"time,omitempty"`
}

// Config is a complete chart description.
type Config struct {
	Kind           Kind            `json:"type"`
	Title          string          `json:"title,omitempty"`
	Labels         []string        `json:"labels,omitempty"`
	Datasets       []Dataset       `json:"datasets"`
	Scales         map[string]Axis `json:"scales,omitempty"`
	LegendPosition string          `json:"legendPosition,omitempty"`
	HideLegend     bool            `json:"hideLegend,omitempty"`
}

// Chart is a chart instance bound to a canvas.
type Chart struct {
	CanvasID  string    `json:"canvasId"`
	Config    Config    `json:"config"`
	Version   uint64    `json:"version"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Registry owns every chart instance, keyed by canvas ID. Charts can only be
// created on mounted canvases. It is safe for concurrent use.
type Registry struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	mounted map[string]bool
	charts  map[string]*Chart
	version uint64
}

// NewRegistry creates a registry with the given canvases mounted.
func NewRegistry(clock clockwork.Clock, logger *slog.Logger, canvases ...string) *Registry {
	r := &Registry{
		clock:   clock,
		logger:  logger,
		mounted: make(map[string]bool, len(canvases)),
		charts:  make(map[string]*Chart),
	}
	for _, id := range canvases {
		r.mounted[id] = true
	}
	return r
}

// Mount makes canvases available for charts.
func (r *Registry) Mount(canvases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range canvases {
		r.mounted[id] = true
	}
}

// Unmount removes a canvas and destroys any chart drawn on it.
func (r *Registry) Unmount(canvasID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mounted, canvasID)
	delete(r.charts, canvasID)
}

// Mounted reports whether a canvas is available.
func (r *Registry) Mounted(canvasID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mounted[canvasID]
}

// Create destroys any chart on canvasID and draws a new one from cfg. It
// returns false without doing anything when the canvas is not mounted.
func (r *Registry) Create(canvasID string, cfg Config, source Source) (Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.mounted[canvasID] {
		r.logger.Debug("chart canvas not mounted, skipping", "canvas", canvasID)
		return Chart{}, false
	}

	now := r.clock.Now()
	r.version++
	c := &Chart{
		CanvasID:  canvasID,
		Config:    cfg,
		Version:   r.version,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.charts[canvasID] = c
	return *c, true
}

// Update applies cfg to the chart on canvasID in place, keeping its identity
// and creation time, and bumps its version. Datasets are always replaced; a
// nil Labels slice, an empty Title or nil Scales keep the current value. It
// returns false when no chart exists on the canvas.
func (r *Registry) Update(canvasID string, cfg Config, source Source) (Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.charts[canvasID]
	if !ok {
		return Chart{}, false
	}
	if cfg.Labels != nil {
		c.Config.Labels = cfg.Labels
	}
	if cfg.Title != "" {
		c.Config.Title = cfg.Title
	}
	if cfg.Scales != nil {
		c.Config.Scales = cfg.Scales
	}
	c.Config.Datasets = cfg.Datasets
	c.Source = source
	r.version++
	c.Version = r.version
	c.UpdatedAt = r.clock.Now()
	return *c, true
}

// Get returns the chart on canvasID.
func (r *Registry) Get(canvasID string) (Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charts[canvasID]
	if !ok {
		return Chart{}, false
	}
	return *c, true
}

// List returns every chart ordered by canvas ID.
func (r *Registry) List() []Chart {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Chart, 0, len(r.charts))
	for _, c := range r.charts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanvasID < out[j].CanvasID })
	return out
}

// Destroy releases the chart on canvasID and reports whether one existed.
func (r *Registry) Destroy(canvasID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.charts[canvasID]
	delete(r.charts, canvasID)
	return ok
}

// DestroyAll releases every chart and returns how many there were.
func (r *Registry) DestroyAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.charts)
	clear(r.charts)
	if n > 0 {
		r.logger.Info("charts destroyed", "count", n)
	}
	return n
}
