// Package http serves the dashboard API: health and metrics endpoints plus
// the map, chart, section, notification and report form routes the
// rendering shell talks to.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/submission"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MapController is the hazard map as seen by the API.
type MapController interface {
	Snapshot() hazardmap.View
	SetHeatmapMode(mode domain.HeatmapMode) hazardmap.View
	SetTimeFilter(filter domain.TimeFilter) hazardmap.View
	SetViewport(v hazardmap.Viewport) hazardmap.Overlay
	Grid(level int) []hazardmap.GridCell
	Notifications() *hazardmap.Notifications
}

// Navigator switches the active section.
type Navigator interface {
	Current() string
	Switch(ctx context.Context, name string) error
}

// ChartSource lists the live chart instances.
type ChartSource interface {
	List() []chart.Chart
	Get(canvasID string) (chart.Chart, bool)
}

// AnalyticsRefresher runs the manual analytics refreshes.
type AnalyticsRefresher interface {
	RefreshAll(ctx context.Context) error
	ManualBuoyRefresh(ctx context.Context) error
}

// ReportForm is the hazard report form.
type ReportForm interface {
	SelectLocation(ctx context.Context, p submission.Point) (submission.Selection, error)
	UseLocation(ctx context.Context, locator submission.Locator) (submission.Selection, submission.Banner, error)
	ClearSelection()
	Submit(ctx context.Context, form submission.Form) (submission.Banner, domain.SubmissionResult, error)
}

// Deps are the components behind the API routes.
type Deps struct {
	Map       MapController
	Sections  Navigator
	Charts    ChartSource
	Analytics AnalyticsRefresher
	Forms     ReportForm
	Ready     sharedobs.ReadinessChecker

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Server exposes the dashboard API together with /healthz, /readyz and
// /metrics.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	metrics := promhttp.Handler()
	if deps.Gatherer != nil {
		metrics = promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Ready))
	mux.Handle("GET /metrics", metrics)

	mux.HandleFunc("GET /api/sections", s.handleSections)
	mux.HandleFunc("POST /api/sections/{name}", s.handleSwitchSection)

	mux.HandleFunc("GET /api/map", s.handleMap)
	mux.HandleFunc("PUT /api/map/mode", s.handleMapMode)
	mux.HandleFunc("PUT /api/map/filter", s.handleMapFilter)
	mux.HandleFunc("POST /api/map/viewport", s.handleViewport)
	mux.HandleFunc("GET /api/map/grid", s.handleGrid)

	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("GET /api/charts/{id}", s.handleChart)
	mux.HandleFunc("POST /api/analytics/refresh", s.handleAnalyticsRefresh)

	mux.HandleFunc("GET /api/notifications", s.handleNotifications)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDismiss)

	mux.HandleFunc("POST /api/reports", s.handleSubmit)
	mux.HandleFunc("PUT /api/reports/location", s.handleSelectLocation)
	mux.HandleFunc("POST /api/reports/location/device", s.handleDeviceLocation)
	mux.HandleFunc("DELETE /api/reports/location", s.handleClearLocation)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
