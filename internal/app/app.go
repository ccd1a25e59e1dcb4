// Package app assembles the dashboard from its parts and owns the state
// shared between sections: the hazard map, the chart registry, the polling
// controllers and the optional live feed.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/analystapi"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/geocode"
	httpadapter "github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/sqlite"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/config"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/navigation"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/pipeline"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/refresh"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/submission"
	"github.com/jonboulle/clockwork"
)

// endSessionTimeout bounds the best-effort end-session call on shutdown.
const endSessionTimeout = 2 * time.Second

// Option customizes an App.
type Option func(*App)

// WithClock sets the clock shared by every timer.
func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// App is the running dashboard.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	Client     *analystapi.Client
	Map        *hazardmap.Controller
	Charts     *chart.Registry
	Analytics  *refresh.Analytics
	Dashboard  *refresh.Dashboard
	Realtime   *refresh.Realtime
	Navigation *navigation.Switcher
	Forms      *submission.Service
	Server     *httpadapter.Server

	source   domain.ReportSource
	store    *sqlite.Store
	reader   *kafkaadapter.Reader
	pipeline *pipeline.Pipeline

	closeOnce sync.Once
}

// New builds the dashboard. Nothing runs until Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*App, error) {
	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	sched := cfg.Schedule
	rng := domain.SyncRand(rand.New(rand.NewPCG(uint64(a.clock.Now().UnixNano()), 0x9e3779b97f4a7c15)))

	a.Client = analystapi.NewClient(cfg.AnalystAPIURL, cfg.CSRFToken, cfg.AnalystAPITimeout, metrics, logger)

	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		client := geocode.NewClient(cfg.GeocodeURL, cfg.GeocodeTimeout, metrics, logger)
		geocoder = geocode.NewCachedGeocoder(client, cfg.GeocodeCacheSize, geocode.DefaultCacheTTL, a.clock, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("reverse geocoding enabled", "url", cfg.GeocodeURL, "cache_size", cfg.GeocodeCacheSize)
	} else {
		logger.Info("reverse geocoding disabled")
	}

	a.Map = hazardmap.NewController(hazardmap.Options{
		Clock:         a.clock,
		Logger:        logger,
		Metrics:       metrics,
		Notifications: hazardmap.NewNotifications(a.clock, sched.NotificationTTL),
		ProbeInterval: sched.MapProbe,
	})

	var sink hazardmap.ReportSink = a.Map
	a.source = a.Client.ReportSource(analystapi.MapQuery{})
	if cfg.ReportDBPath != "" {
		store, err := sqlite.Open(ctx, cfg.ReportDBPath, logger)
		if err != nil {
			return nil, err
		}
		a.store = store
		sink = storedSink{next: a.Map, store: store, logger: logger}
		a.source = storedSource{remote: a.source, store: store, logger: logger}
	}

	a.Charts = chart.NewRegistry(a.clock, logger, chart.Canvases...)
	deps := refresh.Deps{
		Backend:  a.Client,
		Registry: a.Charts,
		Clock:    a.clock,
		Rand:     rng,
		Metrics:  metrics,
		Logger:   logger,
	}
	a.Analytics = refresh.NewAnalytics(deps, refresh.Periods{
		BuoyPoll:    sched.BuoyPoll,
		RiskPoll:    sched.RiskPoll,
		AutoRefresh: sched.AutoRefresh,
	})
	a.Dashboard = refresh.NewDashboard(deps, sched.DashboardStats)
	a.Realtime = refresh.NewRealtime(a.Analytics, a.Map.Notifications(), a.clock, sched.RealtimeDrift, metrics.ActiveTimers, logger)

	var simulator *hazardmap.Simulator
	if cfg.FeedEnabled {
		a.reader = kafkaadapter.NewReader(cfg, logger)
		var loader pipeline.BatchLoader = pipeline.MapLoader{Sink: a.Map}
		if a.store != nil {
			loader = pipeline.Chain{a.store, loader}
		}
		a.pipeline = pipeline.New(a.reader, pipeline.NewTransformer(geocoder, logger), loader, logger, metrics, cfg.BatchSize)
		logger.Info("live report feed enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		simulator = hazardmap.NewSimulator(sink, a.clock, sched.Simulator, rng, logger)
	}

	a.Navigation = navigation.NewSwitcher(map[string]navigation.Section{
		navigation.SectionDashboard:  navigation.DashboardSection{Dashboard: a.Dashboard},
		navigation.SectionAnalytics:  navigation.AnalyticsSection{Analytics: a.Analytics},
		navigation.SectionStatistics: navigation.StatisticsSection{Registry: a.Charts},
		navigation.SectionReports: navigation.ReportsSection{
			Map:       a.Map,
			Source:    a.source,
			Simulator: simulator,
			Logger:    logger,
		},
	}, metrics, logger,
		func(context.Context) { a.Realtime.Stop() },
		func(context.Context) {
			n := a.Charts.DestroyAll()
			logger.Debug("charts destroyed", "count", n)
		},
		func(context.Context) { a.Map.Close() },
		a.endSession,
	)

	a.Forms = submission.NewService(submission.Options{
		Submitter: a.Client,
		Geocoder:  geocoder,
		Sink:      sink,
		Clock:     a.clock,
		Logger:    logger,
		OnSubmitted: func(ctx context.Context) {
			if err := a.Dashboard.RefreshStats(ctx); err != nil {
				logger.Debug("stats refresh after submission skipped", "error", err)
			}
		},
	})

	a.Server = httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Map:       a.Map,
		Sections:  a.Navigation,
		Charts:    a.Charts,
		Analytics: a.Analytics,
		Forms:     a.Forms,
		Ready:     a,
	}, logger)

	return a, nil
}

// CheckReadiness returns nil once the hazard map is initialized and the
// report store, if any, answers.
func (a *App) CheckReadiness(ctx context.Context) error {
	if err := a.Map.CheckReadiness(ctx); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("report store: %w", err)
		}
	}
	return nil
}

// Start loads the initial reports, starts the live feed and the timers and
// enters the dashboard section. It does not start the HTTP server.
func (a *App) Start(ctx context.Context) error {
	// Initialize the map before any live report can arrive.
	initial := navigation.ReportsSection{Map: a.Map, Source: a.source, Logger: a.logger}
	if err := initial.Enter(ctx); err != nil {
		return err
	}

	if a.pipeline != nil {
		go func() {
			if err := a.pipeline.Run(ctx); err != nil {
				a.logger.Error("live feed error", "error", err)
			}
		}()
	}

	a.Realtime.Start(ctx)
	return a.Navigation.Start(ctx)
}

// Run starts the app and the HTTP server and blocks until ctx ends, then
// shuts down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.logger.Error("http server error", "error", runErr)
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Shutdown(shutdownCtx))
}

// Shutdown stops the HTTP server, every timer and the live feed, and
// releases all charts. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.closeOnce.Do(func() {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
		a.Navigation.Close(ctx)
		if a.reader != nil {
			if err := a.reader.Close(); err != nil {
				errs = append(errs, fmt.Errorf("kafka reader close: %w", err))
			}
		}
		if a.store != nil {
			if err := a.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("report store close: %w", err))
			}
		}
		a.logger.Info("shutdown complete")
	})
	return errors.Join(errs...)
}

// endSession tells the backend the dashboard is going away. Failures are
// logged only.
func (a *App) endSession(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, endSessionTimeout)
	defer cancel()
	if err := a.Client.EndSession(ctx); err != nil {
		a.logger.Debug("end session failed", "error", err)
	}
}
