package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Hazard map.
	ReportsReceived      *prometheus.CounterVec // labels: source={initial,feed,simulator,submission}
	ReportsVisible       prometheus.Gauge
	HeatmapPointsDropped prometheus.Counter
	ViewRenderDuration   prometheus.Histogram

	// Live report feed.
	MessagesConsumed        prometheus.Counter
	ReportsLoaded           prometheus.Counter
	ParseErrors             prometheus.Counter
	FeedRunning             prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Polling controllers.
	RefreshTotal       *prometheus.CounterVec   // labels: chart, outcome={live,kept,fallback,stale}
	APIRequestDuration *prometheus.HistogramVec // labels: endpoint
	ActiveTimers       prometheus.Gauge
	SectionSwitches    *prometheus.CounterVec // labels: section

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_received_total",
			Help:      "Hazard reports added to the map by source.",
		}, []string{"source"}),
		ReportsVisible: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_visible",
			Help:      "Reports inside the active time filter.",
		}),
		HeatmapPointsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heatmap_points_dropped_total",
			Help:      "Heatmap points rejected by coordinate or intensity validation.",
		}),
		ViewRenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_render_duration_seconds",
			Help:      "Time to recompute markers, heatmap, grid and stats.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_messages_consumed_total",
			Help:      "Total messages read from the hazard report topic.",
		}),
		ReportsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_reports_loaded_total",
			Help:      "Total feed reports added to the map and report store.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_parse_errors_total",
			Help:      "Total feed messages that could not be parsed.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_running",
			Help:      "1 when the live feed is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_batch_processing_duration_seconds",
			Help:      "Duration of a complete feed batch cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_refresh_total",
			Help:      "Chart refreshes by chart and outcome.",
		}, []string{"chart", "outcome"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyst_api_duration_seconds",
			Help:      "Analyst backend request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		ActiveTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_timers",
			Help:      "Background polling timers currently running.",
		}),
		SectionSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_switches_total",
			Help:      "Section transitions by target section.",
		}, []string{"section"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when reverse geocoding is enabled, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWith creates Metrics registered on reg. Short-lived tools pass a
// private registry so their counters never reach a scrape endpoint.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsReceived,
		m.ReportsVisible,
		m.HeatmapPointsDropped,
		m.ViewRenderDuration,
		m.MessagesConsumed,
		m.ReportsLoaded,
		m.ParseErrors,
		m.FeedRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RefreshTotal,
		m.APIRequestDuration,
		m.ActiveTimers,
		m.SectionSwitches,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
