package navigation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/chart"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/refresh"
)

// DashboardSection shows the overview charts and report statistics.
type DashboardSection struct {
	Dashboard *refresh.Dashboard
}

func (s DashboardSection) Enter(ctx context.Context) error {
	s.Dashboard.Start(context.WithoutCancel(ctx))
	return nil
}

func (s DashboardSection) Leave() { s.Dashboard.Stop() }

// AnalyticsSection polls buoy, surge, seismic and risk data.
type AnalyticsSection struct {
	Analytics *refresh.Analytics
}

func (s AnalyticsSection) Enter(ctx context.Context) error {
	s.Analytics.Start(context.WithoutCancel(ctx))
	return nil
}

func (s AnalyticsSection) Leave() { s.Analytics.Stop() }

// StatisticsSection draws the static historical charts.
type StatisticsSection struct {
	Registry *chart.Registry
}

func (s StatisticsSection) Enter(context.Context) error {
	s.Registry.Create(chart.CanvasAlertDistribution, chart.AlertDistribution(), chart.SourceStatic)
	s.Registry.Create(chart.CanvasMethodComparison, chart.MethodComparison(), chart.SourceStatic)
	s.Registry.Create(chart.CanvasSeasonalPatterns, chart.SeasonalPatterns(), chart.SourceStatic)
	s.Registry.Create(chart.CanvasStationPerformance, chart.StationPerformance(), chart.SourceStatic)
	return nil
}

func (StatisticsSection) Leave() {}

// ReportsSection hosts the hazard map. The map is initialized on first entry
// only; the simulator runs while the section is active unless a live feed
// supplies reports.
type ReportsSection struct {
	Map       *hazardmap.Controller
	Source    domain.ReportSource
	Probe     hazardmap.MapProbe
	Simulator *hazardmap.Simulator // nil when a live feed is configured
	Logger    *slog.Logger
}

func (s ReportsSection) Enter(ctx context.Context) error {
	if !s.Map.Initialized() {
		var initial []domain.HazardReport
		if s.Source != nil {
			reports, err := s.Source.LoadReports(ctx)
			if err != nil {
				s.Logger.Warn("initial reports unavailable", "error", err)
				s.Map.Notifications().Push(hazardmap.KindWarning, "Could not load hazard reports")
			}
			initial = reports
		}
		if err := s.Map.Initialize(ctx, s.Probe, initial); err != nil {
			return fmt.Errorf("initialize hazard map: %w", err)
		}
	}
	if s.Simulator != nil {
		s.Simulator.Start(context.WithoutCancel(ctx))
	}
	return nil
}

func (s ReportsSection) Leave() {
	if s.Simulator != nil {
		s.Simulator.Stop()
	}
}
