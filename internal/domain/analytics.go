package domain

import "time"

// BuoyReading is one wave height sample of a buoy.
type BuoyReading struct {
	Timestamp  time.Time
	WaveHeight float64
}

// BuoySeries is the last day of readings for a buoy as served by the
// analyst backend.
type BuoySeries struct {
	BuoyID            string
	Name              string
	Status            string
	CurrentWaveHeight *float64
	Readings          []BuoyReading
}

// SurgeForecastRegion is a region's storm surge forecast.
type SurgeForecastRegion struct {
	Name string
	Data []float64
}

// SurgeForecast is the storm surge endpoint payload.
type SurgeForecast struct {
	TimeLabels []string
	Regions    []SurgeForecastRegion
	Alerts     []SurgeAlert
}

// SeismicPlate holds magnitude/risk samples for one plate.
type SeismicPlate struct {
	Name string
	Data []XY
}

// DashboardMetrics are the headline figures of the dashboard section.
type DashboardMetrics struct {
	ActiveDatasets   int    `json:"active_datasets"`
	ReportsThisMonth int    `json:"reports_this_month"`
	ActiveStations   int    `json:"active_stations"`
	AlertRate        string `json:"alert_rate"`
}

// BaselineDashboardMetrics are the analyst dashboard figures.
var BaselineDashboardMetrics = DashboardMetrics{
	ActiveDatasets:   142,
	ReportsThisMonth: 28,
	ActiveStations:   89,
	AlertRate:        "97.3%",
}

// JitterDashboardMetrics returns m with up to two extra active datasets.
func JitterDashboardMetrics(rng Rand, m DashboardMetrics) DashboardMetrics {
	m.ActiveDatasets += rng.IntN(3)
	return m
}

// ReportStats is the dashboard-stats endpoint payload.
type ReportStats struct {
	TotalReports    int     `json:"total_reports"`
	ThisMonth       int     `json:"this_month"`
	TodayReports    int     `json:"today_reports"`
	CriticalReports int     `json:"critical_reports"`
	PendingReports  int     `json:"pending_reports"`
	VerifiedReports int     `json:"verified_reports"`
	UrgentReports   int     `json:"urgent_reports"`
	ApprovalRate    float64 `json:"approval_rate"`
}

// DriftWaveHeight nudges a wave height by up to ±0.1 m, never below zero.
func DriftWaveHeight(rng Rand, h float64) float64 {
	return max(0, h+(rng.Float64()-0.5)*0.2)
}
