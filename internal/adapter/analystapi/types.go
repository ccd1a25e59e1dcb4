package analystapi

import "github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"

// Backend response types.

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type buoyResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Buoys   []buoy `json:"buoys"`
}

type buoy struct {
	BuoyID            string    `json:"buoy_id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"`
	CurrentWaveHeight *float64  `json:"current_wave_height"`
	ChartData         []reading `json:"chart_data"`
}

type reading struct {
	Timestamp  string   `json:"timestamp"`
	WaveHeight *float64 `json:"wave_height"`
}

type surgeResponse struct {
	Success    *bool               `json:"success"`
	Error      string              `json:"error"`
	Regions    []surgeRegion       `json:"regions"`
	TimeLabels []string            `json:"time_labels"`
	Alerts     []domain.SurgeAlert `json:"alerts"`
}

type surgeRegion struct {
	Name      string    `json:"name"`
	SurgeData []float64 `json:"surge_data"`
}

type seismicResponse struct {
	Success *bool   `json:"success"`
	Error   string  `json:"error"`
	Plates  []plate `json:"plates"`
}

type plate struct {
	Name        string      `json:"name"`
	SeismicData []domain.XY `json:"seismic_data"`
}

type riskResponse struct {
	Success *bool               `json:"success"`
	Error   string              `json:"error"`
	Regions []domain.RiskRegion `json:"regions"`
}

type mapDataResponse struct {
	Reports []mapReport `json:"reports"`
}

type mapReport struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	HazardType  string  `json:"hazard_type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	Urgent      bool    `json:"urgent"`
	Reporter    string  `json:"reporter"`
}

// statsResponse accepts both the analyst and the reporter key names.
type statsResponse struct {
	TotalReports    int     `json:"total_reports"`
	ThisMonth       int     `json:"this_month"`
	Today           int     `json:"today"`
	TodayReports    int     `json:"today_reports"`
	Critical        int     `json:"critical"`
	CriticalReports int     `json:"critical_reports"`
	Pending         int     `json:"pending"`
	PendingReports  int     `json:"pending_reports"`
	Verified        int     `json:"verified"`
	Urgent          int     `json:"urgent"`
	ApprovalRate    float64 `json:"approval_rate"`
}
