package chart

import (
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
)

// Canvas IDs of the dashboard widgets.
const (
	CanvasTsunamiActivity    = "tsunami-activity-chart"
	CanvasPerformance        = "performance-chart"
	CanvasDARTBuoy           = "dart-buoy-chart"
	CanvasStormSurge         = "storm-surge-chart"
	CanvasSeismic            = "seismic-chart"
	CanvasAlertDistribution  = "alert-distribution-chart"
	CanvasMethodComparison   = "method-comparison-chart"
	CanvasSeasonalPatterns   = "seasonal-patterns-chart"
	CanvasStationPerformance = "station-performance-chart"
	CanvasRiskHeatmap        = "risk-heatmap"
)

// Canvases lists every canvas the dashboard mounts.
var Canvases = []string{
	CanvasTsunamiActivity,
	CanvasPerformance,
	CanvasDARTBuoy,
	CanvasStormSurge,
	CanvasSeismic,
	CanvasAlertDistribution,
	CanvasMethodComparison,
	CanvasSeasonalPatterns,
	CanvasStationPerformance,
	CanvasRiskHeatmap,
}

var palette = [...]string{
	"#1FB8CD", "#FFC185", "#B4413C", "#ECEBD5", "#5D878F",
	"#DB4545", "#D2BA4C", "#964325", "#944454", "#13343B",
}

// Color returns the i-th palette color, cycling.
func Color(i int) string {
	return palette[i%len(palette)]
}

// tint appends a hex alpha to a palette color.
func tint(color, alpha string) string {
	return color + alpha
}

func bound(v float64) *float64 { return &v }

// TsunamiEvent is a historical event on the activity chart.
type TsunamiEvent struct {
	Date      string
	Magnitude float64
	Location  string
}

// TsunamiEvents are the recent events shown on the dashboard.
var TsunamiEvents = []TsunamiEvent{
	{Date: "2025-09-01", Magnitude: 7.2, Location: "Alaska Peninsula"},
	{Date: "2025-08-15", Magnitude: 6.8, Location: "Japan Trench"},
	{Date: "2025-07-22", Magnitude: 7.5, Location: "Chile Coast"},
}

// TsunamiActivity plots event magnitude over date.
func TsunamiActivity(events []TsunamiEvent) Config {
	labels := make([]string, len(events))
	data := make([]float64, len(events))
	for i, e := range events {
		labels[i] = e.Date
		data[i] = e.Magnitude
	}
	return Config{
		Kind:   KindLine,
		Labels: labels,
		Datasets: []Dataset{{
			Label:           "Magnitude",
			Data:            data,
			BorderColor:     Color(0),
			BackgroundColor: tint(Color(0), "20"),
			BorderWidth:     3,
			PointRadius:     6,
			Fill:            true,
			Tension:         0.4,
		}},
		Scales: map[string]Axis{
			"x": {Title: "Date", Time: true},
			"y": {Title: "Magnitude", Min: bound(6), Max: bound(8)},
		},
		HideLegend: true,
	}
}

// PerformanceMetrics are the system performance figures.
type PerformanceMetrics struct {
	DetectionAccuracy float64
	FalseAlarmRate    float64
	SystemUptime      float64
	DataQualityScore  float64
}

// CurrentPerformance is the reference performance snapshot.
var CurrentPerformance = PerformanceMetrics{
	DetectionAccuracy: 97.3,
	FalseAlarmRate:    2.1,
	SystemUptime:      99.8,
	DataQualityScore:  96.5,
}

// Performance is the system performance doughnut.
func Performance(m PerformanceMetrics) Config {
	return Config{
		Kind:   KindDoughnut,
		Labels: []string{"Detection Accuracy", "System Uptime", "Data Quality", "Response Performance"},
		Datasets: []Dataset{{
			Data:             []float64{m.DetectionAccuracy, m.SystemUptime, m.DataQualityScore, 100 - m.FalseAlarmRate},
			BackgroundColors: []string{Color(0), Color(1), Color(2), Color(4)},
		}},
		LegendPosition: "bottom",
	}
}

func buoyConfig(title, xTitle string, labels []string, datasets []Dataset) Config {
	return Config{
		Kind:     KindLine,
		Title:    title,
		Labels:   labels,
		Datasets: datasets,
		Scales: map[string]Axis{
			"x": {Title: xTitle},
			"y": {Title: "Wave Height (m)", Min: bound(0), Max: bound(5), BeginAtZero: true},
		},
		LegendPosition: "top",
	}
}

func buoyDataset(i int, label string, data []float64) Dataset {
	return Dataset{
		Label:           label,
		Data:            data,
		BorderColor:     Color(i),
		BackgroundColor: tint(Color(i), "20"),
		BorderWidth:     2,
		PointRadius:     3,
		Tension:         0.4,
	}
}

// Buoys charts buoy wave heights. Simulated series get the simulated title.
func Buoys(series []domain.BuoySeries, simulated bool) Config {
	labels, datasets := BuoyDatasets(series)
	if simulated {
		return buoyConfig("Indian Ocean DART Buoy Data (Simulated)", "Time (24h)", labels, datasets)
	}
	return buoyConfig("Real-time Indian Ocean DART Buoy Data", "Time", labels, datasets)
}

// BuoyDatasets converts buoy readings into chart labels and datasets. Buoys
// without readings are skipped; labels come from the first buoy.
func BuoyDatasets(buoys []domain.BuoySeries) ([]string, []Dataset) {
	datasets := make([]Dataset, 0, len(buoys))
	for i, b := range buoys {
		if len(b.Readings) == 0 {
			continue
		}
		data := make([]float64, len(b.Readings))
		for j, r := range b.Readings {
			data[j] = r.WaveHeight
		}
		datasets = append(datasets, buoyDataset(i, b.BuoyID+" - "+b.Name, data))
	}

	labels := []string{}
	if len(buoys) > 0 {
		labels = make([]string, len(buoys[0].Readings))
		for i, r := range buoys[0].Readings {
			labels[i] = r.Timestamp.UTC().Format("15:04")
		}
	}
	return labels, datasets
}

// SimulatedBuoySeries generates 24 hourly readings per buoy ending at now.
func SimulatedBuoySeries(rng domain.Rand, now time.Time, buoys []domain.Buoy) []domain.BuoySeries {
	end := now.UTC()
	out := make([]domain.BuoySeries, len(buoys))
	for i, b := range buoys {
		heights := domain.WaveSeries(rng, b.WaveHeight, 24)
		readings := make([]domain.BuoyReading, len(heights))
		for j, h := range heights {
			readings[j] = domain.BuoyReading{Timestamp: end.Add(-time.Duration(23-j) * time.Hour), WaveHeight: h}
		}
		current := b.WaveHeight
		out[i] = domain.BuoySeries{
			BuoyID:            b.ID,
			Name:              b.Name,
			Status:            "active",
			CurrentWaveHeight: &current,
			Readings:          readings,
		}
	}
	return out
}

// SurgeForecastPoints is the number of two-hour forecast steps.
const SurgeForecastPoints = 12

// StormSurge plots per-region surge forecasts.
func StormSurge(labels []string, regions []domain.SurgeForecastRegion) Config {
	return Config{
		Kind:     KindLine,
		Title:    "Indian Ocean Storm Surge Forecast",
		Labels:   labels,
		Datasets: SurgeDatasets(regions),
		Scales: map[string]Axis{
			"x": {Title: "Time (12h forecast)"},
			"y": {Title: "Surge Height (m)", Min: bound(0), Max: bound(5)},
		},
		LegendPosition: "top",
	}
}

// SurgeDatasets converts surge regions into chart datasets.
func SurgeDatasets(regions []domain.SurgeForecastRegion) []Dataset {
	datasets := make([]Dataset, len(regions))
	for i, r := range regions {
		datasets[i] = Dataset{
			Label:           r.Name,
			Data:            r.Data,
			BorderColor:     Color(i),
			BackgroundColor: tint(Color(i), "20"),
			BorderWidth:     2,
			PointRadius:     4,
			Fill:            true,
			Tension:         0.4,
		}
	}
	return datasets
}

// SimulatedSurge generates a forecast for every Indian Ocean region with
// labels every two hours ending at now, plus the derived alerts.
func SimulatedSurge(rng domain.Rand, now time.Time) domain.SurgeForecast {
	f := domain.SurgeForecast{
		TimeLabels: domain.SurgeTimeLabels(now.UTC(), SurgeForecastPoints, 2*time.Hour),
		Regions:    make([]domain.SurgeForecastRegion, len(domain.IndianOceanSurgeRegions)),
		Alerts:     make([]domain.SurgeAlert, len(domain.IndianOceanSurgeRegions)),
	}
	for i, r := range domain.IndianOceanSurgeRegions {
		data := domain.SurgeSeries(rng, r.Base, SurgeForecastPoints)
		f.Regions[i] = domain.SurgeForecastRegion{Name: r.Name, Data: data}
		f.Alerts[i] = domain.NewSurgeAlert(r.Name, data)
	}
	return f
}

// Seismic plots magnitude against tsunami risk per plate.
func Seismic(plates []domain.SeismicPlate) Config {
	return Config{
		Kind:     KindScatter,
		Title:    "Indian Ocean Seismic Activity vs Tsunami Risk",
		Datasets: SeismicDatasets(plates),
		Scales: map[string]Axis{
			"x": {Title: "Magnitude (Richter Scale)", Min: bound(3), Max: bound(9)},
			"y": {Title: "Tsunami Risk Factor", Min: bound(0), Max: bound(10)},
		},
		LegendPosition: "top",
	}
}

// SeismicDatasets converts plate samples into scatter datasets.
func SeismicDatasets(plates []domain.SeismicPlate) []Dataset {
	datasets := make([]Dataset, len(plates))
	for i, p := range plates {
		points := make([]Point, len(p.Data))
		for j, xy := range p.Data {
			points[j] = Point{X: xy.X, Y: xy.Y}
		}
		datasets[i] = Dataset{
			Label:           p.Name,
			Points:          points,
			BorderColor:     Color(i),
			BackgroundColor: tint(Color(i), "99"),
			PointRadius:     6,
		}
	}
	return datasets
}

// SimulatedSeismic generates samples for every known plate.
func SimulatedSeismic(rng domain.Rand) []domain.SeismicPlate {
	plates := make([]domain.SeismicPlate, len(domain.Plates))
	for i, p := range domain.Plates {
		plates[i] = domain.SeismicPlate{Name: string(p), Data: domain.SeismicSeries(rng, p)}
	}
	return plates
}

// AlertDistribution is the monthly alerts-by-type bar chart.
func AlertDistribution() Config {
	return Config{
		Kind:   KindBar,
		Labels: []string{"Tsunami Watch", "Storm Surge", "Seismic Alert", "Maintenance", "Weather Warning"},
		Datasets: []Dataset{{
			Label:            "Alerts This Month",
			Data:             []float64{12, 18, 35, 8, 22},
			BackgroundColors: []string{Color(0), Color(1), Color(2), Color(3), Color(4)},
		}},
		Scales: map[string]Axis{
			"y": {Title: "Number of Alerts", BeginAtZero: true},
		},
		HideLegend: true,
	}
}

// MethodComparison compares detection methods on a radar chart.
func MethodComparison() Config {
	methods := []struct {
		label string
		data  []float64
	}{
		{"DART Buoys", []float64{95, 85, 92, 78, 70}},
		{"Seismic Network", []float64{88, 98, 85, 95, 85}},
		{"Coastal Gauges", []float64{92, 75, 88, 82, 90}},
	}
	datasets := make([]Dataset, len(methods))
	for i, m := range methods {
		datasets[i] = Dataset{
			Label:           m.label,
			Data:            m.data,
			BorderColor:     Color(i),
			BackgroundColor: tint(Color(i), "20"),
			BorderWidth:     2,
		}
	}
	return Config{
		Kind:     KindRadar,
		Labels:   []string{"Accuracy", "Speed", "Reliability", "Coverage", "Cost Efficiency"},
		Datasets: datasets,
		Scales: map[string]Axis{
			"r": {BeginAtZero: true, Max: bound(100)},
		},
	}
}

// SeasonalPatterns plots monthly event counts.
func SeasonalPatterns() Config {
	series := []struct {
		label string
		data  []float64
	}{
		{"Tsunami Events", []float64{2, 1, 3, 2, 4, 3, 5, 8, 6, 4, 2, 3}},
		{"Storm Surge Events", []float64{8, 6, 4, 5, 7, 12, 15, 18, 16, 12, 9, 7}},
	}
	datasets := make([]Dataset, len(series))
	for i, s := range series {
		datasets[i] = Dataset{
			Label:           s.label,
			Data:            s.data,
			BorderColor:     Color(i),
			BackgroundColor: tint(Color(i), "20"),
			BorderWidth:     3,
			Fill:            true,
			Tension:         0.4,
		}
	}
	return Config{
		Kind:     KindLine,
		Labels:   []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		Datasets: datasets,
		Scales: map[string]Axis{
			"y": {Title: "Number of Events", BeginAtZero: true},
		},
	}
}

// StationPerformance plots station data quality against uptime, sized by
// station weight.
func StationPerformance() Config {
	return Config{
		Kind: KindBubble,
		Datasets: []Dataset{{
			Label: "Station Performance",
			Points: []Point{
				{X: 95, Y: 98, R: 15},
				{X: 88, Y: 92, R: 12},
				{X: 92, Y: 95, R: 18},
				{X: 85, Y: 88, R: 10},
				{X: 96, Y: 97, R: 20},
				{X: 89, Y: 91, R: 14},
				{X: 94, Y: 96, R: 16},
			},
			BorderColor:     Color(0),
			BackgroundColor: tint(Color(0), "60"),
			BorderWidth:     2,
		}},
		Scales: map[string]Axis{
			"x": {Title: "Data Quality (%)", Min: bound(80), Max: bound(100)},
			"y": {Title: "Uptime (%)", Min: bound(85), Max: bound(100)},
		},
		HideLegend: true,
	}
}

// riskColors maps risk levels onto the risk panel's colors.
var riskColors = map[string]string{
	"very-high": "#DB4545",
	"high":      "#B4413C",
	"medium":    "#FFC185",
	"low":       "#1FB8CD",
}

// RiskAssessment renders regional risk scores as bars colored by level.
func RiskAssessment(regions []domain.RiskRegion) Config {
	return Config{
		Kind:     KindBar,
		Title:    "Regional Risk Assessment",
		Labels:   RiskLabels(regions),
		Datasets: RiskDatasets(regions),
		Scales: map[string]Axis{
			"y": {Title: "Risk Score", Min: bound(0), Max: bound(10)},
		},
		HideLegend: true,
	}
}

// RiskLabels returns the region names in order.
func RiskLabels(regions []domain.RiskRegion) []string {
	labels := make([]string, len(regions))
	for i, r := range regions {
		labels[i] = r.Region
	}
	return labels
}

// RiskDatasets converts risk rows into a single colored bar dataset.
func RiskDatasets(regions []domain.RiskRegion) []Dataset {
	scores := make([]float64, len(regions))
	colors := make([]string, len(regions))
	for i, r := range regions {
		scores[i] = r.Score
		c, ok := riskColors[r.Level]
		if !ok {
			c = riskColors["low"]
		}
		colors[i] = c
	}
	return []Dataset{{Label: "Risk Score", Data: scores, BackgroundColors: colors}}
}
