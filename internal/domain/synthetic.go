package domain

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Rand is the subset of *rand.Rand (math/rand/v2) the generators use.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// SyncRand makes r safe for use from several goroutines.
func SyncRand(r Rand) Rand {
	return &syncRand{r: r}
}

type syncRand struct {
	mu sync.Mutex
	r  Rand
}

func (s *syncRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *syncRand) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// XY is a scatter-plot point.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Buoy describes a DART buoy used for synthetic wave series.
type Buoy struct {
	ID         string  `json:"buoy_id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	WaveHeight float64 `json:"current_wave_height"`
}

// IndianOceanBuoys are the buoys charted when no live buoy data is available.
var IndianOceanBuoys = []Buoy{
	{ID: "23001", Name: "Arabian Sea", Lat: 17.35, Lon: 68.13, WaveHeight: 2.1},
	{ID: "23101", Name: "Arabian Sea North", Lat: 15.00, Lon: 61.50, WaveHeight: 1.8},
	{ID: "23007", Name: "Lakshadweep Sea", Lat: 13.07, Lon: 74.00, WaveHeight: 2.5},
	{ID: "46002", Name: "Indian Ocean", Lat: -17.75, Lon: 63.45, WaveHeight: 3.2},
}

// WaveSeries generates points wave heights around base with a 12-step
// periodic swell and uniform noise of ±0.25 m. Heights never go below zero.
func WaveSeries(rng Rand, base float64, points int) []float64 {
	data := make([]float64, points)
	for i := range data {
		variation := (rng.Float64() - 0.5) * 0.5
		periodic := math.Sin(float64(i)*math.Pi/6) * 0.3
		data[i] = math.Max(0, base+variation+periodic)
	}
	return data
}

// SurgeSeries generates storm surge heights combining a tidal and a storm
// component with ±0.2 m noise, rounded to centimetres.
func SurgeSeries(rng Rand, base float64, points int) []float64 {
	data := make([]float64, points)
	for i := range data {
		tidal := math.Sin(float64(i)*0.5) * 0.3
		storm := math.Sin(float64(i)*0.2) * 0.8
		noise := (rng.Float64() - 0.5) * 0.4
		data[i] = round(math.Max(0, base+tidal+storm+noise), 2)
	}
	return data
}

// SurgeRegion is a named coastal region with its surge baseline.
type SurgeRegion struct {
	Name string
	Base float64
}

// IndianOceanSurgeRegions are the regions of the surge forecast chart.
var IndianOceanSurgeRegions = []SurgeRegion{
	{Name: "Arabian Sea Coast", Base: 2.1},
	{Name: "Bay of Bengal", Base: 3.2},
	{Name: "Maldives Region", Base: 1.8},
	{Name: "Sri Lanka Coast", Base: 2.7},
}

// SurgeTimeLabels returns count HH:MM labels spaced step apart, ending at now.
func SurgeTimeLabels(now time.Time, count int, step time.Duration) []string {
	labels := make([]string, count)
	for i := range labels {
		t := now.Add(-time.Duration(count-1-i) * step)
		labels[i] = t.Format("15:04")
	}
	return labels
}

// SurgeAlert summarizes the expected peak surge of a region.
type SurgeAlert struct {
	Location string `json:"location"`
	Height   string `json:"height"`
	Level    string `json:"level"`
}

// SurgeLevel classifies a peak surge height in metres.
func SurgeLevel(maxSurge float64) string {
	switch {
	case maxSurge > 3.0:
		return "high"
	case maxSurge > 2.5:
		return "medium"
	default:
		return "low"
	}
}

// NewSurgeAlert builds the alert for a region's forecast series.
func NewSurgeAlert(region string, series []float64) SurgeAlert {
	peak := 0.0
	for _, v := range series {
		peak = math.Max(peak, v)
	}
	return SurgeAlert{
		Location: region,
		Height:   fmt.Sprintf("%.1fm surge expected", peak),
		Level:    SurgeLevel(peak),
	}
}

// FallbackSurgeAlerts are shown when the surge endpoint is unavailable.
var FallbackSurgeAlerts = []SurgeAlert{
	{Location: "Bay of Bengal", Height: "3.4m surge expected", Level: "high"},
	{Location: "Arabian Sea Coast", Height: "2.1m surge expected", Level: "medium"},
	{Location: "Maldives Region", Height: "1.9m surge expected", Level: "low"},
}

// Plate identifies a tectonic plate profile for seismic generation.
type Plate string

const (
	PlateIndoAustralian Plate = "Indo-Australian Plate"
	PlateEurasian       Plate = "Eurasian Plate"
	PlateBurma          Plate = "Burma Plate"
)

type plateProfile struct {
	count     int
	magBase   float64
	magSpread float64
	threshold float64
	highBase  float64
	highRange float64
	lowBase   float64
	lowRange  float64
}

var plateProfiles = map[Plate]plateProfile{
	// Subduction zones: higher tsunami risk.
	PlateIndoAustralian: {count: 15, magBase: 4, magSpread: 4.5, threshold: 7, highBase: 6, highRange: 3, lowBase: 2, lowRange: 4},
	PlateEurasian:       {count: 12, magBase: 3.5, magSpread: 4, threshold: 6.5, highBase: 4, highRange: 3, lowBase: 1, lowRange: 3},
	PlateBurma:          {count: 10, magBase: 4.2, magSpread: 3.8, threshold: 7.2, highBase: 7, highRange: 2.5, lowBase: 2.5, lowRange: 3.5},
}

// Plates lists the plates in chart order.
var Plates = []Plate{PlateIndoAustralian, PlateEurasian, PlateBurma}

// SeismicSeries generates magnitude (x) against tsunami risk (y) points for
// a plate. Unknown plates yield no points.
func SeismicSeries(rng Rand, plate Plate) []XY {
	p, ok := plateProfiles[plate]
	if !ok {
		return nil
	}
	data := make([]XY, p.count)
	for i := range data {
		magnitude := p.magBase + rng.Float64()*p.magSpread
		var risk float64
		if magnitude > p.threshold {
			risk = p.highBase + rng.Float64()*p.highRange
		} else {
			risk = p.lowBase + rng.Float64()*p.lowRange
		}
		data[i] = XY{X: round(magnitude, 1), Y: round(risk, 1)}
	}
	return data
}

// RiskRegion is one row of the regional risk assessment.
type RiskRegion struct {
	Region string  `json:"region"`
	Score  float64 `json:"score"`
	Level  string  `json:"level"`
}

// RiskLevel classifies a 0-10 risk score.
func RiskLevel(score float64) string {
	switch {
	case score >= 8.5:
		return "very-high"
	case score >= 7.5:
		return "high"
	case score >= 6.0:
		return "medium"
	default:
		return "low"
	}
}

type riskBaseline struct {
	region string
	base   float64
	lo, hi float64
}

var riskBaselines = []riskBaseline{
	{region: "Sumatra Coast", base: 8.5, lo: -0.5, hi: 0.5},
	{region: "Andaman Islands", base: 8.0, lo: -0.3, hi: 0.4},
	{region: "Sri Lanka Coast", base: 7.2, lo: -0.4, hi: 0.6},
	{region: "Maldives", base: 6.8, lo: -0.3, hi: 0.4},
	{region: "Indian West Coast", base: 6.0, lo: -0.4, hi: 0.6},
	{region: "Bangladesh Coast", base: 7.6, lo: -0.4, hi: 0.5},
}

// SimulatedRiskAssessment jitters each region's baseline score and derives
// its level from the result.
func SimulatedRiskAssessment(rng Rand) []RiskRegion {
	regions := make([]RiskRegion, len(riskBaselines))
	for i, b := range riskBaselines {
		score := round(b.base+b.lo+rng.Float64()*(b.hi-b.lo), 1)
		regions[i] = RiskRegion{Region: b.region, Score: score, Level: RiskLevel(score)}
	}
	return regions
}

// FallbackRiskAssessment is shown when the risk endpoint is unavailable.
var FallbackRiskAssessment = []RiskRegion{
	{Region: "Sumatra Coast", Score: 8.7, Level: "very-high"},
	{Region: "Andaman Islands", Score: 8.2, Level: "high"},
	{Region: "Sri Lanka Coast", Score: 7.4, Level: "high"},
	{Region: "Maldives", Score: 6.9, Level: "medium"},
	{Region: "Indian West Coast", Score: 6.2, Level: "medium"},
	{Region: "Bangladesh Coast", Score: 7.8, Level: "high"},
}

var (
	simHazardTypes  = []string{"High Waves", "Storm Surge", "Tsunami Warning", "Coastal Flooding", "Abnormal Tides", "Coastal Erosion"}
	simLocations    = []string{"Mumbai Coast", "Chennai Coast", "Goa Coast", "Kolkata Coast", "Visakhapatnam Coast", "Kochi Coast"}
	simSeverities   = []Severity{SeverityLow, SeverityModerate, SeverityHigh}
	simDescriptions = []string{
		"Normal ocean conditions",
		"Slight anomaly detected",
		"Moderate changes observed",
		"Significant variation noted",
		"Critical levels reached",
	}
)

// RandomReport generates a live-update report inside the Indian coastal
// bounding box (lat 8-33, lng 70-105) stamped at now.
func RandomReport(rng Rand, now time.Time) HazardReport {
	r := HazardReport{
		Lat:           8 + rng.Float64()*25,
		Lng:           70 + rng.Float64()*35,
		HazardType:    simHazardTypes[rng.IntN(len(simHazardTypes))],
		Severity:      simSeverities[rng.IntN(len(simSeverities))],
		SeverityScore: rng.IntN(10) + 1,
		ReportCount:   rng.IntN(20) + 1,
		Time:          now,
		Location:      simLocations[rng.IntN(len(simLocations))],
		Description:   simDescriptions[rng.IntN(len(simDescriptions))],
		Status:        "simulated",
	}
	r.ID = generateID(r.HazardType, r.Lat, r.Lng, r.Time)
	return r
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
