package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always draws the same value.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) IntN(n int) int   { return min(r.n, n-1) }

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func TestWaveSeries(t *testing.T) {
	data := WaveSeries(seeded(), 2.1, 24)
	require.Len(t, data, 24)
	for _, v := range data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.InDelta(t, 2.1, v, 0.55)
	}

	// No noise at the midpoint draw, so index 3 sits on the swell crest.
	mid := WaveSeries(fixedRand{f: 0.5}, 2.0, 4)
	assert.InDelta(t, 2.3, mid[3], 1e-9)
}

func TestWaveSeries_NeverNegative(t *testing.T) {
	for _, v := range WaveSeries(fixedRand{f: 0}, 0.1, 24) {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestSurgeSeries(t *testing.T) {
	data := SurgeSeries(fixedRand{f: 0.5}, 3.2, 12)
	require.Len(t, data, 12)
	assert.InDelta(t, 3.2, data[0], 1e-9)
	for _, v := range data {
		assert.Equal(t, round(v, 2), v)
	}
}

func TestSurgeTimeLabels(t *testing.T) {
	now := time.Date(2025, time.September, 10, 22, 0, 0, 0, time.UTC)
	labels := SurgeTimeLabels(now, 12, 2*time.Hour)
	require.Len(t, labels, 12)
	assert.Equal(t, "00:00", labels[0])
	assert.Equal(t, "22:00", labels[11])
}

func TestSurgeLevelAndAlert(t *testing.T) {
	assert.Equal(t, "high", SurgeLevel(3.4))
	assert.Equal(t, "medium", SurgeLevel(2.7))
	assert.Equal(t, "low", SurgeLevel(2.5))

	alert := NewSurgeAlert("Bay of Bengal", []float64{2.9, 3.41, 3.1})
	assert.Equal(t, SurgeAlert{Location: "Bay of Bengal", Height: "3.4m surge expected", Level: "high"}, alert)
}

func TestSeismicSeries(t *testing.T) {
	counts := map[Plate]int{PlateIndoAustralian: 15, PlateEurasian: 12, PlateBurma: 10}
	for plate, want := range counts {
		points := SeismicSeries(seeded(), plate)
		assert.Len(t, points, want, plate)
		for _, p := range points {
			assert.GreaterOrEqual(t, p.X, 3.5)
			assert.LessOrEqual(t, p.X, 8.5)
			assert.GreaterOrEqual(t, p.Y, 1.0)
			assert.LessOrEqual(t, p.Y, 9.5)
		}
	}
	assert.Nil(t, SeismicSeries(seeded(), Plate("Pacific Plate")))
}

func TestSeismicSeries_HighMagnitudeRaisesRisk(t *testing.T) {
	// Float64 of 1.0 gives magnitude 8.5, above the 7.0 threshold.
	points := SeismicSeries(fixedRand{f: 1}, PlateIndoAustralian)
	assert.Equal(t, XY{X: 8.5, Y: 9}, points[0])
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, "very-high", RiskLevel(8.5))
	assert.Equal(t, "high", RiskLevel(7.5))
	assert.Equal(t, "medium", RiskLevel(6.0))
	assert.Equal(t, "low", RiskLevel(5.9))
}

func TestSimulatedRiskAssessment(t *testing.T) {
	regions := SimulatedRiskAssessment(seeded())
	require.Len(t, regions, 6)
	for i, r := range regions {
		b := riskBaselines[i]
		assert.Equal(t, b.region, r.Region)
		assert.GreaterOrEqual(t, r.Score, round(b.base+b.lo, 1))
		assert.LessOrEqual(t, r.Score, round(b.base+b.hi, 1))
		assert.Equal(t, RiskLevel(r.Score), r.Level)
	}
}

func TestFallbackRiskAssessment_MatchesRegions(t *testing.T) {
	require.Len(t, FallbackRiskAssessment, len(riskBaselines))
	for i, r := range FallbackRiskAssessment {
		assert.Equal(t, riskBaselines[i].region, r.Region)
	}
}

func TestRandomReport(t *testing.T) {
	rng := seeded()
	for range 50 {
		r := RandomReport(rng, refNow)
		assert.GreaterOrEqual(t, r.Lat, 8.0)
		assert.LessOrEqual(t, r.Lat, 33.0)
		assert.GreaterOrEqual(t, r.Lng, 70.0)
		assert.LessOrEqual(t, r.Lng, 105.0)
		assert.GreaterOrEqual(t, r.SeverityScore, 1)
		assert.LessOrEqual(t, r.SeverityScore, 10)
		assert.GreaterOrEqual(t, r.ReportCount, 1)
		assert.LessOrEqual(t, r.ReportCount, 20)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, refNow, r.Time)
	}
}
