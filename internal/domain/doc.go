// Package domain models coastal hazard reports and the pure computations the
// dashboard derives from them.
//
// # Hazard Reports
//
// A report is a single user- or sensor-originated observation of a coastal
// hazard (high waves, storm surge, tsunami warning, coastal flooding, unusual
// tides, coastal erosion). Reports arrive from three places:
//
//   - the backend map-data endpoint (GET /api/map-data/), loaded once at start
//   - the live feed (Kafka topic "hazard-reports"), appended as they arrive
//   - the in-process simulator, used for demos when no feed is configured
//
// Reports are never edited or deleted. Duplicates are kept.
//
// # Severity Taxonomy
//
// Upstream sources disagree on severity labels: the citizen-report form uses
// low/moderate/high/critical while the satellite hazard model and the
// simulator use low/medium/high. The canonical enum is
//
//	low | moderate | high | critical
//
// and "medium" is accepted as an alias of "moderate". Anything else parses to
// [SeverityUnknown], which is kept on the report but counts towards no bucket
// in [ComputeSummaryStats].
//
// # Heatmap Intensity
//
// Intensity is a value in [0,1] computed per report by [ComputeIntensity]:
//
//	density:  reportCount / max(reportCount) over the filtered set
//	          (absent counts treated as 1)
//	severity: severityScore / 10 when a score is present, otherwise a
//	          fixed weight: low 0.3 | moderate 0.6 | high 1.0 | critical 1.0,
//	          unknown 0.5
//	time:     linear decay over 7 days with a floor of 0.1:
//	          max(0.1, min(1, 1 - hoursAgo/168)); future or "now" reports = 1
//
// Each mode reads only its own attribute. A report carrying both a count and
// a score uses the count in density mode and the score in severity mode.
//
// # Time Windows
//
// [TimeFilter] selects a rolling lookback window (1h, 6h, 24h, 7d, 30d). A
// report is visible when its timestamp is at or after now-window.
package domain
