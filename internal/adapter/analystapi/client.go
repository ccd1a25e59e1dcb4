// Package analystapi is a client for the analyst backend's REST endpoints.
package analystapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
)

// Endpoint paths, relative to the backend base URL.
const (
	PathBuoyData       = "/ana/api/buoy-data/"
	PathRefreshData    = "/ana/api/refresh-data/"
	PathStormSurge     = "/ana/api/storm-surge-data/"
	PathSeismic        = "/ana/api/seismic-data/"
	PathRiskAssessment = "/ana/api/risk-assessment/"
	PathMapData        = "/api/map-data/"
	PathDashboardStats = "/api/dashboard-stats/"
	PathSubmitReport   = "/reports/submit/"
	PathEndSession     = "/api/end-session/"
)

// minCSRFTokenLen is the shortest token worth sending; shorter or empty
// tokens omit the header.
const minCSRFTokenLen = 11

var (
	// ErrUnsuccessful is returned when the backend answers success=false.
	ErrUnsuccessful = errors.New("analyst API reported failure")
	// ErrMalformed is returned when a response lacks its expected payload.
	ErrMalformed = errors.New("malformed analyst API response")
)

// Client calls the analyst backend.
type Client struct {
	baseURL    string
	csrfToken  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a backend client. csrfToken may be empty.
func NewClient(baseURL, csrfToken string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		csrfToken: csrfToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// BuoyData fetches the last day of readings for every buoy.
func (c *Client) BuoyData(ctx context.Context) ([]domain.BuoySeries, error) {
	var resp buoyResponse
	if err := c.getJSON(ctx, "buoy_data", PathBuoyData, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("buoy data: %w: %s", ErrUnsuccessful, resp.Error)
	}

	buoys := make([]domain.BuoySeries, len(resp.Buoys))
	for i, b := range resp.Buoys {
		readings := make([]domain.BuoyReading, 0, len(b.ChartData))
		for _, r := range b.ChartData {
			ts, err := domain.ParseReportTime(r.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("buoy %s: %w: %w", b.BuoyID, ErrMalformed, err)
			}
			var h float64
			if r.WaveHeight != nil {
				h = *r.WaveHeight
			}
			readings = append(readings, domain.BuoyReading{Timestamp: ts, WaveHeight: h})
		}
		buoys[i] = domain.BuoySeries{
			BuoyID:            b.BuoyID,
			Name:              b.Name,
			Status:            b.Status,
			CurrentWaveHeight: b.CurrentWaveHeight,
			Readings:          readings,
		}
	}
	return buoys, nil
}

// RefreshData asks the backend to pull fresh buoy readings.
func (c *Client) RefreshData(ctx context.Context) error {
	var resp statusResponse
	if err := c.postJSON(ctx, "refresh_data", PathRefreshData, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("refresh data: %w: %s", ErrUnsuccessful, resp.Error)
	}
	return nil
}

// StormSurge fetches the per-region surge forecast.
func (c *Client) StormSurge(ctx context.Context) (domain.SurgeForecast, error) {
	var resp surgeResponse
	if err := c.getJSON(ctx, "storm_surge", PathStormSurge, nil, &resp); err != nil {
		return domain.SurgeForecast{}, err
	}
	if resp.Success != nil && !*resp.Success {
		return domain.SurgeForecast{}, fmt.Errorf("storm surge: %w: %s", ErrUnsuccessful, resp.Error)
	}
	if resp.Regions == nil {
		return domain.SurgeForecast{}, fmt.Errorf("storm surge: %w: missing regions", ErrMalformed)
	}

	f := domain.SurgeForecast{
		TimeLabels: resp.TimeLabels,
		Regions:    make([]domain.SurgeForecastRegion, len(resp.Regions)),
	}
	for i, r := range resp.Regions {
		f.Regions[i] = domain.SurgeForecastRegion{Name: r.Name, Data: r.SurgeData}
	}
	if resp.Alerts != nil {
		f.Alerts = resp.Alerts
	} else {
		f.Alerts = make([]domain.SurgeAlert, len(f.Regions))
		for i, r := range f.Regions {
			f.Alerts[i] = domain.NewSurgeAlert(r.Name, r.Data)
		}
	}
	return f, nil
}

// Seismic fetches magnitude/risk samples per tectonic plate.
func (c *Client) Seismic(ctx context.Context) ([]domain.SeismicPlate, error) {
	var resp seismicResponse
	if err := c.getJSON(ctx, "seismic", PathSeismic, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("seismic: %w: %s", ErrUnsuccessful, resp.Error)
	}
	if resp.Plates == nil {
		return nil, fmt.Errorf("seismic: %w: missing plates", ErrMalformed)
	}

	plates := make([]domain.SeismicPlate, len(resp.Plates))
	for i, p := range resp.Plates {
		plates[i] = domain.SeismicPlate{Name: p.Name, Data: p.SeismicData}
	}
	return plates, nil
}

// RiskAssessment fetches the regional risk scores.
func (c *Client) RiskAssessment(ctx context.Context) ([]domain.RiskRegion, error) {
	var resp riskResponse
	if err := c.getJSON(ctx, "risk_assessment", PathRiskAssessment, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Success != nil && !*resp.Success {
		return nil, fmt.Errorf("risk assessment: %w: %s", ErrUnsuccessful, resp.Error)
	}
	if resp.Regions == nil {
		return nil, fmt.Errorf("risk assessment: %w: missing regions", ErrMalformed)
	}
	return resp.Regions, nil
}

// MapQuery filters the map-data endpoint. Empty fields mean "all".
type MapQuery struct {
	TimeFilter string
	HazardType string
	Severity   string
}

func (q MapQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" && val != "all" {
			v.Set(key, val)
		}
	}
	set("time_filter", q.TimeFilter)
	set("hazard_type", q.HazardType)
	set("severity", q.Severity)
	return v
}

// MapData fetches hazard reports for the map.
func (c *Client) MapData(ctx context.Context, q MapQuery) ([]domain.HazardReport, error) {
	var resp mapDataResponse
	if err := c.getJSON(ctx, "map_data", PathMapData, q.values(), &resp); err != nil {
		return nil, err
	}
	if resp.Reports == nil {
		return nil, fmt.Errorf("map data: %w: missing reports", ErrMalformed)
	}

	reports := make([]domain.HazardReport, 0, len(resp.Reports))
	for _, r := range resp.Reports {
		created, err := domain.ParseReportTime(r.CreatedAt)
		if err != nil {
			c.logger.Warn("skipping map report with bad timestamp", "id", r.ID, "error", err)
			continue
		}
		reports = append(reports, domain.FromWire(domain.WireReport{
			ID:          r.ID,
			Lat:         r.Lat,
			Lng:         r.Lng,
			HazardType:  r.HazardType,
			Severity:    r.Severity,
			Description: r.Description,
			Status:      r.Status,
			Reporter:    r.Reporter,
			Urgent:      r.Urgent,
		}, created))
	}
	return reports, nil
}

// ReportSource adapts MapData to a domain.ReportSource.
func (c *Client) ReportSource(q MapQuery) domain.ReportSource {
	return domain.ReportSourceFunc(func(ctx context.Context) ([]domain.HazardReport, error) {
		return c.MapData(ctx, q)
	})
}

// DashboardStats fetches report counters. Reporter and analyst accounts use
// different key names; both are accepted.
func (c *Client) DashboardStats(ctx context.Context) (domain.ReportStats, error) {
	var w statsResponse
	if err := c.getJSON(ctx, "dashboard_stats", PathDashboardStats, nil, &w); err != nil {
		return domain.ReportStats{}, err
	}
	return domain.ReportStats{
		TotalReports:    w.TotalReports,
		ThisMonth:       w.ThisMonth,
		TodayReports:    max(w.TodayReports, w.Today),
		CriticalReports: max(w.CriticalReports, w.Critical),
		PendingReports:  max(w.PendingReports, w.Pending),
		VerifiedReports: w.Verified,
		UrgentReports:   w.Urgent,
		ApprovalRate:    w.ApprovalRate,
	}, nil
}

// SubmitHazardReport posts the report form as multipart data. A decoded
// backend rejection is returned as an unsuccessful result, not an error.
func (c *Client) SubmitHazardReport(ctx context.Context, s domain.HazardSubmission) (domain.SubmissionResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"hazard_type", s.HazardType},
		{"severity", string(s.Severity)},
		{"description", s.Description},
		{"latitude", strconv.FormatFloat(s.Lat, 'f', 6, 64)},
		{"longitude", strconv.FormatFloat(s.Lng, 'f', 6, 64)},
		{"contact_number", s.ContactNumber},
	}
	if s.Urgent {
		fields = append(fields, [2]string{"urgent", "on"})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	for _, m := range s.Media {
		part, err := mw.CreateFormFile("media_files", m.Name)
		if err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("attach %s: %w", m.Name, err)
		}
		if _, err := part.Write(m.Data); err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("attach %s: %w", m.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, PathSubmitReport, nil, &buf)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.send(req, "submit_report")
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	defer resp.Body.Close()

	var result domain.SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("decode submit response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		result.Success = false
	}
	return result, nil
}

// EndSession notifies the backend that the dashboard is going away. The
// response body is ignored.
func (c *Client) EndSession(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, PathEndSession, nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.send(req, "end_session")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if method == http.MethodPost && len(c.csrfToken) >= minCSRFTokenLen {
		req.Header.Set("X-CSRFToken", c.csrfToken)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, endpoint string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, endpoint, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, strings.NewReader("{}"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, endpoint, out)
}

func (c *Client) doJSON(req *http.Request, endpoint string, out any) error {
	resp, err := c.send(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("analyst API error: %s: status %d: %s", endpoint, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w: %w", endpoint, ErrMalformed, err)
	}
	return nil
}
