package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/navigation"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/submission"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	maxJSONBody = 1 << 20
	// maxFormBody leaves room for the text fields next to the media limit.
	maxFormBody = domain.MaxMediaBytes + maxJSONBody
	// formMemory is how much of a multipart body is held in memory before
	// spilling to temporary files.
	formMemory = 32 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type sectionsResponse struct {
	Current  string   `json:"current"`
	Sections []string `json:"sections"`
}

type formResponse struct {
	Banner    submission.Banner        `json:"banner"`
	Result    *domain.SubmissionResult `json:"result,omitempty"`
	Selection *submission.Selection    `json:"selection,omitempty"`
}

func (s *Server) handleSections(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, sectionsResponse{
		Current:  s.deps.Sections.Current(),
		Sections: navigation.Sections,
	})
}

func (s *Server) handleSwitchSection(w http.ResponseWriter, r *http.Request) {
	// Section timers must outlive this request.
	ctx := context.WithoutCancel(r.Context())
	err := s.deps.Sections.Switch(ctx, r.PathValue("name"))
	switch {
	case errors.Is(err, navigation.ErrUnknownSection):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, navigation.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		s.logger.Error("section switch failed", "section", r.PathValue("name"), "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.handleSections(w, r)
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Map.Snapshot())
}

func (s *Server) handleMapMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Map.SetHeatmapMode(domain.HeatmapMode(body.Mode)))
}

func (s *Server) handleMapFilter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filter string `json:"filter"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Map.SetTimeFilter(domain.TimeFilter(body.Filter)))
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var v hazardmap.Viewport
	if !decodeJSON(w, r, &v) {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Map.SetViewport(v))
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	level := hazardmap.DefaultGridLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid level %q", raw))
			return
		}
		level = n
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Map.Grid(level))
}

func (s *Server) handleCharts(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Charts.List())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.deps.Charts.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no chart on canvas %q", r.PathValue("id")))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, c)
}

// handleAnalyticsRefresh runs the manual refresh. ?target=buoys asks the
// backend to re-fetch buoy data first. Failures are reported but the charts
// keep their last good series.
func (s *Server) handleAnalyticsRefresh(w http.ResponseWriter, r *http.Request) {
	var err error
	if r.URL.Query().Get("target") == "buoys" {
		err = s.deps.Analytics.ManualBuoyRefresh(r.Context())
	} else {
		err = s.deps.Analytics.RefreshAll(r.Context())
	}
	if err != nil {
		s.logger.Warn("manual analytics refresh failed", "error", err)
		s.deps.Map.Notifications().Push(hazardmap.KindError, "Failed to refresh data")
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.deps.Map.Notifications().Push(hazardmap.KindSuccess, "Data refreshed successfully")
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Charts.List())
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Map.Notifications().Active())
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Map.Notifications().Dismiss(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errors.New("notification not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectLocation(w http.ResponseWriter, r *http.Request) {
	var p submission.Point
	if !decodeJSON(w, r, &p) {
		return
	}
	sel, err := s.deps.Forms.SelectLocation(r.Context(), p)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, formResponse{
			Banner: submission.Banner{Level: submission.LevelWarning, Message: submission.MsgInvalidLocation},
		})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, formResponse{
		Banner:    submission.Banner{Level: submission.LevelInfo, Message: sel.Label},
		Selection: &sel,
	})
}

// devicePosition is the browser's geolocation result. Error is set when the
// reporter denied access or the position could not be read.
type devicePosition struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Error string  `json:"error,omitempty"`
}

func (p devicePosition) Locate(context.Context) (submission.Point, error) {
	if p.Error != "" {
		return submission.Point{}, errors.New(p.Error)
	}
	return submission.Point{Lat: p.Lat, Lng: p.Lng}, nil
}

func (s *Server) handleDeviceLocation(w http.ResponseWriter, r *http.Request) {
	var pos devicePosition
	if !decodeJSON(w, r, &pos) {
		return
	}
	sel, banner, err := s.deps.Forms.UseLocation(r.Context(), pos)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, formResponse{Banner: banner})
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, formResponse{Banner: banner, Selection: &sel})
}

func (s *Server) handleClearLocation(w http.ResponseWriter, _ *http.Request) {
	s.deps.Forms.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sharedobs.WriteJSON(w, http.StatusRequestEntityTooLarge, formResponse{
				Banner: submission.Banner{Level: submission.LevelDanger, Message: submission.MsgMediaTooLarge},
			})
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	banner, result, err := s.deps.Forms.Submit(r.Context(), form)
	resp := formResponse{Banner: banner}
	if result != (domain.SubmissionResult{}) {
		resp.Result = &result
	}
	sharedobs.WriteJSON(w, submitStatus(err), resp)
}

func submitStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, submission.ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, submission.ErrLocationRequired),
		errors.Is(err, submission.ErrInvalidLocation),
		errors.Is(err, submission.ErrRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// readForm accepts either a JSON body or the multipart form the report page
// posts, with media files under "media_files".
func readForm(w http.ResponseWriter, r *http.Request) (submission.Form, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var form submission.Form
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return submission.Form{}, fmt.Errorf("decode form: %w", err)
		}
		return form, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		return submission.Form{}, fmt.Errorf("parse form: %w", err)
	}

	form := submission.Form{
		HazardType:    r.FormValue("hazard_type"),
		Severity:      r.FormValue("severity"),
		Description:   r.FormValue("description"),
		ContactNumber: r.FormValue("contact_number"),
		Urgent:        isChecked(r.FormValue("urgent")),
	}
	if lat, lng := r.FormValue("latitude"), r.FormValue("longitude"); lat != "" && lng != "" {
		p, err := parsePoint(lat, lng)
		if err != nil {
			return submission.Form{}, err
		}
		form.Location = &p
	}

	for _, fh := range r.MultipartForm.File["media_files"] {
		f, err := fh.Open()
		if err != nil {
			return submission.Form{}, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return submission.Form{}, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		form.Media = append(form.Media, domain.MediaFile{Name: fh.Filename, Data: data})
	}
	return form, nil
}

func parsePoint(lat, lng string) (submission.Point, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return submission.Point{}, fmt.Errorf("invalid latitude %q", lat)
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return submission.Point{}, fmt.Errorf("invalid longitude %q", lng)
	}
	return submission.Point{Lat: la, Lng: ln}, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}
