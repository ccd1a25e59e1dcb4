// Package submission handles the hazard report form: choosing a location,
// checking the input and forwarding it to the analyst backend.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Banner messages shown to the reporter.
const (
	MsgLocationRequired    = `Please select a location on the map or use "Use My Location" button.`
	MsgLocationUnavailable = "Unable to get your location. Please select manually on the map."
	MsgNetworkError        = "Network error. Please check your connection and try again."
	MsgSubmitFailed        = "An error occurred while submitting the report."
	MsgMediaTooLarge       = "Total file size exceeds 50MB limit. Please select smaller files."
	MsgInvalidLocation     = "Selected location is outside the valid coordinate range."
)

var (
	// ErrLocationUnavailable is returned when the device position cannot be
	// read. The reporter must pick a point on the map instead.
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrLocationRequired    = errors.New("location required")
	ErrInvalidLocation     = errors.New("location out of range")
	ErrMediaTooLarge       = errors.New("media exceeds size limit")
	ErrRejected            = errors.New("submission rejected")
)

// coordinatePlaces matches the precision the backend stores.
const coordinatePlaces = 8

// Level selects banner styling.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelInfo    Level = "info"
)

// Banner is the user-facing outcome of a form action.
type Banner struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Point is a chosen report location.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Selection is the location currently chosen on the form.
type Selection struct {
	Point Point  `json:"point"`
	Label string `json:"label"`
}

// Locator reads the device position.
type Locator interface {
	Locate(ctx context.Context) (Point, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (Point, error) { return f(ctx) }

// Submitter forwards a completed form to the backend.
type Submitter interface {
	SubmitHazardReport(ctx context.Context, s domain.HazardSubmission) (domain.SubmissionResult, error)
}

// Form is the report form input. A nil Location uses the current selection.
type Form struct {
	HazardType    string             `json:"hazard_type"`
	Severity      string             `json:"severity"`
	Description   string             `json:"description"`
	Location      *Point             `json:"location,omitempty"`
	ContactNumber string             `json:"contact_number"`
	Urgent        bool               `json:"urgent"`
	Media         []domain.MediaFile `json:"-"`
}

// Options configures a Service. Locator, Geocoder, Sink and OnSubmitted are
// optional.
type Options struct {
	Submitter   Submitter
	Locator     Locator
	Geocoder    domain.Geocoder
	Sink        hazardmap.ReportSink
	Clock       clockwork.Clock
	Logger      *slog.Logger
	OnSubmitted func(ctx context.Context)
}

// Service holds the form's selected location and submits reports.
type Service struct {
	opts Options

	mu       sync.Mutex
	selected *Selection
}

// NewService creates a form service with no location selected.
func NewService(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{opts: opts}
}

// Selected returns the current selection, if any.
func (s *Service) Selected() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Selection{}, false
	}
	return *s.selected, true
}

// SelectLocation records a point picked on the map. The label starts as the
// coordinates and is replaced by the reverse-geocoded place name when one is
// found.
func (s *Service) SelectLocation(ctx context.Context, p Point) (Selection, error) {
	if !validPoint(p) {
		return Selection{}, ErrInvalidLocation
	}
	p = Point{Lat: roundTo(p.Lat, coordinatePlaces), Lng: roundTo(p.Lng, coordinatePlaces)}
	sel := Selection{Point: p, Label: fmt.Sprintf("Lat: %.6f, Lng: %.6f", p.Lat, p.Lng)}

	if s.opts.Geocoder != nil {
		result, err := s.opts.Geocoder.ReverseGeocode(ctx, p.Lat, p.Lng)
		switch {
		case err != nil:
			s.opts.Logger.Debug("reverse geocoding failed", "lat", p.Lat, "lng", p.Lng, "error", err)
		case result.DisplayName != "":
			sel.Label = result.DisplayName
		}
	}

	s.mu.Lock()
	s.selected = &sel
	s.mu.Unlock()
	return sel, nil
}

// UseMyLocation selects the device position. When it cannot be read the
// selection is unchanged and a warning banner asks for manual input.
func (s *Service) UseMyLocation(ctx context.Context) (Selection, Banner, error) {
	return s.UseLocation(ctx, s.opts.Locator)
}

// UseLocation is UseMyLocation with an explicit locator, for callers that
// receive the device position per request.
func (s *Service) UseLocation(ctx context.Context, locator Locator) (Selection, Banner, error) {
	if locator == nil {
		return Selection{}, Banner{Level: LevelWarning, Message: MsgLocationUnavailable}, ErrLocationUnavailable
	}
	p, err := locator.Locate(ctx)
	if err != nil {
		s.opts.Logger.Info("geolocation unavailable", "error", err)
		return Selection{}, Banner{Level: LevelWarning, Message: MsgLocationUnavailable},
			fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}
	sel, err := s.SelectLocation(ctx, p)
	if err != nil {
		return Selection{}, Banner{Level: LevelWarning, Message: MsgLocationUnavailable},
			fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}
	return sel, Banner{Level: LevelInfo, Message: sel.Label}, nil
}

// ClearSelection forgets the chosen location.
func (s *Service) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

// Submit validates the form and sends it to the backend. The banner is
// always set; the error tells callers which check failed. A successful
// submission clears the selection and places the report on the map.
func (s *Service) Submit(ctx context.Context, form Form) (Banner, domain.SubmissionResult, error) {
	sel, err := s.resolveLocation(ctx, form.Location)
	if err != nil {
		if errors.Is(err, ErrInvalidLocation) {
			return Banner{Level: LevelWarning, Message: MsgInvalidLocation}, domain.SubmissionResult{}, err
		}
		return Banner{Level: LevelWarning, Message: MsgLocationRequired}, domain.SubmissionResult{}, err
	}

	sub := domain.HazardSubmission{
		HazardType:    form.HazardType,
		Severity:      domain.ParseSeverity(form.Severity),
		Description:   form.Description,
		Lat:           sel.Point.Lat,
		Lng:           sel.Point.Lng,
		ContactNumber: form.ContactNumber,
		Urgent:        form.Urgent,
		Media:         form.Media,
	}
	if sub.MediaSize() > domain.MaxMediaBytes {
		return Banner{Level: LevelDanger, Message: MsgMediaTooLarge}, domain.SubmissionResult{}, ErrMediaTooLarge
	}

	result, err := s.opts.Submitter.SubmitHazardReport(ctx, sub)
	if err != nil {
		s.opts.Logger.Error("hazard report submission failed", "error", err)
		return Banner{Level: LevelDanger, Message: MsgNetworkError}, domain.SubmissionResult{}, fmt.Errorf("submit hazard report: %w", err)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = MsgSubmitFailed
		}
		s.opts.Logger.Warn("hazard report rejected", "error", msg)
		return Banner{Level: LevelDanger, Message: msg}, result, fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	s.opts.Logger.Info("hazard report submitted",
		"report_id", result.ReportID,
		"hazard_type", sub.HazardType,
		"severity", sub.Severity,
		"urgent", sub.Urgent,
	)
	s.ClearSelection()
	if s.opts.Sink != nil {
		s.opts.Sink.AddReports("submission", s.toReport(sub, sel.Label, result.ReportID))
	}
	if s.opts.OnSubmitted != nil {
		s.opts.OnSubmitted(ctx)
	}
	return Banner{Level: LevelSuccess, Message: result.Message}, result, nil
}

func (s *Service) resolveLocation(ctx context.Context, p *Point) (Selection, error) {
	if p != nil {
		return s.SelectLocation(ctx, *p)
	}
	sel, ok := s.Selected()
	if !ok {
		return Selection{}, ErrLocationRequired
	}
	return sel, nil
}

// toReport builds the local copy of a submitted report. Without a backend ID
// it gets a random one so identical submissions stay distinct once stored.
func (s *Service) toReport(sub domain.HazardSubmission, label, id string) domain.HazardReport {
	if id == "" {
		id = "sub-" + uuid.NewString()
	}
	return domain.HazardReport{
		ID:          id,
		Lat:         sub.Lat,
		Lng:         sub.Lng,
		HazardType:  domain.HazardLabel(sub.HazardType),
		Severity:    sub.Severity,
		Time:        s.opts.Clock.Now(),
		Location:    label,
		Description: sub.Description,
		Status:      "pending",
		Urgent:      sub.Urgent,
	}
}

func validPoint(p Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
