package submission_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/submission"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSubmitter struct {
	result domain.SubmissionResult
	err    error
	got    []domain.HazardSubmission
}

func (f *fakeSubmitter) SubmitHazardReport(_ context.Context, s domain.HazardSubmission) (domain.SubmissionResult, error) {
	f.got = append(f.got, s)
	return f.result, f.err
}

type fakeGeocoder struct {
	name string
	err  error
}

func (g fakeGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{Lat: lat, Lon: lon, DisplayName: g.name}, g.err
}

type recordingSink struct {
	sources []string
	reports []domain.HazardReport
}

func (r *recordingSink) AddReports(source string, reports ...domain.HazardReport) hazardmap.View {
	r.sources = append(r.sources, source)
	r.reports = append(r.reports, reports...)
	return hazardmap.View{}
}

func newService(sub *fakeSubmitter, opts submission.Options) *submission.Service {
	opts.Submitter = sub
	opts.Clock = clockwork.NewFakeClockAt(now)
	opts.Logger = discardLogger()
	return submission.NewService(opts)
}

func TestSubmit_WithoutLocationWarns(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := newService(sub, submission.Options{})

	banner, _, err := svc.Submit(context.Background(), submission.Form{HazardType: "tsunami", Severity: "high"})

	require.ErrorIs(t, err, submission.ErrLocationRequired)
	assert.Equal(t, submission.LevelWarning, banner.Level)
	assert.Equal(t, `Please select a location on the map or use "Use My Location" button.`, banner.Message)
	assert.Empty(t, sub.got, "nothing sent to the backend")
}

func TestSubmit_Success(t *testing.T) {
	sub := &fakeSubmitter{result: domain.SubmissionResult{Success: true, Message: "Report submitted", ReportID: "r-17"}}
	sink := &recordingSink{}
	var submitted int
	svc := newService(sub, submission.Options{
		Geocoder:    fakeGeocoder{name: "Marine Drive, Mumbai"},
		Sink:        sink,
		OnSubmitted: func(context.Context) { submitted++ },
	})
	ctx := context.Background()

	_, err := svc.SelectLocation(ctx, submission.Point{Lat: 18.943210987654, Lng: 72.823456789012})
	require.NoError(t, err)

	banner, result, err := svc.Submit(ctx, submission.Form{
		HazardType:  "storm_surge",
		Severity:    "Medium",
		Description: "Water over the promenade",
		Urgent:      true,
		Media:       []domain.MediaFile{{Name: "surge.jpg", Data: []byte("jpeg")}},
	})

	require.NoError(t, err)
	assert.Equal(t, submission.Banner{Level: submission.LevelSuccess, Message: "Report submitted"}, banner)
	assert.Equal(t, "r-17", result.ReportID)

	require.Len(t, sub.got, 1)
	sent := sub.got[0]
	assert.Equal(t, domain.SeverityModerate, sent.Severity)
	assert.Equal(t, 18.94321099, sent.Lat)
	assert.Equal(t, 72.82345679, sent.Lng)
	assert.True(t, sent.Urgent)

	require.Len(t, sink.reports, 1)
	assert.Equal(t, []string{"submission"}, sink.sources)
	added := sink.reports[0]
	assert.Equal(t, "r-17", added.ID)
	assert.Equal(t, "Storm Surge", added.HazardType)
	assert.Equal(t, "Marine Drive, Mumbai", added.Location)
	assert.Equal(t, now, added.Time)

	assert.Equal(t, 1, submitted)
	_, selected := svc.Selected()
	assert.False(t, selected, "selection cleared after success")
}

func TestSubmit_ExplicitLocationOverridesSelection(t *testing.T) {
	sub := &fakeSubmitter{result: domain.SubmissionResult{Success: true}}
	svc := newService(sub, submission.Options{})

	_, _, err := svc.Submit(context.Background(), submission.Form{
		HazardType: "high_waves",
		Location:   &submission.Point{Lat: 13.0827, Lng: 80.2707},
	})

	require.NoError(t, err)
	require.Len(t, sub.got, 1)
	assert.Equal(t, 13.0827, sub.got[0].Lat)
}

func TestSubmit_InvalidLocation(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := newService(sub, submission.Options{})

	banner, _, err := svc.Submit(context.Background(), submission.Form{Location: &submission.Point{Lat: 91, Lng: 80}})

	require.ErrorIs(t, err, submission.ErrInvalidLocation)
	assert.Equal(t, submission.LevelWarning, banner.Level)
	assert.Empty(t, sub.got)
}

func TestSubmit_MediaTooLarge(t *testing.T) {
	sub := &fakeSubmitter{}
	svc := newService(sub, submission.Options{})

	banner, _, err := svc.Submit(context.Background(), submission.Form{
		Location: &submission.Point{Lat: 15.3, Lng: 73.9},
		Media:    []domain.MediaFile{{Name: "a.mp4", Data: make([]byte, domain.MaxMediaBytes+1)}},
	})

	require.ErrorIs(t, err, submission.ErrMediaTooLarge)
	assert.Equal(t, submission.LevelDanger, banner.Level)
	assert.Empty(t, sub.got)
}

func TestSubmit_NetworkError(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	svc := newService(sub, submission.Options{})

	banner, _, err := svc.Submit(context.Background(), submission.Form{Location: &submission.Point{Lat: 15.3, Lng: 73.9}})

	require.Error(t, err)
	assert.Equal(t, submission.Banner{Level: submission.LevelDanger, Message: submission.MsgNetworkError}, banner)
}

func TestSubmit_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		result domain.SubmissionResult
		want   string
	}{
		{"with backend message", domain.SubmissionResult{Error: "Description is required"}, "Description is required"},
		{"without message", domain.SubmissionResult{}, submission.MsgSubmitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			svc := newService(&fakeSubmitter{result: tt.result}, submission.Options{Sink: sink})

			banner, _, err := svc.Submit(context.Background(), submission.Form{Location: &submission.Point{Lat: 15.3, Lng: 73.9}})

			require.ErrorIs(t, err, submission.ErrRejected)
			assert.Equal(t, submission.Banner{Level: submission.LevelDanger, Message: tt.want}, banner)
			assert.Empty(t, sink.reports)
		})
	}
}

func TestSelectLocation_GeocoderFailureKeepsCoordinates(t *testing.T) {
	svc := newService(&fakeSubmitter{}, submission.Options{Geocoder: fakeGeocoder{err: errors.New("timeout")}})

	sel, err := svc.SelectLocation(context.Background(), submission.Point{Lat: 9.9312, Lng: 76.2673})

	require.NoError(t, err)
	assert.Equal(t, "Lat: 9.931200, Lng: 76.267300", sel.Label)
}

func TestUseMyLocation(t *testing.T) {
	locator := submission.LocatorFunc(func(context.Context) (submission.Point, error) {
		return submission.Point{Lat: 17.6868, Lng: 83.2185}, nil
	})
	svc := newService(&fakeSubmitter{}, submission.Options{Locator: locator, Geocoder: fakeGeocoder{name: "Visakhapatnam"}})

	sel, banner, err := svc.UseMyLocation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Visakhapatnam", sel.Label)
	assert.Equal(t, submission.LevelInfo, banner.Level)
	got, ok := svc.Selected()
	require.True(t, ok)
	assert.Equal(t, 17.6868, got.Point.Lat)
}

func TestUseMyLocation_Denied(t *testing.T) {
	denied := submission.LocatorFunc(func(context.Context) (submission.Point, error) {
		return submission.Point{}, errors.New("permission denied")
	})
	svc := newService(&fakeSubmitter{}, submission.Options{Locator: denied})

	_, banner, err := svc.UseMyLocation(context.Background())

	require.ErrorIs(t, err, submission.ErrLocationUnavailable)
	assert.Equal(t, submission.Banner{Level: submission.LevelWarning, Message: submission.MsgLocationUnavailable}, banner)
	_, ok := svc.Selected()
	assert.False(t, ok)

	noLocator := newService(&fakeSubmitter{}, submission.Options{})
	_, _, err = noLocator.UseMyLocation(context.Background())
	require.ErrorIs(t, err, submission.ErrLocationUnavailable)
}

func TestSubmit_WithoutBackendIDGetsDistinctIDs(t *testing.T) {
	sub := &fakeSubmitter{result: domain.SubmissionResult{Success: true, Message: "Report submitted"}}
	sink := &recordingSink{}
	svc := newService(sub, submission.Options{Sink: sink})
	ctx := context.Background()
	form := submission.Form{
		HazardType: "high_waves",
		Severity:   "low",
		Location:   &submission.Point{Lat: 13.0827, Lng: 80.2707},
	}

	_, _, err := svc.Submit(ctx, form)
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, form)
	require.NoError(t, err)

	require.Len(t, sink.reports, 2)
	first, second := sink.reports[0].ID, sink.reports[1].ID
	assert.True(t, strings.HasPrefix(first, "sub-"))
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second, "same type, place and second still yield two reports")
}
