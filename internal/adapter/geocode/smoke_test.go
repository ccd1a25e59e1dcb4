//go:build nominatim

package geocode

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Nominatim API.
// Run with: go test -tags=nominatim ./internal/adapter/geocode/ -v -count=1

func TestSmoke_ReverseGeocode_Mumbai(t *testing.T) {
	c := NewClient(DefaultBaseURL, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := c.ReverseGeocode(context.Background(), 18.9220, 72.8347)
	require.NoError(t, err)

	assert.Contains(t, result.DisplayName, "Mumbai")
	t.Logf("Reverse result: %+v", result)
}

func TestSmoke_ReverseGeocode_OpenOcean(t *testing.T) {
	c := NewClient(DefaultBaseURL, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := c.ReverseGeocode(context.Background(), -30.0, 80.0)
	require.NoError(t, err)
	t.Logf("Open ocean result: %+v", result)
}
