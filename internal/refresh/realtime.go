package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/hazardmap"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// updateNoticeTTL is how long the "data updated" notice stays up.
const updateNoticeTTL = 5 * time.Second

// Realtime periodically drifts the simulated buoy readings and announces the
// update. It runs for the lifetime of the application, independent of the
// active section.
type Realtime struct {
	analytics *Analytics
	notes     *hazardmap.Notifications
	ticker    *Ticker
}

// NewRealtime creates the drift loop.
func NewRealtime(analytics *Analytics, notes *hazardmap.Notifications, clock clockwork.Clock, period time.Duration, gauge prometheus.Gauge, logger *slog.Logger) *Realtime {
	r := &Realtime{analytics: analytics, notes: notes}
	r.ticker = NewTicker("realtime_drift", clock, period, r.tick, gauge, logger)
	return r
}

// Start begins drifting.
func (r *Realtime) Start(ctx context.Context) {
	r.ticker.Start(ctx)
}

// Stop halts the loop.
func (r *Realtime) Stop() {
	r.ticker.Stop()
}

// Running reports whether the loop is active.
func (r *Realtime) Running() bool {
	return r.ticker.Running()
}

func (r *Realtime) tick(context.Context) {
	r.analytics.Drift()
	r.notes.PushFor(hazardmap.KindInfo, "Data updated", updateNoticeTTL)
}
