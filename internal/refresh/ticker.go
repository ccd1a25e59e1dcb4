// Package refresh runs the dashboard's polling loops: fetch from the analyst
// backend, update the chart registry, and fall back to synthetic data when
// the backend is unavailable.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// Ticker calls a function on a fixed period until stopped.
type Ticker struct {
	name   string
	clock  clockwork.Clock
	period time.Duration
	fn     func(context.Context)
	gauge  prometheus.Gauge
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTicker creates a stopped ticker. gauge tracks running tickers and may
// be shared.
func NewTicker(name string, clock clockwork.Clock, period time.Duration, fn func(context.Context), gauge prometheus.Gauge, logger *slog.Logger) *Ticker {
	return &Ticker{
		name:   name,
		clock:  clock,
		period: period,
		fn:     fn,
		gauge:  gauge,
		logger: logger,
	}
}

// Start begins ticking; the first call happens one period from now. It is a
// no-op when already running.
func (t *Ticker) Start(ctx context.Context) {
	t.start(ctx, false)
}

// StartImmediate is like Start but also calls the function right away.
func (t *Ticker) StartImmediate(ctx context.Context) {
	t.start(ctx, true)
}

func (t *Ticker) start(ctx context.Context, immediate bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel, t.done = cancel, done
	t.gauge.Inc()

	go func() {
		defer close(done)
		ticker := t.clock.NewTicker(t.period)
		defer ticker.Stop()
		if immediate {
			t.fn(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				t.fn(ctx)
			}
		}
	}()
	t.logger.Debug("timer started", "timer", t.name, "period", t.period)
}

// Stop cancels the ticker and waits for any in-flight call to return. The
// context passed to that call is cancelled.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.gauge.Dec()
	t.logger.Debug("timer stopped", "timer", t.name)
}

// Running reports whether the ticker is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
