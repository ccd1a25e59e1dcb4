package hazardmap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultSimulatorInterval is the live-update period.
const DefaultSimulatorInterval = 30 * time.Second

// ReportSink receives reports from a live source.
type ReportSink interface {
	AddReports(source string, reports ...domain.HazardReport) View
}

// Simulator appends a random report inside the Indian coastal bounding box
// to a sink on every tick. It stands in for the live feed.
type Simulator struct {
	sink     ReportSink
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	rngMu sync.Mutex
	rng   domain.Rand

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSimulator creates a stopped simulator.
func NewSimulator(sink ReportSink, clock clockwork.Clock, interval time.Duration, rng domain.Rand, logger *slog.Logger) *Simulator {
	if interval <= 0 {
		interval = DefaultSimulatorInterval
	}
	return &Simulator{
		sink:     sink,
		clock:    clock,
		interval: interval,
		rng:      rng,
		logger:   logger,
	}
}

// Start begins ticking. It is a no-op when already running.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done

	go func() {
		defer close(done)
		ticker := s.clock.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.Tick()
			}
		}
	}()
	s.logger.Info("live updates started", "interval", s.interval)
}

// Stop halts the simulator and waits for the tick goroutine to exit.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("live updates stopped")
}

// Running reports whether the simulator is ticking.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Tick generates one report and hands it to the sink.
func (s *Simulator) Tick() domain.HazardReport {
	s.rngMu.Lock()
	report := domain.RandomReport(s.rng, s.clock.Now())
	s.rngMu.Unlock()

	s.sink.AddReports("simulator", report)
	s.logger.Debug("live data updated", "hazard_type", report.HazardType, "location", report.Location)
	return report
}
