// Package navigation switches between the dashboard's sections, starting
// each section's charts and timers on entry and stopping them on exit.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
)

// Section names.
const (
	SectionDashboard      = "dashboard"
	SectionAnalytics      = "analytics"
	SectionStatistics     = "statistics"
	SectionReports        = "reports"
	SectionDataManagement = "data-management"
)

// Sections lists every section in menu order.
var Sections = []string{
	SectionDashboard,
	SectionAnalytics,
	SectionStatistics,
	SectionReports,
	SectionDataManagement,
}

var (
	// ErrUnknownSection is returned when switching to a name not in Sections.
	ErrUnknownSection = errors.New("unknown section")
	// ErrClosed is returned by Switch after Close.
	ErrClosed = errors.New("navigation closed")
)

// Section is one panel of the dashboard. Enter may block on ctx; timers it
// starts must outlive ctx and stop on Leave.
type Section interface {
	Enter(ctx context.Context) error
	Leave()
}

// Switcher tracks the active section. Exactly one section is active at a
// time; the initial section is the dashboard.
type Switcher struct {
	sections map[string]Section
	shutdown []func(ctx context.Context)
	metrics  *observability.Metrics
	logger   *slog.Logger

	// switchMu serializes Switch calls. mu guards the fields below and is
	// never held while a section enters.
	switchMu sync.Mutex
	mu       sync.Mutex
	current  string
	entered  bool
	closed   bool
}

// NewSwitcher creates a switcher over the given sections. Names missing from
// sections behave as sections with no background work. shutdown hooks run
// in order during Close.
func NewSwitcher(sections map[string]Section, metrics *observability.Metrics, logger *slog.Logger, shutdown ...func(ctx context.Context)) *Switcher {
	all := make(map[string]Section, len(Sections))
	for _, name := range Sections {
		if s, ok := sections[name]; ok && s != nil {
			all[name] = s
		} else {
			all[name] = idleSection{}
		}
	}
	return &Switcher{
		sections: all,
		shutdown: shutdown,
		metrics:  metrics,
		logger:   logger,
		current:  SectionDashboard,
	}
}

// Current returns the active section name.
func (s *Switcher) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Start enters the initial section.
func (s *Switcher) Start(ctx context.Context) error {
	return s.Switch(ctx, SectionDashboard)
}

// Switch leaves the active section and enters name. Entering the active
// section again re-runs its initializer. Current reports name as soon as the
// previous section is left. A section that finishes entering after Close is
// left again and Switch returns ErrClosed.
func (s *Switcher) Switch(ctx context.Context, name string) error {
	target, ok := s.sections[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	previous, wasEntered := s.current, s.entered
	s.current, s.entered = name, true
	s.mu.Unlock()

	if wasEntered {
		s.sections[previous].Leave()
	}
	s.metrics.SectionSwitches.WithLabelValues(name).Inc()

	err := target.Enter(ctx)

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		target.Leave()
		return ErrClosed
	}
	if err != nil {
		s.logger.Error("section initialization failed", "section", name, "error", err)
		return fmt.Errorf("enter %s: %w", name, err)
	}
	s.logger.Info("section switched", "from", previous, "to", name)
	return nil
}

// Close leaves the active section and runs the shutdown hooks. It does not
// wait for a section that is still entering. It is safe to call more than
// once.
func (s *Switcher) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	current, entered := s.current, s.entered
	s.entered = false
	s.mu.Unlock()

	if entered {
		s.sections[current].Leave()
	}
	for _, fn := range s.shutdown {
		fn(ctx)
	}
	s.logger.Info("navigation closed")
}

type idleSection struct{}

func (idleSection) Enter(context.Context) error { return nil }
func (idleSection) Leave()                      {}
