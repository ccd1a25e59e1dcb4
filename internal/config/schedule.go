package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Schedule holds the periods of every background timer. Durations use Go
// syntax in the YAML file ("5m", "7s", "100ms").
type Schedule struct {
	BuoyPoll        time.Duration `yaml:"buoy_poll"`
	RiskPoll        time.Duration `yaml:"risk_poll"`
	AutoRefresh     time.Duration `yaml:"auto_refresh"`
	DashboardStats  time.Duration `yaml:"dashboard_stats"`
	Simulator       time.Duration `yaml:"simulator"`
	RealtimeDrift   time.Duration `yaml:"realtime_drift"`
	MapProbe        time.Duration `yaml:"map_probe"`
	NotificationTTL time.Duration `yaml:"notification_ttl"`
}

// DefaultSchedule returns the built-in periods.
func DefaultSchedule() Schedule {
	return Schedule{
		BuoyPoll:        5 * time.Minute,
		RiskPoll:        10 * time.Minute,
		AutoRefresh:     7 * time.Second,
		DashboardStats:  5 * time.Minute,
		Simulator:       30 * time.Second,
		RealtimeDrift:   30 * time.Second,
		MapProbe:        100 * time.Millisecond,
		NotificationTTL: 3 * time.Second,
	}
}

// LoadSchedule reads a YAML schedule file over the defaults. Keys absent from
// the file keep their default value. An empty path returns the defaults.
func LoadSchedule(path string) (Schedule, error) {
	s := DefaultSchedule()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("read POLL_SCHEDULE_PATH: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schedule{}, fmt.Errorf("parse POLL_SCHEDULE_PATH: %w", err)
	}
	if err := s.validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

func (s Schedule) validate() error {
	periods := []struct {
		key string
		d   time.Duration
	}{
		{"buoy_poll", s.BuoyPoll},
		{"risk_poll", s.RiskPoll},
		{"auto_refresh", s.AutoRefresh},
		{"dashboard_stats", s.DashboardStats},
		{"simulator", s.Simulator},
		{"realtime_drift", s.RealtimeDrift},
		{"map_probe", s.MapProbe},
		{"notification_ttl", s.NotificationTTL},
	}
	for _, p := range periods {
		if p.d <= 0 {
			return fmt.Errorf("invalid poll schedule: %s must be positive", p.key)
		}
	}
	return nil
}
