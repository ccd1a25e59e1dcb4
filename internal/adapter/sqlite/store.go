// Package sqlite persists received hazard reports in a local SQLite file so
// the map can be repopulated when the backend is unreachable.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS hazard_reports (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	lat            REAL NOT NULL,
	lng            REAL NOT NULL,
	hazard_type    TEXT NOT NULL,
	severity       TEXT NOT NULL,
	severity_score INTEGER NOT NULL DEFAULT 0,
	report_count   INTEGER NOT NULL DEFAULT 0,
	reported_at    TEXT NOT NULL,
	location       TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT '',
	reporter       TEXT NOT NULL DEFAULT '',
	urgent         INTEGER NOT NULL DEFAULT 0
);`

const insertReport = `
INSERT OR IGNORE INTO hazard_reports
	(id, lat, lng, hazard_type, severity, severity_score, report_count,
	 reported_at, location, description, status, reporter, urgent)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectReports = `
SELECT id, lat, lng, hazard_type, severity, severity_score, report_count,
	reported_at, location, description, status, reporter, urgent
FROM hazard_reports ORDER BY seq`

// Store is a report repository backed by SQLite. Reports are keyed by ID and
// returned in the order they were first saved.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init report store: %w", err)
		}
	}

	logger.Info("report store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// LoadBatch saves reports in one transaction. Reports whose ID is already
// stored, or that have no ID, are skipped.
func (s *Store) LoadBatch(ctx context.Context, reports []domain.HazardReport) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertReport)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range reports {
		if r.ID == "" {
			s.logger.Debug("skipping report without id", "hazard_type", r.HazardType)
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Lat, r.Lng, r.HazardType, string(r.Severity), r.SeverityScore, r.ReportCount,
			r.Time.UTC().Format(time.RFC3339Nano), r.Location, r.Description, r.Status, r.Reporter, r.Urgent,
		); err != nil {
			return fmt.Errorf("insert report %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reports: %w", err)
	}
	return nil
}

// LoadReports returns every stored report in arrival order.
func (s *Store) LoadReports(ctx context.Context) ([]domain.HazardReport, error) {
	rows, err := s.db.QueryContext(ctx, selectReports)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []domain.HazardReport
	for rows.Next() {
		var (
			r          domain.HazardReport
			severity   string
			reportedAt string
		)
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lng, &r.HazardType, &severity, &r.SeverityScore, &r.ReportCount,
			&reportedAt, &r.Location, &r.Description, &r.Status, &r.Reporter, &r.Urgent); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Severity = domain.ParseSeverity(severity)
		if r.Time, err = time.Parse(time.RFC3339Nano, reportedAt); err != nil {
			s.logger.Warn("skipping stored report with bad timestamp", "id", r.ID, "error", err)
			continue
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// Count returns the number of stored reports.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hazard_reports").Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
