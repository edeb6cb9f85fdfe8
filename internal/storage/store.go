// Package storage persists completed analysis reports.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/sitelens/sitelens/internal/analyzer"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	target_url TEXT NOT NULL,
	domain TEXT NOT NULL,
	goal TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	radius_km REAL NOT NULL,
	sample_count INTEGER NOT NULL,
	language TEXT NOT NULL DEFAULT '',
	report_json TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_domain ON reports(domain);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

// StoredReport is one persisted analysis run.
type StoredReport struct {
	ID        string
	Report    *analyzer.Report
	Request   analyzer.Request
	CreatedAt time.Time
}

// Store writes analysis reports to SQLite. The core only ever writes and
// reads single records; history queries belong to outer layers.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the report database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport persists a completed report with the request that produced it
// and returns the new record's identifier.
func (s *Store) SaveReport(report *analyzer.Report, req analyzer.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO reports (id, target_url, domain, goal, location, radius_km, sample_count, language, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, report.Target.RawURL, report.Target.Domain, req.Goal, req.Location,
		req.RadiusKm, req.SampleCount, req.Language, string(payload))
	if err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	return id, nil
}

// GetReport loads one stored record by identifier.
func (s *Store) GetReport(id string) (*StoredReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT id, goal, location, radius_km, sample_count, language, report_json, created_at
		FROM reports WHERE id = ?
	`, id)

	var (
		stored  StoredReport
		rawJSON string
	)
	err := row.Scan(&stored.ID, &stored.Request.Goal, &stored.Request.Location,
		&stored.Request.RadiusKm, &stored.Request.SampleCount, &stored.Request.Language,
		&rawJSON, &stored.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	stored.Report = &analyzer.Report{}
	if err := json.Unmarshal([]byte(rawJSON), stored.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	stored.Request.TargetURL = stored.Report.Target.RawURL

	return &stored, nil
}
