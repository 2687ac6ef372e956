// Package store persists discovered opportunities in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/use-agent/oppscout/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL,
	amount              TEXT NOT NULL DEFAULT '',
	deadline            TEXT NOT NULL DEFAULT '',
	source_id           TEXT NOT NULL,
	url                 TEXT NOT NULL,
	category            TEXT NOT NULL,
	eligibility         TEXT NOT NULL,
	success_probability REAL NOT NULL,
	insights            TEXT NOT NULL,
	run_id              TEXT NOT NULL DEFAULT '',
	discovered_at       TEXT NOT NULL,
	updated_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_opportunities_source ON opportunities(source_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_probability ON opportunities(success_probability DESC);
`

// Store is a SQLite-backed opportunity store. Records are keyed by the
// title-derived opportunity ID, so rediscovering a title updates the
// existing row.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database file at path, creating its directory
// when needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save upserts opps in one transaction. A row that already exists keeps its
// first discovery time; every other column is refreshed. Records sharing an
// ID collapse into one row, the last one winning. It returns the number of
// distinct rows written.
func (s *Store) Save(ctx context.Context, runID string, opps []models.Opportunity) (int, error) {
	if len(opps) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities (
			id, title, description, amount, deadline, source_id, url, category,
			eligibility, success_probability, insights, run_id, discovered_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description         = excluded.description,
			amount              = excluded.amount,
			deadline            = excluded.deadline,
			source_id           = excluded.source_id,
			url                 = excluded.url,
			category            = excluded.category,
			eligibility         = excluded.eligibility,
			success_probability = excluded.success_probability,
			insights            = excluded.insights,
			run_id              = excluded.run_id,
			updated_at          = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := make(map[string]struct{}, len(opps))
	for _, o := range opps {
		insights, err := json.Marshal(o.Insights)
		if err != nil {
			return 0, fmt.Errorf("store: encode insights: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			o.ID(), o.Title, o.Description, o.Amount, o.Deadline, o.SourceID, o.URL, o.Category,
			o.Eligibility, o.SuccessProbability, string(insights), runID,
			formatTime(o.DiscoveredAt), formatTime(o.UpdatedAt),
		); err != nil {
			return 0, fmt.Errorf("store: upsert %q: %w", o.Title, err)
		}
		written[o.ID()] = struct{}{}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return len(written), nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	SourceID       string
	Category       string
	MinProbability float64
	Limit          int
}

// List returns stored opportunities, highest probability first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Opportunity, error) {
	var where []string
	var args []any
	if f.SourceID != "" {
		where = append(where, "source_id = ?")
		args = append(args, f.SourceID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.MinProbability > 0 {
		where = append(where, "success_probability >= ?")
		args = append(args, f.MinProbability)
	}

	q := `SELECT title, description, amount, deadline, source_id, url, category, eligibility,
		success_probability, insights, discovered_at, updated_at FROM opportunities`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY success_probability DESC, updated_at DESC, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := []models.Opportunity{}
	for rows.Next() {
		var (
			o                   models.Opportunity
			insights            string
			discovered, updated string
		)
		if err := rows.Scan(&o.Title, &o.Description, &o.Amount, &o.Deadline, &o.SourceID, &o.URL,
			&o.Category, &o.Eligibility, &o.SuccessProbability, &insights, &discovered, &updated); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(insights), &o.Insights); err != nil {
			return nil, fmt.Errorf("store: decode insights for %q: %w", o.Title, err)
		}
		if o.DiscoveredAt, err = parseTime(discovered); err != nil {
			return nil, err
		}
		if o.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return out, nil
}

// Count returns the number of stored opportunities.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM opportunities").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse time %q: %w", s, err)
	}
	return t, nil
}
