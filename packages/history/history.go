// Package history records executed requests in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/easyhttp/packages/http"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	executed_at TIMESTAMP NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL,
	family      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
)`

// Entry is one executed request. Status is zero when no response arrived.
type Entry struct {
	ID         int64
	ExecutedAt time.Time
	Method     string
	URL        string
	Status     int
	Family     http.Family
	Duration   time.Duration
	Error      string
}

// Store represents a request history database
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens or creates the history database at path. Paths may carry a
// sqlite:// or sqlite: prefix.
func Open(path string) (*Store, error) {
	path = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(path), "sqlite://"), "sqlite:")
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise history database: %w", err)
	}

	return &Store{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e and returns its id
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (executed_at, method, url, status, family, duration_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ExecutedAt.UTC(), e.Method, e.URL, e.Status, http.FamilyOf(e.Status).String(), e.Duration.Milliseconds(), e.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to record request: %w", err)
	}

	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, executed_at, method, url, status, duration_ms, error FROM requests ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.ExecutedAt, &e.Method, &e.URL, &e.Status, &durationMs, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Family = http.FamilyOf(e.Status)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
