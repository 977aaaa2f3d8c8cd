package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

//go:embed schema_sqlite.sql
var sqliteSchema string

type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "saltshaker.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	for _, stmt := range append([]string{"PRAGMA foreign_keys = ON"}, splitStatements(sqliteSchema)...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) SaveRun(ctx context.Context, run Run) (int64, error) {
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (created_at, roster, policy, weights, workers, seed, score, seats, meals, max_hosting, meetings, iterations, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Created.UnixNano(), run.Roster, run.Policy, run.Weights, run.Workers, run.Seed, run.Score,
		run.Seats, run.Meals, run.MaxHosting, run.Meetings, run.Iterations, run.Elapsed.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO dinners (run_id, night, host, size, capacity, attendees) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, d := range run.Dinners {
		attendees, err := json.Marshal(d.Attendees)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, id, d.Night, d.Host, d.Size, d.Capacity, string(attendees)); err != nil {
			return 0, fmt.Errorf("insert dinner: %w", err)
		}
	}
	return id, tx.Commit()
}

func (s *SQLite) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, roster, policy, weights, workers, seed, score, seats, meals, max_hosting, meetings, iterations, elapsed_ms
		FROM runs
		ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows, func(created *time.Time) any { return unixNanos{created} })
}

func (s *SQLite) Dinners(ctx context.Context, runID int64) ([]Dinner, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT night, host, size, capacity, attendees FROM dinners WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dinners []Dinner
	for rows.Next() {
		var d Dinner
		var attendees string
		if err := rows.Scan(&d.Night, &d.Host, &d.Size, &d.Capacity, &attendees); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(attendees), &d.Attendees); err != nil {
			return nil, fmt.Errorf("decode attendees: %w", err)
		}
		dinners = append(dinners, d)
	}
	return dinners, rows.Err()
}

// unixNanos scans an integer timestamp column into a time.Time.
type unixNanos struct{ t *time.Time }

func (u unixNanos) Scan(src any) error {
	n, ok := src.(int64)
	if !ok {
		return fmt.Errorf("created_at: unexpected %T", src)
	}
	*u.t = time.Unix(0, n)
	return nil
}
