package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) SaveRun(ctx context.Context, run Run) (int64, error) {
	if run.Created.IsZero() {
		run.Created = time.Now()
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO runs (created_at, roster, policy, weights, workers, seed, score, seats, meals, max_hosting, meetings, iterations, elapsed_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		run.Created, run.Roster, run.Policy, run.Weights, run.Workers, run.Seed, run.Score,
		run.Seats, run.Meals, run.MaxHosting, run.Meetings, run.Iterations, run.Elapsed.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO dinners (run_id, night, host, size, capacity, attendees) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, d := range run.Dinners {
		if _, err := stmt.ExecContext(ctx, id, d.Night, d.Host, d.Size, d.Capacity, pq.Array(d.Attendees)); err != nil {
			return 0, fmt.Errorf("insert dinner: %w", err)
		}
	}
	return id, tx.Commit()
}

func (p *Postgres) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, created_at, roster, policy, weights, workers, seed, score, seats, meals, max_hosting, meetings, iterations, elapsed_ms
		FROM runs
		ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows, func(created *time.Time) any { return created })
}

func (p *Postgres) Dinners(ctx context.Context, runID int64) ([]Dinner, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT night, host, size, capacity, attendees FROM dinners WHERE run_id = $1 ORDER BY id", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dinners []Dinner
	for rows.Next() {
		var d Dinner
		if err := rows.Scan(&d.Night, &d.Host, &d.Size, &d.Capacity, pq.Array(&d.Attendees)); err != nil {
			return nil, err
		}
		dinners = append(dinners, d)
	}
	return dinners, rows.Err()
}

// scanRuns reads the shared runs column list. created adapts the
// created_at column to the backend's representation.
func scanRuns(rows *sql.Rows, created func(*time.Time) any) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var elapsedMS int64
		err := rows.Scan(&r.ID, created(&r.Created), &r.Roster, &r.Policy, &r.Weights, &r.Workers, &r.Seed,
			&r.Score, &r.Seats, &r.Meals, &r.MaxHosting, &r.Meetings, &r.Iterations, &elapsedMS)
		if err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
