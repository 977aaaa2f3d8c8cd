// Package store keeps a history of finished runs in Postgres or SQLite.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saltshaker/solver"
)

// Run is one finished search and the schedule it chose.
type Run struct {
	ID      int64
	Created time.Time

	Roster     string
	Policy     string
	Weights    string
	Workers    int
	Seed       int64
	Score      float64
	Seats      int
	Meals      int
	MaxHosting int
	Meetings   int
	Iterations int
	Elapsed    time.Duration

	// Dinners is only filled when saving, or by Store.Dinners.
	Dinners []Dinner
}

type Dinner struct {
	Night     int
	Host      string
	Size      int
	Capacity  int
	Attendees []string
}

type Store interface {
	SaveRun(ctx context.Context, run Run) (int64, error)
	// Runs lists the newest runs first. limit <= 0 lists all of them.
	Runs(ctx context.Context, limit int) ([]Run, error)
	Dinners(ctx context.Context, runID int64) ([]Dinner, error)
	Close() error
}

// Open picks a backend from the DSN: postgres:// and postgresql:// URLs
// go to Postgres, sqlite://path or a path ending in .db to SQLite.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasSuffix(dsn, ".db"):
		return OpenSQLite(ctx, dsn)
	}
	return nil, fmt.Errorf("store: unrecognized DSN %q", dsn)
}

// NewRun fills a Run from a schedule and its summary. Nights are numbered
// from one as in the exported CSV.
func NewRun(r *solver.Roster, s *solver.Schedule, sum solver.Summary) Run {
	run := Run{
		Score:      sum.Score,
		Seats:      sum.Seats,
		Meals:      r.Meals(),
		MaxHosting: sum.MaxHosting,
		Meetings:   sum.Meetings,
	}
	for night, n := range s.Nights {
		for _, d := range n.Dinners {
			host := r.Family(d.Host)
			dinner := Dinner{Night: night + 1, Host: host.ID, Capacity: host.Capacity}
			for _, f := range d.Seated {
				dinner.Size += r.Family(f).Size
				dinner.Attendees = append(dinner.Attendees, r.Family(f).ID)
			}
			run.Dinners = append(run.Dinners, dinner)
		}
	}
	return run
}

// splitStatements breaks a schema file into single statements for drivers
// that only execute one at a time.
func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
