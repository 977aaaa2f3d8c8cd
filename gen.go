package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"saltshaker/config"
	"saltshaker/export"
	"saltshaker/metrics"
	"saltshaker/roster"
	"saltshaker/solver"
	"saltshaker/store"
)

func CommandGen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	weights, err := cfg.Weights()
	if err != nil {
		return err
	}
	params, err := cfg.SearchParams()
	if err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	r, err := roster.Load(ctx, args[0])
	if err != nil {
		return err
	}
	log.Printf("%d families over %d nights, %d possible meals", r.Len(), r.Nights(), r.Meals())

	scorer := solver.Scorer{Roster: r, Weights: weights}
	observers := solver.Observers{newProgress(scorer)}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		observers = append(observers, metrics.NewRecorder(reg))
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr, reg); err != nil {
				log.Printf("metrics: %v", err)
			}
		}()
	}

	log.Printf("starting %v search with %d workers, seed %d", params.Policy, cfg.Workers, cfg.Seed)
	start := time.Now()
	best, results, err := solver.Aggregate(r, weights, params, cfg.Workers, cfg.Seed, observers)
	if err != nil {
		return err
	}
	total := 0
	for _, res := range results {
		total += res.Iterations
	}
	log.Printf("%d schedules in %v, best from worker %d", total, time.Since(start).Round(time.Millisecond), best.Worker)

	sum := scorer.Summarize(best.Schedule)
	report(r, best.Schedule, sum)

	if cfg.Output != "" {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, r, best.Schedule); err != nil {
			return err
		}
		if err := export.Save(ctx, cfg.Output, buf.Bytes(), cfg.S3Options()); err != nil {
			return err
		}
		log.Printf("schedule written to %s", cfg.Output)
	}

	if cfg.Store != "" {
		run := store.NewRun(r, best.Schedule, sum)
		run.Roster = args[0]
		run.Policy = params.Policy.String()
		run.Weights = cfg.Scoring.Preset
		run.Workers = cfg.Workers
		run.Seed = cfg.Seed
		run.Iterations = total
		run.Elapsed = time.Since(start)
		id, err := saveRun(ctx, cfg, run)
		if err != nil {
			return err
		}
		log.Printf("saved as run %d", id)
	}
	return nil
}

func saveRun(ctx context.Context, cfg *config.Config, run store.Run) (int64, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.SaveRun(ctx, run)
}

// report prints the schedule table and logs the summary and every family
// that missed a night it wanted.
func report(r *solver.Roster, s *solver.Schedule, sum solver.Summary) {
	fmt.Fprintln(os.Stdout, export.Render(r, s))
	log.Print(export.RenderSummary(sum, r.Meals()))
	for _, st := range solver.Starved(r, s) {
		for _, night := range st.Nights {
			log.Printf("%s not served night #%d", st.Family, night+1)
		}
	}
}
