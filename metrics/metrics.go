// Package metrics exports search progress to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saltshaker/solver"
)

const namespace = "saltshaker"

// Recorder is a solver.Observer that keeps per-worker gauges.
type Recorder struct {
	bestScore    *prometheus.GaugeVec
	currentScore *prometheus.GaugeVec
	iterations   *prometheus.GaugeVec
	temperature  *prometheus.GaugeVec
	improvements *prometheus.CounterVec
}

var _ solver.Observer = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	labels := []string{"worker"}
	r := &Recorder{
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_score",
			Help:      "Best schedule score found by each worker.",
		}, labels),
		currentScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_score",
			Help:      "Score of the schedule each worker is searching from.",
		}, labels),
		iterations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "iterations",
			Help:      "Candidate schedules built by each worker as of its last checkpoint.",
		}, labels),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature",
			Help:      "Current annealing temperature of each worker.",
		}, labels),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "improvements_total",
			Help:      "New best schedules found by each worker.",
		}, labels),
	}
	reg.MustRegister(r.bestScore, r.currentScore, r.iterations, r.temperature, r.improvements)
	return r
}

func (r *Recorder) Improved(ev solver.Event) {
	w := strconv.Itoa(ev.Worker)
	r.bestScore.WithLabelValues(w).Set(ev.Score)
	r.improvements.WithLabelValues(w).Inc()
}

func (r *Recorder) Checkpoint(ev solver.Event) {
	w := strconv.Itoa(ev.Worker)
	r.currentScore.WithLabelValues(w).Set(ev.Current)
	r.iterations.WithLabelValues(w).Set(float64(ev.Iteration))
	r.temperature.WithLabelValues(w).Set(ev.Temperature)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
