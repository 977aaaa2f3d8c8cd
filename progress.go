package main

import (
	"log"
	"sync"
	"time"

	"saltshaker/solver"
)

const reportInterval = time.Minute

// progress logs the global best across all workers, plus a summary line
// once per reportInterval.
type progress struct {
	mu         sync.Mutex
	scorer     solver.Scorer
	start      time.Time
	lastReport time.Time
	best       float64
	found      bool
	iterations map[int]int
}

func newProgress(scorer solver.Scorer) *progress {
	now := time.Now()
	return &progress{
		scorer:     scorer,
		start:      now,
		lastReport: now,
		iterations: map[int]int{},
	}
}

func (p *progress) Improved(ev solver.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev.Iteration > p.iterations[ev.Worker] {
		p.iterations[ev.Worker] = ev.Iteration
	}
	if p.found && ev.Score <= p.best {
		return
	}
	p.best, p.found = ev.Score, true
	sum := p.scorer.Summarize(ev.Schedule)
	log.Printf("global best of %.0f found: %d seats, max hosting %d, %d meetings (worker %d, schedule %d)",
		ev.Score, sum.Seats, sum.MaxHosting, sum.Meetings, ev.Worker, ev.Iteration)
}

func (p *progress) Checkpoint(ev solver.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.iterations[ev.Worker] = ev.Iteration
	if time.Since(p.lastReport) < reportInterval {
		return
	}
	p.lastReport = p.lastReport.Add(reportInterval)
	log.Printf("so far: %d schedules in %v, best score of %.0f", p.total(), p.lastReport.Sub(p.start), p.best)
}

func (p *progress) total() int {
	n := 0
	for _, it := range p.iterations {
		n += it
	}
	return n
}
