package solver

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

var ErrParams = errors.New("invalid search parameters")

type Policy int

const (
	// Greedy keeps a candidate only when it beats the best so far.
	Greedy Policy = iota
	// Anneal also accepts worse candidates with probability exp(-delta/T).
	Anneal
)

func (p Policy) String() string {
	switch p {
	case Greedy:
		return "greedy"
	case Anneal:
		return "anneal"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greedy", "":
		return Greedy, nil
	case "anneal", "annealing", "sa":
		return Anneal, nil
	}
	return Greedy, fmt.Errorf("%w: unknown policy %q", ErrParams, s)
}

type Params struct {
	Policy Policy
	// Budget bounds wall-clock time. Zero means no time limit.
	Budget time.Duration
	// MaxIterations bounds the number of candidates built. Zero means no cap.
	MaxIterations int
	// CheckEvery is how many iterations pass between clock reads.
	CheckEvery int

	TempHigh      float64
	TempLow       float64
	Alpha         float64
	TrialsPerTemp int
}

var DefaultParams = Params{
	Policy:        Greedy,
	Budget:        2 * time.Minute,
	CheckEvery:    1000,
	TempHigh:      1.0,
	TempLow:       0.00001,
	Alpha:         0.9,
	TrialsPerTemp: 100,
}

func (p Params) Validate() error {
	switch {
	case p.Budget < 0:
		return fmt.Errorf("%w: budget must not be negative", ErrParams)
	case p.MaxIterations < 0:
		return fmt.Errorf("%w: iterations must not be negative", ErrParams)
	case p.CheckEvery < 1:
		return fmt.Errorf("%w: check interval must be at least 1", ErrParams)
	}
	switch p.Policy {
	case Greedy:
		if p.Budget == 0 && p.MaxIterations == 0 {
			return fmt.Errorf("%w: greedy search needs a time budget or an iteration cap", ErrParams)
		}
	case Anneal:
		if p.TempHigh <= 0 || p.TempLow <= 0 || p.TempLow >= p.TempHigh {
			return fmt.Errorf("%w: temperatures must satisfy 0 < low < high", ErrParams)
		}
		if p.Alpha <= 0 || p.Alpha >= 1 {
			return fmt.Errorf("%w: alpha must be between 0 and 1", ErrParams)
		}
		if p.TrialsPerTemp < 1 {
			return fmt.Errorf("%w: trials per temperature must be at least 1", ErrParams)
		}
	default:
		return fmt.Errorf("%w: unknown policy %v", ErrParams, p.Policy)
	}
	return nil
}

// An Event describes search progress for one worker.
type Event struct {
	Worker    int
	Iteration int
	Score     float64
	// Current is the score of the schedule the search is working from. Under
	// greedy search it equals Score.
	Current     float64
	Temperature float64
	Elapsed     time.Duration
	// Schedule is set for Improved events only.
	Schedule *Schedule
}

// Observer receives progress from running searches. One observer may be
// shared by every worker, so implementations must be safe for concurrent use.
type Observer interface {
	// Improved is called whenever a worker finds a new best schedule.
	Improved(Event)
	// Checkpoint is called at every clock check.
	Checkpoint(Event)
}

type Observers []Observer

func (o Observers) Improved(ev Event) {
	for _, obs := range o {
		obs.Improved(ev)
	}
}

func (o Observers) Checkpoint(ev Event) {
	for _, obs := range o {
		obs.Checkpoint(ev)
	}
}

type Result struct {
	Worker     int
	Schedule   *Schedule
	Score      float64
	Iterations int
	Elapsed    time.Duration
}

// Find repeatedly builds and scores schedules until the budget runs out and
// returns the best one seen.
func Find(r *Roster, w Weights, params Params, rng *rand.Rand, obs Observer) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	return find(0, r, w, params, rng, obs), nil
}

func find(worker int, r *Roster, w Weights, params Params, rng *rand.Rand, obs Observer) Result {
	if obs == nil {
		obs = Observers(nil)
	}
	sc := Scorer{Roster: r, Weights: w}
	start := time.Now()

	best := Build(r, rng)
	bestScore := sc.Score(best)
	currentScore := bestScore
	temp := 0.0
	if params.Policy == Anneal {
		temp = params.TempHigh
	}
	trials := 0
	obs.Improved(Event{Worker: worker, Iteration: 1, Score: bestScore, Current: currentScore, Temperature: temp, Schedule: best})

	iteration := 1
	for {
		if params.MaxIterations > 0 && iteration >= params.MaxIterations {
			break
		}
		if params.Policy == Anneal && temp <= params.TempLow {
			break
		}
		if iteration%params.CheckEvery == 0 {
			elapsed := time.Since(start)
			obs.Checkpoint(Event{Worker: worker, Iteration: iteration, Score: bestScore, Current: currentScore,
				Temperature: temp, Elapsed: elapsed})
			if params.Budget > 0 && elapsed > params.Budget {
				break
			}
		}

		candidate := Build(r, rng)
		score := sc.Score(candidate)
		iteration++

		if params.Policy == Anneal {
			// acceptance works on cost, the negated score
			delta := currentScore - score
			if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
				currentScore = score
			}
			trials++
			if trials == params.TrialsPerTemp {
				temp *= params.Alpha
				trials = 0
			}
		}

		if score > bestScore {
			best, bestScore = candidate, score
			if params.Policy == Greedy {
				currentScore = score
			}
			obs.Improved(Event{Worker: worker, Iteration: iteration, Score: score, Current: currentScore,
				Temperature: temp, Elapsed: time.Since(start), Schedule: candidate})
		}
	}

	return Result{
		Worker:     worker,
		Schedule:   best,
		Score:      bestScore,
		Iterations: iteration,
		Elapsed:    time.Since(start),
	}
}
