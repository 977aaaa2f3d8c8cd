package solver

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// WorkerSeed derives the random seed for one worker of a run.
func WorkerSeed(seed int64, worker int) int64 {
	return seed + int64(worker)*31337
}

// Aggregate runs one independent search per worker in parallel and returns
// the best result along with every worker's own result in worker order.
// Workers share only the read-only roster. Ties go to the lowest worker.
func Aggregate(r *Roster, w Weights, params Params, workers int, seed int64, obs Observer) (Result, []Result, error) {
	if workers < 1 {
		return Result{}, nil, fmt.Errorf("%w: workers must be at least 1", ErrParams)
	}
	if err := params.Validate(); err != nil {
		return Result{}, nil, err
	}

	// each worker owns exactly one slot and writes it once
	results := make([]Result, workers)
	var g errgroup.Group
	for i := range workers {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("worker %d: %v", i, p)
				}
			}()
			rng := rand.New(rand.NewSource(WorkerSeed(seed, i)))
			results[i] = find(i, r, w, params, rng, obs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, nil, err
	}

	return Best(results), results, nil
}

// Best picks the highest scoring result, keeping the earliest on ties.
func Best(results []Result) Result {
	var best Result
	for i, res := range results {
		if i == 0 || res.Score > best.Score {
			best = res
		}
	}
	return best
}
