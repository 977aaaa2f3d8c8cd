package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"saltshaker/roster"
	"saltshaker/solver"
)

type runResult struct {
	score    float64
	schedule *solver.Schedule
	elapsed  time.Duration
}

func printStats(label string, results []runResult, runs int) {
	scores := map[float64]int{}
	schedules := map[string]int{}
	var totalTime time.Duration

	for _, r := range results {
		totalTime += r.elapsed
		scores[r.score]++
		schedules[r.schedule.Key()]++
	}

	fmt.Printf("--- %s ---\n", label)
	fmt.Printf("  avg time: %v\n", totalTime/time.Duration(runs))

	var scoreList []struct {
		score float64
		count int
	}
	for s, c := range scores {
		scoreList = append(scoreList, struct {
			score float64
			count int
		}{s, c})
	}
	sort.Slice(scoreList, func(i, j int) bool { return scoreList[i].score > scoreList[j].score })

	fmt.Printf("  score distribution:\n")
	for _, sc := range scoreList {
		fmt.Printf("    score %.0f: %d/%d runs (%.0f%%)\n", sc.score, sc.count, runs, float64(sc.count)/float64(runs)*100)
	}

	fmt.Printf("  unique schedules seen: %d\n", len(schedules))
	var freqs []int
	for _, c := range schedules {
		freqs = append(freqs, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(freqs)))
	if len(freqs) > 0 {
		topN := min(5, len(freqs))
		fmt.Printf("  top %d schedule frequencies: ", topN)
		for i := range topN {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Printf("%d/%d", freqs[i], runs)
		}
		fmt.Println()
	}
	fmt.Println()
}

func main() {
	input := flag.String("roster", "roster.csv", "roster file, URL or sheets:// source")
	runs := flag.Int("runs", 20, "number of searches per parameter set")
	algo := flag.String("algo", "both", "policy: greedy, anneal or both")
	preset := flag.String("weights", "default", "weight preset: "+strings.Join(solver.WeightSetNames(), ", "))
	iterations := flag.String("iterations", "1000,5000", "comma-separated schedule counts per greedy search")
	alphas := flag.String("alpha", "0.9,0.95", "comma-separated annealing cooling factors")
	trials := flag.String("trials", "100", "comma-separated annealing trials per temperature")
	tempHigh := flag.Float64("thigh", solver.DefaultParams.TempHigh, "annealing initial temperature")
	tempLow := flag.Float64("tlow", solver.DefaultParams.TempLow, "annealing final temperature")
	flag.Parse()

	weights, ok := solver.WeightSets[*preset]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown weight preset %q\n", *preset)
		os.Exit(1)
	}
	r, err := roster.Load(context.Background(), *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading roster: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Families: %d, Nights: %d, Possible meals: %d\n", r.Len(), r.Nights(), r.Meals())
	fmt.Printf("Weights: %s %+v\n", *preset, weights)
	fmt.Printf("Runs per config: %d\n\n", *runs)

	search := func(params solver.Params) []runResult {
		var results []runResult
		for run := range *runs {
			rng := rand.New(rand.NewSource(int64(run * 31337)))
			res, err := solver.Find(r, weights, params, rng, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "search: %v\n", err)
				os.Exit(1)
			}
			results = append(results, runResult{res.Score, res.Schedule, res.Elapsed})
		}
		return results
	}

	if *algo == "greedy" || *algo == "both" {
		for _, n := range parseIntList(*iterations) {
			params := solver.DefaultParams
			params.Policy = solver.Greedy
			params.Budget = 0
			params.MaxIterations = n
			printStats(fmt.Sprintf("greedy iterations=%d", n), search(params), *runs)
		}
	}

	if *algo == "anneal" || *algo == "both" {
		for _, alpha := range parseFloatList(*alphas) {
			for _, nt := range parseIntList(*trials) {
				params := solver.Params{
					Policy:        solver.Anneal,
					CheckEvery:    solver.DefaultParams.CheckEvery,
					TempHigh:      *tempHigh,
					TempLow:       *tempLow,
					Alpha:         alpha,
					TrialsPerTemp: nt,
				}
				if err := params.Validate(); err != nil {
					fmt.Fprintf(os.Stderr, "skipping alpha=%g trials=%d: %v\n", alpha, nt, err)
					continue
				}
				label := fmt.Sprintf("anneal alpha=%g trials=%d thigh=%.1f tlow=%g", alpha, nt, *tempHigh, *tempLow)
				printStats(label, search(params), *runs)
			}
		}
	}
}

func parseIntList(s string) []int {
	parts := strings.Split(s, ",")
	var result []int
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err == nil {
			result = append(result, v)
		}
	}
	return result
}

func parseFloatList(s string) []float64 {
	parts := strings.Split(s, ",")
	var result []float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err == nil {
			result = append(result, v)
		}
	}
	return result
}
