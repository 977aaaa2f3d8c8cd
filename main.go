package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"saltshaker/config"
)

// flag values; config file values are replaced only for flags that were set
var (
	configPath  = config.DefaultPath
	workers     = config.Default().Workers
	seed        int64
	policy      string
	weightSet   string
	out         string
	storeDSN    string
	metricsAddr string
	iterations  int
)

func main() {
	log.SetFlags(log.Ltime)

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	cmdRoot := &cobra.Command{
		Use:   "saltshaker",
		Short: "Dinner group scheduler",
		Long: "Assigns families to host and guest dinners across a series of nights,\n" +
			"filling seats without breaking any household's constraints",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmdRoot.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "configuration file")

	cmdGen := &cobra.Command{
		Use:   "gen <roster>",
		Short: "search for the best schedule",
		Args:  cobra.ExactArgs(1),
		RunE:  CommandGen,
	}
	cmdGen.Flags().IntVar(&workers, "workers", workers, "number of concurrent workers")
	cmdGen.Flags().DurationP("time", "t", 0, "total time to spend searching")
	cmdGen.Flags().IntVarP(&iterations, "iterations", "n", iterations, "maximum schedules built per worker (0 for no cap)")
	cmdGen.Flags().StringVar(&policy, "policy", policy, "acceptance policy: greedy or anneal")
	cmdGen.Flags().StringVarP(&weightSet, "weights", "w", weightSet, "weight preset")
	cmdGen.Flags().Int64Var(&seed, "seed", seed, "random seed (0 picks one from the clock)")
	cmdGen.Flags().StringVarP(&out, "out", "o", out, "schedule CSV destination, a file or s3://bucket/key")
	cmdGen.Flags().StringVar(&storeDSN, "store", storeDSN, "run history database, postgres://... or sqlite://path")
	cmdGen.Flags().StringVar(&metricsAddr, "metrics-addr", metricsAddr, "serve Prometheus metrics on this address while searching")
	cmdRoot.AddCommand(cmdGen)

	cmdScore := &cobra.Command{
		Use:   "score <roster> <schedule>",
		Short: "check, score and display an existing schedule",
		Args:  cobra.ExactArgs(2),
		RunE:  CommandScore,
	}
	cmdScore.Flags().StringVarP(&weightSet, "weights", "w", weightSet, "weight preset")
	cmdRoot.AddCommand(cmdScore)

	cmdRuns := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  CommandRuns,
	}
	cmdRuns.Flags().StringVar(&storeDSN, "store", storeDSN, "run history database, postgres://... or sqlite://path")
	cmdRuns.Flags().Int("limit", 20, "number of runs to list (0 for all)")
	cmdRuns.Flags().Int64("show", 0, "print the dinners of this run")
	cmdRoot.AddCommand(cmdRuns)

	cmdInit := &cobra.Command{
		Use:   "init",
		Short: "write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(configPath); err != nil {
				return err
			}
			log.Printf("wrote %s", configPath)
			return nil
		},
	}
	cmdRoot.AddCommand(cmdInit)

	return cmdRoot
}

// loadConfig reads the configuration file and applies any flags that were
// given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("time") {
		if cfg.Search.Time, err = flags.GetDuration("time"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("iterations") {
		cfg.Search.MaxIterations = iterations
	}
	if flags.Changed("policy") {
		cfg.Search.Policy = policy
	}
	if flags.Changed("weights") {
		cfg.Scoring.Preset = weightSet
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("out") {
		cfg.Output = out
	}
	if flags.Changed("store") {
		cfg.Store = storeDSN
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
