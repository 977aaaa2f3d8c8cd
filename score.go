package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"saltshaker/export"
	"saltshaker/roster"
	"saltshaker/solver"
)

func CommandScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	weights, err := cfg.Weights()
	if err != nil {
		return err
	}

	r, err := roster.Load(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := export.Load(ctx, args[1], cfg.S3Options())
	if err != nil {
		return err
	}
	s, err := export.ReadCSV(bytes.NewReader(data), r)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	if err := solver.Validate(r, s); err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}

	report(r, s, solver.Scorer{Roster: r, Weights: weights}.Summarize(s))
	return nil
}
