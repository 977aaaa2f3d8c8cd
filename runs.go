package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"saltshaker/store"
)

func CommandRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Store == "" {
		return errors.New("no store configured; use --store or set store in the config file")
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	showRun, _ := cmd.Flags().GetInt64("show")
	if showRun != 0 {
		dinners, err := st.Dinners(ctx, showRun)
		if err != nil {
			return err
		}
		if len(dinners) == 0 {
			return fmt.Errorf("run %d has no dinners", showRun)
		}
		fmt.Fprintln(os.Stdout, dinnerTable(dinners))
		return nil
	}

	runs, err := st.Runs(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, runTable(runs))
	return nil
}

func runTable(runs []store.Run) string {
	var rows [][]string
	for _, r := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.Created.Local().Format("2006-01-02 15:04"),
			r.Roster,
			r.Policy + "/" + r.Weights,
			fmt.Sprintf("%.0f", r.Score),
			fmt.Sprintf("%d/%d", r.Seats, r.Meals),
			strconv.Itoa(r.MaxHosting),
			strconv.Itoa(r.Iterations),
			r.Elapsed.Round(time.Second).String(),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Run", "When", "Roster", "Search", "Score", "Meals", "Max hosting", "Schedules", "Time").
		Rows(rows...).
		Render()
}

func dinnerTable(dinners []store.Dinner) string {
	var rows [][]string
	for _, d := range dinners {
		rows = append(rows, []string{
			strconv.Itoa(d.Night),
			d.Host,
			fmt.Sprintf("%d/%d", d.Size, d.Capacity),
			strings.Join(d.Attendees, ", "),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Night", "Host", "Seats", "Attendees").
		Rows(rows...).
		Render()
}
