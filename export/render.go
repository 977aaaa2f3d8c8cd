package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"saltshaker/solver"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	fullStyle   = cellStyle.Foreground(lipgloss.Color("#AAAAAA"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

// Render draws the schedule as a terminal table, one row per dinner.
// Dinners with no spare seats are dimmed.
func Render(r *solver.Roster, s *solver.Schedule) string {
	var rows [][]string
	var full []bool
	for night, n := range s.Nights {
		for _, d := range n.Dinners {
			host := r.Family(d.Host)
			size := 0
			var names []string
			for _, f := range d.Seated {
				size += r.Family(f).Size
				names = append(names, r.Family(f).ID)
			}
			rows = append(rows, []string{
				strconv.Itoa(night + 1),
				host.ID,
				fmt.Sprintf("%d/%d", size, host.Capacity),
				strings.Join(names, attendeeSep),
			})
			full = append(full, size == host.Capacity)
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Night", "Host", "Seats", "Attendees").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(full) && full[row]:
				return fullStyle
			}
			return cellStyle
		})
	return t.Render()
}

// RenderSummary formats the aggregate figures for a schedule.
func RenderSummary(sum solver.Summary, meals int) string {
	return fmt.Sprintf("score %.0f: %d of %d possible meals, %d dinners, max hosting %d, %d meetings",
		sum.Score, sum.Seats, meals, sum.Dinners, sum.MaxHosting, sum.Meetings)
}
