package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Completion stats: streaks, throughput, categories",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	_, db, err := loadAndOpen()
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := requireIdentity(cmd.Context(), db)
	if err != nil {
		return err
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	tasks, err := ts.List(cmd.Context(), identity.UserID)
	if err != nil {
		return err
	}
	s := task.ComputeStats(tasks, time.Now())

	ui.Header(ui.IconStats + " Stats")
	fmt.Println()
	ui.Kv("Open", fmt.Sprintf("%d", s.Counts.Active))
	ui.Kv("Done", fmt.Sprintf("%d", s.Counts.Completed))
	if s.Overdue > 0 {
		ui.Kv("Overdue", ui.Error.Render(fmt.Sprintf("%d", s.Overdue)))
	}
	if s.DueToday > 0 {
		ui.Kv("Due today", ui.Warning.Render(fmt.Sprintf("%d", s.DueToday)))
	}
	fmt.Println()

	streak := fmt.Sprintf("%d day(s)", s.Streak)
	if s.Streak > 2 {
		streak += " " + ui.IconFire
	}
	ui.Kv("Streak", streak)
	ui.Kv("Best streak", fmt.Sprintf("%d day(s)", s.LongestStreak))
	ui.Kv("This week", fmt.Sprintf("%d completed", s.CompletedWeek))
	ui.Kv("This month", fmt.Sprintf("%d completed", s.CompletedMonth))
	if s.AvgClose > 0 {
		ui.Kv("Avg close", humanDuration(s.AvgClose))
	}

	if len(s.ByCategory) > 0 {
		fmt.Println()
		fmt.Println(ui.Subtitle.Render("  By category"))
		for _, c := range s.ByCategory {
			ui.Kv(c.Name, fmt.Sprintf("%d active / %d done", c.Active, c.Completed))
		}
	}

	fmt.Println()
	return nil
}

// humanDuration renders a duration in its largest useful unit.
func humanDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	}
}
