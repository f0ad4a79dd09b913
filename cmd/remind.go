package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/triage/internal/reminder"
	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

var (
	remindEvery string
	remindLead  int
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the reminder daemon in the foreground",
	Long: `Scan your tasks on a schedule and announce the ones that are overdue
or about to be. Each task is announced once per state: an upcoming task
that crosses its deadline is announced again as overdue; nothing nags
twice about the same thing.

Runs until interrupted (Ctrl+C).`,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().StringVar(&remindEvery, "every", "", "Cron schedule for scans (default from config)")
	remindCmd.Flags().IntVar(&remindLead, "lead", 0, "Hours ahead of a deadline to warn (default from config)")
}

func runRemind(cmd *cobra.Command, _ []string) error {
	cfg, db, err := loadAndOpen()
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

	schedule := cfg.Reminder.Schedule
	if remindEvery != "" {
		schedule = remindEvery
	}
	lead := time.Duration(cfg.Reminder.LeadHours) * time.Hour
	if remindLead > 0 {
		lead = time.Duration(remindLead) * time.Hour
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	fmt.Println()
	ui.Inf(fmt.Sprintf("%s Watching %s's tasks (schedule %s, lead %s). Ctrl+C to stop.",
		ui.IconBell, identity.Username, schedule, lead))
	fmt.Println()

	svc := reminder.New(ts, identity.UserID, lead, printAlert)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.Run(ctx, schedule)
}

// printAlert renders one reminder to the terminal.
func printAlert(a reminder.Alert) {
	stamp := ui.Muted.Render(time.Now().Format("15:04"))
	if a.Overdue {
		fmt.Printf("  %s %s %s %s\n", stamp, ui.IconOverdue,
			ui.OverdueStyle.Render("OVERDUE"), a.Task.Title)
		return
	}
	fmt.Printf("  %s %s %s %s\n", stamp, ui.IconClock,
		ui.DueSoonStyle.Render(fmt.Sprintf("due in %s", a.Remaining.Round(time.Minute))), a.Task.Title)
}
