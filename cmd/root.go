package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rnwolfe/triage/internal/analytics"
	"github.com/rnwolfe/triage/internal/config"
	"github.com/rnwolfe/triage/internal/store"
	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
	"github.com/rnwolfe/triage/internal/version"
)

// dbOverride is the --db persistent flag: an explicit database path that
// wins over both config and the XDG default.
var dbOverride string

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Tasks, ranked by what actually needs doing",
	Long:  `triage — a task list that sorts itself. Deadlines and priorities in, one ranked list out.`,
	RunE:  runDashboard,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		applyEnvOverrides(cmd.Flags())
		applyEnvOverrides(cmd.Root().PersistentFlags())
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		fireAnalytics(topLevelCommand(cmd))
	},
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Err(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Task database path (overrides config)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(aboutCmd)
}

// applyEnvOverrides fills any flag the command line left untouched from a
// TRIAGE_<FLAG> environment variable, so scripts can say TRIAGE_DB=...
// instead of threading --db everywhere.
func applyEnvOverrides(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		env := "TRIAGE_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := os.LookupEnv(env); ok {
			_ = flags.Set(f.Name, v)
		}
	})
}

// fireAnalytics sends an anonymous analytics ping in the background.
// It's a no-op if config is not initialized, analytics are disabled,
// or the store can't be opened.
func fireAnalytics(command string) {
	if !config.Initialized() {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		return
	}

	if !cfg.Analytics.IsEnabled() {
		return
	}

	db, err := store.OpenPath(cfg.DBPath())
	if err != nil {
		return
	}

	endpoint := os.Getenv("TRIAGE_ANALYTICS_ENDPOINT")
	if endpoint == "" {
		endpoint = analytics.DefaultEndpoint
	}

	// One-time privacy notice, on stderr so stdout stays clean.
	analytics.MaybeShowNotice(db.Conn(), os.Stderr)

	// Fire-and-forget: the goroutine outlives this function but is bounded by
	// the HTTP client timeout (2s). The main process exits normally.
	go func() {
		defer db.Close()
		analytics.Ping(db.Conn(), command, cfg.Analytics.IsEnabled(), endpoint)
	}()
}

// topLevelCommand extracts the top-level command name from a Cobra command.
// For example, "triage config set" returns "config", and "triage" returns "triage".
func topLevelCommand(cmd *cobra.Command) string {
	parts := strings.Fields(cmd.CommandPath())
	if len(parts) >= 2 {
		return parts[1] // First word after "triage"
	}
	return parts[0] // Root command itself
}

// runDashboard shows the at-a-glance status when you just type `triage`.
func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println(ui.Greet(cfg.User.Name))
	fmt.Println()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	identity, err := currentIdentity(cmd.Context(), db)
	if err != nil {
		fmt.Println("  No one is logged in yet.")
		fmt.Println()
		fmt.Printf("  New here? Run %s.\n", ui.Accent.Render("triage register"))
		fmt.Printf("  Coming back? Run %s.\n", ui.Accent.Render("triage login"))
		fmt.Println()
		return nil
	}

	ts := task.NewSQLStore(db.Conn())
	defer ts.Close()

	tasks, err := ts.List(cmd.Context(), identity.UserID)
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	// One clock read covers the ranking, the deadline annotations and the
	// overdue check below.
	now := time.Now()
	counts := task.Count(tasks)
	ranked := task.SortAndFilter(tasks, task.SelectionActive, now)

	summary := fmt.Sprintf("%d active / %d total", counts.Active, counts.All)
	overdue := 0
	for _, t := range ranked {
		if t.Deadline.Before(now) {
			overdue++
		}
	}
	if overdue > 0 {
		summary += ui.Error.Render(fmt.Sprintf(" (%d overdue!)", overdue))
	}

	ui.Kv(ui.IconUser+" User", identity.Username)
	ui.Kv(ui.IconTask+" Tasks", summary)
	ui.Kv(ui.IconCalendar+" Today", now.Format("Monday, January 2"))
	ui.Kv("⚙️  Triage", version.Short())

	if len(ranked) > 0 {
		fmt.Println()
		fmt.Println(ui.Subtitle.Render("  Up next:"))
		fmt.Println(task.FormatLine(ranked[0], now))
	}

	switch {
	case overdue > 0:
		ui.Tip("`triage next` to tackle what's overdue.")
	case counts.Active > 0:
		ui.Tip("`triage list` to see what's on your plate.")
	default:
		ui.Tip("`triage add \"something important\" -d tomorrow` to capture a task.")
	}

	fmt.Println()
	return nil
}
