package cmd

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Run("env fills unset flag", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		var db string
		flags.StringVar(&db, "db", "", "")

		t.Setenv("TRIAGE_DB", "/tmp/env.db")
		applyEnvOverrides(flags)

		if db != "/tmp/env.db" {
			t.Errorf("db = %q, want env value", db)
		}
	})

	t.Run("explicit flag wins over env", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		var db string
		flags.StringVar(&db, "db", "", "")
		if err := flags.Parse([]string{"--db", "/tmp/cli.db"}); err != nil {
			t.Fatal(err)
		}

		t.Setenv("TRIAGE_DB", "/tmp/env.db")
		applyEnvOverrides(flags)

		if db != "/tmp/cli.db" {
			t.Errorf("db = %q, want command-line value", db)
		}
	})

	t.Run("dashes map to underscores", func(t *testing.T) {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		var v string
		flags.StringVar(&v, "lead-hours", "", "")

		t.Setenv("TRIAGE_LEAD_HOURS", "48")
		applyEnvOverrides(flags)

		if v != "48" {
			t.Errorf("lead-hours = %q, want 48", v)
		}
	})
}

// Exercises the wired-up hook on the real command tree: a subcommand's
// pre-run must reach the root's persistent flags through cmd.Root().
func TestRootPreRun_FillsPersistentFlagFromEnv(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("db")
	if flag == nil {
		t.Fatal("--db persistent flag not registered")
	}
	defer func() {
		flag.Changed = false
		dbOverride = ""
	}()

	t.Setenv("TRIAGE_DB", "/tmp/triage-env.db")
	rootCmd.PersistentPreRun(listCmd, nil)

	if dbOverride != "/tmp/triage-env.db" {
		t.Errorf("dbOverride = %q, want env value", dbOverride)
	}
}
