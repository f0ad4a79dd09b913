package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/rnwolfe/triage/internal/auth"
	"github.com/rnwolfe/triage/internal/config"
	"github.com/rnwolfe/triage/internal/store"
	"github.com/rnwolfe/triage/internal/task"
	"github.com/rnwolfe/triage/internal/ui"
)

// openDB opens the task database, honoring --db over the config override
// over the XDG default.
func openDB(cfg *config.Config) (*store.DB, error) {
	path := cfg.DBPath()
	if dbOverride != "" {
		path = dbOverride
	}
	return store.OpenPath(path)
}

// loadAndOpen is the common command prologue: load config, open the database.
func loadAndOpen() (*config.Config, *store.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// currentIdentity resolves the saved session to an identity.
func currentIdentity(ctx context.Context, db *store.DB) (auth.Identity, error) {
	token, err := auth.LoadSessionToken(config.GetPaths().SessionFile)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.NewLocalProvider(db.Conn()).Verify(ctx, token)
}

// requireIdentity is currentIdentity with a friendlier failure message for
// commands that cannot proceed without a user.
func requireIdentity(ctx context.Context, db *store.DB) (auth.Identity, error) {
	identity, err := currentIdentity(ctx, db)
	if errors.Is(err, auth.ErrNotLoggedIn) || errors.Is(err, auth.ErrSessionExpired) {
		return auth.Identity{}, fmt.Errorf("%w — run %s first", err, ui.Accent.Render("triage login"))
	}
	return identity, err
}

// matchTask resolves a user-supplied task reference: a full ID or a unique
// prefix of one (list output shows the first 8 characters).
func matchTask(ctx context.Context, s task.Store, userID, ref string) (task.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, errors.New("empty task ID")
	}

	if t, err := s.Get(ctx, userID, ref); err == nil {
		return t, nil
	}

	tasks, err := s.List(ctx, userID)
	if err != nil {
		return task.Task{}, err
	}

	var matches []task.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("no task matches %q — use %s to see IDs", ref, ui.Accent.Render("triage list"))
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("%q matches %d tasks — give more characters", ref, len(matches))
	}
}

// resolveSelection picks the filter for a list-style command: the explicit
// flag when given, the configured default otherwise. Unrecognized values
// fall back to showing everything.
func resolveSelection(flagValue string, cfg *config.Config) task.Selection {
	if flagValue != "" {
		return task.ParseSelection(flagValue)
	}
	return task.ParseSelection(cfg.View.DefaultFilter)
}

// promptPassword reads a password without echo. Falls back to a plain line
// read when stdin is not a terminal (piped input, tests).
func promptPassword(label string) (string, error) {
	fmt.Printf("  %s: ", label)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	return promptRaw()
}

// promptLine reads one line of input with the given label.
func promptLine(label string) (string, error) {
	fmt.Printf("  %s: ", label)
	return promptRaw()
}

func promptRaw() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// endOfDay pins date-only deadline inputs to the last minute of that day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, t.Location())
}

// parseDeadline turns the user's deadline spelling into an absolute instant.
// Accepted forms:
//
//	today, tomorrow, next-week          end of that day
//	3h, 90m, 2d                        offset from now
//	2006-01-02                         end of that day
//	2006-01-02 15:04, RFC3339          exact instant
//
// Every task needs a deadline; there is no "someday" here.
func parseDeadline(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("deadline is required (try -d tomorrow)")
	}

	// Keywords and offset suffixes are case-insensitive; the layout parses
	// below see the original spelling (RFC3339 needs its T and Z intact).
	lower := strings.ToLower(s)

	switch lower {
	case "today":
		return endOfDay(now), nil
	case "tomorrow", "tom":
		return endOfDay(now.AddDate(0, 0, 1)), nil
	case "next-week", "nextweek", "nw":
		return endOfDay(now.AddDate(0, 0, 7)), nil
	}

	// Relative offsets: 3h, 90m, 2d.
	if len(lower) > 1 {
		if n, err := strconv.Atoi(lower[:len(lower)-1]); err == nil && n > 0 {
			switch lower[len(lower)-1] {
			case 'm':
				return now.Add(time.Duration(n) * time.Minute), nil
			case 'h':
				return now.Add(time.Duration(n) * time.Hour), nil
			case 'd':
				return now.AddDate(0, 0, n), nil
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return endOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("cannot parse deadline %q (try tomorrow, 3h, or 2006-01-02)", s)
}
