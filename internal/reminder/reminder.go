// Package reminder runs a foreground daemon that periodically scans a task
// store and announces tasks that are overdue or due soon. Each task is
// announced once per state: an upcoming task that crosses its deadline is
// announced again as overdue, but repeated scans in the same state stay
// quiet.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rnwolfe/triage/internal/task"
)

// Alert states tracked per task between scans.
const (
	stateOverdue  = "overdue"
	stateUpcoming = "upcoming"
)

// Alert describes one task that needs attention.
type Alert struct {
	Task    task.Task
	Overdue bool
	// Remaining is the time until the deadline, negative once it has passed.
	Remaining time.Duration
}

// Service scans a single user's tasks on a cron schedule.
type Service struct {
	store  task.Store
	userID string
	lead   time.Duration
	notify func(Alert)

	cron    *cron.Cron
	entryID cron.EntryID

	mu        sync.Mutex
	announced map[string]string // task ID -> last announced state
}

// New creates a Service. lead is how far ahead of a deadline the first
// upcoming alert fires. notify is called once per alert, from the scan
// goroutine.
func New(store task.Store, userID string, lead time.Duration, notify func(Alert)) *Service {
	return &Service{
		store:     store,
		userID:    userID,
		lead:      lead,
		notify:    notify,
		cron:      cron.New(),
		announced: make(map[string]string),
	}
}

// Run scans once immediately, then on the cron spec until ctx is cancelled.
// It blocks until the scheduler has fully drained.
func (s *Service) Run(ctx context.Context, spec string) error {
	if err := s.schedule(ctx, spec); err != nil {
		return err
	}

	// First scan right away so a fresh daemon reports the existing state
	// instead of waiting out the first interval.
	s.runOnce(ctx, time.Now())

	s.cron.Start()
	slog.Info("reminder daemon started", "schedule", spec, "lead", s.lead)

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	slog.Info("reminder daemon stopped")
	return nil
}

// schedule registers the scan job, replacing any previous entry.
func (s *Service) schedule(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		s.runOnce(ctx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	s.entryID = entryID
	return nil
}

// runOnce performs one scan and hands each alert to the notifier.
func (s *Service) runOnce(ctx context.Context, now time.Time) {
	alerts := s.scan(ctx, now)
	for _, a := range alerts {
		s.notify(a)
	}
	if len(alerts) > 0 {
		slog.Info("reminder scan", "alerts", len(alerts))
	}
}

// scan reads the store and returns the alerts that have not been announced
// in their current state yet. Announcement memory resets when a task is
// completed or its deadline moves back out of range, so state changes
// re-announce.
func (s *Service) scan(ctx context.Context, now time.Time) []Alert {
	tasks, err := s.store.List(ctx, s.userID)
	if err != nil {
		slog.Error("reminder scan failed", "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(tasks))
	var alerts []Alert
	for _, t := range tasks {
		seen[t.ID] = true

		if t.Completed {
			delete(s.announced, t.ID)
			continue
		}

		remaining := t.Deadline.Sub(now)
		var state string
		switch {
		case remaining < 0:
			state = stateOverdue
		case remaining <= s.lead:
			state = stateUpcoming
		default:
			delete(s.announced, t.ID)
			continue
		}

		if s.announced[t.ID] == state {
			continue
		}
		s.announced[t.ID] = state
		alerts = append(alerts, Alert{
			Task:      t,
			Overdue:   state == stateOverdue,
			Remaining: remaining,
		})
	}

	// Forget deleted tasks.
	for id := range s.announced {
		if !seen[id] {
			delete(s.announced, id)
		}
	}

	return alerts
}
