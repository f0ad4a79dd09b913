package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound = errors.New("task not found")
	ErrClosed   = errors.New("store closed")
)

// Store is the boundary to wherever a user's tasks live. Implementations
// are safe for concurrent use, and every operation is scoped to one
// user's collection via the opaque userID.
type Store interface {
	// Create persists a new task. A caller-assigned ID is kept so
	// optimistic local entries keep their identity once confirmed; an
	// empty ID gets one assigned.
	Create(ctx context.Context, t Task) (Task, error)
	// Get returns a single task by ID.
	Get(ctx context.Context, userID, id string) (Task, error)
	// Update replaces the task's mutable fields. CreatedAt is preserved.
	Update(ctx context.Context, t Task) (Task, error)
	// Delete removes a task.
	Delete(ctx context.Context, userID, id string) error
	// List returns the user's tasks in creation order.
	List(ctx context.Context, userID string) ([]Task, error)
	// Watch delivers the user's full collection immediately, then a
	// fresh snapshot after every change. Delivery is latest-wins: a slow
	// reader misses intermediate states, never the newest one. Snapshots
	// are shared between subscribers and must be treated as read-only.
	// The channel closes when ctx is canceled or the store shuts down.
	Watch(ctx context.Context, userID string) (<-chan []Task, error)
	Close() error
}

// Validate checks the fields the data-entry boundary rejects before a
// task reaches storage. The ranking functions never validate; anything
// that gets past here is scored as-is.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task title is required")
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("invalid priority %d", t.Priority)
	}
	if t.UserID == "" {
		return errors.New("task owner is required")
	}
	if t.Deadline.IsZero() {
		return errors.New("task deadline is required")
	}
	return nil
}
