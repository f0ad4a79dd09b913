package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store. It backs tests and offline use and
// doubles as the reference implementation of the Store contract.
type MemStore struct {
	mu     sync.RWMutex
	tasks  map[string]Task
	order  []string
	notify *notifier
	closed bool
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		tasks:  make(map[string]Task),
		notify: newNotifier(),
	}
}

func (m *MemStore) Create(ctx context.Context, t Task) (Task, error) {
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Pending = false

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Task{}, ErrClosed
	}
	if _, exists := m.tasks[t.ID]; exists {
		m.mu.Unlock()
		return Task{}, fmt.Errorf("task %s already exists", t.ID)
	}
	m.tasks[t.ID] = t
	m.order = append(m.order, t.ID)
	snapshot := m.snapshotLocked(t.UserID)
	m.mu.Unlock()

	m.notify.publish(t.UserID, snapshot)
	return t, nil
}

func (m *MemStore) Get(ctx context.Context, userID, id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Task{}, ErrClosed
	}
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (m *MemStore) Update(ctx context.Context, t Task) (Task, error) {
	if err := t.Validate(); err != nil {
		return Task{}, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Task{}, ErrClosed
	}
	cur, ok := m.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		m.mu.Unlock()
		return Task{}, fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.Pending = false
	m.tasks[t.ID] = t
	snapshot := m.snapshotLocked(t.UserID)
	m.mu.Unlock()

	m.notify.publish(t.UserID, snapshot)
	return t, nil
}

func (m *MemStore) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		m.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	delete(m.tasks, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	snapshot := m.snapshotLocked(userID)
	m.mu.Unlock()

	m.notify.publish(userID, snapshot)
	return nil
}

func (m *MemStore) List(ctx context.Context, userID string) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.snapshotLocked(userID), nil
}

func (m *MemStore) Watch(ctx context.Context, userID string) (<-chan []Task, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrClosed
	}
	initial := m.snapshotLocked(userID)
	m.mu.RUnlock()
	return m.notify.subscribe(ctx, userID, initial), nil
}

// Close shuts down the store and closes every watcher channel.
func (m *MemStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.notify.shutdown()
	return nil
}

// snapshotLocked builds the user's collection in creation order.
// Callers must hold m.mu.
func (m *MemStore) snapshotLocked(userID string) []Task {
	out := make([]Task, 0)
	for _, id := range m.order {
		if t := m.tasks[id]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}
