package task

import (
	"context"
	"sync"
)

// notifier fans full collection snapshots out to Watch subscribers.
// Each subscriber owns a one-slot buffer; publishing replaces any
// undelivered snapshot so the newest state always wins.
type notifier struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	latest map[string][]Task
	closed bool
}

type subscriber struct {
	userID string
	ch     chan []Task
	done   chan struct{}
}

func newNotifier() *notifier {
	return &notifier{
		subs:   make(map[*subscriber]struct{}),
		latest: make(map[string][]Task),
	}
}

// subscribe registers a watcher for userID. initial is the snapshot the
// caller read from storage; if a publish beat the registration, the
// newer published snapshot is delivered instead. The returned channel
// closes when ctx is canceled or the notifier shuts down.
func (n *notifier) subscribe(ctx context.Context, userID string, initial []Task) <-chan []Task {
	sub := &subscriber{
		userID: userID,
		ch:     make(chan []Task, 1),
		done:   make(chan struct{}),
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	if snap, ok := n.latest[userID]; ok {
		initial = snap
	}
	sub.ch <- initial
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			n.drop(sub)
		case <-sub.done:
		}
	}()

	return sub.ch
}

// publish records the user's newest snapshot and delivers it to every
// watcher of that user.
func (n *notifier) publish(userID string, snapshot []Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.latest[userID] = snapshot
	for sub := range n.subs {
		if sub.userID != userID {
			continue
		}
		// Replace a stale undelivered snapshot rather than queue behind it.
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snapshot
	}
}

// shutdown closes every subscriber channel and rejects new subscribers.
func (n *notifier) shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for sub := range n.subs {
		delete(n.subs, sub)
		close(sub.ch)
		close(sub.done)
	}
	n.latest = nil
}

func (n *notifier) drop(sub *subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.subs[sub]; ok {
		delete(n.subs, sub)
		close(sub.ch)
		close(sub.done)
	}
}
