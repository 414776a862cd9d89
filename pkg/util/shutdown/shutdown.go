// Package shutdown implements the process-wide shutdown signal described in
// spec.md §5: a broadcast, multi-consumer, one-shot primitive. A closed Go
// channel already behaves exactly like a one-shot broadcast — every receiver
// observes the close exactly once, and receivers may subscribe before or
// after the trigger fires — so no separate "already fired" bookkeeping is
// needed beyond the sync.Once guarding the close itself.
package shutdown

import "sync"

// Broadcast is a one-shot, multi-consumer shutdown signal.
type Broadcast struct {
	once sync.Once
	ch   chan struct{}
}

// New returns a Broadcast ready to be subscribed to and triggered.
func New() *Broadcast {
	return &Broadcast{ch: make(chan struct{})}
}

// Subscribe returns a channel that is closed exactly once, when Trigger is
// first called. Safe to call concurrently, before or after Trigger.
func (b *Broadcast) Subscribe() <-chan struct{} {
	return b.ch
}

// Trigger fires the shutdown signal. Safe to call multiple times or
// concurrently; only the first call has an effect.
func (b *Broadcast) Trigger() {
	b.once.Do(func() { close(b.ch) })
}

// Fired reports whether Trigger has been called.
func (b *Broadcast) Fired() bool {
	select {
	case <-b.ch:
		return true
	default:
		return false
	}
}
