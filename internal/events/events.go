// Package events carries engine notifications to UI collaborators.
package events

import (
	"sync"
)

// Event is any value published on a Bus.
type Event interface {
	eventName() string
}

// Reason says why the history changed.
type Reason string

const (
	ReasonIngested Reason = "ingested"
	ReasonDeduped  Reason = "deduped"
	ReasonEvicted  Reason = "evicted"
	ReasonPinned   Reason = "pinned"
	ReasonUnpinned Reason = "unpinned"
	ReasonDeleted  Reason = "deleted"
	ReasonSelected Reason = "selected"
	ReasonCleared  Reason = "cleared"
	ReasonLoaded   Reason = "loaded"
)

// HistoryChanged is published after every completed store mutation.
type HistoryChanged struct {
	Reason Reason
	ID     string // empty for bulk changes
}

// PermissionStatus is the accessibility/input permission state.
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

// PermissionChanged is published when the permission probe result changes.
type PermissionChanged struct {
	Status PermissionStatus
}

// InjectionFailed is published when the paste keystroke could not be
// delivered. The clipboard write for ID is still in effect.
type InjectionFailed struct {
	ID  string
	Err error
}

func (HistoryChanged) eventName() string    { return "history_changed" }
func (PermissionChanged) eventName() string { return "permission_changed" }
func (InjectionFailed) eventName() string   { return "injection_failed" }

// Name returns a stable name for logging.
func Name(e Event) string {
	return e.eventName()
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event and its drop counter increases.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription receives events from a Bus.
type Subscription struct {
	bus     *Bus
	ch      chan Event
	mu      sync.Mutex
	dropped int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a subscriber with the given channel buffer.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	s := &Subscription{bus: b, ch: make(chan Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
			s.mu.Lock()
			s.dropped++
			s.mu.Unlock()
		}
	}
}

// Close closes every subscription channel. Publishing afterwards is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		delete(b.subs, s)
	}
}

// C returns the event channel. It is closed on Unsubscribe or Bus.Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Dropped returns how many events this subscriber missed.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; !ok {
		return
	}
	delete(b.subs, s)
	close(s.ch)
}
