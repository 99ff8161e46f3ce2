// Package hotkey turns global key presses into overlay events.
//
// The Listener owns one always-on binding (the toggle combination) and a
// set of navigation bindings (Up, Down, Return, Escape) that exist only
// while the overlay is visible. Key callbacks never do work themselves: they
// enqueue an Event on a buffered channel and return.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yiblet/clipper/internal/access"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/logging"
)

// DefaultDebounce is the minimum spacing between accepted toggle presses.
const DefaultDebounce = 200 * time.Millisecond

// EventKind identifies a listener event.
type EventKind int

const (
	ToggleVisibility EventKind = iota
	NavigateUp
	NavigateDown
	Confirm
	Dismiss
)

func (k EventKind) String() string {
	switch k {
	case ToggleVisibility:
		return "toggle"
	case NavigateUp:
		return "up"
	case NavigateDown:
		return "down"
	case Confirm:
		return "confirm"
	case Dismiss:
		return "dismiss"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one listener event. ID is set for Confirm.
type Event struct {
	Kind EventKind
	ID   string
}

// State is the listener lifecycle state.
type State int

const (
	StateStopped State = iota
	StateListening
	StatePermissionDenied
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StatePermissionDenied:
		return "permission-denied"
	default:
		return "stopped"
	}
}

// SelectionFunc returns the id currently highlighted in the overlay.
type SelectionFunc func() (id string, ok bool)

// Options configures a Listener.
type Options struct {
	Toggle   Combo
	Checker  access.Checker
	Debounce time.Duration
	Buffer   int
	Bus      *events.Bus
	Logger   *slog.Logger

	// Now is the clock used for debouncing.
	Now func() time.Time
}

// Listener maps global hotkeys to Events.
type Listener struct {
	tap    Tap
	opts   Options
	logger *slog.Logger
	events chan Event

	mu         sync.Mutex
	state      State
	visible    bool
	toggle     Binding
	nav        []Binding
	lastToggle time.Time
	selection  SelectionFunc
	permErr    error
}

// New creates a Listener. Nothing is registered until Start.
func New(tap Tap, opts Options) *Listener {
	if opts.Toggle.Key == "" {
		opts.Toggle = DefaultToggle
	}
	if opts.Checker == nil {
		opts.Checker = access.System()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Listener{
		tap:    tap,
		opts:   opts,
		logger: logging.Default(opts.Logger).With("component", "hotkey"),
		events: make(chan Event, opts.Buffer),
	}
}

// Events returns the event channel. It is never closed.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// PermissionError returns the denial reason while in StatePermissionDenied.
func (l *Listener) PermissionError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.permErr
}

// SetSelection installs the callback Confirm uses to read the highlighted id.
func (l *Listener) SetSelection(fn SelectionFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection = fn
}

// Start checks permission and registers the toggle combination. Without
// permission the listener enters StatePermissionDenied, registers nothing,
// and returns nil; Recheck retries. A registration failure while permission
// is granted is returned.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateListening {
		return nil
	}
	return l.startLocked()
}

// Recheck re-probes permission after a denial and starts listening if it
// is now granted. It is a no-op in any other state.
func (l *Listener) Recheck() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StatePermissionDenied {
		return nil
	}
	return l.startLocked()
}

func (l *Listener) startLocked() error {
	if err := l.opts.Checker.Check(); err != nil {
		if !errors.Is(err, access.ErrPermissionDenied) {
			err = fmt.Errorf("%w: %v", access.ErrPermissionDenied, err)
		}
		wasDenied := l.state == StatePermissionDenied
		l.state = StatePermissionDenied
		l.permErr = err
		if !wasDenied {
			l.logger.Warn("hotkeys disabled", "error", err)
			l.publish(events.PermissionChanged{Status: events.PermissionDenied})
		}
		return nil
	}

	b, err := l.tap.Register(l.opts.Toggle, l.onToggle)
	if err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", l.opts.Toggle, err)
	}

	wasDenied := l.state == StatePermissionDenied
	l.toggle = b
	l.state = StateListening
	l.permErr = nil
	if wasDenied {
		l.publish(events.PermissionChanged{Status: events.PermissionGranted})
	}
	l.logger.Info("hotkey registered", "combo", l.opts.Toggle.String())

	// The overlay may have been shown while permission was missing.
	if l.visible && len(l.nav) == 0 {
		if err := l.registerNavLocked(); err != nil {
			l.logger.Warn("failed to register navigation keys", "error", err)
		}
	}
	return nil
}

// SetVisible tells the listener whether the overlay is showing, which
// registers or unregisters the navigation keys.
func (l *Listener) SetVisible(visible bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if visible == l.visible {
		return nil
	}
	l.visible = visible

	if !visible {
		return l.unregisterNavLocked()
	}
	if l.state != StateListening {
		return nil
	}
	return l.registerNavLocked()
}

// registerNavLocked binds the navigation keys. On failure every navigation
// binding made so far is released.
func (l *Listener) registerNavLocked() error {
	navs := []struct {
		key Key
		fn  func()
	}{
		{KeyUp, func() { l.emit(Event{Kind: NavigateUp}) }},
		{KeyDown, func() { l.emit(Event{Kind: NavigateDown}) }},
		{KeyReturn, l.onConfirm},
		{KeyEscape, func() { l.emit(Event{Kind: Dismiss}) }},
	}
	for _, n := range navs {
		b, err := l.tap.Register(Combo{Key: n.key}, n.fn)
		if err != nil {
			l.unregisterNavLocked()
			return fmt.Errorf("failed to register navigation key %s: %w", n.key, err)
		}
		l.nav = append(l.nav, b)
	}
	return nil
}

// Visible reports the last visibility passed to SetVisible.
func (l *Listener) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// Stop unregisters every binding.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.unregisterNavLocked()
	if l.toggle != nil {
		if uerr := l.toggle.Unregister(); uerr != nil && err == nil {
			err = uerr
		}
		l.toggle = nil
	}
	l.visible = false
	if l.state == StateListening {
		l.state = StateStopped
	}
	return err
}

func (l *Listener) unregisterNavLocked() error {
	var first error
	for _, b := range l.nav {
		if err := b.Unregister(); err != nil && first == nil {
			first = err
		}
	}
	l.nav = nil
	return first
}

func (l *Listener) onToggle() {
	now := l.opts.Now()

	l.mu.Lock()
	if !l.lastToggle.IsZero() && now.Sub(l.lastToggle) < l.opts.Debounce {
		l.mu.Unlock()
		return
	}
	l.lastToggle = now
	l.mu.Unlock()

	l.emit(Event{Kind: ToggleVisibility})
}

func (l *Listener) onConfirm() {
	l.mu.Lock()
	sel := l.selection
	l.mu.Unlock()

	if sel == nil {
		return
	}
	id, ok := sel()
	if !ok {
		return
	}
	l.emit(Event{Kind: Confirm, ID: id})
}

// emit enqueues e without blocking.
func (l *Listener) emit(e Event) {
	select {
	case l.events <- e:
	default:
		l.logger.Warn("dropping hotkey event, queue full", "event", e.Kind.String())
	}
}

func (l *Listener) publish(e events.Event) {
	if l.opts.Bus != nil {
		l.opts.Bus.Publish(e)
	}
}
