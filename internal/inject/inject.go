// Package inject pastes a history entry into the application the user was
// working in: it writes the entry to the clipboard, hands focus back to the
// remembered application, and synthesizes the platform paste chord.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yiblet/clipper/internal/access"
	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
)

// DefaultDelay separates the clipboard write from the paste keystroke so
// the target application observes the new content.
const DefaultDelay = 50 * time.Millisecond

// ErrInjectionFailed is returned when the paste keystroke could not be
// delivered. The clipboard write that preceded it remains in effect, so the
// user can still paste manually.
var ErrInjectionFailed = errors.New("paste injection failed")

// Selector resolves an id to an entry and marks it used.
type Selector interface {
	Select(ctx context.Context, id string) (store.Entry, error)
}

// Keystroker synthesizes the platform paste chord.
type Keystroker interface {
	Paste(ctx context.Context) error
}

// Focus remembers the frontmost application and re-activates it.
type Focus interface {
	Remember() error
	Restore(ctx context.Context) error
}

// Options configures an Injector.
type Options struct {
	Board      clipboard.Board
	Selector   Selector
	Keystroker Keystroker
	Focus      Focus
	Checker    access.Checker
	Delay      time.Duration

	// Bus receives InjectionFailed events. Optional.
	Bus    *events.Bus
	Logger *slog.Logger
}

// Injector performs the select, write, focus, paste sequence.
type Injector struct {
	board  clipboard.Board
	sel    Selector
	keys   Keystroker
	focus  Focus
	check  access.Checker
	delay  time.Duration
	bus    *events.Bus
	logger *slog.Logger
}

// New creates an Injector. Nil Keystroker, Focus and Checker default to
// the platform implementations.
func New(opts Options) *Injector {
	if opts.Keystroker == nil {
		opts.Keystroker = SystemKeystroker()
	}
	if opts.Focus == nil {
		opts.Focus = SystemFocus()
	}
	if opts.Checker == nil {
		opts.Checker = access.System()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Injector{
		board:  opts.Board,
		sel:    opts.Selector,
		keys:   opts.Keystroker,
		focus:  opts.Focus,
		check:  opts.Checker,
		delay:  opts.Delay,
		bus:    opts.Bus,
		logger: logging.Default(opts.Logger).With("component", "inject"),
	}
}

// RememberFocus records the frontmost application. Call it when the
// overlay is about to be shown.
func (i *Injector) RememberFocus() {
	if err := i.focus.Remember(); err != nil {
		i.logger.Debug("failed to remember focused application", "error", err)
	}
}

// Paste writes entry id to the clipboard and pastes it into the remembered
// application. A missing id returns store.ErrNotFound with nothing written.
func (i *Injector) Paste(ctx context.Context, id string) (store.Entry, error) {
	entry, err := i.sel.Select(ctx, id)
	if err != nil {
		return store.Entry{}, err
	}

	if err := i.board.Write(clipboard.Payload{Kind: entry.Kind, Data: entry.Payload}); err != nil {
		return entry, fmt.Errorf("failed to write clipboard: %w", err)
	}

	if err := i.check.Check(); err != nil {
		return entry, i.failed(entry.ID, err)
	}

	if err := i.focus.Restore(ctx); err != nil {
		i.logger.Warn("failed to restore focus", "error", err)
	}

	if i.delay > 0 {
		t := time.NewTimer(i.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return entry, i.failed(entry.ID, ctx.Err())
		case <-t.C:
		}
	}

	if err := i.keys.Paste(ctx); err != nil {
		return entry, i.failed(entry.ID, err)
	}

	i.logger.Debug("pasted entry", "id", entry.ID, "kind", entry.Kind, "size", entry.Size())
	return entry, nil
}

// failed wraps cause in ErrInjectionFailed and reports it on the bus.
func (i *Injector) failed(id string, cause error) error {
	err := fmt.Errorf("%w: %w", ErrInjectionFailed, cause)
	i.logger.Warn("paste injection failed", "id", id, "error", cause)
	if i.bus != nil {
		i.bus.Publish(events.InjectionFailed{ID: id, Err: err})
	}
	return err
}
