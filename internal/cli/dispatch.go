package cli

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/hotkey"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
	"github.com/yiblet/clipper/internal/tui"
)

// Lister is the part of the engine the dispatcher reads.
type Lister interface {
	List(opts store.ListOptions) []store.Entry
}

// Dispatcher turns listener events into selection moves and pastes when no
// overlay is drawn. The selection walks a snapshot of the history taken when
// the toggle hotkey shows it.
type Dispatcher struct {
	history Lister
	paster  tui.Paster
	vis     tui.Visibility
	logger  *slog.Logger

	mu      sync.Mutex
	visible bool
	cursor  int
	entries []store.Entry
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(history Lister, paster tui.Paster, vis tui.Visibility, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		history: history,
		paster:  paster,
		vis:     vis,
		logger:  logging.Default(logger).With("component", "dispatch"),
	}
}

// Selection returns the highlighted id. It has the hotkey.SelectionFunc shape.
func (d *Dispatcher) Selection() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.visible || d.cursor >= len(d.entries) {
		return "", false
	}
	return d.entries[d.cursor].ID, true
}

// Run handles events until ctx is canceled or events closes.
func (d *Dispatcher) Run(ctx context.Context, events <-chan hotkey.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle applies one event.
func (d *Dispatcher) Handle(ctx context.Context, ev hotkey.Event) {
	switch ev.Kind {
	case hotkey.ToggleVisibility:
		if d.isVisible() {
			d.hide()
		} else {
			d.show()
		}
	case hotkey.NavigateUp:
		d.move(-1)
	case hotkey.NavigateDown:
		d.move(1)
	case hotkey.Dismiss:
		d.hide()
	case hotkey.Confirm:
		id := ev.ID
		if id == "" {
			id, _ = d.Selection()
		}
		d.hide()
		if id == "" {
			return
		}
		entry, err := d.paster.Paste(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			d.logger.Warn("selected entry no longer exists", "id", id)
		case err != nil:
			// The injector already logged and published the failure.
			d.logger.Debug("paste incomplete", "id", id, "error", err)
		default:
			d.logger.Info("pasted", "id", entry.ID, "preview", engine.Preview(entry, engine.DefaultPreviewWidth))
		}
	}
}

func (d *Dispatcher) isVisible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible
}

func (d *Dispatcher) show() {
	d.paster.RememberFocus()

	d.mu.Lock()
	d.entries = d.history.List(store.ListOptions{})
	d.cursor = 0
	d.visible = true
	d.mu.Unlock()

	d.setVisible(true)
	d.announce()
}

func (d *Dispatcher) hide() {
	d.mu.Lock()
	wasVisible := d.visible
	d.visible = false
	d.entries = nil
	d.cursor = 0
	d.mu.Unlock()

	if wasVisible {
		d.setVisible(false)
	}
}

func (d *Dispatcher) move(delta int) {
	d.mu.Lock()
	if !d.visible || len(d.entries) == 0 {
		d.mu.Unlock()
		return
	}
	d.cursor = min(max(d.cursor+delta, 0), len(d.entries)-1)
	d.mu.Unlock()
	d.announce()
}

func (d *Dispatcher) setVisible(visible bool) {
	if d.vis == nil {
		return
	}
	if err := d.vis.SetVisible(visible); err != nil {
		d.logger.Warn("failed to update navigation keys", "visible", visible, "error", err)
	}
}

// announce logs the highlighted entry, the only feedback headless mode has.
func (d *Dispatcher) announce() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.entries) == 0 {
		d.logger.Info("history is empty")
		return
	}
	e := d.entries[d.cursor]
	d.logger.Info("selected", "position", d.cursor, "count", len(d.entries), "id", e.ID,
		"preview", engine.Preview(e, engine.DefaultPreviewWidth))
}
