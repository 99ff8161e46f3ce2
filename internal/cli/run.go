package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/clipboard/sysboard"
	"github.com/yiblet/clipper/internal/clipfs"
	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/hotkey"
	"github.com/yiblet/clipper/internal/hotkey/systap"
	"github.com/yiblet/clipper/internal/inject"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/tui"
)

// daemon is the set of long-running parts behind 'clipper run'.
type daemon struct {
	eng      *engine.Engine
	watcher  *clipboard.Watcher
	listener *hotkey.Listener
	injector *inject.Injector
	logger   *slog.Logger
}

// executeRun handles the 'clipper run' command
func (c *CLI) executeRun(ctx context.Context, cmd *RunCmd) error {
	lock, err := c.cfs.Acquire()
	if err != nil {
		return err
	}
	defer lock.Release()

	// The overlay owns the terminal, so logs go to a file.
	if !cmd.Headless {
		f, err := logging.OpenFile(c.cfs.Path(clipfs.LogFile))
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		c.logger = logging.New(f, logging.ParseFormat(c.cfg.Log.Format), logging.ParseLevel(c.cfg.Log.Level))
	}

	eng, err := c.openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			c.logger.Error("failed to save history on exit", "error", err)
		}
	}()
	if err := eng.Start(); err != nil {
		return err
	}

	board, err := sysboard.New()
	if err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	combo, err := c.cfg.Combo()
	if err != nil {
		return err
	}

	d := &daemon{
		eng: eng,
		watcher: clipboard.NewWatcher(board, eng, clipboard.WatcherOptions{
			Interval:      c.cfg.PollInterval,
			IngestOnStart: c.cfg.IngestOnStart,
			Logger:        c.logger,
		}),
		listener: hotkey.New(systap.New(), hotkey.Options{
			Toggle: combo,
			Bus:    eng.Bus(),
			Logger: c.logger,
		}),
		injector: inject.New(inject.Options{
			Board:    board,
			Selector: eng,
			Delay:    c.cfg.PasteDelay,
			Bus:      eng.Bus(),
			Logger:   c.logger,
		}),
		logger: c.logger.With("component", "run"),
	}

	if cmd.Headless {
		return d.runHeadless(ctx)
	}
	return d.runOverlay(ctx, combo.String())
}

// start registers the toggle hotkey. Missing permission is not fatal; a
// registration failure while permitted is.
func (d *daemon) start() error {
	if err := d.listener.Start(); err != nil {
		return err
	}
	if d.listener.State() == hotkey.StatePermissionDenied {
		d.logger.Warn("running without hotkeys", "error", d.listener.PermissionError())
	}
	return nil
}

func (d *daemon) stop() {
	if err := d.listener.Stop(); err != nil {
		d.logger.Warn("failed to unregister hotkeys", "error", err)
	}
}

// runHeadless serves hotkeys and paste without a terminal overlay.
func (d *daemon) runHeadless(ctx context.Context) error {
	if err := d.start(); err != nil {
		return err
	}
	defer d.stop()

	dispatcher := NewDispatcher(d.eng, d.injector, d.listener, d.logger)
	d.listener.SetSelection(dispatcher.Selection)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.watcher.Run(ctx) })
	g.Go(func() error { return dispatcher.Run(ctx, d.listener.Events()) })
	return ignoreCanceled(g.Wait())
}

// runOverlay serves the terminal overlay. Quitting the overlay stops the
// watcher and the listener.
func (d *daemon) runOverlay(ctx context.Context, hotkeyLabel string) error {
	if err := d.start(); err != nil {
		return err
	}
	defer d.stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	permission := events.PermissionGranted
	if d.listener.State() == hotkey.StatePermissionDenied {
		permission = events.PermissionDenied
	}

	app := tui.NewAppModel(tui.Options{
		History:    d.eng,
		Paster:     d.injector,
		Visibility: d.listener,
		Rechecker:  d.listener,
		Hotkey:     hotkeyLabel,
		Permission: permission,
		Context:    ctx,
	})
	d.listener.SetSelection(app.Selection().Get)

	sub := d.eng.Bus().Subscribe(64)
	defer sub.Unsubscribe()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.watcher.Run(gctx) })
	g.Go(func() error { return tui.Forward(gctx, p, d.listener.Events(), sub) })
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("overlay failed: %w", err)
		}
		return nil
	})
	return ignoreCanceled(g.Wait())
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
