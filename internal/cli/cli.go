// Package cli wires clipper's commands to the history engine.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yiblet/clipper/internal/clipfs"
	"github.com/yiblet/clipper/internal/config"
	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
	"github.com/yiblet/clipper/internal/store/dbstore"
	"github.com/yiblet/clipper/internal/store/filestore"
)

// CLI handles the command-line interface
type CLI struct {
	cm     *config.ConfigManager
	cfg    *config.Config
	cfs    *clipfs.ClipFS
	logger *slog.Logger

	in  io.Reader
	out io.Writer
}

// New creates a CLI on the process's standard streams and installs its
// logger as the slog default.
func New(args *Args) (*CLI, error) {
	c, err := NewWithIO(args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(c.logger)
	return c, nil
}

// NewWithIO creates a CLI reading prompts from in, printing results to out
// and logging to errOut.
func NewWithIO(args *Args, in io.Reader, out, errOut io.Writer) (*CLI, error) {
	// Config path precedence: flag > env var (go-arg) > default
	var cm *config.ConfigManager
	if args.ConfigPath != nil {
		cm = config.NewConfigManagerWithPath(*args.ConfigPath)
	} else {
		var err error
		cm, err = config.NewConfigManager()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := cm.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if args.DataDir != nil {
		cfg.Storage.DataDir = *args.DataDir
	}
	if args.LogLevel != nil {
		cfg.Log.Level = *args.LogLevel
	}

	cfs, err := clipfs.NewWithDataDir(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	return &CLI{
		cm:     cm,
		cfg:    cfg,
		cfs:    cfs,
		logger: logging.New(errOut, logging.ParseFormat(cfg.Log.Format), logging.ParseLevel(cfg.Log.Level)),
		in:     in,
		out:    out,
	}, nil
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(ctx context.Context, args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	switch {
	case args.List != nil:
		return c.executeList(ctx, args.List)
	case args.Search != nil:
		return c.executeSearch(ctx, args.Search)
	case args.Pin != nil:
		return c.edit(ctx, func(eng *engine.Engine) error {
			return c.report(eng.Pin(args.Pin.ID), "pin", "Pinned", args.Pin.ID)
		})
	case args.Unpin != nil:
		return c.edit(ctx, func(eng *engine.Engine) error {
			return c.report(eng.Unpin(args.Unpin.ID), "unpin", "Unpinned", args.Unpin.ID)
		})
	case args.Delete != nil:
		return c.edit(ctx, func(eng *engine.Engine) error {
			return c.report(eng.Delete(args.Delete.ID), "delete", "Deleted", args.Delete.ID)
		})
	case args.Clear != nil:
		return c.executeClear(ctx, args.Clear)
	case args.Config != nil:
		return c.executeConfig(args.Config)
	case args.Run != nil:
		return c.executeRun(ctx, args.Run)
	default:
		// Default behavior: run with the overlay
		return c.executeRun(ctx, &RunCmd{})
	}
}

// openPersister opens the configured storage backend
func (c *CLI) openPersister() (store.Persister, error) {
	switch c.cfg.Storage.Backend {
	case config.BackendFile:
		fileStore, err := filestore.New(c.cfs, clipfs.HistorySnapshot, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open history file: %w", err)
		}
		return fileStore, nil
	default:
		db, err := dbstore.NewSQLiteStore(c.cfs.Path(clipfs.HistoryDB), c.logger)
		if errors.Is(err, store.ErrCorrupt) {
			db, err = c.replaceCorruptDB(err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		return db, nil
	}
}

// replaceCorruptDB moves an unreadable history database aside and opens a
// fresh one in its place. History starts empty.
func (c *CLI) replaceCorruptDB(cause error) (*dbstore.SQLiteStore, error) {
	now := time.Now()
	aside, err := c.cfs.SetAside(clipfs.HistoryDB, now)
	if err != nil {
		return nil, fmt.Errorf("failed to move corrupt database aside: %w", err)
	}
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if _, err := c.cfs.SetAside(clipfs.HistoryDB+suffix, now); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("failed to move database sidecar aside", "file", clipfs.HistoryDB+suffix, "error", err)
		}
	}
	c.logger.Warn("history database is corrupt, starting with empty history",
		"error", cause, "moved_to", c.cfs.Path(aside))
	return dbstore.NewSQLiteStore(c.cfs.Path(clipfs.HistoryDB), c.logger)
}

// openEngine builds an engine over the configured backend and restores the
// saved history. The caller must Close it.
func (c *CLI) openEngine(ctx context.Context) (*engine.Engine, error) {
	p, err := c.openPersister()
	if err != nil {
		return nil, err
	}

	pinOrder, err := store.ParsePinOrder(c.cfg.PinOrder)
	if err != nil {
		p.Close()
		return nil, err
	}

	eng := engine.New(engine.Options{
		HistoryLimit:  c.cfg.HistoryLimit,
		PinOrder:      pinOrder,
		Persister:     p,
		FlushInterval: c.cfg.FlushInterval,
		Logger:        c.logger,
	})
	if err := eng.Load(ctx); err != nil {
		eng.Close()
		return nil, err
	}
	return eng, nil
}

// edit applies fn to the saved history and writes it back. It refuses to run
// while another clipper process owns the data directory.
func (c *CLI) edit(ctx context.Context, fn func(*engine.Engine) error) error {
	lock, err := c.cfs.Acquire()
	if err != nil {
		if errors.Is(err, clipfs.ErrLocked) {
			return fmt.Errorf("%w; stop it before editing history", err)
		}
		return err
	}
	defer lock.Release()

	eng, err := c.openEngine(ctx)
	if err != nil {
		return err
	}
	if err := fn(eng); err != nil {
		eng.Close()
		return err
	}
	return eng.Close()
}

func (c *CLI) report(err error, action, done, id string) error {
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, id, err)
	}
	fmt.Fprintf(c.out, "%s %s\n", done, id)
	return nil
}

// read opens the saved history for a read-only command
func (c *CLI) read(ctx context.Context, fn func(*engine.Engine)) error {
	eng, err := c.openEngine(ctx)
	if err != nil {
		return err
	}
	fn(eng)
	return eng.Close()
}

// executeList handles the 'clipper list' command
func (c *CLI) executeList(ctx context.Context, cmd *ListCmd) error {
	return c.read(ctx, func(eng *engine.Engine) {
		entries := eng.List(store.ListOptions{PinnedOnly: cmd.Pinned, Limit: cmd.Limit})
		if len(entries) == 0 {
			fmt.Fprintln(c.out, "History is empty.")
			return
		}
		for _, e := range entries {
			c.printEntry(e, cmd.Full)
		}
	})
}

// executeSearch handles the 'clipper search' command
func (c *CLI) executeSearch(ctx context.Context, cmd *SearchCmd) error {
	var matches []store.Entry
	err := c.read(ctx, func(eng *engine.Engine) {
		matches = eng.Search(cmd.Term, store.ListOptions{PinnedOnly: cmd.Pinned, Limit: cmd.Limit})
	})
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no matches found for %q", cmd.Term)
	}
	for _, e := range matches {
		c.printEntry(e, false)
	}
	return nil
}

// printEntry writes one line per entry: id, pin marker, preview
func (c *CLI) printEntry(e store.Entry, full bool) {
	marker := " "
	if e.Pinned {
		marker = "*"
	}
	body := engine.Preview(e, engine.DefaultPreviewWidth)
	if full && e.Kind == store.KindText {
		body = e.Text()
	}
	fmt.Fprintf(c.out, "%s %s %s\n", e.ID, marker, body)
}

// executeClear handles the 'clipper clear' command
func (c *CLI) executeClear(ctx context.Context, cmd *ClearCmd) error {
	return c.edit(ctx, func(eng *engine.Engine) error {
		pinned, unpinned := eng.Counts()
		n := pinned + unpinned
		if cmd.KeepPinned {
			n = unpinned
		}
		if n == 0 {
			fmt.Fprintln(c.out, "Nothing to clear.")
			return nil
		}

		// Prompt for confirmation unless --force is used
		if !cmd.Force {
			fmt.Fprintf(c.out, "This will delete %d item(s) from history. Continue? [y/N]: ", n)
			var response string
			fmt.Fscanln(c.in, &response)
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
		}

		removed := eng.Clear(cmd.KeepPinned)
		fmt.Fprintf(c.out, "Cleared %d item(s) from history.\n", removed)
		return nil
	})
}

// executeConfig handles the 'clipper config' command
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.cm.Get(cmd.Get.Key)
		if err != nil {
			return fmt.Errorf("failed to get config value: %w", err)
		}
		fmt.Fprintln(c.out, value)
		return nil
	case cmd.Set != nil:
		if err := c.cm.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return fmt.Errorf("failed to set config value: %w", err)
		}
		fmt.Fprintf(c.out, "Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
		return nil
	case cmd.List != nil:
		values, err := c.cm.List()
		if err != nil {
			return fmt.Errorf("failed to list config values: %w", err)
		}
		fmt.Fprintf(c.out, "Configuration (%s):\n", c.cm.GetConfigPath())
		for _, key := range config.Keys {
			fmt.Fprintf(c.out, "  %s = %s\n", key, values[key])
		}
		return nil
	default:
		return fmt.Errorf("no config subcommand specified")
	}
}
