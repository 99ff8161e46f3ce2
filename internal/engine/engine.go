// Package engine ties the history store, persistence and event bus together.
// It is the single entry point the watcher, the injector and the UI use to
// read and mutate clipboard history.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
	"github.com/yiblet/clipper/internal/store/memstore"
)

const (
	// DefaultFlushInterval is how often dirty history is written to disk.
	DefaultFlushInterval = 30 * time.Second

	flushJobName = "flush-history"
	flushTimeout = 10 * time.Second
)

// Options configures an Engine.
type Options struct {
	// HistoryLimit caps unpinned entries. 0 means memstore.DefaultCapacity.
	HistoryLimit int
	PinOrder     store.PinOrder

	// Persister stores history between runs. nil keeps history in memory.
	Persister store.Persister

	// Bus receives HistoryChanged events. nil creates a private bus.
	Bus *events.Bus

	// FlushInterval is the periodic save interval used by Start.
	FlushInterval time.Duration

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Engine manages clipboard history on behalf of every collaborator.
type Engine struct {
	store     *memstore.Store
	persister store.Persister
	bus       *events.Bus
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time

	flushMu      sync.Mutex
	savedVersion uint64

	scheduler gocron.Scheduler
	closeOnce sync.Once
}

var _ clipboard.Sink = (*Engine)(nil)

// New creates an engine with an empty history. Call Load to restore saved
// history before the watcher starts.
func New(opts Options) *Engine {
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := memstore.New(memstore.Options{
		Capacity: opts.HistoryLimit,
		PinOrder: opts.PinOrder,
		NewID:    opts.NewID,
	})

	return &Engine{
		store:        s,
		persister:    opts.Persister,
		bus:          opts.Bus,
		interval:     opts.FlushInterval,
		logger:       logging.Default(opts.Logger).With("component", "engine"),
		now:          opts.Now,
		savedVersion: s.Version(),
	}
}

// Bus returns the event bus the engine publishes on.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// HistoryLimit returns the unpinned capacity.
func (e *Engine) HistoryLimit() int {
	return e.store.Capacity()
}

// Load restores persisted history. Unreadable or corrupt state is logged and
// the engine starts empty.
func (e *Engine) Load(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}

	entries, err := e.persister.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrCorrupt) {
			return fmt.Errorf("failed to load history: %w", err)
		}
		e.logger.Warn("saved history is corrupt, starting empty", "error", err)
		entries = nil
	}

	n := e.store.Restore(entries)
	if n < len(entries) {
		e.logger.Warn("dropped invalid or duplicate saved entries", "kept", n, "saved", len(entries))
	}

	e.flushMu.Lock()
	e.savedVersion = e.store.Version()
	e.flushMu.Unlock()

	e.logger.Info("history loaded", "entries", n)
	e.bus.Publish(events.HistoryChanged{Reason: events.ReasonLoaded})
	return nil
}

// Ingest records a clipboard payload. It implements clipboard.Sink.
func (e *Engine) Ingest(ctx context.Context, p clipboard.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := e.store.Ingest(p.Kind, p.Data, p.Source, e.now())
	if err != nil {
		return fmt.Errorf("failed to ingest %s payload: %w", p.Kind, err)
	}

	reason := events.ReasonIngested
	if !res.Created {
		reason = events.ReasonDeduped
	}
	e.logger.Debug("clipboard ingested",
		"id", res.Entry.ID, "kind", res.Entry.Kind, "size", res.Entry.Size(), "reason", reason)
	e.bus.Publish(events.HistoryChanged{Reason: reason, ID: res.Entry.ID})
	e.publishEvicted(res.Evicted)
	return nil
}

// List returns entries in display order.
func (e *Engine) List(opts store.ListOptions) []store.Entry {
	return e.store.List(opts)
}

// Search returns text entries containing term, in display order.
func (e *Engine) Search(term string, opts store.ListOptions) []store.Entry {
	return e.store.Search(term, opts)
}

// Get returns a single entry.
func (e *Engine) Get(id string) (store.Entry, error) {
	return e.store.Get(id)
}

// Select marks an entry as used for a paste and returns it. It implements
// inject.Selector.
func (e *Engine) Select(ctx context.Context, id string) (store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return store.Entry{}, err
	}
	entry, err := e.store.Select(id, e.now())
	if err != nil {
		return store.Entry{}, err
	}
	e.bus.Publish(events.HistoryChanged{Reason: events.ReasonSelected, ID: id})
	return entry, nil
}

// Pin protects an entry from eviction.
func (e *Engine) Pin(id string) error {
	if err := e.store.Pin(id, e.now()); err != nil {
		return err
	}
	e.bus.Publish(events.HistoryChanged{Reason: events.ReasonPinned, ID: id})
	return nil
}

// Unpin makes an entry evictable again. Capacity is enforced on the next
// ingest.
func (e *Engine) Unpin(id string) error {
	if err := e.store.Unpin(id); err != nil {
		return err
	}
	e.bus.Publish(events.HistoryChanged{Reason: events.ReasonUnpinned, ID: id})
	return nil
}

// Delete removes an entry, pinned or not.
func (e *Engine) Delete(id string) error {
	if err := e.store.Delete(id); err != nil {
		return err
	}
	e.bus.Publish(events.HistoryChanged{Reason: events.ReasonDeleted, ID: id})
	return nil
}

// Clear removes every entry, or only unpinned ones when keepPinned is set.
// It returns the number removed.
func (e *Engine) Clear(keepPinned bool) int {
	n := e.store.Clear(keepPinned)
	if n > 0 {
		e.bus.Publish(events.HistoryChanged{Reason: events.ReasonCleared})
	}
	return n
}

// Counts returns the number of pinned and unpinned entries.
func (e *Engine) Counts() (pinned, unpinned int) {
	return e.store.Counts()
}

// Dirty reports whether history changed since the last successful flush.
func (e *Engine) Dirty() bool {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()
	return e.store.Version() != e.savedVersion
}

// Flush saves history if it changed since the last save.
func (e *Engine) Flush(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}

	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	version := e.store.Version()
	if version == e.savedVersion {
		return nil
	}

	// Snapshot and version are read separately; a concurrent mutation only
	// leaves the engine dirty for the next flush.
	snapshot := e.store.Snapshot()
	if err := e.persister.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to flush history: %w", err)
	}
	e.savedVersion = version
	e.logger.Debug("history flushed", "entries", len(snapshot), "version", version)
	return nil
}

// Start schedules periodic flushes.
func (e *Engine) Start() error {
	if e.persister == nil {
		return nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create flush scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(e.interval),
		gocron.NewTask(e.periodicFlush),
		gocron.WithName(flushJobName),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule %s: %w", flushJobName, err)
	}

	e.scheduler = s
	s.Start()
	e.logger.Info("flush scheduler started", "interval", e.interval)
	return nil
}

func (e *Engine) periodicFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := e.Flush(ctx); err != nil {
		e.logger.Error("periodic flush failed", "error", err)
	}
}

// Close stops the flush scheduler, saves history one last time and closes the
// persister.
func (e *Engine) Close() error {
	var errs []error
	e.closeOnce.Do(func() {
		if e.scheduler != nil {
			if err := e.scheduler.Shutdown(); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop flush scheduler: %w", err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := e.Flush(ctx); err != nil {
			errs = append(errs, err)
		}

		if e.persister != nil {
			if err := e.persister.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close persister: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}

func (e *Engine) publishEvicted(evicted []store.Entry) {
	for _, ev := range evicted {
		e.logger.Debug("entry evicted", "id", ev.ID)
		e.bus.Publish(events.HistoryChanged{Reason: events.ReasonEvicted, ID: ev.ID})
	}
}
