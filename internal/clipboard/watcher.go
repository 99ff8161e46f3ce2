package clipboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yiblet/clipper/internal/logging"
)

// DefaultPollInterval is the change-token polling period.
const DefaultPollInterval = 250 * time.Millisecond

// Sink receives payloads observed on the clipboard.
type Sink interface {
	Ingest(ctx context.Context, p Payload) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p Payload) error

// Ingest calls f.
func (f SinkFunc) Ingest(ctx context.Context, p Payload) error {
	return f(ctx, p)
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Interval between change-token polls. <= 0 uses DefaultPollInterval.
	Interval time.Duration

	// IngestOnStart ingests whatever is on the clipboard when Run starts.
	// Otherwise the starting content is treated as already seen.
	IngestOnStart bool

	Logger *slog.Logger
}

// Watcher polls a Board and forwards every new payload to a Sink.
type Watcher struct {
	board    Board
	sink     Sink
	interval time.Duration
	onStart  bool
	logger   *slog.Logger

	last   uint64
	primed bool
}

// NewWatcher creates a Watcher.
func NewWatcher(board Board, sink Sink, opts WatcherOptions) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	return &Watcher{
		board:    board,
		sink:     sink,
		interval: opts.Interval,
		onStart:  opts.IngestOnStart,
		logger:   logging.Default(opts.Logger).With("component", "watcher", "board", board.Name()),
	}
}

// Run polls until ctx is canceled. It only returns ctx's error; read and
// ingest failures are logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching clipboard", "interval", w.interval)

	w.prime(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("clipboard watcher stopped")
			return ctx.Err()
		case <-t.C:
			w.Poll(ctx)
		}
	}
}

// prime records the starting token, ingesting the current content when
// configured to.
func (w *Watcher) prime(ctx context.Context) {
	token, err := w.board.ChangeToken()
	if err != nil {
		w.logger.Warn("failed to read change token", "error", err)
		return
	}
	w.last = token
	w.primed = true
	if w.onStart {
		if _, err := w.ingest(ctx); err != nil {
			w.primed = false // retry on the next tick
		}
	}
}

// Poll checks the change token once and ingests the clipboard if it moved.
// It reports whether a payload was handed to the sink. A failed read leaves
// the token unconsumed so the next Poll tries again.
func (w *Watcher) Poll(ctx context.Context) bool {
	token, err := w.board.ChangeToken()
	if err != nil {
		w.logger.Warn("failed to read change token", "error", err)
		return false
	}
	if w.primed && token == w.last {
		return false
	}

	ok, err := w.ingest(ctx)
	if err != nil {
		return false
	}
	w.last = token
	w.primed = true
	return ok
}

// ingest reads the board and hands the payload to the sink. The error is
// non-nil only for failures worth retrying.
func (w *Watcher) ingest(ctx context.Context) (bool, error) {
	p, err := w.board.Read()
	if errors.Is(err, ErrUnsupported) {
		w.logger.Debug("skipping unsupported clipboard content")
		return false, nil
	}
	if err != nil {
		w.logger.Warn("failed to read clipboard", "error", err)
		return false, err
	}
	if err := w.sink.Ingest(ctx, p); err != nil {
		w.logger.Warn("failed to ingest clipboard payload", "kind", p.Kind, "error", err)
		return false, nil
	}
	return true, nil
}
