package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yiblet/clipper/internal/access"
	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/clipboard/mockboard"
	"github.com/yiblet/clipper/internal/clipfs"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/inject"
	"github.com/yiblet/clipper/internal/store"
	"github.com/yiblet/clipper/internal/store/filestore"
)

type fakePersister struct {
	mu      sync.Mutex
	loaded  []store.Entry
	loadErr error
	saveErr error
	saves   [][]store.Entry
	closed  bool
}

func (p *fakePersister) Load(ctx context.Context) ([]store.Entry, error) {
	return p.loaded, p.loadErr
}

func (p *fakePersister) Save(ctx context.Context, entries []store.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves = append(p.saves, entries)
	return nil
}

func (p *fakePersister) Close() error {
	p.closed = true
	return nil
}

func (p *fakePersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newEngine(t *testing.T, limit int, p store.Persister) *Engine {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	n := 0
	return New(Options{
		HistoryLimit: limit,
		Persister:    p,
		Now:          c.now,
		NewID: func() string {
			n++
			return fmt.Sprintf("e%d", n)
		},
	})
}

func text(s string) clipboard.Payload {
	return clipboard.Payload{Kind: store.KindText, Data: []byte(s)}
}

func previews(entries []store.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = Preview(e, DefaultPreviewWidth)
	}
	return out
}

func drain(sub *events.Subscription) []events.HistoryChanged {
	var out []events.HistoryChanged
	for {
		select {
		case ev := <-sub.C():
			if hc, ok := ev.(events.HistoryChanged); ok {
				out = append(out, hc)
			}
		default:
			return out
		}
	}
}

func TestEngine_PinScenario(t *testing.T) {
	e := newEngine(t, 2, nil)
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\nimage-one")

	require.NoError(t, e.Ingest(ctx, text("alpha")))
	require.NoError(t, e.Ingest(ctx, text("beta")))
	require.NoError(t, e.Ingest(ctx, clipboard.Payload{Kind: store.KindImage, Data: png}))

	list := e.List(store.ListOptions{})
	require.Len(t, list, 2)
	require.Equal(t, store.KindImage, list[0].Kind)
	require.Equal(t, "beta", list[1].Text())

	e = newEngine(t, 3, nil)
	require.NoError(t, e.Ingest(ctx, text("alpha")))
	require.NoError(t, e.Ingest(ctx, text("beta")))
	require.NoError(t, e.Ingest(ctx, clipboard.Payload{Kind: store.KindImage, Data: png}))
	require.Equal(t, []string{"[image 17 B]", "beta", "alpha"}, previews(e.List(store.ListOptions{})))

	alpha := e.List(store.ListOptions{})[2]
	require.NoError(t, e.Pin(alpha.ID))
	require.NoError(t, e.Ingest(ctx, text("gamma")))
	require.NoError(t, e.Ingest(ctx, text("delta")))
	require.NoError(t, e.Ingest(ctx, text("epsilon")))

	got := e.List(store.ListOptions{})
	require.Equal(t, []string{"alpha", "epsilon", "delta", "gamma"}, previews(got))
	require.True(t, got[0].Pinned)
}

func TestEngine_NotFound(t *testing.T) {
	e := newEngine(t, 5, nil)
	ctx := context.Background()

	require.NoError(t, e.Ingest(ctx, text("keep")))
	require.NoError(t, e.Ingest(ctx, text("drop")))
	drop := e.List(store.ListOptions{})[0]
	require.NoError(t, e.Delete(drop.ID))

	_, err := e.Select(ctx, drop.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	before := e.List(store.ListOptions{})
	require.ErrorIs(t, e.Pin("unknown"), store.ErrNotFound)
	require.ErrorIs(t, e.Unpin("unknown"), store.ErrNotFound)
	require.ErrorIs(t, e.Delete("unknown"), store.ErrNotFound)
	require.Equal(t, before, e.List(store.ListOptions{}))
}

func TestEngine_Events(t *testing.T) {
	e := newEngine(t, 1, nil)
	sub := e.Bus().Subscribe(32)
	ctx := context.Background()

	require.NoError(t, e.Ingest(ctx, text("one")))
	require.NoError(t, e.Ingest(ctx, text("one")))
	require.NoError(t, e.Ingest(ctx, text("two")))
	require.NoError(t, e.Pin("e2"))
	_, err := e.Select(ctx, "e2")
	require.NoError(t, err)
	require.NoError(t, e.Unpin("e2"))
	require.NoError(t, e.Delete("e2"))

	want := []events.HistoryChanged{
		{Reason: events.ReasonIngested, ID: "e1"},
		{Reason: events.ReasonDeduped, ID: "e1"},
		{Reason: events.ReasonIngested, ID: "e2"},
		{Reason: events.ReasonEvicted, ID: "e1"},
		{Reason: events.ReasonPinned, ID: "e2"},
		{Reason: events.ReasonSelected, ID: "e2"},
		{Reason: events.ReasonUnpinned, ID: "e2"},
		{Reason: events.ReasonDeleted, ID: "e2"},
	}
	require.Equal(t, want, drain(sub))

	require.Equal(t, 0, e.Clear(false))
	require.Empty(t, drain(sub))
}

func TestEngine_UnpinDefersEviction(t *testing.T) {
	e := newEngine(t, 1, nil)
	ctx := context.Background()

	require.NoError(t, e.Ingest(ctx, text("pinned")))
	require.NoError(t, e.Pin("e1"))
	require.NoError(t, e.Ingest(ctx, text("newer")))

	sub := e.Bus().Subscribe(8)
	require.NoError(t, e.Unpin("e1"))
	require.Equal(t, []events.HistoryChanged{{Reason: events.ReasonUnpinned, ID: "e1"}}, drain(sub))
	_, err := e.Get("e1")
	require.NoError(t, err, "unpinning keeps the entry")

	require.NoError(t, e.Ingest(ctx, text("latest")))
	got := drain(sub)
	require.Contains(t, got, events.HistoryChanged{Reason: events.ReasonEvicted, ID: "e1"})
	require.Contains(t, got, events.HistoryChanged{Reason: events.ReasonEvicted, ID: "e2"})
	_, err = e.Get("e1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngine_IngestRejectsBadKind(t *testing.T) {
	e := newEngine(t, 5, nil)
	err := e.Ingest(context.Background(), clipboard.Payload{Kind: "rtf", Data: []byte("x")})
	require.Error(t, err)
	require.Empty(t, e.List(store.ListOptions{}))
}

func TestEngine_IngestCanceled(t *testing.T) {
	e := newEngine(t, 5, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Ingest(ctx, text("late")), context.Canceled)
	require.Empty(t, e.List(store.ListOptions{}))
}

func TestEngine_SearchAndClear(t *testing.T) {
	e := newEngine(t, 10, nil)
	ctx := context.Background()
	for _, s := range []string{"git status", "go test ./...", "GIT log"} {
		require.NoError(t, e.Ingest(ctx, text(s)))
	}
	require.NoError(t, e.Pin("e1"))

	require.Equal(t, []string{"git status", "GIT log"}, previews(e.Search("git", store.ListOptions{})))
	require.Equal(t, []string{"git status"}, previews(e.Search("git", store.ListOptions{PinnedOnly: true})))

	require.Equal(t, 2, e.Clear(true))
	require.Equal(t, []string{"git status"}, previews(e.List(store.ListOptions{})))
	require.Equal(t, 1, e.Clear(false))
	pinned, unpinned := e.Counts()
	require.Zero(t, pinned)
	require.Zero(t, unpinned)
}

func TestEngine_LoadFailOpen(t *testing.T) {
	p := &fakePersister{loadErr: fmt.Errorf("%w: bad header", store.ErrCorrupt)}
	e := newEngine(t, 5, p)
	sub := e.Bus().Subscribe(4)

	require.NoError(t, e.Load(context.Background()))
	require.Empty(t, e.List(store.ListOptions{}))
	require.Equal(t, []events.HistoryChanged{{Reason: events.ReasonLoaded}}, drain(sub))
	require.False(t, e.Dirty())
}

func TestEngine_LoadOtherError(t *testing.T) {
	boom := errors.New("permission denied")
	e := newEngine(t, 5, &fakePersister{loadErr: boom})
	require.ErrorIs(t, e.Load(context.Background()), boom)
}

func TestEngine_LoadRestores(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	saved := []store.Entry{
		{ID: "p", Kind: store.KindText, Payload: []byte("pinned"), CreatedAt: ts, LastUsedAt: ts, Pinned: true, PinnedAt: ts},
		{ID: "b", Kind: store.KindText, Payload: []byte("newer"), CreatedAt: ts, LastUsedAt: ts.Add(2 * time.Minute)},
		{ID: "a", Kind: store.KindText, Payload: []byte("older"), CreatedAt: ts, LastUsedAt: ts.Add(time.Minute)},
	}
	p := &fakePersister{loaded: saved}
	e := newEngine(t, 5, p)

	require.NoError(t, e.Load(context.Background()))
	require.Equal(t, []string{"pinned", "newer", "older"}, previews(e.List(store.ListOptions{})))
	require.False(t, e.Dirty())
}

func TestEngine_FlushOnlyWhenDirty(t *testing.T) {
	p := &fakePersister{}
	e := newEngine(t, 5, p)
	ctx := context.Background()

	require.NoError(t, e.Flush(ctx))
	require.Equal(t, 0, p.saveCount())

	require.NoError(t, e.Ingest(ctx, text("first")))
	require.True(t, e.Dirty())
	require.NoError(t, e.Flush(ctx))
	require.Equal(t, 1, p.saveCount())
	require.False(t, e.Dirty())

	require.NoError(t, e.Flush(ctx))
	require.Equal(t, 1, p.saveCount())

	require.NoError(t, e.Pin("e1"))
	require.NoError(t, e.Flush(ctx))
	require.Equal(t, 2, p.saveCount())
	require.True(t, p.saves[1][0].Pinned)
}

func TestEngine_FlushErrorStaysDirty(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("disk full")}
	e := newEngine(t, 5, p)
	ctx := context.Background()

	require.NoError(t, e.Ingest(ctx, text("x")))
	require.Error(t, e.Flush(ctx))
	require.True(t, e.Dirty())

	p.saveErr = nil
	require.NoError(t, e.Flush(ctx))
	require.False(t, e.Dirty())
}

func TestEngine_CloseFlushes(t *testing.T) {
	p := &fakePersister{}
	e := newEngine(t, 5, p)

	require.NoError(t, e.Start())
	require.NoError(t, e.Ingest(context.Background(), text("unsaved")))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	require.Equal(t, 1, p.saveCount())
	require.True(t, p.closed)
}

func TestEngine_PeriodicFlush(t *testing.T) {
	p := &fakePersister{}
	e := New(Options{Persister: p, FlushInterval: 20 * time.Millisecond})
	t.Cleanup(func() { e.Close() })

	require.NoError(t, e.Start())
	require.NoError(t, e.Ingest(context.Background(), text("tick")))

	require.Eventually(t, func() bool { return p.saveCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestEngine_NoPersister(t *testing.T) {
	e := newEngine(t, 5, nil)
	require.NoError(t, e.Load(context.Background()))
	require.NoError(t, e.Start())
	require.NoError(t, e.Ingest(context.Background(), text("x")))
	require.NoError(t, e.Close())
}

// TestEngine_FileRoundTrip runs history through a real snapshot file.
func TestEngine_FileRoundTrip(t *testing.T) {
	cfs := clipfs.NewWithRoot(t.TempDir())
	ctx := context.Background()

	fs1, err := filestore.New(cfs, clipfs.HistorySnapshot, nil)
	require.NoError(t, err)
	e := newEngine(t, 5, fs1)
	require.NoError(t, e.Ingest(ctx, text("first")))
	require.NoError(t, e.Ingest(ctx, text("second")))
	require.NoError(t, e.Pin("e1"))
	require.NoError(t, e.Close())

	fs2, err := filestore.New(cfs, clipfs.HistorySnapshot, nil)
	require.NoError(t, err)
	e2 := newEngine(t, 5, fs2)
	t.Cleanup(func() { e2.Close() })
	require.NoError(t, e2.Load(ctx))

	got := e2.List(store.ListOptions{})
	require.Equal(t, []string{"first", "second"}, previews(got))
	require.True(t, got[0].Pinned)
}

// TestEngine_WatchAndPaste drives the full copy, list, paste flow against a
// mock clipboard.
func TestEngine_WatchAndPaste(t *testing.T) {
	board := mockboard.New()
	e := newEngine(t, 5, nil)
	ctx := context.Background()

	w := clipboard.NewWatcher(board, e, clipboard.WatcherOptions{})
	board.SetText("copied first", "Editor")
	require.True(t, w.Poll(ctx))
	board.SetText("copied second", "Terminal")
	require.True(t, w.Poll(ctx))
	require.False(t, w.Poll(ctx))

	list := e.List(store.ListOptions{})
	require.Equal(t, []string{"copied second", "copied first"}, previews(list))
	require.Equal(t, "Terminal", list[0].Source)

	inj := inject.New(inject.Options{
		Board:      board,
		Selector:   e,
		Keystroker: keystrokerFunc(func(context.Context) error { return nil }),
		Focus:      noFocus{},
		Checker:    access.Granted(),
		Delay:      time.Millisecond,
	})
	entry, err := inj.Paste(ctx, list[1].ID)
	require.NoError(t, err)
	require.Equal(t, "copied first", entry.Text())

	writes := board.Writes()
	require.Len(t, writes, 1)
	require.Equal(t, []byte("copied first"), writes[0].Data)
	require.Equal(t, "copied first", e.List(store.ListOptions{})[0].Text())
}

type keystrokerFunc func(context.Context) error

func (f keystrokerFunc) Paste(ctx context.Context) error { return f(ctx) }

type noFocus struct{}

func (noFocus) Remember() error                   { return nil }
func (noFocus) Restore(ctx context.Context) error { return nil }
