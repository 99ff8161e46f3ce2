package inject

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yiblet/clipper/internal/access"
	"github.com/yiblet/clipper/internal/clipboard/mockboard"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/store"
)

type fakeSelector map[string]store.Entry

func (f fakeSelector) Select(_ context.Context, id string) (store.Entry, error) {
	e, ok := f[id]
	if !ok {
		return store.Entry{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return e, nil
}

type fakeKeys struct {
	calls int
	err   error
	order *[]string
}

func (k *fakeKeys) Paste(context.Context) error {
	k.calls++
	*k.order = append(*k.order, "paste")
	return k.err
}

type fakeFocus struct {
	remembered int
	restored   int
	err        error
	order      *[]string
}

func (f *fakeFocus) Remember() error {
	f.remembered++
	return nil
}

func (f *fakeFocus) Restore(context.Context) error {
	f.restored++
	*f.order = append(*f.order, "restore")
	return f.err
}

type fixture struct {
	inj   *Injector
	board *mockboard.MockBoard
	keys  *fakeKeys
	focus *fakeFocus
	bus   *events.Bus
	order *[]string
}

func newFixture(checker access.Checker, delay time.Duration) *fixture {
	order := &[]string{}
	f := &fixture{
		board: mockboard.New(),
		keys:  &fakeKeys{order: order},
		focus: &fakeFocus{order: order},
		bus:   events.NewBus(),
		order: order,
	}
	f.inj = New(Options{
		Board: f.board,
		Selector: fakeSelector{
			"t1": {ID: "t1", Kind: store.KindText, Payload: []byte("hello")},
			"i1": {ID: "i1", Kind: store.KindImage, Payload: []byte("\x89PNG\r\n\x1a\nx")},
		},
		Keystroker: f.keys,
		Focus:      f.focus,
		Checker:    checker,
		Delay:      delay,
		Bus:        f.bus,
	})
	return f
}

func TestInjector_PasteText(t *testing.T) {
	f := newFixture(access.Granted(), time.Millisecond)

	entry, err := f.inj.Paste(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "t1", entry.ID)

	writes := f.board.Writes()
	require.Len(t, writes, 1)
	require.Equal(t, store.KindText, writes[0].Kind)
	require.Equal(t, "hello", string(writes[0].Data))

	require.Equal(t, []string{"restore", "paste"}, *f.order)
}

func TestInjector_PasteImageByteIdentical(t *testing.T) {
	f := newFixture(access.Granted(), 0)

	_, err := f.inj.Paste(context.Background(), "i1")
	require.NoError(t, err)

	p, err := f.board.Read()
	require.NoError(t, err)
	require.Equal(t, store.KindImage, p.Kind)
	require.Equal(t, []byte("\x89PNG\r\n\x1a\nx"), p.Data)
}

func TestInjector_NotFoundWritesNothing(t *testing.T) {
	f := newFixture(access.Granted(), 0)

	_, err := f.inj.Paste(context.Background(), "gone")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Empty(t, f.board.Writes())
	require.Zero(t, f.keys.calls)
}

func TestInjector_PermissionDeniedKeepsClipboard(t *testing.T) {
	f := newFixture(access.Denied("untrusted"), 0)

	_, err := f.inj.Paste(context.Background(), "t1")
	require.ErrorIs(t, err, ErrInjectionFailed)
	require.ErrorIs(t, err, access.ErrPermissionDenied)

	// The clipboard write stays in effect for a manual paste.
	require.Len(t, f.board.Writes(), 1)
	require.Zero(t, f.keys.calls)
}

func TestInjector_KeystrokeFailure(t *testing.T) {
	f := newFixture(access.Granted(), 0)
	f.keys.err = errors.New("event tap disabled")
	sub := f.bus.Subscribe(4)

	_, err := f.inj.Paste(context.Background(), "t1")
	require.ErrorIs(t, err, ErrInjectionFailed)
	require.Contains(t, err.Error(), "event tap disabled")
	require.Len(t, f.board.Writes(), 1)

	ev := <-sub.C()
	failed, ok := ev.(events.InjectionFailed)
	require.True(t, ok)
	require.Equal(t, "t1", failed.ID)
	require.ErrorIs(t, failed.Err, ErrInjectionFailed)
}

func TestInjector_FocusFailureStillPastes(t *testing.T) {
	f := newFixture(access.Granted(), 0)
	f.focus.err = errors.New("app quit")

	_, err := f.inj.Paste(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, 1, f.keys.calls)
}

func TestInjector_BoardWriteFailure(t *testing.T) {
	f := newFixture(access.Granted(), 0)
	f.board.SetWriteError(errors.New("pasteboard locked"))

	_, err := f.inj.Paste(context.Background(), "t1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInjectionFailed)
	require.Zero(t, f.keys.calls)
}

func TestInjector_CanceledDuringDelay(t *testing.T) {
	f := newFixture(access.Granted(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.inj.Paste(ctx, "t1")
	require.ErrorIs(t, err, ErrInjectionFailed)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, f.keys.calls)
}

func TestInjector_RememberFocus(t *testing.T) {
	f := newFixture(access.Granted(), 0)
	f.inj.RememberFocus()
	require.Equal(t, 1, f.focus.remembered)
}
