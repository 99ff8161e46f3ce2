package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/hotkey"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Forward relays listener events and bus events to the program until ctx is
// canceled or the subscription closes. Either channel may be nil.
func Forward(ctx context.Context, p Sender, keys <-chan hotkey.Event, sub *events.Subscription) error {
	var bus <-chan events.Event
	if sub != nil {
		bus = sub.C()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-keys:
			p.Send(HotkeyMsg{Event: ev})
		case ev, ok := <-bus:
			if !ok {
				return nil
			}
			if msg := translate(ev); msg != nil {
				p.Send(msg)
			}
		}
	}
}

func translate(ev events.Event) tea.Msg {
	switch e := ev.(type) {
	case events.HistoryChanged:
		return HistoryChangedMsg{Reason: e.Reason}
	case events.PermissionChanged:
		return PermissionMsg{Status: e.Status}
	case events.InjectionFailed:
		return InjectionFailedMsg{ID: e.ID, Err: e.Err}
	}
	return nil
}
