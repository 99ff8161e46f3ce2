package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/hotkey"
)

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func receive(t *testing.T, c chanSender) tea.Msg {
	t.Helper()
	select {
	case msg := <-c:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func TestForward(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()
	sub := bus.Subscribe(8)
	keys := make(chan hotkey.Event, 1)
	out := make(chanSender, 4)

	done := make(chan error, 1)
	go func() { done <- Forward(ctx, out, keys, sub) }()

	keys <- hotkey.Event{Kind: hotkey.Confirm, ID: "e1"}
	if msg, ok := receive(t, out).(HotkeyMsg); !ok || msg.Event.ID != "e1" {
		t.Errorf("Expected HotkeyMsg for e1, got %#v", msg)
	}

	bus.Publish(events.HistoryChanged{Reason: events.ReasonCleared})
	if msg, ok := receive(t, out).(HistoryChangedMsg); !ok || msg.Reason != events.ReasonCleared {
		t.Errorf("Expected HistoryChangedMsg, got %#v", msg)
	}

	bus.Publish(events.PermissionChanged{Status: events.PermissionDenied})
	if msg, ok := receive(t, out).(PermissionMsg); !ok || msg.Status != events.PermissionDenied {
		t.Errorf("Expected PermissionMsg, got %#v", msg)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Forward() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Forward did not return after cancel")
	}
}

func TestForward_SubscriptionClosed(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe(8)
	sub.Unsubscribe()

	err := Forward(context.Background(), make(chanSender, 1), nil, sub)
	if err != nil {
		t.Errorf("Forward() error = %v, want nil", err)
	}
}
