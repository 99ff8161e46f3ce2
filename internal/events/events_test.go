package events

import (
	"errors"
	"testing"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)

	bus.Publish(HistoryChanged{Reason: ReasonIngested, ID: "e1"})

	for _, s := range []*Subscription{a, b} {
		ev := <-s.C()
		hc, ok := ev.(HistoryChanged)
		if !ok || hc.ID != "e1" || hc.Reason != ReasonIngested {
			t.Errorf("unexpected event %#v", ev)
		}
	}
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	s := bus.Subscribe(1)

	bus.Publish(PermissionChanged{Status: PermissionDenied})
	bus.Publish(PermissionChanged{Status: PermissionGranted}) // dropped

	if s.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", s.Dropped())
	}
	ev := <-s.C()
	if ev.(PermissionChanged).Status != PermissionDenied {
		t.Errorf("expected the first event to be kept, got %#v", ev)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	s := bus.Subscribe(1)
	s.Unsubscribe()
	s.Unsubscribe() // idempotent

	if _, ok := <-s.C(); ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	bus.Publish(InjectionFailed{ID: "x", Err: errors.New("boom")})
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	s := bus.Subscribe(1)
	bus.Close()
	bus.Close()

	if _, ok := <-s.C(); ok {
		t.Error("channel should be closed after Close")
	}
	late := bus.Subscribe(1)
	if _, ok := <-late.C(); ok {
		t.Error("subscribing to a closed bus should yield a closed channel")
	}
	s.Unsubscribe()
	bus.Publish(HistoryChanged{Reason: ReasonCleared})
}

func TestName(t *testing.T) {
	if Name(HistoryChanged{}) != "history_changed" {
		t.Errorf("Name = %q", Name(HistoryChanged{}))
	}
	if Name(InjectionFailed{}) != "injection_failed" {
		t.Errorf("Name = %q", Name(InjectionFailed{}))
	}
}
