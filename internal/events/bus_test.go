package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan ChildExitEvent, 1)

	unsub := bus.Subscribe(func(e ChildExitEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(ChildExitEvent{Pid: 1234, ExitCode: 0})

	select {
	case got := <-received:
		if got.Pid != 1234 {
			t.Errorf("expected pid 1234, got %d", got.Pid)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan CheckFailedEvent, 1)
	received2 := make(chan CheckFailedEvent, 1)

	unsub1 := bus.Subscribe(func(e CheckFailedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e CheckFailedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(CheckFailedEvent{Check: "entropy", Error: "constant bit"})

	for i, ch := range []chan CheckFailedEvent{received1, received2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d did not receive event", i+1)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ChildPendingEvent, 1)

	unsub := bus.Subscribe(func(e ChildPendingEvent) { received <- e })
	unsub()

	bus.Publish(ChildPendingEvent{Pid: 99})

	select {
	case <-received:
		t.Error("received event after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_UnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(s string) {})
	unsub() // must not panic
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 1)

	unsub := SubscribeToChannel[ProbeStateChangedEvent](bus, ch)
	defer unsub()

	bus.Publish(ProbeStateChangedEvent{Probe: "p1", OldState: "idle", NewState: "running"})

	select {
	case got := <-ch:
		ev, ok := got.(ProbeStateChangedEvent)
		if !ok || ev.Probe != "p1" {
			t.Errorf("unexpected event %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel event")
	}
}
