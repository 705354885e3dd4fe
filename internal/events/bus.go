package events

import "github.com/kelindar/event"

// Bus wraps a kelindar/event dispatcher for in-process broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers an event to all subscribers of its concrete type.
// kelindar/event dispatches on the static type, so each known event needs
// its own case.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ChildPendingEvent:
		event.Publish(b.dispatcher, e)
	case ChildExitEvent:
		event.Publish(b.dispatcher, e)
	case CheckPassedEvent:
		event.Publish(b.dispatcher, e)
	case CheckFailedEvent:
		event.Publish(b.dispatcher, e)
	case ProbeStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a handler; the handler's parameter type selects which
// events it receives. Returns an unsubscribe function.
//
// Usage: unsub := bus.Subscribe(func(e ChildExitEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ChildPendingEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ChildExitEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CheckPassedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CheckFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProbeStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeToChannel bridges subscriptions to a channel for select loops.
// Events are dropped rather than blocking when the channel is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
