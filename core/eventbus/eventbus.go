// Package eventbus fans session lifecycle events out to subscribers.
package eventbus

import (
	"grocer-go/core/event"
)

// Bus delivers published events to every subscriber whose filters accept them.
type Bus interface {
	// Publish queues e for delivery and never blocks. When the queue is full
	// the event is dropped and counted.
	Publish(e event.Event)

	// Subscribe registers handler. An event reaches handler only if every
	// filter accepts it. Returns an id for Unsubscribe.
	Subscribe(handler Handler, filters ...Filter) string

	// Unsubscribe removes a subscription by its ID.
	Unsubscribe(subscriptionID string)

	// Dropped returns how many events were discarded because the queue was full.
	Dropped() uint64

	// Close stops accepting events, delivers what is already queued and returns.
	Close()
}

// Handler receives one event.
type Handler func(e event.Event)

// Filter decides whether an event reaches a subscriber.
type Filter func(e event.Event) bool

// ForEvents accepts only events with one of the given names.
func ForEvents(names ...string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(e event.Event) bool {
		_, ok := set[e.EventName()]
		return ok
	}
}
