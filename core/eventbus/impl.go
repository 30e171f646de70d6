package eventbus

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"grocer-go/core/event"
)

const defaultBufferSize = 100

type subscription struct {
	id      string
	handler Handler
	filters []Filter
}

func (s *subscription) accepts(e event.Event) bool {
	for _, f := range s.filters {
		if !f(e) {
			return false
		}
	}
	return true
}

// Config holds configuration for an AsyncBus.
type Config struct {
	// BufferSize is the queue length; non-positive means 100.
	BufferSize int
	// Logger receives drop warnings and handler panics.
	Logger *slog.Logger
}

// AsyncBus dispatches events from a single goroutine in publish order.
type AsyncBus struct {
	queue   chan event.Event
	mu      sync.RWMutex
	subs    map[string]*subscription
	closeMu sync.RWMutex
	closed  bool
	done    chan struct{}
	nextID  atomic.Uint64
	dropped atomic.Uint64
	logger  *slog.Logger
}

var _ Bus = (*AsyncBus)(nil)

// New starts a bus.
func New(cfg Config) *AsyncBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &AsyncBus{
		queue:  make(chan event.Event, cfg.BufferSize),
		subs:   make(map[string]*subscription),
		done:   make(chan struct{}),
		logger: cfg.Logger,
	}
	go b.dispatch()
	return b
}

// Publish queues e for delivery.
func (b *AsyncBus) Publish(e event.Event) {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.queue <- e:
	default:
		n := b.dropped.Add(1)
		b.logger.Warn("Event queue full, event dropped", "event", e.EventName(), "dropped_total", n)
	}
}

// Subscribe registers handler behind filters.
func (b *AsyncBus) Subscribe(handler Handler, filters ...Filter) string {
	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))

	b.mu.Lock()
	b.subs[id] = &subscription{id: id, handler: handler, filters: filters}
	b.mu.Unlock()

	return id
}

// Unsubscribe removes a subscription.
func (b *AsyncBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	delete(b.subs, subscriptionID)
	b.mu.Unlock()
}

// Dropped returns the number of discarded events.
func (b *AsyncBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close drains the queue and stops the dispatcher. Later calls are no-ops.
func (b *AsyncBus) Close() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.closeMu.Unlock()

	<-b.done
}

func (b *AsyncBus) dispatch() {
	defer close(b.done)
	for e := range b.queue {
		b.deliver(e)
	}
}

func (b *AsyncBus) deliver(e event.Event) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.accepts(e) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		b.call(s, e)
	}
}

// call runs one handler; a panic is logged and does not reach other subscribers.
func (b *AsyncBus) call(s *subscription, e event.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked", "event", e.EventName(), "subscription", s.id, "panic", r)
		}
	}()
	s.handler(e)
}
