// internal/events/bus.go

// Package events provides the in-process change-event bus. Fan-out is
// at-most-once: publishing never blocks a committed mutation, and a slow
// subscriber loses events instead of stalling writers.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// Bus implements ports.EventBus with buffered per-subscriber channels.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan domain.Event
	nextID  int
	started bool
	stopped bool

	buffer  int
	dropped atomic.Int64
	logger  *slog.Logger
}

var _ ports.EventBus = (*Bus)(nil)

// NewBus creates a bus whose subscribers each get a buffer of the given size.
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[int]chan domain.Event),
		buffer: buffer,
		logger: logger.With(slog.String("component", "event_bus")),
	}
}

// Start makes the bus accept publishes
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("event bus already started")
	}
	b.started = true
	b.stopped = false
	b.logger.InfoContext(ctx, "event bus started", slog.Int("buffer", b.buffer))
	return nil
}

// Stop drains subscribers and closes their channels. Idempotent.
func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped || !b.started {
		b.stopped = true
		return nil
	}
	b.stopped = true

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}

	b.logger.InfoContext(ctx, "event bus stopped",
		slog.Int64("dropped_total", b.dropped.Load()))
	return nil
}

// Publish enqueues an event for all current subscribers and returns
// immediately. Events published before Start or after Stop are dropped.
func (b *Bus) Publish(event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.started || b.stopped {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full: drop rather than block the writer.
			b.dropped.Add(1)
			b.logger.Warn("event dropped for slow subscriber",
				slog.Int("subscriber", id),
				slog.String("type", string(event.Type())))
		}
	}
}

// Subscribe registers an observer. The returned cancel func unregisters it
// and closes its channel; it is safe to call after Stop.
func (b *Bus) Subscribe() (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan domain.Event, b.buffer)

	if b.stopped {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Dropped reports how many events have been dropped for slow subscribers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}
