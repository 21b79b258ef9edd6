// internal/core/ports/event_bus.go
package ports

import (
	"context"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
)

// EventBus is the fan-out port for committed change events. Delivery is
// at-most-once: Publish never blocks the mutation path, and an observer that
// cannot keep up loses events rather than stalling the writer.
type EventBus interface {
	// Start makes the bus accept publishes. Calling Start twice is an error.
	Start(ctx context.Context) error
	// Stop drains subscribers and closes their channels. Publishes after
	// Stop are silently dropped. Stop is idempotent.
	Stop(ctx context.Context) error
	// Publish enqueues an event for all current subscribers and returns
	// immediately. Events published before Start or after Stop are dropped.
	Publish(event domain.Event)
	// Subscribe registers an observer and returns its delivery channel plus
	// a cancel func that unregisters it and closes the channel.
	Subscribe() (<-chan domain.Event, func())
}
