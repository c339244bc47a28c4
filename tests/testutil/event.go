package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mestresdocafe/backend/internal/domain/shared"
	"github.com/mestresdocafe/backend/internal/domain/tax"
)

// EventRecorder is a shared.EventHandler that keeps every event it receives
type EventRecorder struct {
	mu         sync.Mutex
	eventTypes []string
	events     []shared.DomainEvent
	err        error
}

// NewEventRecorder creates a recorder for the given event types.
// No types means every event.
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{eventTypes: eventTypes}
}

// EventTypes returns the event types the recorder subscribes to
func (r *EventRecorder) EventTypes() []string {
	return r.eventTypes
}

// Handle records the event and returns the configured error
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns the number of recorded events
func (r *EventRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// FailWith makes Handle return err after recording
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Reset drops recorded events and the configured error
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.err = nil
}

// OfType returns the recorded events of one type, in arrival order
func (r *EventRecorder) OfType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// CalculatedOrders returns the OrderTaxesCalculated events
func (r *EventRecorder) CalculatedOrders() []*tax.OrderTaxesCalculatedEvent {
	var out []*tax.OrderTaxesCalculatedEvent
	for _, e := range r.OfType(tax.EventTypeOrderTaxesCalculated) {
		if calculated, ok := e.(*tax.OrderTaxesCalculatedEvent); ok {
			out = append(out, calculated)
		}
	}
	return out
}

// WaitForEvents waits until the recorder holds at least count events
func WaitForEvents(t *testing.T, r *EventRecorder, count int, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(func() bool { return r.Count() >= count }, timeout, 10*time.Millisecond)
}
