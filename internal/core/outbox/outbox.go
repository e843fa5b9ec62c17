// Package outbox defines domain events written through the transactional outbox.
package outbox

import (
	"context"

	"oficio/internal/core/id"
)

// Event types.
const (
	EventDispatchIssued = "DispatchIssued"
)

// Event is a domain event to be delivered after the surrounding transaction commits.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// Publisher writes events inside the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events. Used where no relay consumes them.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
