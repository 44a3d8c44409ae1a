package ports

import (
	"context"

	"github.com/BOHARRY/courtDataAPI-sub002/domain/events"
)

// EventPublisher delivers domain events to interested parties outside the service.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
