package noop

import (
	"context"

	portsevents "github.com/ledgerpipe/ledgerpipe/internal/core/ports/events"
)

// Publisher discards all events. Used when no broker is configured.
type Publisher struct{}

var _ portsevents.Publisher = Publisher{}

func NewPublisher() Publisher {
	return Publisher{}
}

func (Publisher) Publish(ctx context.Context, event portsevents.TransactionEvent) error {
	return nil
}
