package events

import (
	"context"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

const (
	EventTransactionPosted = "transaction.posted"
	EventTransactionFailed = "transaction.failed"
)

// TransactionEvent is the domain event emitted after a posting attempt
// commits. Delivery is at-least-once; consumers must dedupe on transaction id.
type TransactionEvent struct {
	EventType      string             `json:"event_type"`
	OrganizationID string             `json:"organization_id"`
	Environment    domain.Environment `json:"environment"`
	TransactionID  string             `json:"transaction_id"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// Publisher forwards domain events to the external sink. Publishing happens
// strictly after the atomic unit commits; failures are logged, never rolled
// back into the ledger.
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
}
