package domain

import "time"

// TransactionStatus indicates the state of a ledger transaction.
// Transitions are monotonic; a transaction never leaves POSTED or FAILED.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "PENDING"
	TransactionPosted  TransactionStatus = "POSTED"
	TransactionFailed  TransactionStatus = "FAILED"
)

// Transaction represents one posted monetary event. The row doubles as the
// idempotency reservation: the unique constraint on
// (organization, environment-or-legacy-null, idempotency key) is the
// enforcement point for exactly-once posting.
type Transaction struct {
	TransactionID         string            `json:"transactionID"`         // Primary key (UUID)
	OrganizationID        string            `json:"organizationID"`        // Not Null
	Environment           Environment       `json:"environment"`           // Empty for legacy rows
	ExternalTransactionID string            `json:"externalTransactionID"` // Caller-supplied reference, optional
	IdempotencyKey        string            `json:"idempotencyKey"`        // Unique per (org, env)
	Status                TransactionStatus `json:"status"`
	FailureReason         string            `json:"failureReason,omitempty"` // Set when status is FAILED
	CreatedAt             time.Time         `json:"createdAt"`
	Entries               []Entry           `json:"entries,omitempty"` // Loaded on reads
}
