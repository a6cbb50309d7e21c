package domain

import "time"

// IntentKind distinguishes the money movements an intent can request.
type IntentKind string

const (
	IntentDeposit  IntentKind = "DEPOSIT"
	IntentWithdraw IntentKind = "WITHDRAW"
	IntentTransfer IntentKind = "TRANSFER"
)

// IntentStatus is the lifecycle state of an intent:
// PENDING -> POSTED on successful posting, PENDING -> FAILED on a terminal
// business failure. No transition leaves POSTED or FAILED.
type IntentStatus string

const (
	IntentPending IntentStatus = "PENDING"
	IntentPosted  IntentStatus = "POSTED"
	IntentFailed  IntentStatus = "FAILED"
)

// Intent records a requested money movement prior to, and independent of, its
// ledger posting outcome. One intent maps to at most one ledger transaction,
// linked through the shared idempotency key.
type Intent struct {
	IntentID       string       `json:"intentID"`       // Primary key (UUID)
	OrganizationID string       `json:"organizationID"` // Not Null
	Environment    Environment  `json:"environment"`
	Kind           IntentKind   `json:"kind"`
	FromAccountID  string       `json:"fromAccountID"` // External account reference; empty for deposits
	ToAccountID    string       `json:"toAccountID"`   // External account reference; empty for withdrawals
	Amount         int64        `json:"amount"`        // Positive, minor units
	CurrencyCode   string       `json:"currencyCode"`
	IdempotencyKey string       `json:"idempotencyKey"` // Unique per (org, env); reused verbatim on retries
	Status         IntentStatus `json:"status"`
	FailureReason  string       `json:"failureReason,omitempty"`
	AttemptCount   int          `json:"attemptCount"`
	TransactionID  string       `json:"transactionID,omitempty"` // Set once posted
	CreatedAt      time.Time    `json:"createdAt"`
	LastUpdatedAt  time.Time    `json:"lastUpdatedAt"`
}

// Terminal reports whether the intent has reached a final state.
func (s IntentStatus) Terminal() bool {
	return s == IntentPosted || s == IntentFailed
}
