package models

import (
	"database/sql"
	"time"
)

// Account is the database representation of a ledger account. Environment is
// NULL for legacy rows; uniqueness is enforced on
// (organization_id, COALESCE(environment, ''), external_account_id, currency_code).
type Account struct {
	AccountID         string
	OrganizationID    string
	Environment       sql.NullString
	ExternalAccountID string
	CurrencyCode      string
	AllowNegative     bool
	CreatedAt         time.Time
}

// Balance is the database representation of an account's running balance in
// minor currency units.
type Balance struct {
	AccountID    string
	Amount       int64
	CurrencyCode string
	UpdatedAt    time.Time
}

// Transaction is the database representation of a posted monetary event and
// doubles as the idempotency reservation row.
type Transaction struct {
	TransactionID         string
	OrganizationID        string
	Environment           sql.NullString
	ExternalTransactionID sql.NullString
	IdempotencyKey        string
	Status                string
	FailureReason         sql.NullString
	CreatedAt             time.Time
}

// Entry is the database representation of one immutable ledger entry line.
type Entry struct {
	EntryID       string
	TransactionID string
	AccountID     string
	EntryType     string
	Amount        int64
	CurrencyCode  string
	CreatedAt     time.Time
}

// Intent is the database representation of a money-movement request.
type Intent struct {
	IntentID       string
	OrganizationID string
	Environment    sql.NullString
	Kind           string
	FromAccountID  sql.NullString
	ToAccountID    sql.NullString
	Amount         int64
	CurrencyCode   string
	IdempotencyKey string
	Status         string
	FailureReason  sql.NullString
	AttemptCount   int
	TransactionID  sql.NullString
	CreatedAt      time.Time
	LastUpdatedAt  time.Time
}
