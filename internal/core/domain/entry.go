package domain

import "time"

// EntryType indicates whether an entry line is a Debit or a Credit.
type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// Entry is one immutable debit or credit line of a ledger transaction. Amount
// is always positive; direction is carried by EntryType. Entries are
// append-only and belong to exactly one transaction and exactly one account.
type Entry struct {
	EntryID       string    `json:"entryID"`       // Primary key (UUID)
	TransactionID string    `json:"transactionID"` // FK -> transactions (Not Null)
	AccountID     string    `json:"accountID"`     // FK -> accounts (Not Null)
	EntryType     EntryType `json:"entryType"`     // DEBIT or CREDIT
	Amount        int64     `json:"amount"`        // Positive, minor units
	CurrencyCode  string    `json:"currencyCode"`  // Must match the account currency
	CreatedAt     time.Time `json:"createdAt"`

	// ExternalAccountID is populated on query-layer reads for display; it is
	// not part of the persisted entry row.
	ExternalAccountID string `json:"externalAccountID,omitempty"`
}

// PlanLine is one line of a caller-constructed entries plan handed to the
// posting engine. Accounts are referenced by external id and resolved (or
// lazily created) during posting; AllowNegative only applies on creation.
type PlanLine struct {
	ExternalAccountID string
	EntryType         EntryType
	Amount            int64 // Positive, minor units
	CurrencyCode      string
	AllowNegative     bool
}
