package domain

import "time"

// Account is a ledger-visible account scoped to
// (organization, environment, external account id, currency).
// At most one account exists per tuple; accounts are created lazily on first
// reference by a posting and are immutable afterwards except for their balance.
type Account struct {
	AccountID         string      `json:"accountID"`         // Primary key (UUID)
	OrganizationID    string      `json:"organizationID"`    // Owning organization (Not Null)
	Environment       Environment `json:"environment"`       // sandbox/production, empty for legacy rows
	ExternalAccountID string      `json:"externalAccountID"` // Caller-supplied account reference
	CurrencyCode      string      `json:"currencyCode"`      // ISO 4217
	AllowNegative     bool        `json:"allowNegative"`     // Overdraft policy, default false
	CreatedAt         time.Time   `json:"createdAt"`
}

// Balance holds the running balance for one account in minor currency units.
// It equals the signed sum of all entries for the account and is mutated only
// by the posting engine inside the same atomic unit as entry creation.
type Balance struct {
	AccountID    string    `json:"accountID"`
	Amount       int64     `json:"amount"` // Signed, minor units
	CurrencyCode string    `json:"currencyCode"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
