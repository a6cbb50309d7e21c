package dto

import (
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/money"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// AccountResponse is the outbound representation of an account, optionally
// carrying its current balance.
type AccountResponse struct {
	ID                string    `json:"id"`
	OrganizationID    string    `json:"organization_id"`
	Environment       string    `json:"environment,omitempty"`
	ExternalAccountID string    `json:"external_account_id"`
	Currency          string    `json:"currency"`
	AllowNegative     bool      `json:"allow_negative"`
	Balance           *int64    `json:"balance,omitempty"`
	BalanceFormatted  string    `json:"balance_formatted,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ToAccountResponse maps a domain account and optional balance to the API shape.
func ToAccountResponse(account *domain.Account, balance *domain.Balance) AccountResponse {
	resp := AccountResponse{
		ID:                account.AccountID,
		OrganizationID:    account.OrganizationID,
		Environment:       string(account.Environment),
		ExternalAccountID: account.ExternalAccountID,
		Currency:          account.CurrencyCode,
		AllowNegative:     account.AllowNegative,
		CreatedAt:         account.CreatedAt,
	}
	if balance != nil {
		amt := balance.Amount
		resp.Balance = &amt
		resp.BalanceFormatted = money.Format(amt, account.CurrencyCode)
	}
	return resp
}

// ListAccountsResponse is the paginated accounts envelope.
type ListAccountsResponse struct {
	Accounts   []AccountResponse `json:"accounts"`
	Pagination pagination.Meta   `json:"pagination"`
}

// ListIntentsResponse is the paginated intents envelope.
type ListIntentsResponse struct {
	Intents    []IntentResponse `json:"intents"`
	Pagination pagination.Meta  `json:"pagination"`
}
