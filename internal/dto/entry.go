package dto

import (
	"strings"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/money"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// EntryResponse is the outbound representation of one ledger entry line.
type EntryResponse struct {
	ID                string    `json:"id"`
	LedgerAccountID   string    `json:"ledger_account_id"`
	ExternalAccountID string    `json:"external_account_id,omitempty"`
	TransactionID     string    `json:"transaction_id"`
	EntryType         string    `json:"entry_type"`
	Amount            int64     `json:"amount"`
	AmountFormatted   string    `json:"amount_formatted"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
}

// ToEntryResponse maps a domain entry to its API shape.
func ToEntryResponse(entry domain.Entry) EntryResponse {
	return EntryResponse{
		ID:                entry.EntryID,
		LedgerAccountID:   entry.AccountID,
		ExternalAccountID: entry.ExternalAccountID,
		TransactionID:     entry.TransactionID,
		EntryType:         strings.ToLower(string(entry.EntryType)),
		Amount:            entry.Amount,
		AmountFormatted:   money.Format(entry.Amount, entry.CurrencyCode),
		Currency:          entry.CurrencyCode,
		CreatedAt:         entry.CreatedAt,
	}
}

// ToEntryResponses maps a slice of domain entries.
func ToEntryResponses(entries []domain.Entry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToEntryResponse(e)
	}
	return out
}

// ListEntriesResponse is the paginated entries envelope.
type ListEntriesResponse struct {
	Entries    []EntryResponse `json:"entries"`
	Pagination pagination.Meta `json:"pagination"`
}
