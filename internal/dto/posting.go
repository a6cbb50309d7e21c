package dto

import (
	"strings"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// PlanLineRequest is one line of a caller-constructed entries plan.
type PlanLineRequest struct {
	Account   string `json:"account" binding:"required,extref"`
	EntryType string `json:"entry_type" binding:"required,oneof=debit credit"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Currency  string `json:"currency" binding:"required,iso4217"`
}

// CreatePostingRequest submits a pre-balanced entries plan directly to the
// posting engine, bypassing the intent layer.
type CreatePostingRequest struct {
	Entries               []PlanLineRequest `json:"entries" binding:"required,min=2,dive"`
	IdempotencyKey        string            `json:"idempotency_key" binding:"required,min=1,max=255"`
	ExternalTransactionID string            `json:"external_transaction_id" binding:"omitempty,extref"`
}

// ToPlanLines converts the request entries into the posting engine's plan.
func (r CreatePostingRequest) ToPlanLines() []domain.PlanLine {
	lines := make([]domain.PlanLine, len(r.Entries))
	for i, e := range r.Entries {
		lines[i] = domain.PlanLine{
			ExternalAccountID: e.Account,
			EntryType:         domain.EntryType(strings.ToUpper(e.EntryType)),
			Amount:            e.Amount,
			CurrencyCode:      e.Currency,
		}
	}
	return lines
}

// TransactionResponse is the outbound representation of a ledger transaction.
type TransactionResponse struct {
	ID                    string          `json:"id"`
	OrganizationID        string          `json:"organization_id"`
	Environment           string          `json:"environment,omitempty"`
	ExternalTransactionID string          `json:"external_transaction_id,omitempty"`
	IdempotencyKey        string          `json:"idempotency_key"`
	Status                string          `json:"status"`
	FailureReason         string          `json:"failure_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	Entries               []EntryResponse `json:"entries,omitempty"`
}

// ToTransactionResponse maps a domain transaction (with entries, when loaded)
// to its API shape.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                    txn.TransactionID,
		OrganizationID:        txn.OrganizationID,
		Environment:           string(txn.Environment),
		ExternalTransactionID: txn.ExternalTransactionID,
		IdempotencyKey:        txn.IdempotencyKey,
		Status:                strings.ToLower(string(txn.Status)),
		FailureReason:         txn.FailureReason,
		CreatedAt:             txn.CreatedAt,
	}
	if len(txn.Entries) > 0 {
		resp.Entries = ToEntryResponses(txn.Entries)
	}
	return resp
}
