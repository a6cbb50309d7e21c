package dto

import (
	"strings"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// CreateIntentRequest is the inbound payload for a money-movement request.
// FromAccount/ToAccount are external account references; which of them is
// required depends on the kind (deposits have no source, withdrawals no
// destination).
type CreateIntentRequest struct {
	Kind                  string `json:"kind" binding:"required,oneof=deposit withdraw transfer"`
	FromAccount           string `json:"from_account" binding:"omitempty,extref"`
	ToAccount             string `json:"to_account" binding:"omitempty,extref"`
	Amount                int64  `json:"amount" binding:"required,gt=0"`
	Currency              string `json:"currency" binding:"required,iso4217"`
	IdempotencyKey        string `json:"idempotency_key" binding:"required,min=1,max=255"`
	ExternalTransactionID string `json:"external_transaction_id" binding:"omitempty,extref"`
}

// IntentResponse is the outbound representation of an intent.
type IntentResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Environment    string    `json:"environment,omitempty"`
	Kind           string    `json:"kind"`
	FromAccount    string    `json:"from_account,omitempty"`
	ToAccount      string    `json:"to_account,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	IdempotencyKey string    `json:"idempotency_key"`
	Status         string    `json:"status"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	AttemptCount   int       `json:"attempt_count"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToIntentResponse maps a domain intent to its API shape.
func ToIntentResponse(intent *domain.Intent) IntentResponse {
	return IntentResponse{
		ID:             intent.IntentID,
		OrganizationID: intent.OrganizationID,
		Environment:    string(intent.Environment),
		Kind:           strings.ToLower(string(intent.Kind)),
		FromAccount:    intent.FromAccountID,
		ToAccount:      intent.ToAccountID,
		Amount:         intent.Amount,
		Currency:       intent.CurrencyCode,
		IdempotencyKey: intent.IdempotencyKey,
		Status:         strings.ToLower(string(intent.Status)),
		FailureReason:  intent.FailureReason,
		AttemptCount:   intent.AttemptCount,
		TransactionID:  intent.TransactionID,
		CreatedAt:      intent.CreatedAt,
	}
}

// ToIntentResponses maps a slice of domain intents.
func ToIntentResponses(intents []domain.Intent) []IntentResponse {
	out := make([]IntentResponse, len(intents))
	for i := range intents {
		out[i] = ToIntentResponse(&intents[i])
	}
	return out
}
