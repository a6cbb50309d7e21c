package services

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// PostParams carries the idempotency and reference metadata for one posting.
type PostParams struct {
	IdempotencyKey        string
	ExternalTransactionID string
}

// PostingSvcFacade is the posting engine contract: turn a balanced entries
// plan into an atomically committed transaction, exactly once per
// (organization, environment, idempotency key).
type PostingSvcFacade interface {
	// Post validates the plan, resolves or lazily creates the referenced
	// accounts, and commits the transaction, entries and balance updates as
	// one atomic unit. Replays of an already-reserved key return the stored
	// result without writing; a stored FAILED reservation replays its
	// original business failure.
	Post(ctx context.Context, organizationID string, env domain.Environment, plan []domain.PlanLine, params PostParams) (*domain.Transaction, error)
}
