package repositories

import (
	"context"
	"time"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// IntentReader defines read operations for intent data
type IntentReader interface {
	// FindIntentByID retrieves an intent by id within an organization scope.
	FindIntentByID(ctx context.Context, organizationID, intentID string) (*domain.Intent, error)

	// FindIntentByIdempotencyKey retrieves the intent reserved under the key.
	FindIntentByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Intent, error)

	// ListIntents retrieves intents for a scope, optionally filtered by status,
	// newest first. Returns the page plus the total row count.
	ListIntents(ctx context.Context, organizationID string, env domain.Environment, status domain.IntentStatus, limit, offset int) ([]domain.Intent, int64, error)

	// ListPendingOlderThan retrieves pending intents created before the cutoff,
	// oldest first, for the reconciliation sweep.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Intent, error)
}

// IntentWriter defines write operations for intent data
type IntentWriter interface {
	// CreateIntent persists a new intent. When the idempotency key is already
	// reserved the stored intent is returned with created=false.
	CreateIntent(ctx context.Context, intent domain.Intent) (result *domain.Intent, created bool, err error)

	// MarkPosted flips a pending intent to POSTED with its transaction link.
	// Returns false when no pending row matched (already terminal).
	MarkPosted(ctx context.Context, intentID, transactionID string, now time.Time) (bool, error)

	// MarkFailed flips a pending intent to FAILED with a reason.
	// Returns false when no pending row matched (already terminal).
	MarkFailed(ctx context.Context, intentID, reason string, now time.Time) (bool, error)

	// IncrementAttempt bumps the posting attempt counter.
	IncrementAttempt(ctx context.Context, intentID string, now time.Time) error
}

// IntentRepositoryFacade combines all intent repository interfaces
type IntentRepositoryFacade interface {
	IntentReader
	IntentWriter
}
