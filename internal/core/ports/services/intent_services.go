package services

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	"github.com/ledgerpipe/ledgerpipe/internal/dto"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// IntentSvcFacade owns the intent lifecycle. It is the only component that
// mutates intent status.
type IntentSvcFacade interface {
	// CreateIntent validates and records the request, then synchronously
	// attempts to post it. A replayed idempotency key returns the existing
	// intent as success. A transient posting failure leaves the intent
	// pending for the reconciliation worker.
	CreateIntent(ctx context.Context, organizationID string, env domain.Environment, req dto.CreateIntentRequest) (*domain.Intent, error)

	// GetIntent retrieves an intent by id.
	GetIntent(ctx context.Context, organizationID, intentID string) (*domain.Intent, error)

	// ListIntents retrieves a page of intents, optionally filtered by status.
	ListIntents(ctx context.Context, organizationID string, env domain.Environment, status domain.IntentStatus, params pagination.Params) ([]domain.Intent, pagination.Meta, error)

	// ResolveIntent drives one posting attempt for a pending intent, reusing
	// its stored idempotency key, and records the terminal outcome. Transient
	// failures leave the intent pending and are returned to the caller.
	ResolveIntent(ctx context.Context, intent domain.Intent) error

	// MarkPosted transitions an intent to POSTED. Idempotent when the intent
	// is already POSTED; ErrInvalidTransition when it is FAILED.
	MarkPosted(ctx context.Context, intentID, transactionID string) error

	// MarkFailed transitions an intent to FAILED with a reason. Idempotent
	// when the intent is already FAILED; ErrInvalidTransition when it is
	// POSTED.
	MarkFailed(ctx context.Context, intentID, reason string) error
}
