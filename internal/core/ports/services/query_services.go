package services

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// QuerySvcFacade is the read-only retrieval surface for reconciliation and
// display. It never mutates ledger state.
type QuerySvcFacade interface {
	// ListEntries retrieves a stable page of entries ordered by
	// (created_at DESC, id DESC), optionally filtered to one external account.
	ListEntries(ctx context.Context, organizationID string, env domain.Environment, externalAccountID string, params pagination.Params) ([]domain.Entry, pagination.Meta, error)

	// GetTransaction retrieves a transaction with its entries.
	GetTransaction(ctx context.Context, organizationID string, env domain.Environment, transactionID string) (*domain.Transaction, error)

	// GetTransactionByIdempotencyKey is the re-query path for callers whose
	// post() timed out: it returns whatever outcome the key holds.
	GetTransactionByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Transaction, error)

	// GetAccount retrieves an account and its current balance.
	GetAccount(ctx context.Context, organizationID string, env domain.Environment, externalAccountID, currencyCode string) (*domain.Account, *domain.Balance, error)

	// ListAccounts retrieves a page of accounts in the scope.
	ListAccounts(ctx context.Context, organizationID string, env domain.Environment, params pagination.Params) ([]domain.Account, pagination.Meta, error)
}
