package repositories

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccount retrieves an account by its scoping tuple.
	FindAccount(ctx context.Context, organizationID string, env domain.Environment, externalAccountID, currencyCode string) (*domain.Account, error)

	// FindBalance retrieves the current balance row for an account.
	FindBalance(ctx context.Context, accountID string) (*domain.Balance, error)

	// ListAccounts retrieves accounts for an organization/environment scope.
	ListAccounts(ctx context.Context, organizationID string, env domain.Environment, limit, offset int) ([]domain.Account, int64, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// EnsureAccount creates the account (and its zero balance row) if the
	// scoping tuple is unseen, otherwise returns the existing account.
	// Concurrent callers race on the unique constraint; the loser reads the
	// winner's row.
	EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
