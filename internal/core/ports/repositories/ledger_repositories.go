package repositories

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// LedgerReader defines read operations for posted ledger data
type LedgerReader interface {
	// FindTransactionByID retrieves a transaction and its entries.
	FindTransactionByID(ctx context.Context, organizationID string, env domain.Environment, transactionID string) (*domain.Transaction, error)

	// FindTransactionByIdempotencyKey retrieves the transaction reserved under
	// the given key, with its entries. This is the replay read path.
	FindTransactionByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Transaction, error)

	// ListEntries retrieves entries for an organization/environment, optionally
	// filtered to one external account, ordered by (created_at DESC, id DESC).
	// Returns the page of entries plus the total row count for the filter.
	ListEntries(ctx context.Context, organizationID string, env domain.Environment, externalAccountID string, limit, offset int) ([]domain.Entry, int64, error)
}

// LedgerWriter defines the posting engine's write operations. No other
// component writes entries or mutates balances.
type LedgerWriter interface {
	// CreatePosting atomically reserves the idempotency key (the transaction
	// row itself), inserts the entries, and applies the balance changes.
	// When another posting already holds the key, the stored transaction is
	// returned with created=false and nothing is written.
	// A posting that would drive a non-overdraft account negative is rolled
	// back entirely and surfaces ErrInsufficientFunds.
	CreatePosting(ctx context.Context, txn domain.Transaction, entries []domain.Entry, balanceChanges map[string]int64) (result *domain.Transaction, created bool, err error)

	// SaveFailedTransaction reserves the idempotency key terminally in FAILED
	// state so that replays observe the same business failure. Returns the
	// stored row, which may belong to a concurrent winner.
	SaveFailedTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
