package services

import (
	"context"
	"fmt"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// queryService is the read-only retrieval surface. It never mutates state.
type queryService struct {
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewQueryService creates a new QueryService.
func NewQueryService(ledgerRepo portsrepo.LedgerRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade) portssvc.QuerySvcFacade {
	return &queryService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// Ensure queryService implements the portssvc.QuerySvcFacade interface
var _ portssvc.QuerySvcFacade = (*queryService)(nil)

// ListEntries retrieves a stable page of entries for reconciliation and
// display. Ordering is (created_at DESC, id DESC); the id tie-break keeps
// pages stable while new entries are inserted concurrently.
func (s *queryService) ListEntries(ctx context.Context, organizationID string, env domain.Environment, externalAccountID string, params pagination.Params) ([]domain.Entry, pagination.Meta, error) {
	if err := validateScope(organizationID, env); err != nil {
		return nil, pagination.Meta{}, err
	}

	params = params.Normalize()
	entries, total, err := s.ledgerRepo.ListEntries(ctx, organizationID, env, externalAccountID, params.PerPage, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, pagination.NewMeta(params, total), nil
}

// GetTransaction retrieves a transaction with its entries.
func (s *queryService) GetTransaction(ctx context.Context, organizationID string, env domain.Environment, transactionID string) (*domain.Transaction, error) {
	if err := validateScope(organizationID, env); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindTransactionByID(ctx, organizationID, env, transactionID)
}

// GetTransactionByIdempotencyKey returns whatever outcome the key holds. This
// is the re-query path for callers whose posting call timed out: the atomic
// unit may have committed even though the acknowledgment was lost.
func (s *queryService) GetTransactionByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Transaction, error) {
	if err := validateScope(organizationID, env); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindTransactionByIdempotencyKey(ctx, organizationID, env, idempotencyKey)
}

// GetAccount retrieves an account and its current balance.
func (s *queryService) GetAccount(ctx context.Context, organizationID string, env domain.Environment, externalAccountID, currencyCode string) (*domain.Account, *domain.Balance, error) {
	if err := validateScope(organizationID, env); err != nil {
		return nil, nil, err
	}

	account, err := s.accountRepo.FindAccount(ctx, organizationID, env, externalAccountID, currencyCode)
	if err != nil {
		return nil, nil, err
	}
	balance, err := s.accountRepo.FindBalance(ctx, account.AccountID)
	if err != nil {
		return nil, nil, err
	}
	return account, balance, nil
}

// ListAccounts retrieves a page of accounts in the scope.
func (s *queryService) ListAccounts(ctx context.Context, organizationID string, env domain.Environment, params pagination.Params) ([]domain.Account, pagination.Meta, error) {
	if err := validateScope(organizationID, env); err != nil {
		return nil, pagination.Meta{}, err
	}

	params = params.Normalize()
	accounts, total, err := s.accountRepo.ListAccounts(ctx, organizationID, env, params.PerPage, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, pagination.NewMeta(params, total), nil
}

func validateScope(organizationID string, env domain.Environment) error {
	if organizationID == "" {
		return fmt.Errorf("%w: organization id is required", apperrors.ErrValidation)
	}
	if !env.Valid() {
		return fmt.Errorf("%w: unknown environment %q", apperrors.ErrValidation, env)
	}
	return nil
}
