package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	"github.com/ledgerpipe/ledgerpipe/internal/models"
)

type PgxAccountRepository struct {
	pool querier
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// Helper to convert models.Account from DB to domain.Account
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:         m.AccountID,
		OrganizationID:    m.OrganizationID,
		Environment:       envFromNull(m.Environment),
		ExternalAccountID: m.ExternalAccountID,
		CurrencyCode:      m.CurrencyCode,
		AllowNegative:     m.AllowNegative,
		CreatedAt:         m.CreatedAt,
	}
}

const accountColumns = `account_id, organization_id, environment, external_account_id, currency_code, allow_negative, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.OrganizationID,
		&m.Environment,
		&m.ExternalAccountID,
		&m.CurrencyCode,
		&m.AllowNegative,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan account row", err)
	}
	acc := toDomainAccount(m)
	return &acc, nil
}

// EnsureAccount creates the account and its zero balance row if the scoping
// tuple is unseen, otherwise returns the existing account. The unique index on
// (organization_id, COALESCE(environment, ''), external_account_id,
// currency_code) arbitrates concurrent creation; the loser reads the winner's
// row. The balance insert runs on every call against the stored row's id, so
// a crash between the two inserts is healed by the next call for the same
// tuple.
func (r *PgxAccountRepository) EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	insertQuery := `
		INSERT INTO accounts (account_id, organization_id, environment, external_account_id, currency_code, allow_negative, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (organization_id, COALESCE(environment, ''), external_account_id, currency_code) DO NOTHING;
	`
	_, err := r.pool.Exec(ctx, insertQuery,
		account.AccountID,
		account.OrganizationID,
		envToNull(account.Environment),
		account.ExternalAccountID,
		account.CurrencyCode,
		account.AllowNegative,
		account.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to ensure account "+account.ExternalAccountID, err)
	}

	stored, err := r.FindAccount(ctx, account.OrganizationID, account.Environment, account.ExternalAccountID, account.CurrencyCode)
	if err != nil {
		return nil, err
	}

	balanceQuery := `
		INSERT INTO balances (account_id, amount, currency_code, updated_at)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (account_id) DO NOTHING;
	`
	if _, err := r.pool.Exec(ctx, balanceQuery, stored.AccountID, stored.CurrencyCode, stored.CreatedAt); err != nil {
		return nil, apperrors.NewAppError(500, "failed to create balance row for account "+stored.AccountID, err)
	}

	return stored, nil
}

// FindAccount retrieves an account by its scoping tuple.
func (r *PgxAccountRepository) FindAccount(ctx context.Context, organizationID string, env domain.Environment, externalAccountID, currencyCode string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE organization_id = $1
		  AND COALESCE(environment, '') = $2
		  AND external_account_id = $3
		  AND currency_code = $4;
	`
	account, err := scanAccount(r.pool.QueryRow(ctx, query, organizationID, string(env), externalAccountID, currencyCode))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s (%s)", apperrors.ErrNotFound, externalAccountID, currencyCode)
		}
		return nil, err
	}
	return account, nil
}

// FindBalance retrieves the current balance row for an account.
func (r *PgxAccountRepository) FindBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	query := `
		SELECT account_id, amount, currency_code, updated_at
		FROM balances
		WHERE account_id = $1;
	`
	var m models.Balance
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&m.AccountID,
		&m.Amount,
		&m.CurrencyCode,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: balance for account %s", apperrors.ErrNotFound, accountID)
		}
		return nil, apperrors.NewAppError(500, "failed to find balance for account "+accountID, err)
	}

	return &domain.Balance{
		AccountID:    m.AccountID,
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// ListAccounts retrieves a page of accounts for an organization/environment
// scope, newest first, plus the total row count.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, organizationID string, env domain.Environment, limit, offset int) ([]domain.Account, int64, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM accounts
		WHERE organization_id = $1 AND COALESCE(environment, '') = $2;
	`
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, organizationID, string(env)).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count accounts for organization "+organizationID, err)
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE organization_id = $1 AND COALESCE(environment, '') = $2
		ORDER BY created_at DESC, account_id DESC
		LIMIT $3 OFFSET $4;
	`
	rows, err := r.pool.Query(ctx, query, organizationID, string(env), limit, offset)
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to query accounts for organization "+organizationID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var m models.Account
		err := rows.Scan(
			&m.AccountID,
			&m.OrganizationID,
			&m.Environment,
			&m.ExternalAccountID,
			&m.CurrencyCode,
			&m.AllowNegative,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, 0, apperrors.NewAppError(500, "failed to scan account row for organization "+organizationID, err)
		}
		accounts = append(accounts, toDomainAccount(m))
	}

	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewAppError(500, "error iterating account rows for organization "+organizationID, err)
	}

	return accounts, total, nil
}
