package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	"github.com/ledgerpipe/ledgerpipe/internal/models"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for transaction and entry data.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

// Helper to convert models.Transaction from DB to domain.Transaction
func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:         m.TransactionID,
		OrganizationID:        m.OrganizationID,
		Environment:           envFromNull(m.Environment),
		ExternalTransactionID: m.ExternalTransactionID.String,
		IdempotencyKey:        m.IdempotencyKey,
		Status:                domain.TransactionStatus(m.Status),
		FailureReason:         m.FailureReason.String,
		CreatedAt:             m.CreatedAt,
	}
}

const transactionColumns = `transaction_id, organization_id, environment, external_transaction_id, idempotency_key, status, failure_reason, created_at`

const insertTransactionQuery = `
	INSERT INTO transactions (transaction_id, organization_id, environment, external_transaction_id, idempotency_key, status, failure_reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (organization_id, COALESCE(environment, ''), idempotency_key) DO NOTHING;
`

// CreatePosting atomically reserves the idempotency key, inserts the entries
// and applies the balance changes. The transaction row insert is the
// reservation point: whichever concurrent posting loses the unique-constraint
// race observes zero affected rows, rolls back and returns the winner's stored
// result instead.
func (r *PgxLedgerRepository) CreatePosting(ctx context.Context, txn domain.Transaction, entries []domain.Entry, balanceChanges map[string]int64) (*domain.Transaction, bool, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx) // Ignored once the transaction is committed

	// 1. Reserve the idempotency key by inserting the transaction row.
	cmdTag, err := tx.Exec(ctx, insertTransactionQuery,
		txn.TransactionID,
		txn.OrganizationID,
		envToNull(txn.Environment),
		nullString(txn.ExternalTransactionID),
		txn.IdempotencyKey,
		string(txn.Status),
		nullString(txn.FailureReason),
		txn.CreatedAt,
	)
	if err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to reserve transaction "+txn.TransactionID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Key already reserved: abandon this attempt and read the stored
		// outcome outside the aborted atomic unit.
		if err := r.Rollback(ctx, tx); err != nil {
			return nil, false, err
		}
		existing, err := r.FindTransactionByIdempotencyKey(ctx, txn.OrganizationID, txn.Environment, txn.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	// 2. Lock the affected balance rows in a stable order.
	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	sort.Strings(accountIDs)

	lockQuery := `
		SELECT b.account_id, b.amount, a.allow_negative
		FROM balances b
		JOIN accounts a ON a.account_id = b.account_id
		WHERE b.account_id = ANY($1)
		ORDER BY b.account_id
		FOR UPDATE OF b;
	`
	rows, err := tx.Query(ctx, lockQuery, accountIDs)
	if err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to lock balances for transaction "+txn.TransactionID, err)
	}

	type lockedBalance struct {
		amount        int64
		allowNegative bool
	}
	locked := make(map[string]lockedBalance, len(accountIDs))
	for rows.Next() {
		var accID string
		var lb lockedBalance
		if err := rows.Scan(&accID, &lb.amount, &lb.allowNegative); err != nil {
			rows.Close()
			return nil, false, apperrors.NewAppError(500, "failed to scan locked balance row", err)
		}
		locked[accID] = lb
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, apperrors.NewAppError(500, "error iterating locked balance rows", err)
	}

	if len(locked) != len(accountIDs) {
		return nil, false, fmt.Errorf("%w: could not lock all balances for transaction %s", apperrors.ErrNotFound, txn.TransactionID)
	}

	// 3. Enforce the overdraft policy before anything becomes visible.
	for _, accID := range accountIDs {
		lb := locked[accID]
		if next := lb.amount + balanceChanges[accID]; next < 0 && !lb.allowNegative {
			return nil, false, fmt.Errorf("%w: account %s balance would be %d", apperrors.ErrInsufficientFunds, accID, next)
		}
	}

	// 4. Insert the entry lines.
	batch := &pgx.Batch{}
	entryQuery := `
		INSERT INTO entries (entry_id, transaction_id, account_id, entry_type, amount, currency_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, entry := range entries {
		batch.Queue(entryQuery,
			entry.EntryID,
			entry.TransactionID,
			entry.AccountID,
			string(entry.EntryType),
			entry.Amount,
			entry.CurrencyCode,
			entry.CreatedAt,
		)
	}

	// 5. Apply the balance deltas under the held locks.
	balanceQuery := `
		UPDATE balances
		SET amount = amount + $2, updated_at = $3
		WHERE account_id = $1;
	`
	for _, accID := range accountIDs {
		if delta := balanceChanges[accID]; delta != 0 {
			batch.Queue(balanceQuery, accID, delta, txn.CreatedAt)
		}
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to execute posting batch for transaction "+txn.TransactionID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, false, err
	}

	txn.Entries = entries
	return &txn, true, nil
}

// SaveFailedTransaction reserves the idempotency key terminally in FAILED
// state so replays observe the same business failure. When a concurrent
// posting already holds the key, its row is returned unchanged.
func (r *PgxLedgerRepository) SaveFailedTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	_, err := r.Pool.Exec(ctx, insertTransactionQuery,
		txn.TransactionID,
		txn.OrganizationID,
		envToNull(txn.Environment),
		nullString(txn.ExternalTransactionID),
		txn.IdempotencyKey,
		string(domain.TransactionFailed),
		nullString(txn.FailureReason),
		txn.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to record failed transaction "+txn.TransactionID, err)
	}

	return r.FindTransactionByIdempotencyKey(ctx, txn.OrganizationID, txn.Environment, txn.IdempotencyKey)
}

// FindTransactionByID retrieves a transaction and its entries.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, organizationID string, env domain.Environment, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE organization_id = $1 AND COALESCE(environment, '') = $2 AND transaction_id = $3;
	`
	return r.findTransaction(ctx, query, organizationID, string(env), transactionID)
}

// FindTransactionByIdempotencyKey retrieves the transaction reserved under the
// given key, with its entries.
func (r *PgxLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE organization_id = $1 AND COALESCE(environment, '') = $2 AND idempotency_key = $3;
	`
	return r.findTransaction(ctx, query, organizationID, string(env), idempotencyKey)
}

func (r *PgxLedgerRepository) findTransaction(ctx context.Context, query string, args ...any) (*domain.Transaction, error) {
	var m models.Transaction
	err := r.Pool.QueryRow(ctx, query, args...).Scan(
		&m.TransactionID,
		&m.OrganizationID,
		&m.Environment,
		&m.ExternalTransactionID,
		&m.IdempotencyKey,
		&m.Status,
		&m.FailureReason,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction", err)
	}

	txn := toDomainTransaction(m)
	entries, err := r.findEntriesByTransactionID(ctx, txn.TransactionID)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return &txn, nil
}

// findEntriesByTransactionID retrieves all entries for a transaction in a
// deterministic order, so replays return byte-identical results.
func (r *PgxLedgerRepository) findEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.Entry, error) {
	query := `
		SELECT e.entry_id, e.transaction_id, e.account_id, e.entry_type, e.amount, e.currency_code, e.created_at, a.external_account_id
		FROM entries e
		JOIN accounts a ON a.account_id = e.account_id
		WHERE e.transaction_id = $1
		ORDER BY e.entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for transaction "+transactionID, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListEntries retrieves a page of entries for an organization/environment,
// optionally filtered to one external account, ordered by
// (created_at DESC, entry_id DESC) so pagination stays stable under
// concurrent inserts. Returns the page plus the total row count.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, organizationID string, env domain.Environment, externalAccountID string, limit, offset int) ([]domain.Entry, int64, error) {
	filterClause := `
		FROM entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		JOIN accounts a ON a.account_id = e.account_id
		WHERE t.organization_id = $1 AND COALESCE(t.environment, '') = $2
	`
	args := []any{organizationID, string(env)}
	if externalAccountID != "" {
		filterClause += ` AND a.external_account_id = $3`
		args = append(args, externalAccountID)
	}

	var total int64
	countQuery := `SELECT COUNT(*) ` + filterClause + `;`
	if err := r.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count entries for organization "+organizationID, err)
	}

	query := `
		SELECT e.entry_id, e.transaction_id, e.account_id, e.entry_type, e.amount, e.currency_code, e.created_at, a.external_account_id
	` + filterClause + fmt.Sprintf(`
		ORDER BY e.created_at DESC, e.entry_id DESC
		LIMIT $%d OFFSET $%d;`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to query entries for organization "+organizationID, err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func scanEntries(rows pgx.Rows) ([]domain.Entry, error) {
	entries := []domain.Entry{}
	for rows.Next() {
		var m models.Entry
		var externalAccountID string
		err := rows.Scan(
			&m.EntryID,
			&m.TransactionID,
			&m.AccountID,
			&m.EntryType,
			&m.Amount,
			&m.CurrencyCode,
			&m.CreatedAt,
			&externalAccountID,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row", err)
		}
		entries = append(entries, domain.Entry{
			EntryID:           m.EntryID,
			TransactionID:     m.TransactionID,
			AccountID:         m.AccountID,
			EntryType:         domain.EntryType(m.EntryType),
			Amount:            m.Amount,
			CurrencyCode:      m.CurrencyCode,
			CreatedAt:         m.CreatedAt,
			ExternalAccountID: externalAccountID,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}
	return entries, nil
}
