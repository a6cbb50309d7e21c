package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	"github.com/ledgerpipe/ledgerpipe/internal/models"
)

type PgxIntentRepository struct {
	pool *pgxpool.Pool
}

// newPgxIntentRepository creates a new repository for intent data.
func newPgxIntentRepository(pool *pgxpool.Pool) portsrepo.IntentRepositoryFacade {
	return &PgxIntentRepository{pool: pool}
}

// Ensure PgxIntentRepository implements portsrepo.IntentRepositoryFacade
var _ portsrepo.IntentRepositoryFacade = (*PgxIntentRepository)(nil)

// Helper to convert models.Intent from DB to domain.Intent
func toDomainIntent(m models.Intent) domain.Intent {
	return domain.Intent{
		IntentID:       m.IntentID,
		OrganizationID: m.OrganizationID,
		Environment:    envFromNull(m.Environment),
		Kind:           domain.IntentKind(m.Kind),
		FromAccountID:  m.FromAccountID.String,
		ToAccountID:    m.ToAccountID.String,
		Amount:         m.Amount,
		CurrencyCode:   m.CurrencyCode,
		IdempotencyKey: m.IdempotencyKey,
		Status:         domain.IntentStatus(m.Status),
		FailureReason:  m.FailureReason.String,
		AttemptCount:   m.AttemptCount,
		TransactionID:  m.TransactionID.String,
		CreatedAt:      m.CreatedAt,
		LastUpdatedAt:  m.LastUpdatedAt,
	}
}

const intentColumns = `intent_id, organization_id, environment, kind, from_account_id, to_account_id, amount, currency_code, idempotency_key, status, failure_reason, attempt_count, transaction_id, created_at, last_updated_at`

func scanIntent(row pgx.Row) (*domain.Intent, error) {
	var m models.Intent
	err := row.Scan(
		&m.IntentID,
		&m.OrganizationID,
		&m.Environment,
		&m.Kind,
		&m.FromAccountID,
		&m.ToAccountID,
		&m.Amount,
		&m.CurrencyCode,
		&m.IdempotencyKey,
		&m.Status,
		&m.FailureReason,
		&m.AttemptCount,
		&m.TransactionID,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to scan intent row", err)
	}
	intent := toDomainIntent(m)
	return &intent, nil
}

// CreateIntent persists a new intent. Concurrent submissions with the same
// idempotency key race on the unique constraint; the loser reads the winner's
// row and reports created=false.
func (r *PgxIntentRepository) CreateIntent(ctx context.Context, intent domain.Intent) (*domain.Intent, bool, error) {
	query := `
		INSERT INTO intents (intent_id, organization_id, environment, kind, from_account_id, to_account_id, amount, currency_code, idempotency_key, status, attempt_count, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.pool.Exec(ctx, query,
		intent.IntentID,
		intent.OrganizationID,
		envToNull(intent.Environment),
		string(intent.Kind),
		nullString(intent.FromAccountID),
		nullString(intent.ToAccountID),
		intent.Amount,
		intent.CurrencyCode,
		intent.IdempotencyKey,
		string(intent.Status),
		intent.AttemptCount,
		intent.CreatedAt,
		intent.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			existing, findErr := r.FindIntentByIdempotencyKey(ctx, intent.OrganizationID, intent.Environment, intent.IdempotencyKey)
			if findErr != nil {
				return nil, false, findErr
			}
			return existing, false, nil
		}
		return nil, false, apperrors.NewAppError(500, "failed to save intent "+intent.IntentID, err)
	}

	return &intent, true, nil
}

// FindIntentByID retrieves an intent by id. An empty organizationID skips the
// scope check; internal callers already hold the row by primary key.
func (r *PgxIntentRepository) FindIntentByID(ctx context.Context, organizationID, intentID string) (*domain.Intent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM intents
		WHERE ($1 = '' OR organization_id = $1) AND intent_id = $2;
	`
	return scanIntent(r.pool.QueryRow(ctx, query, organizationID, intentID))
}

// FindIntentByIdempotencyKey retrieves the intent reserved under the key.
func (r *PgxIntentRepository) FindIntentByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Intent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM intents
		WHERE organization_id = $1 AND COALESCE(environment, '') = $2 AND idempotency_key = $3;
	`
	return scanIntent(r.pool.QueryRow(ctx, query, organizationID, string(env), idempotencyKey))
}

// ListIntents retrieves a page of intents for a scope, optionally filtered by
// status, newest first, plus the total row count.
func (r *PgxIntentRepository) ListIntents(ctx context.Context, organizationID string, env domain.Environment, status domain.IntentStatus, limit, offset int) ([]domain.Intent, int64, error) {
	filterClause := `
		FROM intents
		WHERE organization_id = $1 AND COALESCE(environment, '') = $2
	`
	args := []any{organizationID, string(env)}
	if status != "" {
		filterClause += ` AND status = $3`
		args = append(args, string(status))
	}

	var total int64
	countQuery := `SELECT COUNT(*) ` + filterClause + `;`
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count intents for organization "+organizationID, err)
	}

	query := `SELECT ` + intentColumns + filterClause + fmt.Sprintf(`
		ORDER BY created_at DESC, intent_id DESC
		LIMIT $%d OFFSET $%d;`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to query intents for organization "+organizationID, err)
	}
	defer rows.Close()

	intents, err := scanIntentRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return intents, total, nil
}

// ListPendingOlderThan retrieves pending intents created before the cutoff,
// oldest first, for the reconciliation sweep.
func (r *PgxIntentRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Intent, error) {
	query := `
		SELECT ` + intentColumns + `
		FROM intents
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC, intent_id ASC
		LIMIT $3;
	`
	rows, err := r.pool.Query(ctx, query, string(domain.IntentPending), cutoff, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query pending intents", err)
	}
	defer rows.Close()

	return scanIntentRows(rows)
}

// MarkPosted flips a pending intent to POSTED. The status guard in the WHERE
// clause makes terminal states immutable at the storage layer.
func (r *PgxIntentRepository) MarkPosted(ctx context.Context, intentID, transactionID string, now time.Time) (bool, error) {
	query := `
		UPDATE intents
		SET status = $2, transaction_id = $3, last_updated_at = $4
		WHERE intent_id = $1 AND status = $5;
	`
	cmdTag, err := r.pool.Exec(ctx, query, intentID, string(domain.IntentPosted), transactionID, now, string(domain.IntentPending))
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to mark intent "+intentID+" posted", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// MarkFailed flips a pending intent to FAILED with a reason.
func (r *PgxIntentRepository) MarkFailed(ctx context.Context, intentID, reason string, now time.Time) (bool, error) {
	query := `
		UPDATE intents
		SET status = $2, failure_reason = $3, last_updated_at = $4
		WHERE intent_id = $1 AND status = $5;
	`
	cmdTag, err := r.pool.Exec(ctx, query, intentID, string(domain.IntentFailed), reason, now, string(domain.IntentPending))
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to mark intent "+intentID+" failed", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// IncrementAttempt bumps the posting attempt counter.
func (r *PgxIntentRepository) IncrementAttempt(ctx context.Context, intentID string, now time.Time) error {
	query := `
		UPDATE intents
		SET attempt_count = attempt_count + 1, last_updated_at = $2
		WHERE intent_id = $1;
	`
	cmdTag, err := r.pool.Exec(ctx, query, intentID, now)
	if err != nil {
		return apperrors.NewAppError(500, "failed to increment attempts for intent "+intentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("intent " + intentID + " not found for attempt increment")
	}
	return nil
}

func scanIntentRows(rows pgx.Rows) ([]domain.Intent, error) {
	intents := []domain.Intent{}
	for rows.Next() {
		var m models.Intent
		err := rows.Scan(
			&m.IntentID,
			&m.OrganizationID,
			&m.Environment,
			&m.Kind,
			&m.FromAccountID,
			&m.ToAccountID,
			&m.Amount,
			&m.CurrencyCode,
			&m.IdempotencyKey,
			&m.Status,
			&m.FailureReason,
			&m.AttemptCount,
			&m.TransactionID,
			&m.CreatedAt,
			&m.LastUpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan intent row", err)
		}
		intents = append(intents, toDomainIntent(m))
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating intent rows", err)
	}
	return intents, nil
}
