package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsevents "github.com/ledgerpipe/ledgerpipe/internal/core/ports/events"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/middleware"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/accounting"
)

// MaxIdempotencyKeyLength bounds the caller-supplied opaque key.
const MaxIdempotencyKeyLength = 255

// postingService is the only writer of ledger entries and balances.
type postingService struct {
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	publisher   portsevents.Publisher
}

// NewPostingService creates a new PostingService.
func NewPostingService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, publisher portsevents.Publisher) portssvc.PostingSvcFacade {
	return &postingService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
	}
}

// Ensure postingService implements the portssvc.PostingSvcFacade interface
var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// Post turns a balanced entries plan into a committed transaction, exactly
// once per (organization, environment, idempotency key).
func (s *postingService) Post(ctx context.Context, organizationID string, env domain.Environment, plan []domain.PlanLine, params portssvc.PostParams) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validatePostingScope(organizationID, env, params.IdempotencyKey); err != nil {
		return nil, err
	}
	if err := accounting.ValidatePlan(plan); err != nil {
		return nil, err
	}

	// Resolve or lazily create every referenced account before opening the
	// atomic unit; account creation races are settled by the store's unique
	// constraint, not by this transaction.
	accounts := make(map[string]*domain.Account, len(plan))
	now := time.Now().UTC()
	for _, line := range plan {
		key := line.ExternalAccountID + "|" + line.CurrencyCode
		if _, seen := accounts[key]; seen {
			continue
		}
		account, err := s.accountRepo.EnsureAccount(ctx, domain.Account{
			AccountID:         uuid.NewString(),
			OrganizationID:    organizationID,
			Environment:       env,
			ExternalAccountID: line.ExternalAccountID,
			CurrencyCode:      line.CurrencyCode,
			AllowNegative:     line.AllowNegative,
			CreatedAt:         now,
		})
		if err != nil {
			logger.Error("Failed to resolve account for posting", slog.String("account", line.ExternalAccountID), slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to resolve account %s: %w", line.ExternalAccountID, err)
		}
		accounts[key] = account
	}

	txn := domain.Transaction{
		TransactionID:         uuid.NewString(),
		OrganizationID:        organizationID,
		Environment:           env,
		ExternalTransactionID: params.ExternalTransactionID,
		IdempotencyKey:        params.IdempotencyKey,
		Status:                domain.TransactionPosted,
		CreatedAt:             now,
	}

	entries := make([]domain.Entry, len(plan))
	for i, line := range plan {
		account := accounts[line.ExternalAccountID+"|"+line.CurrencyCode]
		entries[i] = domain.Entry{
			EntryID:           uuid.NewString(),
			TransactionID:     txn.TransactionID,
			AccountID:         account.AccountID,
			EntryType:         line.EntryType,
			Amount:            line.Amount,
			CurrencyCode:      line.CurrencyCode,
			CreatedAt:         now,
			ExternalAccountID: account.ExternalAccountID,
		}
	}

	balanceChanges, err := accounting.BalanceChanges(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	result, created, err := s.ledgerRepo.CreatePosting(ctx, txn, entries, balanceChanges)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			return s.recordInsufficientFunds(ctx, txn, err)
		}
		logger.Error("Failed to create posting", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return nil, err
	}

	if !created {
		// Replay: hand back the stored outcome untouched. A FAILED
		// reservation replays its original business failure.
		logger.Info("Idempotent replay of posting", slog.String("idempotency_key", params.IdempotencyKey), slog.String("transaction_id", result.TransactionID))
		if result.Status == domain.TransactionFailed {
			return result, fmt.Errorf("%w: %s", apperrors.ErrInsufficientFunds, result.FailureReason)
		}
		return result, nil
	}

	logger.Info("Posting committed",
		slog.String("transaction_id", result.TransactionID),
		slog.String("idempotency_key", params.IdempotencyKey),
		slog.Int("entry_count", len(entries)),
	)
	s.publish(ctx, portsevents.EventTransactionPosted, result)
	return result, nil
}

// recordInsufficientFunds reserves the key terminally so a retry with the same
// key returns the same failure instead of re-attempting the debit.
func (s *postingService) recordInsufficientFunds(ctx context.Context, txn domain.Transaction, cause error) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn.Status = domain.TransactionFailed
	txn.FailureReason = cause.Error()
	stored, err := s.ledgerRepo.SaveFailedTransaction(ctx, txn)
	if err != nil {
		logger.Error("Failed to record insufficient-funds reservation", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return nil, err
	}

	if stored.Status != domain.TransactionFailed {
		// A concurrent posting with the same key committed first; its result
		// wins and this attempt becomes a replay.
		return stored, nil
	}

	logger.Warn("Posting rejected for insufficient funds",
		slog.String("transaction_id", stored.TransactionID),
		slog.String("idempotency_key", stored.IdempotencyKey),
	)
	s.publish(ctx, portsevents.EventTransactionFailed, stored)
	return stored, fmt.Errorf("%w: %s", apperrors.ErrInsufficientFunds, stored.FailureReason)
}

// publish emits the domain event after commit. At-least-once: a publish
// failure is logged and never unwinds the committed posting.
func (s *postingService) publish(ctx context.Context, eventType string, txn *domain.Transaction) {
	if s.publisher == nil {
		return
	}
	event := portsevents.TransactionEvent{
		EventType:      eventType,
		OrganizationID: txn.OrganizationID,
		Environment:    txn.Environment,
		TransactionID:  txn.TransactionID,
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to publish transaction event",
			slog.String("event_type", eventType),
			slog.String("transaction_id", txn.TransactionID),
			slog.String("error", err.Error()),
		)
	}
}

func validatePostingScope(organizationID string, env domain.Environment, idempotencyKey string) error {
	if organizationID == "" {
		return fmt.Errorf("%w: organization id is required", apperrors.ErrValidation)
	}
	if !env.Valid() {
		return fmt.Errorf("%w: unknown environment %q", apperrors.ErrValidation, env)
	}
	if len(idempotencyKey) == 0 || len(idempotencyKey) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: idempotency key must be 1-%d characters", apperrors.ErrValidation, MaxIdempotencyKeyLength)
	}
	return nil
}
