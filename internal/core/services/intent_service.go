package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/dto"
	"github.com/ledgerpipe/ledgerpipe/internal/middleware"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

var (
	ErrMissingFromAccount = errors.New("from_account is required for this kind")
	ErrMissingToAccount   = errors.New("to_account is required for this kind")
)

// DefaultFundingAccountID is the external id of the per-(org, env, currency)
// counterparty account that deposits draw from and withdrawals pay into. It
// is the only account created with overdraft permitted.
const DefaultFundingAccountID = "world"

// intentService owns the intent lifecycle and drives posting attempts.
type intentService struct {
	intentRepo     portsrepo.IntentRepositoryFacade
	postingSvc     portssvc.PostingSvcFacade
	fundingAccount string
}

// NewIntentService creates a new IntentService.
func NewIntentService(intentRepo portsrepo.IntentRepositoryFacade, postingSvc portssvc.PostingSvcFacade, fundingAccount string) portssvc.IntentSvcFacade {
	if fundingAccount == "" {
		fundingAccount = DefaultFundingAccountID
	}
	return &intentService{
		intentRepo:     intentRepo,
		postingSvc:     postingSvc,
		fundingAccount: fundingAccount,
	}
}

// Ensure intentService implements the portssvc.IntentSvcFacade interface
var _ portssvc.IntentSvcFacade = (*intentService)(nil)

// CreateIntent validates and records the request, then synchronously attempts
// to post it. A replayed idempotency key returns the existing intent as
// success without a new posting attempt.
func (s *intentService) CreateIntent(ctx context.Context, organizationID string, env domain.Environment, req dto.CreateIntentRequest) (*domain.Intent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	kind, err := validateIntentRequest(organizationID, env, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	intent := domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: organizationID,
		Environment:    env,
		Kind:           kind,
		FromAccountID:  req.FromAccount,
		ToAccountID:    req.ToAccount,
		Amount:         req.Amount,
		CurrencyCode:   strings.ToUpper(req.Currency),
		IdempotencyKey: req.IdempotencyKey,
		Status:         domain.IntentPending,
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}

	stored, created, err := s.intentRepo.CreateIntent(ctx, intent)
	if err != nil {
		logger.Error("Failed to save intent", slog.String("error", err.Error()), slog.String("organization_id", organizationID))
		return nil, fmt.Errorf("failed to save intent: %w", err)
	}
	if !created {
		logger.Info("Duplicate intent submission, returning existing",
			slog.String("intent_id", stored.IntentID),
			slog.String("idempotency_key", stored.IdempotencyKey),
		)
		return stored, nil
	}

	if err := s.ResolveIntent(ctx, *stored); err != nil {
		if apperrors.IsTransient(err) {
			// The intent stays pending; the reconciliation worker retries it
			// with the same idempotency key.
			logger.Warn("Posting attempt deferred to reconciliation",
				slog.String("intent_id", stored.IntentID),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Error("Failed to record posting outcome for intent",
				slog.String("intent_id", stored.IntentID),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.intentRepo.FindIntentByID(ctx, organizationID, stored.IntentID)
}

// ResolveIntent drives one posting attempt for a pending intent, reusing its
// stored idempotency key, and records the terminal outcome. Transient
// failures leave the intent pending and are returned to the caller.
func (s *intentService) ResolveIntent(ctx context.Context, intent domain.Intent) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if intent.Status.Terminal() {
		return nil
	}

	if err := s.intentRepo.IncrementAttempt(ctx, intent.IntentID, time.Now().UTC()); err != nil {
		return err
	}

	txn, err := s.postingSvc.Post(ctx, intent.OrganizationID, intent.Environment, s.planFor(intent), portssvc.PostParams{
		IdempotencyKey: intent.IdempotencyKey,
	})
	if err != nil {
		if apperrors.IsTransient(err) {
			return err
		}
		// Terminal business or contract failure: record it on the intent.
		reason := err.Error()
		logger.Warn("Posting failed terminally for intent",
			slog.String("intent_id", intent.IntentID),
			slog.String("reason", reason),
		)
		return s.MarkFailed(ctx, intent.IntentID, reason)
	}

	return s.MarkPosted(ctx, intent.IntentID, txn.TransactionID)
}

// planFor maps an intent's kind onto a balanced entries plan. Deposits debit
// the funding account, withdrawals credit it, transfers touch only the two
// caller accounts. Self-transfers are permitted; the kind alone decides the
// shape.
func (s *intentService) planFor(intent domain.Intent) []domain.PlanLine {
	funding := domain.PlanLine{
		ExternalAccountID: s.fundingAccount,
		Amount:            intent.Amount,
		CurrencyCode:      intent.CurrencyCode,
		AllowNegative:     true,
	}

	switch intent.Kind {
	case domain.IntentDeposit:
		funding.EntryType = domain.Debit
		return []domain.PlanLine{
			funding,
			{ExternalAccountID: intent.ToAccountID, EntryType: domain.Credit, Amount: intent.Amount, CurrencyCode: intent.CurrencyCode},
		}
	case domain.IntentWithdraw:
		funding.EntryType = domain.Credit
		return []domain.PlanLine{
			{ExternalAccountID: intent.FromAccountID, EntryType: domain.Debit, Amount: intent.Amount, CurrencyCode: intent.CurrencyCode},
			funding,
		}
	default: // transfer
		return []domain.PlanLine{
			{ExternalAccountID: intent.FromAccountID, EntryType: domain.Debit, Amount: intent.Amount, CurrencyCode: intent.CurrencyCode},
			{ExternalAccountID: intent.ToAccountID, EntryType: domain.Credit, Amount: intent.Amount, CurrencyCode: intent.CurrencyCode},
		}
	}
}

// GetIntent retrieves an intent by id.
func (s *intentService) GetIntent(ctx context.Context, organizationID, intentID string) (*domain.Intent, error) {
	return s.intentRepo.FindIntentByID(ctx, organizationID, intentID)
}

// ListIntents retrieves a page of intents, optionally filtered by status.
func (s *intentService) ListIntents(ctx context.Context, organizationID string, env domain.Environment, status domain.IntentStatus, params pagination.Params) ([]domain.Intent, pagination.Meta, error) {
	params = params.Normalize()
	intents, total, err := s.intentRepo.ListIntents(ctx, organizationID, env, status, params.PerPage, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list intents: %w", err)
	}
	return intents, pagination.NewMeta(params, total), nil
}

// MarkPosted transitions an intent to POSTED. Calling it again for an intent
// that already reached POSTED is a no-op; asking it to leave FAILED is a bug
// upstream and reported as ErrInvalidTransition, never silently overwritten.
func (s *intentService) MarkPosted(ctx context.Context, intentID, transactionID string) error {
	updated, err := s.intentRepo.MarkPosted(ctx, intentID, transactionID, time.Now().UTC())
	if err != nil {
		return err
	}
	if updated {
		return nil
	}
	return s.checkTerminalState(ctx, intentID, domain.IntentPosted)
}

// MarkFailed transitions an intent to FAILED with a reason, with the same
// terminal-state rules as MarkPosted.
func (s *intentService) MarkFailed(ctx context.Context, intentID, reason string) error {
	updated, err := s.intentRepo.MarkFailed(ctx, intentID, reason, time.Now().UTC())
	if err != nil {
		return err
	}
	if updated {
		return nil
	}
	return s.checkTerminalState(ctx, intentID, domain.IntentFailed)
}

// checkTerminalState distinguishes an idempotent repeat from an illegal
// transition after a guarded update matched no pending row.
func (s *intentService) checkTerminalState(ctx context.Context, intentID string, want domain.IntentStatus) error {
	// The organization scope is unknown here; the guarded update already
	// matched the row by primary key, so look it up the same way.
	intent, err := s.intentRepo.FindIntentByID(ctx, "", intentID)
	if err != nil {
		return err
	}
	if intent.Status == want {
		return nil
	}
	return fmt.Errorf("%w: intent %s is %s, cannot become %s", apperrors.ErrInvalidTransition, intentID, intent.Status, want)
}

func validateIntentRequest(organizationID string, env domain.Environment, req dto.CreateIntentRequest) (domain.IntentKind, error) {
	if organizationID == "" {
		return "", fmt.Errorf("%w: organization id is required", apperrors.ErrValidation)
	}
	if !env.Valid() {
		return "", fmt.Errorf("%w: unknown environment %q", apperrors.ErrValidation, env)
	}
	if req.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if len(req.Currency) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3-letter code", apperrors.ErrValidation)
	}
	if len(req.IdempotencyKey) == 0 || len(req.IdempotencyKey) > MaxIdempotencyKeyLength {
		return "", fmt.Errorf("%w: idempotency key must be 1-%d characters", apperrors.ErrValidation, MaxIdempotencyKeyLength)
	}

	kind := domain.IntentKind(strings.ToUpper(req.Kind))
	switch kind {
	case domain.IntentDeposit:
		if req.ToAccount == "" {
			return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrMissingToAccount)
		}
	case domain.IntentWithdraw:
		if req.FromAccount == "" {
			return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrMissingFromAccount)
		}
	case domain.IntentTransfer:
		if req.FromAccount == "" {
			return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrMissingFromAccount)
		}
		if req.ToAccount == "" {
			return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrMissingToAccount)
		}
	default:
		return "", fmt.Errorf("%w: unknown kind %q", apperrors.ErrValidation, req.Kind)
	}

	return kind, nil
}
