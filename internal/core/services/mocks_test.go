package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portsevents "github.com/ledgerpipe/ledgerpipe/internal/core/ports/events"
	portsrepo "github.com/ledgerpipe/ledgerpipe/internal/core/ports/repositories"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/dto"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, organizationID string, env domain.Environment, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, env, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, env, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListEntries(ctx context.Context, organizationID string, env domain.Environment, externalAccountID string, limit, offset int) ([]domain.Entry, int64, error) {
	args := m.Called(ctx, organizationID, env, externalAccountID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) CreatePosting(ctx context.Context, txn domain.Transaction, entries []domain.Entry, balanceChanges map[string]int64) (*domain.Transaction, bool, error) {
	args := m.Called(ctx, txn, entries, balanceChanges)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Transaction), args.Bool(1), args.Error(2)
}

func (m *MockLedgerRepository) SaveFailedTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccount(ctx context.Context, organizationID string, env domain.Environment, externalAccountID, currencyCode string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, env, externalAccountID, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, organizationID string, env domain.Environment, limit, offset int) ([]domain.Account, int64, error) {
	args := m.Called(ctx, organizationID, env, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) EnsureAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Mock IntentRepository ---

type MockIntentRepository struct {
	mock.Mock
}

var _ portsrepo.IntentRepositoryFacade = (*MockIntentRepository)(nil)

func (m *MockIntentRepository) FindIntentByID(ctx context.Context, organizationID, intentID string) (*domain.Intent, error) {
	args := m.Called(ctx, organizationID, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Intent), args.Error(1)
}

func (m *MockIntentRepository) FindIntentByIdempotencyKey(ctx context.Context, organizationID string, env domain.Environment, idempotencyKey string) (*domain.Intent, error) {
	args := m.Called(ctx, organizationID, env, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Intent), args.Error(1)
}

func (m *MockIntentRepository) ListIntents(ctx context.Context, organizationID string, env domain.Environment, status domain.IntentStatus, limit, offset int) ([]domain.Intent, int64, error) {
	args := m.Called(ctx, organizationID, env, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Intent), args.Get(1).(int64), args.Error(2)
}

func (m *MockIntentRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Intent, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Intent), args.Error(1)
}

func (m *MockIntentRepository) CreateIntent(ctx context.Context, intent domain.Intent) (*domain.Intent, bool, error) {
	args := m.Called(ctx, intent)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Intent), args.Bool(1), args.Error(2)
}

func (m *MockIntentRepository) MarkPosted(ctx context.Context, intentID, transactionID string, now time.Time) (bool, error) {
	args := m.Called(ctx, intentID, transactionID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntentRepository) MarkFailed(ctx context.Context, intentID, reason string, now time.Time) (bool, error) {
	args := m.Called(ctx, intentID, reason, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntentRepository) IncrementAttempt(ctx context.Context, intentID string, now time.Time) error {
	args := m.Called(ctx, intentID, now)
	return args.Error(0)
}

// --- Mock PostingService ---

type MockPostingService struct {
	mock.Mock
}

var _ portssvc.PostingSvcFacade = (*MockPostingService)(nil)

func (m *MockPostingService) Post(ctx context.Context, organizationID string, env domain.Environment, plan []domain.PlanLine, params portssvc.PostParams) (*domain.Transaction, error) {
	args := m.Called(ctx, organizationID, env, plan, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// --- Mock IntentService ---

type MockIntentService struct {
	mock.Mock
}

var _ portssvc.IntentSvcFacade = (*MockIntentService)(nil)

func (m *MockIntentService) CreateIntent(ctx context.Context, organizationID string, env domain.Environment, req dto.CreateIntentRequest) (*domain.Intent, error) {
	args := m.Called(ctx, organizationID, env, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Intent), args.Error(1)
}

func (m *MockIntentService) GetIntent(ctx context.Context, organizationID, intentID string) (*domain.Intent, error) {
	args := m.Called(ctx, organizationID, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Intent), args.Error(1)
}

func (m *MockIntentService) ListIntents(ctx context.Context, organizationID string, env domain.Environment, status domain.IntentStatus, params pagination.Params) ([]domain.Intent, pagination.Meta, error) {
	args := m.Called(ctx, organizationID, env, status, params)
	if args.Get(0) == nil {
		return nil, pagination.Meta{}, args.Error(2)
	}
	return args.Get(0).([]domain.Intent), args.Get(1).(pagination.Meta), args.Error(2)
}

func (m *MockIntentService) ResolveIntent(ctx context.Context, intent domain.Intent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockIntentService) MarkPosted(ctx context.Context, intentID, transactionID string) error {
	args := m.Called(ctx, intentID, transactionID)
	return args.Error(0)
}

func (m *MockIntentService) MarkFailed(ctx context.Context, intentID, reason string) error {
	args := m.Called(ctx, intentID, reason)
	return args.Error(0)
}

// --- Mock Publisher ---

type MockPublisher struct {
	mock.Mock
}

var _ portsevents.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, event portsevents.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
