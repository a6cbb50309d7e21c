package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
	portssvc "github.com/ledgerpipe/ledgerpipe/internal/core/ports/services"
	"github.com/ledgerpipe/ledgerpipe/internal/core/services"
	"github.com/ledgerpipe/ledgerpipe/internal/dto"
	"github.com/ledgerpipe/ledgerpipe/internal/utils/pagination"
)

// --- Test Suite Setup ---
type IntentServiceTestSuite struct {
	suite.Suite
	mockIntentRepo *MockIntentRepository
	mockPostingSvc *MockPostingService
	service        portssvc.IntentSvcFacade
	organizationID string
	env            domain.Environment
}

func (suite *IntentServiceTestSuite) SetupTest() {
	suite.mockIntentRepo = new(MockIntentRepository)
	suite.mockPostingSvc = new(MockPostingService)
	suite.service = services.NewIntentService(suite.mockIntentRepo, suite.mockPostingSvc, "world")

	suite.organizationID = uuid.NewString()
	suite.env = domain.EnvironmentProduction
}

func (suite *IntentServiceTestSuite) depositRequest() dto.CreateIntentRequest {
	return dto.CreateIntentRequest{
		Kind:           "deposit",
		ToAccount:      "alice",
		Amount:         500,
		Currency:       "USD",
		IdempotencyKey: "dep-1",
	}
}

// --- CreateIntent ---

func (suite *IntentServiceTestSuite) TestCreateIntent_DepositSuccess() {
	ctx := context.Background()
	req := suite.depositRequest()

	intentID := uuid.NewString()
	stored := domain.Intent{
		IntentID:       intentID,
		OrganizationID: suite.organizationID,
		Environment:    suite.env,
		Kind:           domain.IntentDeposit,
		ToAccountID:    "alice",
		Amount:         500,
		CurrencyCode:   "USD",
		IdempotencyKey: "dep-1",
		Status:         domain.IntentPending,
	}

	var captured domain.Intent
	suite.mockIntentRepo.On("CreateIntent", ctx, mock.AnythingOfType("domain.Intent")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(domain.Intent)
		}).
		Return(&stored, true, nil).Once()

	suite.mockIntentRepo.On("IncrementAttempt", ctx, intentID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	txnID := uuid.NewString()
	suite.mockPostingSvc.On("Post", ctx, suite.organizationID, suite.env, mock.MatchedBy(func(plan []domain.PlanLine) bool {
		// Deposit: debit the funding account, credit the target.
		return len(plan) == 2 &&
			plan[0].ExternalAccountID == "world" && plan[0].EntryType == domain.Debit && plan[0].AllowNegative &&
			plan[1].ExternalAccountID == "alice" && plan[1].EntryType == domain.Credit
	}), portssvc.PostParams{IdempotencyKey: "dep-1"}).
		Return(&domain.Transaction{TransactionID: txnID, Status: domain.TransactionPosted}, nil).Once()

	suite.mockIntentRepo.On("MarkPosted", ctx, intentID, txnID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

	posted := domain.Intent{IntentID: intentID, Status: domain.IntentPosted, TransactionID: txnID}
	suite.mockIntentRepo.On("FindIntentByID", ctx, suite.organizationID, intentID).Return(&posted, nil).Once()

	intent, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, req)

	suite.Require().NoError(err)
	suite.Equal(domain.IntentPosted, intent.Status)
	suite.Equal(txnID, intent.TransactionID)
	suite.Equal(domain.IntentDeposit, captured.Kind)
	suite.Equal(domain.IntentPending, captured.Status)
	suite.Equal("dep-1", captured.IdempotencyKey)
	suite.mockIntentRepo.AssertExpectations(suite.T())
	suite.mockPostingSvc.AssertExpectations(suite.T())
}

func (suite *IntentServiceTestSuite) TestCreateIntent_DuplicateKeyReturnsExisting() {
	ctx := context.Background()
	existing := &domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: suite.organizationID,
		Status:         domain.IntentPosted,
		IdempotencyKey: "dep-1",
	}
	suite.mockIntentRepo.On("CreateIntent", ctx, mock.Anything).Return(existing, false, nil).Once()

	intent, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, suite.depositRequest())

	suite.Require().NoError(err)
	suite.Equal(existing.IntentID, intent.IntentID)
	// A replay must not burn another posting attempt.
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "IncrementAttempt", mock.Anything, mock.Anything, mock.Anything)
	suite.mockPostingSvc.AssertNotCalled(suite.T(), "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IntentServiceTestSuite) TestCreateIntent_TransientFailureStaysPending() {
	ctx := context.Background()

	stored := domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: suite.organizationID,
		Environment:    suite.env,
		Kind:           domain.IntentDeposit,
		ToAccountID:    "alice",
		Amount:         500,
		CurrencyCode:   "USD",
		IdempotencyKey: "dep-1",
		Status:         domain.IntentPending,
	}
	suite.mockIntentRepo.On("CreateIntent", ctx, mock.Anything).Return(&stored, true, nil).Once()
	suite.mockIntentRepo.On("IncrementAttempt", ctx, stored.IntentID, mock.Anything).Return(nil).Once()
	suite.mockPostingSvc.On("Post", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	pending := domain.Intent{IntentID: stored.IntentID, Status: domain.IntentPending, AttemptCount: 1}
	suite.mockIntentRepo.On("FindIntentByID", ctx, suite.organizationID, mock.Anything).Return(&pending, nil).Once()

	intent, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, suite.depositRequest())

	suite.Require().NoError(err)
	suite.Equal(domain.IntentPending, intent.Status)
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IntentServiceTestSuite) TestCreateIntent_OutcomeRecordingConflictStillReturnsIntent() {
	ctx := context.Background()

	stored := domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: suite.organizationID,
		Environment:    suite.env,
		Kind:           domain.IntentDeposit,
		ToAccountID:    "alice",
		Amount:         500,
		CurrencyCode:   "USD",
		IdempotencyKey: "dep-1",
		Status:         domain.IntentPending,
	}
	suite.mockIntentRepo.On("CreateIntent", ctx, mock.Anything).Return(&stored, true, nil).Once()
	suite.mockIntentRepo.On("IncrementAttempt", ctx, stored.IntentID, mock.Anything).Return(nil).Once()
	suite.mockPostingSvc.On("Post", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrInsufficientFunds).Once()

	// The guarded update misses because a concurrent resolution already moved
	// the intent to POSTED. Recording the failure is impossible, but the
	// caller still gets the intent's current state back.
	suite.mockIntentRepo.On("MarkFailed", ctx, stored.IntentID, mock.Anything, mock.Anything).Return(false, nil).Once()
	posted := domain.Intent{IntentID: stored.IntentID, Status: domain.IntentPosted}
	suite.mockIntentRepo.On("FindIntentByID", ctx, "", stored.IntentID).Return(&posted, nil).Once()
	suite.mockIntentRepo.On("FindIntentByID", ctx, suite.organizationID, stored.IntentID).Return(&posted, nil).Once()

	intent, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, suite.depositRequest())

	suite.Require().NoError(err)
	suite.Equal(domain.IntentPosted, intent.Status)
	suite.mockIntentRepo.AssertExpectations(suite.T())
}

func (suite *IntentServiceTestSuite) TestCreateIntent_BusinessFailureMarksFailed() {
	ctx := context.Background()
	req := dto.CreateIntentRequest{
		Kind:           "withdraw",
		FromAccount:    "alice",
		Amount:         500,
		Currency:       "USD",
		IdempotencyKey: "wd-1",
	}

	stored := domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: suite.organizationID,
		Environment:    suite.env,
		Kind:           domain.IntentWithdraw,
		FromAccountID:  "alice",
		Amount:         500,
		CurrencyCode:   "USD",
		IdempotencyKey: "wd-1",
		Status:         domain.IntentPending,
	}
	suite.mockIntentRepo.On("CreateIntent", ctx, mock.Anything).Return(&stored, true, nil).Once()
	suite.mockIntentRepo.On("IncrementAttempt", ctx, stored.IntentID, mock.Anything).Return(nil).Once()
	suite.mockPostingSvc.On("Post", ctx, suite.organizationID, suite.env, mock.MatchedBy(func(plan []domain.PlanLine) bool {
		// Withdrawal: debit the source, credit the funding account.
		return len(plan) == 2 &&
			plan[0].ExternalAccountID == "alice" && plan[0].EntryType == domain.Debit &&
			plan[1].ExternalAccountID == "world" && plan[1].EntryType == domain.Credit && plan[1].AllowNegative
	}), mock.Anything).
		Return(nil, apperrors.ErrInsufficientFunds).Once()
	suite.mockIntentRepo.On("MarkFailed", ctx, stored.IntentID, apperrors.ErrInsufficientFunds.Error(), mock.AnythingOfType("time.Time")).Return(true, nil).Once()

	failed := domain.Intent{IntentID: stored.IntentID, Status: domain.IntentFailed, FailureReason: apperrors.ErrInsufficientFunds.Error()}
	suite.mockIntentRepo.On("FindIntentByID", ctx, suite.organizationID, stored.IntentID).Return(&failed, nil).Once()

	intent, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, req)

	suite.Require().NoError(err)
	suite.Equal(domain.IntentFailed, intent.Status)
	suite.mockIntentRepo.AssertExpectations(suite.T())
}

func (suite *IntentServiceTestSuite) TestCreateIntent_ValidationFailures() {
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.CreateIntentRequest
	}{
		{"unknown kind", dto.CreateIntentRequest{Kind: "refund", ToAccount: "a", Amount: 1, Currency: "USD", IdempotencyKey: "k"}},
		{"deposit without to_account", dto.CreateIntentRequest{Kind: "deposit", Amount: 1, Currency: "USD", IdempotencyKey: "k"}},
		{"withdraw without from_account", dto.CreateIntentRequest{Kind: "withdraw", Amount: 1, Currency: "USD", IdempotencyKey: "k"}},
		{"transfer without accounts", dto.CreateIntentRequest{Kind: "transfer", Amount: 1, Currency: "USD", IdempotencyKey: "k"}},
		{"zero amount", dto.CreateIntentRequest{Kind: "deposit", ToAccount: "a", Amount: 0, Currency: "USD", IdempotencyKey: "k"}},
		{"negative amount", dto.CreateIntentRequest{Kind: "deposit", ToAccount: "a", Amount: -5, Currency: "USD", IdempotencyKey: "k"}},
		{"bad currency", dto.CreateIntentRequest{Kind: "deposit", ToAccount: "a", Amount: 1, Currency: "US", IdempotencyKey: "k"}},
		{"missing idempotency key", dto.CreateIntentRequest{Kind: "deposit", ToAccount: "a", Amount: 1, Currency: "USD"}},
	}

	for _, tc := range cases {
		_, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, tc.req)
		suite.Require().Error(err, tc.name)
		suite.ErrorIs(err, apperrors.ErrValidation, tc.name)
	}
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "CreateIntent", mock.Anything, mock.Anything)
}

func (suite *IntentServiceTestSuite) TestCreateIntent_SelfTransferAllowed() {
	ctx := context.Background()
	req := dto.CreateIntentRequest{
		Kind:           "transfer",
		FromAccount:    "alice",
		ToAccount:      "alice",
		Amount:         100,
		Currency:       "USD",
		IdempotencyKey: "tr-1",
	}

	stored := domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: suite.organizationID,
		Environment:    suite.env,
		Kind:           domain.IntentTransfer,
		FromAccountID:  "alice",
		ToAccountID:    "alice",
		Amount:         100,
		CurrencyCode:   "USD",
		IdempotencyKey: "tr-1",
		Status:         domain.IntentPending,
	}
	suite.mockIntentRepo.On("CreateIntent", ctx, mock.Anything).Return(&stored, true, nil).Once()
	suite.mockIntentRepo.On("IncrementAttempt", ctx, stored.IntentID, mock.Anything).Return(nil).Once()
	suite.mockPostingSvc.On("Post", ctx, suite.organizationID, suite.env, mock.MatchedBy(func(plan []domain.PlanLine) bool {
		return len(plan) == 2 && plan[0].ExternalAccountID == "alice" && plan[1].ExternalAccountID == "alice"
	}), mock.Anything).
		Return(&domain.Transaction{TransactionID: uuid.NewString(), Status: domain.TransactionPosted}, nil).Once()
	suite.mockIntentRepo.On("MarkPosted", ctx, stored.IntentID, mock.Anything, mock.Anything).Return(true, nil).Once()
	suite.mockIntentRepo.On("FindIntentByID", ctx, suite.organizationID, stored.IntentID).Return(&domain.Intent{IntentID: stored.IntentID, Status: domain.IntentPosted}, nil).Once()

	intent, err := suite.service.CreateIntent(ctx, suite.organizationID, suite.env, req)

	suite.Require().NoError(err)
	suite.Equal(domain.IntentPosted, intent.Status)
}

// --- ResolveIntent ---

func (suite *IntentServiceTestSuite) TestResolveIntent_TerminalIsNoOp() {
	ctx := context.Background()
	intent := domain.Intent{IntentID: uuid.NewString(), Status: domain.IntentPosted}

	err := suite.service.ResolveIntent(ctx, intent)

	suite.Require().NoError(err)
	suite.mockPostingSvc.AssertNotCalled(suite.T(), "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "IncrementAttempt", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *IntentServiceTestSuite) TestResolveIntent_TransientErrorReturned() {
	ctx := context.Background()
	intent := domain.Intent{
		IntentID:       uuid.NewString(),
		OrganizationID: suite.organizationID,
		Environment:    suite.env,
		Kind:           domain.IntentDeposit,
		ToAccountID:    "alice",
		Amount:         100,
		CurrencyCode:   "USD",
		IdempotencyKey: "dep-9",
		Status:         domain.IntentPending,
	}

	suite.mockIntentRepo.On("IncrementAttempt", ctx, intent.IntentID, mock.Anything).Return(nil).Once()
	suite.mockPostingSvc.On("Post", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	err := suite.service.ResolveIntent(ctx, intent)

	suite.Require().Error(err)
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "MarkPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- State machine ---

func (suite *IntentServiceTestSuite) TestMarkPosted_RepeatIsIdempotent() {
	ctx := context.Background()
	intentID := uuid.NewString()
	txnID := uuid.NewString()

	// Guarded update matched no pending row; the stored state already equals
	// the target, so this is a repeat, not a conflict.
	suite.mockIntentRepo.On("MarkPosted", ctx, intentID, txnID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	suite.mockIntentRepo.On("FindIntentByID", ctx, "", intentID).
		Return(&domain.Intent{IntentID: intentID, Status: domain.IntentPosted, TransactionID: txnID}, nil).Once()

	err := suite.service.MarkPosted(ctx, intentID, txnID)

	suite.Require().NoError(err)
	suite.mockIntentRepo.AssertExpectations(suite.T())
}

func (suite *IntentServiceTestSuite) TestMarkPosted_FromFailedIsInvalid() {
	ctx := context.Background()
	intentID := uuid.NewString()

	suite.mockIntentRepo.On("MarkPosted", ctx, intentID, mock.Anything, mock.Anything).Return(false, nil).Once()
	suite.mockIntentRepo.On("FindIntentByID", ctx, "", intentID).
		Return(&domain.Intent{IntentID: intentID, Status: domain.IntentFailed}, nil).Once()

	err := suite.service.MarkPosted(ctx, intentID, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *IntentServiceTestSuite) TestMarkFailed_RepeatIsIdempotent() {
	ctx := context.Background()
	intentID := uuid.NewString()

	suite.mockIntentRepo.On("MarkFailed", ctx, intentID, "timeout", mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	suite.mockIntentRepo.On("FindIntentByID", ctx, "", intentID).
		Return(&domain.Intent{IntentID: intentID, Status: domain.IntentFailed, FailureReason: "timeout"}, nil).Once()

	err := suite.service.MarkFailed(ctx, intentID, "timeout")

	suite.Require().NoError(err)
}

func (suite *IntentServiceTestSuite) TestMarkFailed_FromPostedIsInvalid() {
	ctx := context.Background()
	intentID := uuid.NewString()

	suite.mockIntentRepo.On("MarkFailed", ctx, intentID, "timeout", mock.Anything).Return(false, nil).Once()
	suite.mockIntentRepo.On("FindIntentByID", ctx, "", intentID).
		Return(&domain.Intent{IntentID: intentID, Status: domain.IntentPosted}, nil).Once()

	err := suite.service.MarkFailed(ctx, intentID, "timeout")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *IntentServiceTestSuite) TestMarkPosted_PendingRowUpdates() {
	ctx := context.Background()
	intentID := uuid.NewString()
	txnID := uuid.NewString()

	suite.mockIntentRepo.On("MarkPosted", ctx, intentID, txnID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

	err := suite.service.MarkPosted(ctx, intentID, txnID)

	suite.Require().NoError(err)
	suite.mockIntentRepo.AssertNotCalled(suite.T(), "FindIntentByID", mock.Anything, mock.Anything, mock.Anything)
}

// --- ListIntents ---

func (suite *IntentServiceTestSuite) TestListIntents_NormalizesPagination() {
	ctx := context.Background()
	intents := []domain.Intent{{IntentID: uuid.NewString(), Status: domain.IntentPending, CreatedAt: time.Now()}}

	// Page 0 and an oversize per_page are clamped before hitting the repo.
	suite.mockIntentRepo.On("ListIntents", ctx, suite.organizationID, suite.env, domain.IntentPending, 100, 0).
		Return(intents, int64(1), nil).Once()

	result, meta, err := suite.service.ListIntents(ctx, suite.organizationID, suite.env, domain.IntentPending, pagination.Params{Page: 0, PerPage: 500})

	suite.Require().NoError(err)
	suite.Len(result, 1)
	suite.Equal(1, meta.Page)
	suite.Equal(100, meta.PerPage)
	suite.Equal(int64(1), meta.TotalCount)
	suite.mockIntentRepo.AssertExpectations(suite.T())
}

func TestIntentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IntentServiceTestSuite))
}
