package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/bt-suite/budget_transfer_app/internal/core/services"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mocks ---

type MockTransferRepository struct {
	mock.Mock
}

func (m *MockTransferRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.TransferRequest, error) {
	args := m.Called(ctx, transferID)
	if t, ok := args.Get(0).(*domain.TransferRequest); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) FindLineItemsByTransferID(ctx context.Context, transferID string) ([]domain.TransferLineItem, error) {
	args := m.Called(ctx, transferID)
	if items, ok := args.Get(0).([]domain.TransferLineItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRepository) ListPendingByLevel(ctx context.Context, level int, transferType *domain.TransferType, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	args := m.Called(ctx, level, transferType, limit, nextToken)
	var transfers []domain.TransferRequest
	if t, ok := args.Get(0).([]domain.TransferRequest); ok {
		transfers = t
	}
	var token *string
	if tok, ok := args.Get(1).(*string); ok {
		token = tok
	}
	return transfers, token, args.Error(2)
}

func (m *MockTransferRepository) ListByRequester(ctx context.Context, requesterID string, status *domain.TransferStatus, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	args := m.Called(ctx, requesterID, status, limit, nextToken)
	var transfers []domain.TransferRequest
	if t, ok := args.Get(0).([]domain.TransferRequest); ok {
		transfers = t
	}
	var token *string
	if tok, ok := args.Get(1).(*string); ok {
		token = tok
	}
	return transfers, token, args.Error(2)
}

func (m *MockTransferRepository) CreateTransfer(ctx context.Context, transfer *domain.TransferRequest, lineItems []domain.TransferLineItem) error {
	args := m.Called(ctx, transfer, lineItems)
	return args.Error(0)
}

func (m *MockTransferRepository) ApplyDecision(ctx context.Context, update portsrepo.DecisionUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func (m *MockTransferRepository) DeleteTransfer(ctx context.Context, transferID string) error {
	args := m.Called(ctx, transferID)
	return args.Error(0)
}

var _ portsrepo.TransferRepositoryFacade = (*MockTransferRepository)(nil)

type MockRejectionRepository struct {
	mock.Mock
}

func (m *MockRejectionRepository) SaveRejection(ctx context.Context, record domain.RejectionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRejectionRepository) FindRejectionsByTransferID(ctx context.Context, transferID string) ([]domain.RejectionRecord, error) {
	args := m.Called(ctx, transferID)
	if recs, ok := args.Get(0).([]domain.RejectionRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event domain.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// --- Suite ---

type TransferServiceTestSuite struct {
	suite.Suite
	mockTransferRepo  *MockTransferRepository
	mockRejectionRepo *MockRejectionRepository
	mockUserRepo      *MockUserRepository
	mockNotifier      *MockNotifier
	service           *services.TransferService
	ctx               context.Context
}

func (s *TransferServiceTestSuite) SetupTest() {
	s.mockTransferRepo = new(MockTransferRepository)
	s.mockRejectionRepo = new(MockRejectionRepository)
	s.mockUserRepo = new(MockUserRepository)
	s.mockNotifier = new(MockNotifier)
	s.service = services.NewTransferService(
		s.mockTransferRepo,
		s.mockRejectionRepo,
		s.mockUserRepo,
		services.NewLevelScopeFilter(),
		s.mockNotifier,
	)
	s.ctx = context.Background()
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}

func (s *TransferServiceTestSuite) approver(level int) *domain.User {
	return &domain.User{
		UserID:   uuid.NewString(),
		Username: "approver" + uuid.NewString()[:8],
		Name:     "Approver",
		Role:     domain.RoleUser,
		Level:    level,
	}
}

func (s *TransferServiceTestSuite) pendingTransfer(transferType domain.TransferType, statusLevel int) *domain.TransferRequest {
	return &domain.TransferRequest{
		TransferID:      uuid.NewString(),
		Code:            "FAR-0001",
		Type:            transferType,
		Amount:          decimal.NewFromInt(500),
		TransactionDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		RequestedBy:     "requester",
		RequesterID:     uuid.NewString(),
		Status:          domain.StatusPending,
		StatusLevel:     statusLevel,
		RequestDate:     time.Now(),
	}
}

// --- CreateTransfer ---

func (s *TransferServiceTestSuite) TestCreateTransfer_Success() {
	requester := s.approver(0)
	req := dto.CreateTransferRequest{
		Type:            "FAR",
		Amount:          decimal.NewFromInt(500),
		TransactionDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Notes:           "Q1 rebalance",
		LineItems: []dto.CreateLineItemRequest{
			{CostCenterCode: "CC-100", AccountCode: "AC-200", FromAmount: decimal.NewFromInt(500), ToAmount: decimal.Zero},
			{CostCenterCode: "CC-300", AccountCode: "AC-200", FromAmount: decimal.Zero, ToAmount: decimal.NewFromInt(500)},
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, requester.UserID).Return(requester, nil).Once()
	s.mockTransferRepo.On("CreateTransfer", s.ctx, mock.AnythingOfType("*domain.TransferRequest"), mock.AnythingOfType("[]domain.TransferLineItem")).
		Run(func(args mock.Arguments) {
			t := args.Get(1).(*domain.TransferRequest)
			t.Code = "FAR-0042"
		}).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.AnythingOfType("domain.NotificationEvent")).Return(nil).Once()

	transfer, err := s.service.CreateTransfer(s.ctx, req, requester.UserID)

	s.Require().NoError(err)
	s.Equal("FAR-0042", transfer.Code)
	s.Equal(domain.StatusPending, transfer.Status)
	s.Equal(0, transfer.StatusLevel)
	s.Equal(requester.Username, transfer.RequestedBy)
	s.Len(transfer.LineItems, 2)
	s.mockTransferRepo.AssertExpectations(s.T())
	s.mockNotifier.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestCreateTransfer_UnknownTypeFallsBackToFAR() {
	requester := s.approver(0)
	req := dto.CreateTransferRequest{
		Type:            "XYZ",
		Amount:          decimal.NewFromInt(100),
		TransactionDate: time.Now(),
		Notes:           "n",
		LineItems: []dto.CreateLineItemRequest{
			{CostCenterCode: "CC-1", AccountCode: "AC-1", FromAmount: decimal.NewFromInt(100), ToAmount: decimal.Zero},
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, requester.UserID).Return(requester, nil).Once()
	s.mockTransferRepo.On("CreateTransfer", s.ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(nil).Once()

	transfer, err := s.service.CreateTransfer(s.ctx, req, requester.UserID)

	s.Require().NoError(err)
	s.Equal(domain.TypeFAR, transfer.Type)
}

func (s *TransferServiceTestSuite) TestCreateTransfer_NegativeLineItemFails() {
	requester := s.approver(0)
	req := dto.CreateTransferRequest{
		Type:            "FAR",
		Amount:          decimal.NewFromInt(100),
		TransactionDate: time.Now(),
		Notes:           "n",
		LineItems: []dto.CreateLineItemRequest{
			{CostCenterCode: "CC-1", AccountCode: "AC-1", FromAmount: decimal.NewFromInt(-5), ToAmount: decimal.Zero},
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, requester.UserID).Return(requester, nil).Once()

	_, err := s.service.CreateTransfer(s.ctx, req, requester.UserID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockTransferRepo.AssertNotCalled(s.T(), "CreateTransfer", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestCreateTransfer_NotifierFailureDoesNotFailCreate() {
	requester := s.approver(0)
	req := dto.CreateTransferRequest{
		Type:            "AFR",
		Amount:          decimal.NewFromInt(100),
		TransactionDate: time.Now(),
		Notes:           "n",
		LineItems: []dto.CreateLineItemRequest{
			{CostCenterCode: "CC-1", AccountCode: "AC-1", FromAmount: decimal.NewFromInt(100), ToAmount: decimal.Zero},
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, requester.UserID).Return(requester, nil).Once()
	s.mockTransferRepo.On("CreateTransfer", s.ctx, mock.Anything, mock.Anything).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(apperrors.ErrInternal).Once()

	_, err := s.service.CreateTransfer(s.ctx, req, requester.UserID)

	s.Require().NoError(err)
}

// --- Decide ---

func (s *TransferServiceTestSuite) TestDecide_IntermediateApproveStaysPending() {
	actor := s.approver(1)
	transfer := s.pendingTransfer(domain.TypeFAR, 0)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.MatchedBy(func(u portsrepo.DecisionUpdate) bool {
		return u.ExpectedLevel == 0 &&
			u.NewStatus == domain.StatusPending &&
			u.NewLevel == 1 &&
			u.Slot.Level == 1 &&
			u.Slot.ApproverID == actor.UserID &&
			u.BalanceChanges == nil
	})).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(nil).Once()
	after := *transfer
	after.StatusLevel = 1
	after.Approvals = []domain.ApprovalSlot{{Level: 1, ApproverID: actor.UserID}}
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(&after, nil).Once()

	result, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().NoError(err)
	s.Equal(domain.StatusPending, result.Status)
	s.Equal(1, result.StatusLevel)
	s.mockTransferRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestDecide_FinalApproveReconcilesFunds() {
	actor := s.approver(4)
	transfer := s.pendingTransfer(domain.TypeFAR, 3)
	lineItems := []domain.TransferLineItem{
		{
			LineItemID:     uuid.NewString(),
			TransferID:     transfer.TransferID,
			CostCenterCode: "CC-100",
			AccountCode:    "AC-200",
			FromAmount:     decimal.NewFromInt(500),
			ToAmount:       decimal.Zero,
		},
		{
			LineItemID:     uuid.NewString(),
			TransferID:     transfer.TransferID,
			CostCenterCode: "CC-300",
			AccountCode:    "AC-200",
			FromAmount:     decimal.Zero,
			ToAmount:       decimal.NewFromInt(500),
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("FindLineItemsByTransferID", s.ctx, transfer.TransferID).Return(lineItems, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.MatchedBy(func(u portsrepo.DecisionUpdate) bool {
		if u.NewStatus != domain.StatusApproved || u.NewLevel != 4 || u.ExpectedLevel != 3 {
			return false
		}
		source := domain.FundKey{EntityKey: "CC-100", AccountKey: "AC-200", Period: "2026"}
		target := domain.FundKey{EntityKey: "CC-300", AccountKey: "AC-200", Period: "2026"}
		return len(u.BalanceChanges) == 2 &&
			u.BalanceChanges[source].Equal(decimal.NewFromInt(-500)) &&
			u.BalanceChanges[target].Equal(decimal.NewFromInt(500))
	})).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(nil).Once()
	after := *transfer
	after.Status = domain.StatusApproved
	after.StatusLevel = 4
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(&after, nil).Once()

	result, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, result.Status)
	s.mockTransferRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestDecide_FADTerminalAtLevelThree() {
	actor := s.approver(3)
	transfer := s.pendingTransfer(domain.TypeFAD, 2)
	lineItems := []domain.TransferLineItem{
		{
			LineItemID:     uuid.NewString(),
			TransferID:     transfer.TransferID,
			CostCenterCode: "CC-100",
			AccountCode:    "AC-200",
			FromAmount:     decimal.NewFromInt(100),
			ToAmount:       decimal.Zero,
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("FindLineItemsByTransferID", s.ctx, transfer.TransferID).Return(lineItems, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.MatchedBy(func(u portsrepo.DecisionUpdate) bool {
		return u.NewStatus == domain.StatusApproved && u.NewLevel == 3
	})).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(nil).Once()
	after := *transfer
	after.Status = domain.StatusApproved
	after.StatusLevel = 3
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(&after, nil).Once()

	_, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().NoError(err)
	s.mockTransferRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestDecide_RejectRecordsReasonAndSentinelLevel() {
	actor := s.approver(2)
	transfer := s.pendingTransfer(domain.TypeAFR, 1)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.MatchedBy(func(u portsrepo.DecisionUpdate) bool {
		return u.NewStatus == domain.StatusRejected &&
			u.NewLevel == domain.RejectedLevel &&
			u.Slot.Level == 2 &&
			len(u.BalanceChanges) == 0
	})).Return(nil).Once()
	s.mockRejectionRepo.On("SaveRejection", s.ctx, mock.MatchedBy(func(r domain.RejectionRecord) bool {
		return r.TransferID == transfer.TransferID &&
			r.ReasonText == "insufficient budget justification" &&
			r.RejectedBy == actor.Username
	})).Return(nil).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(nil).Once()
	after := *transfer
	after.Status = domain.StatusRejected
	after.StatusLevel = domain.RejectedLevel
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(&after, nil).Once()

	result, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionReject, "insufficient budget justification")

	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, result.Status)
	s.Equal(domain.RejectedLevel, result.StatusLevel)
	s.mockRejectionRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestDecide_RejectWithoutReasonFails() {
	actor := s.approver(1)
	transfer := s.pendingTransfer(domain.TypeFAR, 0)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()

	_, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionReject, "")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockTransferRepo.AssertNotCalled(s.T(), "ApplyDecision", mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestDecide_AlreadyTerminalFails() {
	actor := s.approver(1)
	transfer := s.pendingTransfer(domain.TypeFAR, 4)
	transfer.Status = domain.StatusApproved

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()

	_, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *TransferServiceTestSuite) TestDecide_WrongLevelActorForbidden() {
	actor := s.approver(3)
	transfer := s.pendingTransfer(domain.TypeFAR, 0)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()

	_, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.mockTransferRepo.AssertNotCalled(s.T(), "ApplyDecision", mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestDecide_ConflictSurfacesToCaller() {
	actor := s.approver(1)
	transfer := s.pendingTransfer(domain.TypeFAR, 0)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.Anything).Return(apperrors.ErrConflict).Once()

	_, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrConflict)
}

func (s *TransferServiceTestSuite) TestDecide_ReconciliationFailureRollsBackDecision() {
	actor := s.approver(4)
	transfer := s.pendingTransfer(domain.TypeFAR, 3)
	lineItems := []domain.TransferLineItem{
		{
			LineItemID:     uuid.NewString(),
			TransferID:     transfer.TransferID,
			CostCenterCode: "CC-100",
			AccountCode:    "AC-200",
			FromAmount:     decimal.NewFromInt(100),
			ToAmount:       decimal.Zero,
		},
	}

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("FindLineItemsByTransferID", s.ctx, transfer.TransferID).Return(lineItems, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.Anything).Return(apperrors.ErrReconciliation).Once()

	_, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionApprove, "")

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrReconciliation)
	s.mockRejectionRepo.AssertNotCalled(s.T(), "SaveRejection", mock.Anything, mock.Anything)
	s.mockNotifier.AssertNotCalled(s.T(), "Notify", mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestDecide_RejectionAuditFailureDoesNotFailDecision() {
	actor := s.approver(1)
	transfer := s.pendingTransfer(domain.TypeFAD, 0)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("ApplyDecision", s.ctx, mock.Anything).Return(nil).Once()
	s.mockRejectionRepo.On("SaveRejection", s.ctx, mock.Anything).Return(apperrors.ErrInternal).Once()
	s.mockNotifier.On("Notify", s.ctx, mock.Anything).Return(nil).Once()
	after := *transfer
	after.Status = domain.StatusRejected
	after.StatusLevel = domain.RejectedLevel
	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(&after, nil).Once()

	result, err := s.service.Decide(s.ctx, transfer.TransferID, actor.UserID, domain.DecisionReject, "budget frozen")

	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, result.Status)
}

// --- Withdraw ---

func (s *TransferServiceTestSuite) TestWithdraw_Success() {
	transfer := s.pendingTransfer(domain.TypeFAR, 0)

	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()
	s.mockTransferRepo.On("DeleteTransfer", s.ctx, transfer.TransferID).Return(nil).Once()

	err := s.service.Withdraw(s.ctx, transfer.TransferID, transfer.RequesterID)

	s.Require().NoError(err)
	s.mockTransferRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestWithdraw_NotRequesterForbidden() {
	transfer := s.pendingTransfer(domain.TypeFAR, 0)

	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()

	err := s.service.Withdraw(s.ctx, transfer.TransferID, uuid.NewString())

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.mockTransferRepo.AssertNotCalled(s.T(), "DeleteTransfer", mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestWithdraw_InChainFails() {
	transfer := s.pendingTransfer(domain.TypeFAR, 1)
	transfer.Approvals = []domain.ApprovalSlot{{Level: 1}}

	s.mockTransferRepo.On("FindTransferByID", s.ctx, transfer.TransferID).Return(transfer, nil).Once()

	err := s.service.Withdraw(s.ctx, transfer.TransferID, transfer.RequesterID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

// --- Listings ---

func (s *TransferServiceTestSuite) TestListPendingForActor_QueriesActorLevel() {
	actor := s.approver(2)
	waiting := s.pendingTransfer(domain.TypeFAR, 1)

	far := domain.TypeFAR
	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("ListPendingByLevel", s.ctx, 1, &far, 20, (*string)(nil)).
		Return([]domain.TransferRequest{*waiting}, nil, nil).Once()

	resp, err := s.service.ListPendingForActor(s.ctx, actor.UserID, dto.ListPendingParams{Type: "FAR"})

	s.Require().NoError(err)
	s.Len(resp.Transfers, 1)
	s.Equal(waiting.TransferID, resp.Transfers[0].TransferID)
}

func (s *TransferServiceTestSuite) TestListPendingForActor_NoTypeFilterListsAllTypes() {
	actor := s.approver(1)
	waitingFAR := s.pendingTransfer(domain.TypeFAR, 0)
	waitingFAD := s.pendingTransfer(domain.TypeFAD, 0)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()
	s.mockTransferRepo.On("ListPendingByLevel", s.ctx, 0, (*domain.TransferType)(nil), 20, (*string)(nil)).
		Return([]domain.TransferRequest{*waitingFAR, *waitingFAD}, nil, nil).Once()

	resp, err := s.service.ListPendingForActor(s.ctx, actor.UserID, dto.ListPendingParams{})

	s.Require().NoError(err)
	s.Len(resp.Transfers, 2)
	s.mockTransferRepo.AssertExpectations(s.T())
}

func (s *TransferServiceTestSuite) TestListPendingForActor_UnknownTypeFails() {
	actor := s.approver(1)

	s.mockUserRepo.On("FindUserByID", s.ctx, actor.UserID).Return(actor, nil).Once()

	_, err := s.service.ListPendingForActor(s.ctx, actor.UserID, dto.ListPendingParams{Type: "XYZ"})

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockTransferRepo.AssertNotCalled(s.T(), "ListPendingByLevel",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransferServiceTestSuite) TestListPendingForActor_RequesterForbidden() {
	requester := s.approver(0)

	s.mockUserRepo.On("FindUserByID", s.ctx, requester.UserID).Return(requester, nil).Once()

	_, err := s.service.ListPendingForActor(s.ctx, requester.UserID, dto.ListPendingParams{Type: "FAR"})

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *TransferServiceTestSuite) TestListForRequester_InvalidStatusFails() {
	bad := "cancelled"

	_, err := s.service.ListForRequester(s.ctx, uuid.NewString(), dto.ListTransfersParams{Status: &bad})

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *TransferServiceTestSuite) TestListForRequester_PassesStatusAndToken() {
	requesterID := uuid.NewString()
	statusStr := "rejected"
	token := "cursor"
	rejected := domain.StatusRejected

	s.mockTransferRepo.On("ListByRequester", s.ctx, requesterID, &rejected, 5, &token).
		Return([]domain.TransferRequest{}, nil, nil).Once()

	resp, err := s.service.ListForRequester(s.ctx, requesterID, dto.ListTransfersParams{
		Status:    &statusStr,
		Limit:     5,
		NextToken: &token,
	})

	s.Require().NoError(err)
	s.Empty(resp.Transfers)
	s.mockTransferRepo.AssertExpectations(s.T())
}
