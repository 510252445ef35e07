package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
	"github.com/bt-suite/budget_transfer_app/internal/middleware"
	"github.com/bt-suite/budget_transfer_app/internal/utils/funding"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TransferService implements the transfer approval state machine and the
// fund reconciliation that accompanies terminal decisions.
type TransferService struct {
	transferRepo  portsrepo.TransferRepositoryFacade
	rejectionRepo portsrepo.RejectionRepository
	userRepo      portsrepo.UserRepository
	scopeFilter   portssvc.TransferScopeFilter
	notifier      portssvc.Notifier
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	transferRepo portsrepo.TransferRepositoryFacade,
	rejectionRepo portsrepo.RejectionRepository,
	userRepo portsrepo.UserRepository,
	scopeFilter portssvc.TransferScopeFilter,
	notifier portssvc.Notifier,
) *TransferService {
	return &TransferService{
		transferRepo:  transferRepo,
		rejectionRepo: rejectionRepo,
		userRepo:      userRepo,
		scopeFilter:   scopeFilter,
		notifier:      notifier,
	}
}

var _ portssvc.TransferSvcFacade = (*TransferService)(nil)

// CreateTransfer allocates a code and persists a new pending transfer at
// level 0 together with its line items.
func (s *TransferService) CreateTransfer(ctx context.Context, req dto.CreateTransferRequest, requesterID string) (*domain.TransferRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	requester, err := s.userRepo.FindUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	for i := range req.LineItems {
		li := &req.LineItems[i]
		if li.FromAmount.IsNegative() || li.ToAmount.IsNegative() {
			return nil, fmt.Errorf("%w: line item %d has negative amounts", apperrors.ErrValidation, i)
		}
		if li.FromAmount.IsZero() && li.ToAmount.IsZero() {
			return nil, fmt.Errorf("%w: line item %d moves nothing", apperrors.ErrValidation, i)
		}
	}

	now := time.Now()
	transfer := &domain.TransferRequest{
		TransferID:      uuid.NewString(),
		Type:            domain.ParseTransferType(req.Type),
		Amount:          req.Amount,
		TransactionDate: req.TransactionDate,
		Notes:           req.Notes,
		RequestedBy:     requester.Username,
		RequesterID:     requester.UserID,
		Status:          domain.StatusPending,
		StatusLevel:     0,
		RequestDate:     now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requester.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requester.UserID,
		},
	}

	lineItems := make([]domain.TransferLineItem, len(req.LineItems))
	for i, li := range req.LineItems {
		lineItems[i] = domain.TransferLineItem{
			LineItemID:     uuid.NewString(),
			TransferID:     transfer.TransferID,
			CostCenterCode: li.CostCenterCode,
			AccountCode:    li.AccountCode,
			FromAmount:     li.FromAmount,
			ToAmount:       li.ToAmount,
			AuditFields:    transfer.AuditFields,
		}
	}

	if err := s.transferRepo.CreateTransfer(ctx, transfer, lineItems); err != nil {
		return nil, err
	}
	transfer.LineItems = lineItems

	logger.Info("transfer created",
		"transferID", transfer.TransferID, "code", transfer.Code,
		"type", string(transfer.Type), "lineItems", len(lineItems))

	s.notifyBestEffort(ctx, domain.NotificationEvent{
		NotificationID: uuid.NewString(),
		UserID:         requester.UserID,
		TransferID:     transfer.TransferID,
		Message:        fmt.Sprintf("Transfer %s created and awaiting approval", transfer.Code),
		CreatedAt:      now,
	})

	return transfer, nil
}

// Decide applies an approve/reject decision on behalf of the actor. A
// terminal outcome reconciles the fund ledger in the same database
// transaction as the state transition; if the ledger leg fails, the decision
// rolls back with it.
func (s *TransferService) Decide(ctx context.Context, transferID string, actorID string, decision domain.Decision, reason string) (*domain.TransferRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	actor, err := s.userRepo.FindUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	transfer, err := s.transferRepo.FindTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if transfer.IsTerminal() {
		return nil, fmt.Errorf("%w: transfer %s is already %s", apperrors.ErrInvalidTransition, transferID, transfer.Status)
	}
	if actor.Role != domain.RoleAdmin && actor.Level != transfer.StatusLevel+1 {
		return nil, fmt.Errorf("%w: transfer %s is waiting at level %d, actor is level %d",
			apperrors.ErrForbidden, transferID, transfer.StatusLevel+1, actor.Level)
	}

	decidedAt := time.Now()
	slotLevel := transfer.StatusLevel + 1
	update := portsrepo.DecisionUpdate{
		TransferID:    transferID,
		ExpectedLevel: transfer.StatusLevel,
		Slot: domain.ApprovalSlot{
			Level:        slotLevel,
			ApproverID:   actor.UserID,
			ApproverName: actor.Name,
			DecidedAt:    decidedAt,
		},
		DecidedBy: actor.UserID,
		DecidedAt: decidedAt,
	}

	switch decision {
	case domain.DecisionApprove:
		update.NewLevel = slotLevel
		if slotLevel == transfer.MaxLevel() {
			update.NewStatus = domain.StatusApproved
			lineItems, err := s.transferRepo.FindLineItemsByTransferID(ctx, transferID)
			if err != nil {
				return nil, err
			}
			period := funding.PeriodForDate(transfer.TransactionDate)
			deltas, err := funding.ComputeDeltas(lineItems, decision, period)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrReconciliation, err)
			}
			update.BalanceChanges = deltas
		} else {
			update.NewStatus = domain.StatusPending
		}
	case domain.DecisionReject:
		if reason == "" {
			return nil, fmt.Errorf("%w: a rejection requires a reason", apperrors.ErrValidation)
		}
		update.NewStatus = domain.StatusRejected
		update.NewLevel = domain.RejectedLevel
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", apperrors.ErrValidation, decision)
	}

	if err := s.transferRepo.ApplyDecision(ctx, update); err != nil {
		return nil, err
	}

	logger.Info("transfer decision applied",
		"transferID", transferID, "decision", string(decision),
		"level", slotLevel, "newStatus", string(update.NewStatus))

	if decision == domain.DecisionReject {
		// The audit record is independent of the decision transaction: the
		// rejection stands even if this write fails.
		rec := domain.RejectionRecord{
			RejectionID: uuid.NewString(),
			TransferID:  transferID,
			ReasonText:  reason,
			RejectedBy:  actor.Username,
			RejectedAt:  decidedAt,
		}
		if err := s.rejectionRepo.SaveRejection(ctx, rec); err != nil {
			logger.Error("failed to save rejection audit record",
				"transferID", transferID, "error", err)
		}
	}

	s.notifyBestEffort(ctx, domain.NotificationEvent{
		NotificationID: uuid.NewString(),
		UserID:         transfer.RequesterID,
		TransferID:     transferID,
		Message:        decisionMessage(transfer.Code, decision, update.NewStatus),
		CreatedAt:      decidedAt,
	})

	return s.transferRepo.FindTransferByID(ctx, transferID)
}

func decisionMessage(code string, decision domain.Decision, newStatus domain.TransferStatus) string {
	switch {
	case decision == domain.DecisionReject:
		return fmt.Sprintf("Transfer %s was rejected", code)
	case newStatus == domain.StatusApproved:
		return fmt.Sprintf("Transfer %s was fully approved", code)
	default:
		return fmt.Sprintf("Transfer %s advanced to the next approval level", code)
	}
}

// Withdraw deletes a transfer that is still pending at level 0 with no
// decision recorded. Only the requester may withdraw.
func (s *TransferService) Withdraw(ctx context.Context, transferID string, requesterID string) error {
	transfer, err := s.transferRepo.FindTransferByID(ctx, transferID)
	if err != nil {
		return err
	}
	if transfer.RequesterID != requesterID {
		return fmt.Errorf("%w: only the requester may withdraw transfer %s", apperrors.ErrForbidden, transferID)
	}
	if !transfer.CanWithdraw() {
		return fmt.Errorf("%w: transfer %s has entered its approval chain", apperrors.ErrInvalidTransition, transferID)
	}
	return s.transferRepo.DeleteTransfer(ctx, transferID)
}

// GetTransferByID retrieves a transfer with its approval slots and line
// items, subject to the scope filter.
func (s *TransferService) GetTransferByID(ctx context.Context, transferID string, requestingUserID string) (*domain.TransferRequest, error) {
	actor, err := s.userRepo.FindUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}

	transfer, err := s.transferRepo.FindTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	visible, err := s.scopeFilter.Narrow(ctx, []domain.TransferRequest{*transfer}, actor, portssvc.IntentView)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, fmt.Errorf("%w: transfer %s is outside your scope", apperrors.ErrForbidden, transferID)
	}

	lineItems, err := s.transferRepo.FindLineItemsByTransferID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	transfer.LineItems = lineItems
	return transfer, nil
}

// ListPendingForActor retrieves pending transfers waiting at the actor's
// approval level, narrowed by the scope filter.
func (s *TransferService) ListPendingForActor(ctx context.Context, actorID string, params dto.ListPendingParams) (*dto.ListTransfersResponse, error) {
	actor, err := s.userRepo.FindUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Level < 1 {
		return nil, fmt.Errorf("%w: user %s is not part of an approval chain", apperrors.ErrForbidden, actorID)
	}

	limit := clampLimit(params.Limit)

	// An absent filter lists every type; an unrecognized one is an error
	// rather than a silent coercion to FAR.
	var typeFilter *domain.TransferType
	if params.Type != "" {
		t := domain.TransferType(strings.ToUpper(strings.TrimSpace(params.Type)))
		switch t {
		case domain.TypeFAR, domain.TypeAFR, domain.TypeFAD:
			typeFilter = &t
		default:
			return nil, fmt.Errorf("%w: unknown transfer type %q", apperrors.ErrValidation, params.Type)
		}
	}

	transfers, nextToken, err := s.transferRepo.ListPendingByLevel(ctx, actor.Level-1, typeFilter, limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	transfers, err = s.scopeFilter.Narrow(ctx, transfers, actor, portssvc.IntentApprove)
	if err != nil {
		return nil, err
	}

	return &dto.ListTransfersResponse{
		Transfers: dto.ToTransferResponses(transfers),
		NextToken: nextToken,
	}, nil
}

// ListForRequester retrieves the requester's own transfers, optionally
// filtered by status.
func (s *TransferService) ListForRequester(ctx context.Context, requesterID string, params dto.ListTransfersParams) (*dto.ListTransfersResponse, error) {
	limit := clampLimit(params.Limit)

	var status *domain.TransferStatus
	if params.Status != nil && *params.Status != "" {
		st := domain.TransferStatus(*params.Status)
		switch st {
		case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
			status = &st
		default:
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, *params.Status)
		}
	}

	transfers, nextToken, err := s.transferRepo.ListByRequester(ctx, requesterID, status, limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListTransfersResponse{
		Transfers: dto.ToTransferResponses(transfers),
		NextToken: nextToken,
	}, nil
}

// ListRejections retrieves the rejection audit records of a transfer.
func (s *TransferService) ListRejections(ctx context.Context, transferID string) ([]domain.RejectionRecord, error) {
	if _, err := s.transferRepo.FindTransferByID(ctx, transferID); err != nil {
		return nil, err
	}
	return s.rejectionRepo.FindRejectionsByTransferID(ctx, transferID)
}

func (s *TransferService) notifyBestEffort(ctx context.Context, event domain.NotificationEvent) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("notification delivery failed",
			"transferID", event.TransferID, "userID", event.UserID, "error", err)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
