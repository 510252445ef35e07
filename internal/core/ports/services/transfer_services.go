package services

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
)

// TransferReaderSvc defines read operations on transfers.
type TransferReaderSvc interface {
	// GetTransferByID retrieves a transfer with its approval slots and line items.
	GetTransferByID(ctx context.Context, transferID string, requestingUserID string) (*domain.TransferRequest, error)

	// ListPendingForActor retrieves pending transfers waiting at the actor's
	// approval level, narrowed by the scope filter.
	ListPendingForActor(ctx context.Context, actorID string, params dto.ListPendingParams) (*dto.ListTransfersResponse, error)

	// ListForRequester retrieves the requester's own transfers.
	ListForRequester(ctx context.Context, requesterID string, params dto.ListTransfersParams) (*dto.ListTransfersResponse, error)

	// ListRejections retrieves the rejection audit records of a transfer.
	ListRejections(ctx context.Context, transferID string) ([]domain.RejectionRecord, error)
}

// TransferWriterSvc defines mutating operations on transfers.
type TransferWriterSvc interface {
	// CreateTransfer allocates a code and persists a new pending transfer at level 0.
	CreateTransfer(ctx context.Context, req dto.CreateTransferRequest, requesterID string) (*domain.TransferRequest, error)

	// Decide applies an approve/reject decision on behalf of the actor and,
	// on a terminal outcome, reconciles the fund ledger atomically with it.
	Decide(ctx context.Context, transferID string, actorID string, decision domain.Decision, reason string) (*domain.TransferRequest, error)

	// Withdraw deletes a transfer that is still pending with no decision recorded.
	Withdraw(ctx context.Context, transferID string, requesterID string) error
}

// TransferSvcFacade combines read and write transfer operations.
type TransferSvcFacade interface {
	TransferReaderSvc
	TransferWriterSvc
}

// TransferScopeFilter narrows a set of transfers to those the actor may see
// or act on. The core trusts its result and does not re-derive authorization.
type TransferScopeFilter interface {
	Narrow(ctx context.Context, transfers []domain.TransferRequest, actor *domain.User, intent ScopeIntent) ([]domain.TransferRequest, error)
}

// ScopeIntent tells the filter what the caller is about to do with the transfers.
type ScopeIntent string

const (
	IntentView    ScopeIntent = "view"
	IntentApprove ScopeIntent = "approve"
)

// Notifier delivers notification events best-effort. A delivery failure
// must never roll back the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event domain.NotificationEvent) error
}
