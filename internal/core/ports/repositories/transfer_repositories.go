package repositories

import (
	"context"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DecisionUpdate carries everything the repository needs to commit one
// decision atomically: the compare-and-swap expectation on the transfer row,
// the new state, the approval slot to record, and (for terminal outcomes)
// the fund balance deltas to apply in the same database transaction.
type DecisionUpdate struct {
	TransferID    string
	ExpectedLevel int // CAS guard: current status_level the decision was computed against
	NewStatus     domain.TransferStatus
	NewLevel      int
	Slot          domain.ApprovalSlot
	// BalanceChanges is non-nil only for terminal decisions. Every fund row
	// it names is locked (in key order) and updated before the transfer's
	// new status becomes durable.
	BalanceChanges map[domain.FundKey]decimal.Decimal
	DecidedBy     string
	DecidedAt     time.Time
}

// TransferReader defines read operations for transfer data
type TransferReader interface {
	// FindTransferByID retrieves a transfer with its approval slots.
	FindTransferByID(ctx context.Context, transferID string) (*domain.TransferRequest, error)

	// FindLineItemsByTransferID retrieves all line items of a transfer.
	FindLineItemsByTransferID(ctx context.Context, transferID string) ([]domain.TransferLineItem, error)

	// ListPendingByLevel retrieves pending transfers sitting at the given
	// approval level, newest first, with token-based pagination. A nil
	// transferType lists across all types.
	ListPendingByLevel(ctx context.Context, level int, transferType *domain.TransferType, limit int, nextToken *string) ([]domain.TransferRequest, *string, error)

	// ListByRequester retrieves transfers created by a user, optionally
	// filtered by status, newest first, with token-based pagination.
	ListByRequester(ctx context.Context, requesterID string, status *domain.TransferStatus, limit int, nextToken *string) ([]domain.TransferRequest, *string, error)
}

// TransferWriter defines write operations for transfer data
type TransferWriter interface {
	// CreateTransfer allocates a code for the transfer's type prefix and
	// persists the transfer with its line items as one atomic unit. The
	// allocated code is written back into the passed transfer.
	CreateTransfer(ctx context.Context, transfer *domain.TransferRequest, lineItems []domain.TransferLineItem) error

	// ApplyDecision commits a decision as a single database transaction:
	// CAS transition of the transfer row, approval slot insert, and (for
	// terminal decisions) all fund balance updates. Returns
	// apperrors.ErrConflict when the CAS guard fails but the transfer is
	// still pending, apperrors.ErrInvalidTransition when it is already
	// terminal, and apperrors.ErrReconciliation when the ledger leg fails.
	ApplyDecision(ctx context.Context, update DecisionUpdate) error

	// DeleteTransfer removes a transfer that is still pending at level 0
	// with no recorded decision, together with its line items.
	DeleteTransfer(ctx context.Context, transferID string) error
}

// TransferRepositoryFacade combines all transfer-related repository interfaces
type TransferRepositoryFacade interface {
	TransferReader
	TransferWriter
}
