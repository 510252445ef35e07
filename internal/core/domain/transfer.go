package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus indicates the lifecycle state of a budget transfer request.
type TransferStatus string

const (
	StatusPending  TransferStatus = "pending"
	StatusApproved TransferStatus = "approved"
	StatusRejected TransferStatus = "rejected"
)

// TransferType categorizes a transfer and fixes its approval chain depth.
type TransferType string

const (
	TypeFAR TransferType = "FAR"
	TypeAFR TransferType = "AFR"
	TypeFAD TransferType = "FAD"
)

// MaxApprovalSlots is the deepest approval chain any type can have.
const MaxApprovalSlots = 4

// RejectedLevel is the statusLevel sentinel for transfers terminated by rejection.
const RejectedLevel = -1

// ParseTransferType normalizes a raw type string. Unrecognized types fall
// back to FAR, matching the code-prefix fallback.
func ParseTransferType(raw string) TransferType {
	switch TransferType(strings.ToUpper(strings.TrimSpace(raw))) {
	case TypeFAR:
		return TypeFAR
	case TypeAFR:
		return TypeAFR
	case TypeFAD:
		return TypeFAD
	default:
		return TypeFAR
	}
}

// MaxLevel returns the number of sequential approvals required before the
// transfer becomes terminal. It is a property of the type, fixed at creation.
func (t TransferType) MaxLevel() int {
	switch t {
	case TypeFAR, TypeAFR:
		return 4
	default:
		return 3
	}
}

// Prefix returns the code prefix used by the sequence allocator for this type.
func (t TransferType) Prefix() string {
	return string(t)
}

// Decision is the action an approver takes on a pending transfer.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ApprovalSlot records one decision in the sequential sign-off chain.
// Level is 1-based; a rejection occupies the slot of the level at which it occurred.
type ApprovalSlot struct {
	Level        int       `json:"level"`
	ApproverID   string    `json:"approverID"`
	ApproverName string    `json:"approverName"`
	DecidedAt    time.Time `json:"decidedAt"`
}

// TransferRequest is a request to move a budget amount between
// cost-center/account pairs, subject to a sequential approval chain.
type TransferRequest struct {
	TransferID      string          `json:"transferID"` // Primary Key (UUID)
	Code            string          `json:"code"`       // e.g. "FAR-0042", unique per prefix
	Type            TransferType    `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transactionDate"`
	Notes           string          `json:"notes"`
	RequestedBy     string          `json:"requestedBy"` // Username snapshot
	RequesterID     string          `json:"requesterID"`
	Status          TransferStatus  `json:"status"`
	StatusLevel     int             `json:"statusLevel"` // 0..MaxLevel while pending, -1 once rejected
	Approvals       []ApprovalSlot  `json:"approvals"`   // populated slots only, ordered by level
	RequestDate     time.Time       `json:"requestDate"`
	AuditFields

	// LineItems are loaded on demand; nil means "not fetched".
	LineItems []TransferLineItem `json:"lineItems,omitempty"`
}

// MaxLevel is shorthand for the type's approval chain depth.
func (t *TransferRequest) MaxLevel() int {
	return t.Type.MaxLevel()
}

// IsTerminal reports whether the transfer has reached a terminal decision.
func (t *TransferRequest) IsTerminal() bool {
	return t.Status != StatusPending
}

// CanWithdraw reports whether the transfer may still be withdrawn by its
// requester: pending at level 0 with no decision recorded.
func (t *TransferRequest) CanWithdraw() bool {
	return t.Status == StatusPending && t.StatusLevel == 0 && len(t.Approvals) == 0
}
