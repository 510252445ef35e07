package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is the DB row shape for a budget transfer request.
type Transfer struct {
	TransferID      string          `db:"transfer_id"`
	Code            string          `db:"code"`
	Type            string          `db:"type"`
	Amount          decimal.Decimal `db:"amount"`
	TransactionDate time.Time       `db:"transaction_date"`
	Notes           string          `db:"notes"`
	RequestedBy     string          `db:"requested_by"`
	RequesterID     string          `db:"requester_id"`
	Status          string          `db:"status"`
	StatusLevel     int             `db:"status_level"`
	RequestDate     time.Time       `db:"request_date"`
	AuditFields
}

// TransferApproval is one row of the transfer_approvals child table; it
// replaces the legacy per-level column layout with an indexed slot per level.
type TransferApproval struct {
	TransferID   string    `db:"transfer_id"`
	Level        int       `db:"level"`
	ApproverID   string    `db:"approver_id"`
	ApproverName string    `db:"approver_name"`
	DecidedAt    time.Time `db:"decided_at"`
}

// TransferLineItem is the DB row shape for one line item of a transfer.
type TransferLineItem struct {
	LineItemID     string          `db:"line_item_id"`
	TransferID     string          `db:"transfer_id"`
	CostCenterCode string          `db:"cost_center_code"`
	AccountCode    string          `db:"account_code"`
	FromAmount     decimal.Decimal `db:"from_amount"`
	ToAmount       decimal.Decimal `db:"to_amount"`
	AuditFields
}

// RejectionRecord is the DB row shape for the reject-reason audit table.
type RejectionRecord struct {
	RejectionID string    `db:"rejection_id"`
	TransferID  string    `db:"transfer_id"`
	ReasonText  string    `db:"reason_text"`
	RejectedBy  string    `db:"rejected_by"`
	RejectedAt  time.Time `db:"rejected_at"`
}
