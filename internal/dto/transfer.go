package dto

import (
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineItemRequest is one cost-center/account movement in a create request.
type CreateLineItemRequest struct {
	CostCenterCode string          `json:"costCenterCode" binding:"required"`
	AccountCode    string          `json:"accountCode" binding:"required"`
	FromAmount     decimal.Decimal `json:"fromAmount"`
	ToAmount       decimal.Decimal `json:"toAmount"`
}

// CreateTransferRequest defines the payload for creating a budget transfer.
type CreateTransferRequest struct {
	Type            string                  `json:"type" binding:"required"`
	Amount          decimal.Decimal         `json:"amount" binding:"required"`
	TransactionDate time.Time               `json:"transactionDate" binding:"required"`
	Notes           string                  `json:"notes" binding:"required"`
	LineItems       []CreateLineItemRequest `json:"lineItems" binding:"required,min=1,dive"`
}

// DecideTransferRequest defines the payload for an approve/reject decision.
// Reason is required when Decision is "reject".
type DecideTransferRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Reason   string `json:"reason"`
}

// ListPendingParams holds query parameters for the pending-for-approver listing.
type ListPendingParams struct {
	Type      string  `form:"type"`
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransfersParams holds query parameters for the requester's own listing.
type ListTransfersParams struct {
	Status    *string `form:"status"`
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ApprovalSlotResponse is one recorded decision in the approval chain.
type ApprovalSlotResponse struct {
	Level        int       `json:"level"`
	ApproverName string    `json:"approverName"`
	DecidedAt    time.Time `json:"decidedAt"`
}

// LineItemResponse is the API shape of a transfer line item.
type LineItemResponse struct {
	LineItemID     string          `json:"lineItemID"`
	CostCenterCode string          `json:"costCenterCode"`
	AccountCode    string          `json:"accountCode"`
	FromAmount     decimal.Decimal `json:"fromAmount"`
	ToAmount       decimal.Decimal `json:"toAmount"`
}

// TransferResponse is the API shape of a transfer request.
type TransferResponse struct {
	TransferID      string                 `json:"transferID"`
	Code            string                 `json:"code"`
	Type            string                 `json:"type"`
	Amount          decimal.Decimal        `json:"amount"`
	TransactionDate time.Time              `json:"transactionDate"`
	Notes           string                 `json:"notes"`
	RequestedBy     string                 `json:"requestedBy"`
	Status          string                 `json:"status"`
	StatusLevel     int                    `json:"statusLevel"`
	RequestDate     time.Time              `json:"requestDate"`
	Approvals       []ApprovalSlotResponse `json:"approvals"`
	LineItems       []LineItemResponse     `json:"lineItems,omitempty"`
}

// ListTransfersResponse is a page of transfers plus the next-page token.
type ListTransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// RejectionResponse is the API shape of a rejection audit record.
type RejectionResponse struct {
	RejectionID string    `json:"rejectionID"`
	ReasonText  string    `json:"reasonText"`
	RejectedBy  string    `json:"rejectedBy"`
	RejectedAt  time.Time `json:"rejectedAt"`
}

// ToTransferResponse converts a domain transfer to its API shape.
func ToTransferResponse(t *domain.TransferRequest) TransferResponse {
	approvals := make([]ApprovalSlotResponse, len(t.Approvals))
	for i, slot := range t.Approvals {
		approvals[i] = ApprovalSlotResponse{
			Level:        slot.Level,
			ApproverName: slot.ApproverName,
			DecidedAt:    slot.DecidedAt,
		}
	}
	var lineItems []LineItemResponse
	if t.LineItems != nil {
		lineItems = make([]LineItemResponse, len(t.LineItems))
		for i, li := range t.LineItems {
			lineItems[i] = LineItemResponse{
				LineItemID:     li.LineItemID,
				CostCenterCode: li.CostCenterCode,
				AccountCode:    li.AccountCode,
				FromAmount:     li.FromAmount,
				ToAmount:       li.ToAmount,
			}
		}
	}
	return TransferResponse{
		TransferID:      t.TransferID,
		Code:            t.Code,
		Type:            string(t.Type),
		Amount:          t.Amount,
		TransactionDate: t.TransactionDate,
		Notes:           t.Notes,
		RequestedBy:     t.RequestedBy,
		Status:          string(t.Status),
		StatusLevel:     t.StatusLevel,
		RequestDate:     t.RequestDate,
		Approvals:       approvals,
		LineItems:       lineItems,
	}
}

// ToTransferResponses converts a slice of domain transfers.
func ToTransferResponses(transfers []domain.TransferRequest) []TransferResponse {
	responses := make([]TransferResponse, len(transfers))
	for i := range transfers {
		responses[i] = ToTransferResponse(&transfers[i])
	}
	return responses
}

// ToRejectionResponses converts rejection audit records to their API shape.
func ToRejectionResponses(records []domain.RejectionRecord) []RejectionResponse {
	responses := make([]RejectionResponse, len(records))
	for i, r := range records {
		responses[i] = RejectionResponse{
			RejectionID: r.RejectionID,
			ReasonText:  r.ReasonText,
			RejectedBy:  r.RejectedBy,
			RejectedAt:  r.RejectedAt,
		}
	}
	return responses
}
