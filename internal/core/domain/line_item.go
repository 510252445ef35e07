package domain

import "github.com/shopspring/decimal"

// TransferLineItem is one cost-center/account movement belonging to exactly
// one TransferRequest. FromAmount is debited from the fund row identified by
// (CostCenterCode, AccountCode); ToAmount is credited to it. Line items are
// immutable once the transfer is terminally decided.
type TransferLineItem struct {
	LineItemID     string          `json:"lineItemID"` // Primary Key (UUID)
	TransferID     string          `json:"transferID"` // FK -> TransferRequest
	CostCenterCode string          `json:"costCenterCode"`
	AccountCode    string          `json:"accountCode"`
	FromAmount     decimal.Decimal `json:"fromAmount"`
	ToAmount       decimal.Decimal `json:"toAmount"`
	AuditFields
}

// FundKey identifies the fund row this line item debits/credits for the
// given fiscal period.
func (li *TransferLineItem) FundKey(period string) FundKey {
	return FundKey{
		EntityKey:  li.CostCenterCode,
		AccountKey: li.AccountCode,
		Period:     period,
	}
}
