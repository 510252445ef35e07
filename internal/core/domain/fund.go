package domain

import "github.com/shopspring/decimal"

// FundKey identifies a fund balance row: one (entity, account) pair within
// one fiscal period.
type FundKey struct {
	EntityKey  string `json:"entityKey"`  // cost center code
	AccountKey string `json:"accountKey"` // account code
	Period     string `json:"period"`     // fiscal year, e.g. "2026"
}

// Less imposes a total order on fund keys. Reconciliation locks fund rows in
// this order so that concurrent transfers touching overlapping accounts
// cannot deadlock.
func (k FundKey) Less(other FundKey) bool {
	if k.EntityKey != other.EntityKey {
		return k.EntityKey < other.EntityKey
	}
	if k.AccountKey != other.AccountKey {
		return k.AccountKey < other.AccountKey
	}
	return k.Period < other.Period
}

// FundBalance is the persisted running balance of one fund row. Balances are
// mutated exclusively by the reconciler, in amounts matching the line items
// of terminally decided transfers.
type FundBalance struct {
	FundKey
	Actual      decimal.Decimal `json:"actual"`
	Fund        decimal.Decimal `json:"fund"`
	Budget      decimal.Decimal `json:"budget"`
	Encumbrance decimal.Decimal `json:"encumbrance"`
	AuditFields
}
