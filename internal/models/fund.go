package models

import "github.com/shopspring/decimal"

// FundBalance is the DB row shape for a fund balance. The numeric columns
// are nullable in legacy data; NULLs are read as zero at this layer only.
type FundBalance struct {
	EntityKey   string          `db:"entity_key"`
	AccountKey  string          `db:"account_key"`
	Period      string          `db:"period"`
	Actual      decimal.Decimal `db:"actual"`
	Fund        decimal.Decimal `db:"fund"`
	Budget      decimal.Decimal `db:"budget"`
	Encumbrance decimal.Decimal `db:"encumbrance"`
	AuditFields
}
