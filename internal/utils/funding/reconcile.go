package funding

import (
	"fmt"
	"sort"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PeriodForDate derives the fiscal period key for a transaction date.
func PeriodForDate(date time.Time) string {
	return fmt.Sprintf("%04d", date.Year())
}

// ComputeDeltas calculates the net fund balance change per fund row for a
// terminal decision over the transfer's line items.
//
// An approval commits the transfer: each line's fund row moves by
// toAmount - fromAmount. A rejection releases the reservation: funds were
// never provisionally debited, so the net ledger change is zero and no
// deltas are produced.
//
// Line item amounts must be non-negative; a violation here indicates data
// corruption upstream of the reconciler.
func ComputeDeltas(lineItems []domain.TransferLineItem, decision domain.Decision, period string) (map[domain.FundKey]decimal.Decimal, error) {
	deltas := make(map[domain.FundKey]decimal.Decimal)

	for i := range lineItems {
		li := &lineItems[i]
		if li.FromAmount.IsNegative() || li.ToAmount.IsNegative() {
			return nil, fmt.Errorf("line item %s has negative amounts (from=%s, to=%s)",
				li.LineItemID, li.FromAmount.String(), li.ToAmount.String())
		}

		if decision != domain.DecisionApprove {
			continue
		}

		key := li.FundKey(period)
		delta := li.ToAmount.Sub(li.FromAmount)
		deltas[key] = deltas[key].Add(delta)
	}

	return deltas, nil
}

// SortedKeys returns the fund keys of a delta map in their canonical lock
// order (domain.FundKey.Less).
func SortedKeys(deltas map[domain.FundKey]decimal.Decimal) []domain.FundKey {
	keys := make([]domain.FundKey, 0, len(deltas))
	for key := range deltas {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})
	return keys
}
