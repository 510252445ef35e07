package services

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
)

// LevelScopeFilter narrows transfers by the actor's role and chain level.
// Admins see everything. For approval, only transfers waiting exactly at the
// actor's level pass. For viewing, requesters see their own transfers and
// chain members (level >= 1) see any transfer, since each appears in some
// approver's queue eventually.
type LevelScopeFilter struct{}

func NewLevelScopeFilter() portssvc.TransferScopeFilter {
	return &LevelScopeFilter{}
}

var _ portssvc.TransferScopeFilter = (*LevelScopeFilter)(nil)

func (f *LevelScopeFilter) Narrow(_ context.Context, transfers []domain.TransferRequest, actor *domain.User, intent portssvc.ScopeIntent) ([]domain.TransferRequest, error) {
	if actor.Role == domain.RoleAdmin {
		return transfers, nil
	}

	narrowed := make([]domain.TransferRequest, 0, len(transfers))
	for i := range transfers {
		t := &transfers[i]
		switch intent {
		case portssvc.IntentApprove:
			if t.Status == domain.StatusPending && actor.Level == t.StatusLevel+1 && t.StatusLevel < t.MaxLevel() {
				narrowed = append(narrowed, *t)
			}
		default: // IntentView
			if t.RequesterID == actor.UserID || actor.Level >= 1 {
				narrowed = append(narrowed, *t)
			}
		}
	}
	return narrowed, nil
}
