package dto

import (
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FundBalanceResponse is the API shape of a fund balance row.
type FundBalanceResponse struct {
	EntityKey   string          `json:"entityKey"`
	AccountKey  string          `json:"accountKey"`
	Period      string          `json:"period"`
	Actual      decimal.Decimal `json:"actual"`
	Fund        decimal.Decimal `json:"fund"`
	Budget      decimal.Decimal `json:"budget"`
	Encumbrance decimal.Decimal `json:"encumbrance"`
}

// NotificationResponse is the API shape of a notification event.
type NotificationResponse struct {
	NotificationID string    `json:"notificationID"`
	TransferID     string    `json:"transferID"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToFundBalanceResponse converts a domain fund balance to its API shape.
func ToFundBalanceResponse(f *domain.FundBalance) FundBalanceResponse {
	return FundBalanceResponse{
		EntityKey:   f.EntityKey,
		AccountKey:  f.AccountKey,
		Period:      f.Period,
		Actual:      f.Actual,
		Fund:        f.Fund,
		Budget:      f.Budget,
		Encumbrance: f.Encumbrance,
	}
}

// ToFundBalanceResponses converts a slice of domain fund balances.
func ToFundBalanceResponses(funds []domain.FundBalance) []FundBalanceResponse {
	responses := make([]FundBalanceResponse, len(funds))
	for i := range funds {
		responses[i] = ToFundBalanceResponse(&funds[i])
	}
	return responses
}

// ToNotificationResponses converts notification events to their API shape.
func ToNotificationResponses(events []domain.NotificationEvent) []NotificationResponse {
	responses := make([]NotificationResponse, len(events))
	for i, e := range events {
		responses[i] = NotificationResponse{
			NotificationID: e.NotificationID,
			TransferID:     e.TransferID,
			Message:        e.Message,
			IsRead:         e.IsRead,
			CreatedAt:      e.CreatedAt,
		}
	}
	return responses
}
