package domain

import "time"

// NotificationEvent is emitted best-effort after a transfer is created or
// decided. Delivery failures never roll back the originating operation.
type NotificationEvent struct {
	NotificationID string    `json:"notificationID"` // Primary Key (UUID)
	UserID         string    `json:"userID"`         // recipient
	TransferID     string    `json:"transferID"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}
