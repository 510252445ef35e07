package models

import "time"

// User is the DB row shape for an application user.
type User struct {
	UserID       string `db:"user_id"`
	Username     string `db:"username"`
	Name         string `db:"name"`
	Role         string `db:"role"`
	Level        int    `db:"level"`
	PasswordHash string `db:"password_hash"`
	AuditFields
}

// Notification is the DB row shape for a persisted notification event.
type Notification struct {
	NotificationID string    `db:"notification_id"`
	UserID         string    `db:"user_id"`
	TransferID     string    `db:"transfer_id"`
	Message        string    `db:"message"`
	IsRead         bool      `db:"is_read"`
	CreatedAt      time.Time `db:"created_at"`
}
