package pgsql

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/bt-suite/budget_transfer_app/internal/models"
)

type PgxNotificationRepository struct {
	BaseRepository
}

func newPgxNotificationRepository(pool DBPool) portsrepo.NotificationRepository {
	return &PgxNotificationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.NotificationRepository = (*PgxNotificationRepository)(nil)

func toDomainNotification(m models.Notification) domain.NotificationEvent {
	return domain.NotificationEvent{
		NotificationID: m.NotificationID,
		UserID:         m.UserID,
		TransferID:     m.TransferID,
		Message:        m.Message,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}

func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, event domain.NotificationEvent) error {
	query := `
		INSERT INTO notifications (notification_id, user_id, transfer_id, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		event.NotificationID,
		event.UserID,
		event.TransferID,
		event.Message,
		event.IsRead,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save notification for user "+event.UserID, err)
	}
	return nil
}

func (r *PgxNotificationRepository) ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error) {
	query := `
		SELECT notification_id, user_id, transfer_id, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query notifications for user "+userID, err)
	}
	defer rows.Close()

	events := []domain.NotificationEvent{}
	for rows.Next() {
		var m models.Notification
		if err := rows.Scan(&m.NotificationID, &m.UserID, &m.TransferID, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan notification row for user "+userID, err)
		}
		events = append(events, toDomainNotification(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating notification rows for user "+userID, err)
	}
	return events, nil
}
