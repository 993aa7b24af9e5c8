package repository

import (
	"context"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// NotificationInboxRepository registro de notificaciones ya aplicadas (idempotencia).
type NotificationInboxRepository interface {
	// Register inserta la notificación; si el ID ya existe devuelve domain.ErrDuplicateNotification.
	Register(ctx context.Context, n *entity.ProcessedNotification) error
	Get(ctx context.Context, notificationID string) (*entity.ProcessedNotification, error)
}
