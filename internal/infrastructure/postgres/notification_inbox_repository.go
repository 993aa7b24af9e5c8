package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
)

var _ repository.NotificationInboxRepository = (*NotificationInboxRepo)(nil)

// NotificationInboxRepo IDs de notificación ya aplicados.
type NotificationInboxRepo struct {
	q Querier
}

// NewNotificationInboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationInboxRepository(q Querier) *NotificationInboxRepo {
	return &NotificationInboxRepo{q: q}
}

// Register inserta la notificación; si ya existía devuelve domain.ErrDuplicateNotification.
func (r *NotificationInboxRepo) Register(ctx context.Context, n *entity.ProcessedNotification) error {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO notification_inbox (notification_id, invoice_id, kind, event_count, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (notification_id) DO NOTHING`,
		n.NotificationID, n.InvoiceID, n.Kind, n.EventCount, n.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification inbox: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notificación %s: %w", n.NotificationID, domain.ErrDuplicateNotification)
	}
	return nil
}

// Get devuelve (nil, nil) si la notificación no se ha procesado.
func (r *NotificationInboxRepo) Get(ctx context.Context, notificationID string) (*entity.ProcessedNotification, error) {
	var n entity.ProcessedNotification
	err := r.q.QueryRow(ctx, `
		SELECT notification_id, invoice_id, kind, event_count, received_at
		FROM notification_inbox WHERE notification_id = $1`, notificationID,
	).Scan(&n.NotificationID, &n.InvoiceID, &n.Kind, &n.EventCount, &n.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification inbox: %w", err)
	}
	return &n, nil
}
