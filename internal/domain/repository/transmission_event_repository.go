package repository

import (
	"context"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// TransmissionEventRepository tabla append-only de eventos. No hay Update ni Delete.
type TransmissionEventRepository interface {
	Append(ctx context.Context, ev *entity.TransmissionEvent) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.TransmissionEvent, error)
	LastByInvoice(ctx context.Context, invoiceID string) (*entity.TransmissionEvent, error)
}
