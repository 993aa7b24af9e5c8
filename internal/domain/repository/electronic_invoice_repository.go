package repository

import (
	"context"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// ElectronicInvoiceRepository define el puerto de persistencia de los intentos de factura.
// Los métodos Get devuelven (nil, nil) si no existe el registro.
type ElectronicInvoiceRepository interface {
	Create(ctx context.Context, inv *entity.ElectronicInvoice) error

	// Update persiste la caché de estado y metadatos del intento con control optimista:
	// sólo actualiza si la versión almacenada coincide con inv.Version y la incrementa.
	// Si no coincide devuelve domain.ErrConflict.
	Update(ctx context.Context, inv *entity.ElectronicInvoice) error

	GetByID(ctx context.Context, id string) (*entity.ElectronicInvoice, error)
	GetByTransmissionID(ctx context.Context, transmissionID string) (*entity.ElectronicInvoice, error)

	// GetLatestBySale devuelve el intento con mayor AttemptIndex de la venta.
	GetLatestBySale(ctx context.Context, tenantID, saleID string) (*entity.ElectronicInvoice, error)

	// ListBySale lista la cadena de intentos ordenada por AttemptIndex.
	ListBySale(ctx context.Context, tenantID, saleID string) ([]*entity.ElectronicInvoice, error)

	// ListByStatuses lista intentos en los estados dados (barridos de envío y reconciliación).
	ListByStatuses(ctx context.Context, statuses []entity.InvoiceStatus, limit int) ([]*entity.ElectronicInvoice, error)
}
