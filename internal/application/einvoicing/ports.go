package einvoicing

import (
	"context"
	"time"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con los repos de transmisión.
// Si fn retorna error se hace rollback: ningún evento ni cambio de caché queda escrito.
type TxRunner interface {
	RunTransmission(ctx context.Context, fn func(
		invoiceRepo repository.ElectronicInvoiceRepository,
		eventRepo repository.TransmissionEventRepository,
		inboxRepo repository.NotificationInboxRepository,
	) error) error
}

// SubmitRequest documento a entregar al gateway del SdI.
type SubmitRequest struct {
	InvoiceID      string
	TransmissionID string
	DocumentRef    string
	AttemptIndex   int
}

// SubmitResult acuse del gateway. El resultado fiscal llega después como notificación.
type SubmitResult struct {
	ReceiptID     string
	SDIIdentifier string // sólo si el gateway ya lo conoce
}

// Gateway cliente del gateway de intercambio. Un error envuelto con backoff.Permanent
// no se reintenta.
type Gateway interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

// StatusPublisher salida de eventos de cambio de estado (Kafka u otro broker).
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, ev dto.StatusChangedEvent) error
}

// InvoiceLocker serializa las escrituras por clave (un escritor por intento).
type InvoiceLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NotificationParser normaliza el mensaje crudo de una notificación (XML del SdI o texto).
type NotificationParser interface {
	Parse(notificationID string, kind einvoice.NotificationKind, raw string) (einvoice.Notification, error)
}

// AuditPDFGenerator genera el PDF de la exportación de auditoría.
type AuditPDFGenerator interface {
	GenerateAuditPDF(export *dto.AuditExportResponse) ([]byte, error)
}

// Metrics contadores operativos del ciclo de transmisión.
type Metrics interface {
	TransitionApplied(from, to entity.InvoiceStatus, trigger string)
	NotificationHandled(kind, result string)
	DivergenceDetected()
	GatewayCall(result string, elapsed time.Duration)
	ResendCreated(auto bool)
}

type nopMetrics struct{}

func (nopMetrics) TransitionApplied(entity.InvoiceStatus, entity.InvoiceStatus, string) {}
func (nopMetrics) NotificationHandled(string, string)                                   {}
func (nopMetrics) DivergenceDetected()                                                  {}
func (nopMetrics) GatewayCall(string, time.Duration)                                    {}
func (nopMetrics) ResendCreated(bool)                                                   {}

type nopPublisher struct{}

func (nopPublisher) PublishStatusChanged(context.Context, dto.StatusChangedEvent) error { return nil }
