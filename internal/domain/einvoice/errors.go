package einvoice

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

// InvalidTransitionError arista de estado inexistente en la tabla. El intento no cambia.
type InvalidTransitionError struct {
	InvoiceID string
	From      entity.InvoiceStatus
	To        entity.InvoiceStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida %s → %s (factura %s)", e.From, e.To, e.InvoiceID)
}

// UnrecognizedNotificationError notificación con tipo o forma desconocida. Se deja para revisión manual.
type UnrecognizedNotificationError struct {
	NotificationID string
	Kind           string
	Reason         string
}

func (e *UnrecognizedNotificationError) Error() string {
	return fmt.Sprintf("notificación %q no reconocida (tipo %q): %s", e.NotificationID, e.Kind, e.Reason)
}

// FiscalRejectionError resultado negativo de la autoridad con códigos de error.
// Es recuperable mediante ResendPolicy.
type FiscalRejectionError struct {
	InvoiceID    string
	Status       entity.InvoiceStatus
	Codes        []sdi.ErrorCode
	Unclassified []string
}

func (e *FiscalRejectionError) Error() string {
	codes := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		codes[i] = c.Code
	}
	return fmt.Sprintf("factura %s en %s con errores [%s]", e.InvoiceID, e.Status, strings.Join(codes, ", "))
}

// RetryExhaustedError se alcanzó el tope de reenvíos; requiere escalamiento humano.
type RetryExhaustedError struct {
	InvoiceID string
	SaleID    string
	Resends   int
	Max       int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("venta %s: %d reenvíos realizados, tope %d alcanzado (intento %s)", e.SaleID, e.Resends, e.Max, e.InvoiceID)
}

// ReconciliationDivergenceError el estado en caché no coincide con el ledger.
// Detiene el procesamiento automático de la factura hasta que se resuelva.
type ReconciliationDivergenceError struct {
	InvoiceID string
	Cached    entity.InvoiceStatus
	Folded    entity.InvoiceStatus
	Detail    string
}

func (e *ReconciliationDivergenceError) Error() string {
	msg := fmt.Sprintf("divergencia en factura %s: caché=%s ledger=%s", e.InvoiceID, e.Cached, e.Folded)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}
