// Package einvoice contiene las reglas del ciclo de transmisión de la factura
// electrónica al SdI: máquina de estados, clasificación de notificaciones,
// política de reenvío y ledger de eventos.
package einvoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// transitions es la única tabla de aristas legales. Todo estado de entity.AllStatuses
// tiene entrada; los terminales tienen lista vacía.
var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.StatusDraft:          {entity.StatusGenerated, entity.StatusCancelled},
	entity.StatusGenerated:      {entity.StatusToSend, entity.StatusCancelled},
	entity.StatusToSend:         {entity.StatusSending, entity.StatusCancelled},
	entity.StatusSending:        {entity.StatusSent, entity.StatusToSend, entity.StatusCancelled},
	entity.StatusSent:           {entity.StatusAccepted, entity.StatusRejected},
	entity.StatusAccepted:       {entity.StatusDelivered, entity.StatusDeliveryFailed},
	entity.StatusDelivered:      {},
	entity.StatusRejected:       {},
	entity.StatusDeliveryFailed: {},
	entity.StatusCancelled:      {},
}

// ParseStatus valida un estado leído de fuera (DB, API).
func ParseStatus(s string) (entity.InvoiceStatus, error) {
	st := entity.InvoiceStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("estado de factura desconocido %q", s)
	}
	return st, nil
}

// CanTransition indica si from → to existe en la tabla.
func CanTransition(from, to entity.InvoiceStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// LegalTargets copia de los destinos legales desde un estado.
func LegalTargets(from entity.InvoiceStatus) []entity.InvoiceStatus {
	return append([]entity.InvoiceStatus(nil), transitions[from]...)
}

// IsFinal true sólo para los cuatro estados terminales del intento.
func IsFinal(s entity.InvoiceStatus) bool {
	switch s {
	case entity.StatusDelivered, entity.StatusRejected, entity.StatusDeliveryFailed, entity.StatusCancelled:
		return true
	case entity.StatusDraft, entity.StatusGenerated, entity.StatusToSend, entity.StatusSending,
		entity.StatusSent, entity.StatusAccepted:
		return false
	default:
		return false
	}
}

// CanResend true sólo para REJECTED y DELIVERY_FAILED. ACCEPTED/DELIVERED son
// fiscalmente definitivos: se corrigen con nota de crédito, no con reenvío.
func CanResend(s entity.InvoiceStatus) bool {
	switch s {
	case entity.StatusRejected, entity.StatusDeliveryFailed:
		return true
	default:
		return false
	}
}

// Cause describe qué provocó una transición; se copia en el evento.
type Cause struct {
	Trigger          string
	NotificationKind NotificationKind
	NotificationID   string
	ErrorCodes       []string
	Unclassified     []string
	RawPayload       string
	PayloadDigest    string
	SDIIdentifier    string
}

// Triggers internos.
const (
	TriggerCreate       = "create"
	TriggerGenerate     = "generate"
	TriggerEnqueue      = "enqueue"
	TriggerSend         = "send"
	TriggerGatewayAck   = "gateway-ack"
	TriggerSendFailure  = "transient-failure"
	TriggerCancel       = "cancel"
	TriggerNotification = "notification"
	TriggerResend       = "resend"
)

// Recorder destino de los eventos (el ledger).
type Recorder interface {
	Record(ctx context.Context, ev *entity.TransmissionEvent) error
}

// StateMachine valida y aplica transiciones. No guarda estado propio.
type StateMachine struct {
	now   func() time.Time
	newID func() string
}

// NewStateMachine construye la máquina; now nil usa time.Now.
func NewStateMachine(now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{now: now, newID: uuid.NewString}
}

// Create prepara un intento nuevo en DRAFT y su evento de creación ("" → DRAFT).
func (m *StateMachine) Create(inv *entity.ElectronicInvoice, cause Cause) (*entity.ElectronicInvoice, *entity.TransmissionEvent) {
	now := m.now()
	out := inv.Clone()
	out.Status = entity.StatusDraft
	out.CreatedAt = now
	out.UpdatedAt = now
	return out, m.event(out.ID, "", entity.StatusDraft, cause, now)
}

// Apply calcula el intento resultante y el evento sin persistir nada.
// Si la arista no existe devuelve InvalidTransitionError y el intento original no se toca.
func (m *StateMachine) Apply(inv *entity.ElectronicInvoice, target entity.InvoiceStatus, cause Cause) (*entity.ElectronicInvoice, *entity.TransmissionEvent, error) {
	if !CanTransition(inv.Status, target) {
		return nil, nil, &InvalidTransitionError{InvoiceID: inv.ID, From: inv.Status, To: target}
	}
	now := m.now()
	out := inv.Clone()
	from := out.Status
	out.Status = target
	out.UpdatedAt = now

	switch target {
	case entity.StatusSending:
		out.SendAttempts++
		out.LastSentAt = &now
	case entity.StatusAccepted:
		out.AcceptedAt = &now
	case entity.StatusDelivered:
		// DT: aceptación implícita sin paso previo registrado por la autoridad.
		if out.AcceptedAt == nil {
			out.AcceptedAt = &now
		}
	}
	if cause.SDIIdentifier != "" {
		out.SDIIdentifier = cause.SDIIdentifier
	}
	out.ErrorCodes = mergeCodes(out.ErrorCodes, cause.ErrorCodes)
	out.UnclassifiedErrors = append(out.UnclassifiedErrors, cause.Unclassified...)

	return out, m.event(out.ID, from, target, cause, now), nil
}

// Transition aplica la arista y registra el evento en el ledger. Devuelve el intento actualizado.
func (m *StateMachine) Transition(ctx context.Context, rec Recorder, inv *entity.ElectronicInvoice, target entity.InvoiceStatus, cause Cause) (*entity.ElectronicInvoice, error) {
	out, ev, err := m.Apply(inv, target, cause)
	if err != nil {
		return nil, err
	}
	if err := rec.Record(ctx, ev); err != nil {
		return nil, fmt.Errorf("registrar evento %s → %s: %w", ev.FromStatus, ev.ToStatus, err)
	}
	return out, nil
}

func (m *StateMachine) event(invoiceID string, from, to entity.InvoiceStatus, cause Cause, at time.Time) *entity.TransmissionEvent {
	return &entity.TransmissionEvent{
		ID:               m.newID(),
		InvoiceID:        invoiceID,
		FromStatus:       from,
		ToStatus:         to,
		Trigger:          cause.Trigger,
		NotificationKind: string(cause.NotificationKind),
		NotificationID:   cause.NotificationID,
		ErrorCodes:       append([]string(nil), cause.ErrorCodes...),
		RawPayload:       cause.RawPayload,
		PayloadDigest:    cause.PayloadDigest,
		OccurredAt:       at,
	}
}

func mergeCodes(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c] = true
	}
	for _, c := range added {
		if !seen[c] {
			seen[c] = true
			existing = append(existing, c)
		}
	}
	return existing
}
