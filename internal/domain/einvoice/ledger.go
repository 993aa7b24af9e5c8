package einvoice

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// EventStore persistencia append-only de eventos. No existe Update ni Delete.
type EventStore interface {
	Append(ctx context.Context, ev *entity.TransmissionEvent) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.TransmissionEvent, error)
	LastByInvoice(ctx context.Context, invoiceID string) (*entity.TransmissionEvent, error) // nil si no hay eventos
}

// Ledger historial de transiciones; única fuente de verdad del estado actual.
type Ledger struct {
	store EventStore
}

// NewLedger construye el ledger sobre un EventStore (pool o tx).
func NewLedger(store EventStore) *Ledger {
	return &Ledger{store: store}
}

var _ Recorder = (*Ledger)(nil)

// Record agrega el evento al final de la cadena. El FromStatus debe coincidir con
// el último ToStatus registrado; una cadena rota indica una escritura fuera de la
// máquina de estados y se trata como divergencia.
func (l *Ledger) Record(ctx context.Context, ev *entity.TransmissionEvent) error {
	last, err := l.store.LastByInvoice(ctx, ev.InvoiceID)
	if err != nil {
		return fmt.Errorf("ledger: último evento: %w", err)
	}
	var current entity.InvoiceStatus
	var seq int64
	if last != nil {
		current, seq = last.ToStatus, last.Seq
	}
	if ev.FromStatus != current {
		return &ReconciliationDivergenceError{
			InvoiceID: ev.InvoiceID,
			Cached:    ev.FromStatus,
			Folded:    current,
			Detail:    "el evento no continúa la cadena del ledger",
		}
	}
	ev.Seq = seq + 1
	if err := l.store.Append(ctx, ev); err != nil {
		return fmt.Errorf("ledger: append: %w", err)
	}
	return nil
}

// History eventos del intento en orden de ocurrencia.
func (l *Ledger) History(ctx context.Context, invoiceID string) ([]*entity.TransmissionEvent, error) {
	events, err := l.store.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("ledger: historial: %w", err)
	}
	return events, nil
}

// CurrentStatus estado calculado plegando el historial completo.
func (l *Ledger) CurrentStatus(ctx context.Context, invoiceID string) (entity.InvoiceStatus, error) {
	events, err := l.History(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	return Fold(events)
}

// Reconcile compara el estado en caché del intento con el plegado del ledger.
func (l *Ledger) Reconcile(ctx context.Context, inv *entity.ElectronicInvoice) error {
	events, err := l.History(ctx, inv.ID)
	if err != nil {
		return err
	}
	folded, err := Fold(events)
	if err != nil {
		return &ReconciliationDivergenceError{InvoiceID: inv.ID, Cached: inv.Status, Detail: err.Error()}
	}
	if folded != inv.Status {
		return &ReconciliationDivergenceError{InvoiceID: inv.ID, Cached: inv.Status, Folded: folded}
	}
	return nil
}

// Fold recorre la secuencia verificando que cada evento continúe al anterior por
// una arista legal y devuelve el ToStatus del último.
func Fold(events []*entity.TransmissionEvent) (entity.InvoiceStatus, error) {
	if len(events) == 0 {
		return "", fmt.Errorf("ledger vacío")
	}
	var current entity.InvoiceStatus
	for i, ev := range events {
		if ev.FromStatus != current {
			return "", fmt.Errorf("evento %d: from=%s, se esperaba %s", i+1, ev.FromStatus, current)
		}
		if i == 0 {
			if ev.ToStatus != entity.StatusDraft {
				return "", fmt.Errorf("evento 1: el intento debe nacer en DRAFT, no en %s", ev.ToStatus)
			}
		} else if !CanTransition(ev.FromStatus, ev.ToStatus) {
			return "", fmt.Errorf("evento %d: arista ilegal %s → %s", i+1, ev.FromStatus, ev.ToStatus)
		}
		current = ev.ToStatus
	}
	return current, nil
}
