// Package memory implementa los repositorios de transmisión en memoria.
// Se usa en desarrollo (STORE_DRIVER=memory) y en los tests de aplicación y HTTP.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
)

var (
	_ repository.ElectronicInvoiceRepository = (*InvoiceRepo)(nil)
	_ repository.TransmissionEventRepository = (*EventRepo)(nil)
	_ repository.NotificationInboxRepository = (*InboxRepo)(nil)
)

type data struct {
	invoices map[string]*entity.ElectronicInvoice
	events   map[string][]*entity.TransmissionEvent
	inbox    map[string]*entity.ProcessedNotification
}

func newData() *data {
	return &data{
		invoices: make(map[string]*entity.ElectronicInvoice),
		events:   make(map[string][]*entity.TransmissionEvent),
		inbox:    make(map[string]*entity.ProcessedNotification),
	}
}

// clone copia los mapas; los valores guardados nunca se mutan en sitio.
func (d *data) clone() *data {
	out := newData()
	for k, v := range d.invoices {
		out.invoices[k] = v
	}
	for k, v := range d.events {
		out.events[k] = append([]*entity.TransmissionEvent(nil), v...)
	}
	for k, v := range d.inbox {
		out.inbox[k] = v
	}
	return out
}

// accessor ejecuta fn sobre los datos: con lock (fuera de tx) o sobre la copia de trabajo (tx).
type accessor func(fn func(d *data) error) error

// Store contenedor de los tres repositorios con transacciones serializadas.
type Store struct {
	mu   sync.Mutex
	data *data
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newData()}
}

func (s *Store) locked(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Invoices repositorio de intentos fuera de transacción.
func (s *Store) Invoices() *InvoiceRepo { return &InvoiceRepo{with: s.locked} }

// Events repositorio de eventos fuera de transacción.
func (s *Store) Events() *EventRepo { return &EventRepo{with: s.locked} }

// Inbox repositorio de notificaciones fuera de transacción.
func (s *Store) Inbox() *InboxRepo { return &InboxRepo{with: s.locked} }

// RunTransmission ejecuta fn con repositorios atados a una copia de trabajo; si fn no
// falla la copia reemplaza al estado. Las transacciones se serializan entre sí.
// Dentro de fn no deben usarse los repositorios de Store (bloquearía).
func (s *Store) RunTransmission(ctx context.Context, fn func(
	invoiceRepo repository.ElectronicInvoiceRepository,
	eventRepo repository.TransmissionEventRepository,
	inboxRepo repository.NotificationInboxRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	with := func(f func(d *data) error) error { return f(working) }
	if err := fn(&InvoiceRepo{with: with}, &EventRepo{with: with}, &InboxRepo{with: with}); err != nil {
		return err
	}
	s.data = working
	return nil
}

// ── Intentos ──────────────────────────────────────────────────────────────────

// InvoiceRepo implementación en memoria de ElectronicInvoiceRepository.
type InvoiceRepo struct{ with accessor }

func (r *InvoiceRepo) Create(_ context.Context, inv *entity.ElectronicInvoice) error {
	return r.with(func(d *data) error {
		if _, ok := d.invoices[inv.ID]; ok {
			return fmt.Errorf("invoice %s: %w", inv.ID, domain.ErrDuplicate)
		}
		for _, other := range d.invoices {
			if other.TransmissionID == inv.TransmissionID {
				return fmt.Errorf("transmission id %s: %w", inv.TransmissionID, domain.ErrDuplicate)
			}
		}
		inv.Version = 1
		d.invoices[inv.ID] = inv.Clone()
		return nil
	})
}

func (r *InvoiceRepo) Update(_ context.Context, inv *entity.ElectronicInvoice) error {
	return r.with(func(d *data) error {
		stored, ok := d.invoices[inv.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if stored.Version != inv.Version {
			return fmt.Errorf("invoice %s version %d (stored %d): %w", inv.ID, inv.Version, stored.Version, domain.ErrConflict)
		}
		inv.Version++
		d.invoices[inv.ID] = inv.Clone()
		return nil
	})
}

func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.ElectronicInvoice, error) {
	var out *entity.ElectronicInvoice
	err := r.with(func(d *data) error {
		if inv, ok := d.invoices[id]; ok {
			out = inv.Clone()
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetByTransmissionID(_ context.Context, transmissionID string) (*entity.ElectronicInvoice, error) {
	var out *entity.ElectronicInvoice
	err := r.with(func(d *data) error {
		for _, inv := range d.invoices {
			if inv.TransmissionID == transmissionID {
				out = inv.Clone()
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *InvoiceRepo) GetLatestBySale(ctx context.Context, tenantID, saleID string) (*entity.ElectronicInvoice, error) {
	list, err := r.ListBySale(ctx, tenantID, saleID)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[len(list)-1], nil
}

func (r *InvoiceRepo) ListBySale(_ context.Context, tenantID, saleID string) ([]*entity.ElectronicInvoice, error) {
	var out []*entity.ElectronicInvoice
	err := r.with(func(d *data) error {
		for _, inv := range d.invoices {
			if inv.TenantID == tenantID && inv.SaleID == saleID {
				out = append(out, inv.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptIndex < out[j].AttemptIndex })
	return out, err
}

func (r *InvoiceRepo) ListByStatuses(_ context.Context, statuses []entity.InvoiceStatus, limit int) ([]*entity.ElectronicInvoice, error) {
	wanted := make(map[entity.InvoiceStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []*entity.ElectronicInvoice
	err := r.with(func(d *data) error {
		for _, inv := range d.invoices {
			if wanted[inv.Status] {
				out = append(out, inv.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

// ── Eventos ───────────────────────────────────────────────────────────────────

// EventRepo implementación en memoria, append-only.
type EventRepo struct{ with accessor }

func (r *EventRepo) Append(_ context.Context, ev *entity.TransmissionEvent) error {
	return r.with(func(d *data) error {
		list := d.events[ev.InvoiceID]
		if n := len(list); n > 0 && list[n-1].Seq >= ev.Seq {
			return fmt.Errorf("event seq %d for invoice %s: %w", ev.Seq, ev.InvoiceID, domain.ErrConflict)
		}
		cp := *ev
		cp.ErrorCodes = append([]string(nil), ev.ErrorCodes...)
		d.events[ev.InvoiceID] = append(list, &cp)
		return nil
	})
}

func (r *EventRepo) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.TransmissionEvent, error) {
	var out []*entity.TransmissionEvent
	err := r.with(func(d *data) error {
		for _, ev := range d.events[invoiceID] {
			cp := *ev
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r *EventRepo) LastByInvoice(_ context.Context, invoiceID string) (*entity.TransmissionEvent, error) {
	var out *entity.TransmissionEvent
	err := r.with(func(d *data) error {
		if list := d.events[invoiceID]; len(list) > 0 {
			cp := *list[len(list)-1]
			out = &cp
		}
		return nil
	})
	return out, err
}

// ── Inbox ─────────────────────────────────────────────────────────────────────

// InboxRepo implementación en memoria de NotificationInboxRepository.
type InboxRepo struct{ with accessor }

func (r *InboxRepo) Register(_ context.Context, n *entity.ProcessedNotification) error {
	return r.with(func(d *data) error {
		if _, ok := d.inbox[n.NotificationID]; ok {
			return domain.ErrDuplicateNotification
		}
		cp := *n
		d.inbox[n.NotificationID] = &cp
		return nil
	})
}

func (r *InboxRepo) Get(_ context.Context, notificationID string) (*entity.ProcessedNotification, error) {
	var out *entity.ProcessedNotification
	err := r.with(func(d *data) error {
		if n, ok := d.inbox[notificationID]; ok {
			cp := *n
			out = &cp
		}
		return nil
	})
	return out, err
}
