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

var _ repository.TransmissionEventRepository = (*TransmissionEventRepo)(nil)

// TransmissionEventRepo tabla append-only. Un trigger en la base rechaza UPDATE y DELETE.
type TransmissionEventRepo struct {
	q Querier
}

// NewTransmissionEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransmissionEventRepository(q Querier) *TransmissionEventRepo {
	return &TransmissionEventRepo{q: q}
}

const eventColumns = `
	id, invoice_id, seq, from_status, to_status, trigger, notification_kind, notification_id,
	error_codes, raw_payload, payload_digest, occurred_at`

// Append inserta el evento. Un (invoice_id, seq) repetido indica escritura concurrente.
func (r *TransmissionEventRepo) Append(ctx context.Context, ev *entity.TransmissionEvent) error {
	query := `INSERT INTO transmission_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		ev.ID, ev.InvoiceID, ev.Seq, nullIfEmpty(string(ev.FromStatus)), string(ev.ToStatus), ev.Trigger,
		nullIfEmpty(ev.NotificationKind), nullIfEmpty(ev.NotificationID),
		nonNil(ev.ErrorCodes), nullIfEmpty(ev.RawPayload), nullIfEmpty(ev.PayloadDigest), ev.OccurredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("evento %d de %s: %w", ev.Seq, ev.InvoiceID, domain.ErrConflict)
		}
		return fmt.Errorf("insert transmission event: %w", err)
	}
	return nil
}

// ListByInvoice eventos en orden de seq.
func (r *TransmissionEventRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.TransmissionEvent, error) {
	rows, err := r.q.Query(ctx, `SELECT `+eventColumns+` FROM transmission_events WHERE invoice_id = $1 ORDER BY seq`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list transmission events: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransmissionEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transmission event: %w", err)
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// LastByInvoice devuelve (nil, nil) si el intento no tiene eventos.
func (r *TransmissionEventRepo) LastByInvoice(ctx context.Context, invoiceID string) (*entity.TransmissionEvent, error) {
	ev, err := scanEvent(r.q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM transmission_events WHERE invoice_id = $1 ORDER BY seq DESC LIMIT 1`, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last transmission event: %w", err)
	}
	return ev, nil
}

func scanEvent(row pgx.Row) (*entity.TransmissionEvent, error) {
	var (
		ev                                      entity.TransmissionEvent
		from, kind, notificationID, raw, digest *string
		to                                      string
	)
	if err := row.Scan(
		&ev.ID, &ev.InvoiceID, &ev.Seq, &from, &to, &ev.Trigger, &kind, &notificationID,
		&ev.ErrorCodes, &raw, &digest, &ev.OccurredAt,
	); err != nil {
		return nil, err
	}
	ev.FromStatus = entity.InvoiceStatus(derefStr(from))
	ev.ToStatus = entity.InvoiceStatus(to)
	ev.NotificationKind = derefStr(kind)
	ev.NotificationID = derefStr(notificationID)
	ev.RawPayload = derefStr(raw)
	ev.PayloadDigest = derefStr(digest)
	return &ev, nil
}
