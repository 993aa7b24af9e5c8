package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
)

var _ repository.ElectronicInvoiceRepository = (*ElectronicInvoiceRepo)(nil)

// ElectronicInvoiceRepo implementación de ElectronicInvoiceRepository (usable con pool o tx).
type ElectronicInvoiceRepo struct {
	q Querier
}

// NewElectronicInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewElectronicInvoiceRepository(q Querier) *ElectronicInvoiceRepo {
	return &ElectronicInvoiceRepo{q: q}
}

const invoiceColumns = `
	id, tenant_id, sale_id, previous_attempt_id, document_ref, transmission_id, sdi_identifier,
	attempt_index, resend_count, status, error_codes, unclassified_errors, send_attempts,
	last_sent_at, accepted_at, grand_total, document, version, created_at, updated_at`

// Create inserta el intento con versión 1.
func (r *ElectronicInvoiceRepo) Create(ctx context.Context, inv *entity.ElectronicInvoice) error {
	doc, err := json.Marshal(inv.Document)
	if err != nil {
		return fmt.Errorf("serializar documento: %w", err)
	}
	query := `
		INSERT INTO electronic_invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, $18, $19)`
	_, err = r.q.Exec(ctx, query,
		inv.ID, inv.TenantID, inv.SaleID, nullIfEmpty(inv.PreviousAttemptID), nullIfEmpty(inv.DocumentRef),
		inv.TransmissionID, nullIfEmpty(inv.SDIIdentifier),
		inv.AttemptIndex, inv.ResendCount, string(inv.Status), nonNil(inv.ErrorCodes), nonNil(inv.UnclassifiedErrors), inv.SendAttempts,
		inv.LastSentAt, inv.AcceptedAt, inv.GrandTotal, doc, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("intento %s (venta %s #%d): %w", inv.ID, inv.SaleID, inv.AttemptIndex, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert electronic invoice: %w", err)
	}
	inv.Version = 1
	return nil
}

// Update escribe la caché de estado si la versión coincide.
func (r *ElectronicInvoiceRepo) Update(ctx context.Context, inv *entity.ElectronicInvoice) error {
	doc, err := json.Marshal(inv.Document)
	if err != nil {
		return fmt.Errorf("serializar documento: %w", err)
	}
	query := `
		UPDATE electronic_invoices
		SET document_ref        = $3,
		    sdi_identifier      = $4,
		    status              = $5,
		    error_codes         = $6,
		    unclassified_errors = $7,
		    send_attempts       = $8,
		    last_sent_at        = $9,
		    accepted_at         = $10,
		    document            = $11,
		    updated_at          = $12,
		    version             = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.Version,
		nullIfEmpty(inv.DocumentRef), nullIfEmpty(inv.SDIIdentifier), string(inv.Status),
		nonNil(inv.ErrorCodes), nonNil(inv.UnclassifiedErrors), inv.SendAttempts,
		inv.LastSentAt, inv.AcceptedAt, doc, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update electronic invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("intento %s versión %d: %w", inv.ID, inv.Version, domain.ErrConflict)
	}
	inv.Version++
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ElectronicInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.ElectronicInvoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM electronic_invoices WHERE id = $1`, id)
}

// GetByTransmissionID devuelve (nil, nil) si no existe.
func (r *ElectronicInvoiceRepo) GetByTransmissionID(ctx context.Context, transmissionID string) (*entity.ElectronicInvoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM electronic_invoices WHERE transmission_id = $1`, transmissionID)
}

// GetLatestBySale intento con mayor attempt_index de la venta.
func (r *ElectronicInvoiceRepo) GetLatestBySale(ctx context.Context, tenantID, saleID string) (*entity.ElectronicInvoice, error) {
	return r.getOne(ctx, `
		SELECT `+invoiceColumns+` FROM electronic_invoices
		WHERE tenant_id = $1 AND sale_id = $2
		ORDER BY attempt_index DESC LIMIT 1`, tenantID, saleID)
}

// ListBySale cadena de intentos en orden.
func (r *ElectronicInvoiceRepo) ListBySale(ctx context.Context, tenantID, saleID string) ([]*entity.ElectronicInvoice, error) {
	return r.list(ctx, `
		SELECT `+invoiceColumns+` FROM electronic_invoices
		WHERE tenant_id = $1 AND sale_id = $2
		ORDER BY attempt_index`, tenantID, saleID)
}

// ListByStatuses intentos en los estados dados, los más antiguos primero.
func (r *ElectronicInvoiceRepo) ListByStatuses(ctx context.Context, statuses []entity.InvoiceStatus, limit int) ([]*entity.ElectronicInvoice, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	if limit <= 0 {
		limit = 1000
	}
	return r.list(ctx, `
		SELECT `+invoiceColumns+` FROM electronic_invoices
		WHERE status = ANY($1)
		ORDER BY updated_at
		LIMIT $2`, names, limit)
}

func (r *ElectronicInvoiceRepo) getOne(ctx context.Context, query string, args ...any) (*entity.ElectronicInvoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get electronic invoice: %w", err)
	}
	return inv, nil
}

func (r *ElectronicInvoiceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ElectronicInvoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list electronic invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.ElectronicInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan electronic invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.ElectronicInvoice, error) {
	var (
		inv                             entity.ElectronicInvoice
		previous, docRef, sdiIdentifier *string
		status                          string
		doc                             []byte
	)
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.SaleID, &previous, &docRef, &inv.TransmissionID, &sdiIdentifier,
		&inv.AttemptIndex, &inv.ResendCount, &status, &inv.ErrorCodes, &inv.UnclassifiedErrors, &inv.SendAttempts,
		&inv.LastSentAt, &inv.AcceptedAt, &inv.GrandTotal, &doc, &inv.Version, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.PreviousAttemptID = derefStr(previous)
	inv.DocumentRef = derefStr(docRef)
	inv.SDIIdentifier = derefStr(sdiIdentifier)
	inv.Status = entity.InvoiceStatus(status)
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &inv.Document); err != nil {
			return nil, fmt.Errorf("documento del intento %s: %w", inv.ID, err)
		}
	}
	return &inv, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
