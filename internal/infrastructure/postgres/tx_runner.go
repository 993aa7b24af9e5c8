package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
)

var _ einvoicing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunTransmission abre una transacción READ COMMITTED, ejecuta fn con los repos de
// transmisión atados a la tx y hace Commit o Rollback. Eventos, caché de estado e
// inbox se escriben juntos o no se escriben.
func (r *TxRunner) RunTransmission(ctx context.Context, fn func(
	invoiceRepo repository.ElectronicInvoiceRepository,
	eventRepo repository.TransmissionEventRepository,
	inboxRepo repository.NotificationInboxRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewElectronicInvoiceRepository(tx),
		NewTransmissionEventRepository(tx),
		NewNotificationInboxRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
