package einvoicing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// Dispatcher destino de los intentos TO_SEND pendientes.
type Dispatcher interface {
	ProcessAsync(invoiceID string)
}

// SweepReport resultado de una pasada.
type SweepReport struct {
	Checked    int
	Diverged   []string
	Dispatched int
}

// ReconcileSweeper recorre periódicamente los intentos no terminales: reconcilia la
// caché con el ledger y redespacha los que quedaron en TO_SEND.
type ReconcileSweeper struct {
	svc        *TransmissionService
	dispatcher Dispatcher
	interval   time.Duration
	batch      int
	log        zerolog.Logger
}

// NewReconcileSweeper construye el barrido. dispatcher puede ser nil (sólo reconcilia).
func NewReconcileSweeper(svc *TransmissionService, dispatcher Dispatcher, interval time.Duration, batch int, log zerolog.Logger) *ReconcileSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 200
	}
	return &ReconcileSweeper{
		svc:        svc,
		dispatcher: dispatcher,
		interval:   interval,
		batch:      batch,
		log:        log.With().Str("component", "reconcile-sweeper").Logger(),
	}
}

// Run ejecuta pasadas hasta que ctx se cancele.
func (w *ReconcileSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rep, err := w.SweepOnce(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("barrido de reconciliación fallido")
				continue
			}
			w.log.Debug().Int("checked", rep.Checked).Int("diverged", len(rep.Diverged)).Int("dispatched", rep.Dispatched).Msg("barrido completado")
		}
	}
}

// SweepOnce una pasada sobre un lote de intentos activos.
func (w *ReconcileSweeper) SweepOnce(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	list, err := w.svc.ListActive(ctx, w.batch)
	if err != nil {
		return rep, err
	}
	for _, inv := range list {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Checked++
		if err := w.svc.Reconcile(ctx, inv.ID); err != nil {
			var div *einvoice.ReconciliationDivergenceError
			if errors.As(err, &div) {
				rep.Diverged = append(rep.Diverged, inv.ID)
				continue
			}
			w.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("reconciliación fallida")
			continue
		}
		if inv.Status == entity.StatusToSend && w.dispatcher != nil {
			w.dispatcher.ProcessAsync(inv.ID)
			rep.Dispatched++
		}
	}
	return rep, nil
}
