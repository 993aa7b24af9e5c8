package einvoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// Send entrega un intento TO_SEND al gateway.
//
//	TO_SEND → SENDING → (reintentos de red con backoff) → SENT | TO_SEND
//
// El lock no se mantiene durante la llamada al gateway; al volver se recarga el
// intento y, si ya avanzó por otra vía (AT, cancelación), no se registra nada.
func (s *TransmissionService) Send(ctx context.Context, invoiceID string) (*entity.ElectronicInvoice, error) {
	// Un envío ya en curso falla con InvalidTransitionError (SENDING → SENDING no existe).
	inv, _, err := s.mutate(ctx, invoiceID, func(ctx context.Context, sc *scope, cur *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
		return sc.transition(ctx, cur, entity.StatusSending, einvoice.Cause{Trigger: einvoice.TriggerSend})
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, sendErr := s.submit(ctx, inv)
	if sendErr != nil {
		s.metrics.GatewayCall("error", time.Since(start))
	} else {
		s.metrics.GatewayCall("ok", time.Since(start))
	}

	// El resultado se registra aunque el contexto del envío haya vencido.
	recordCtx := context.WithoutCancel(ctx)
	out, _, err := s.mutate(recordCtx, invoiceID, func(ctx context.Context, sc *scope, cur *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
		if cur.Status != entity.StatusSending {
			return cur, nil
		}
		if sendErr != nil {
			return sc.transition(ctx, cur, entity.StatusToSend, einvoice.Cause{
				Trigger:    einvoice.TriggerSendFailure,
				RawPayload: sendErr.Error(),
			})
		}
		return sc.transition(ctx, cur, entity.StatusSent, einvoice.Cause{
			Trigger:       einvoice.TriggerGatewayAck,
			RawPayload:    res.ReceiptID,
			SDIIdentifier: res.SDIIdentifier,
		})
	})
	if err != nil {
		return nil, err
	}
	if sendErr != nil {
		return out, fmt.Errorf("%w: %v", ErrSubmissionFailed, sendErr)
	}
	return out, nil
}

// submit llama al gateway con backoff exponencial acotado. Los errores marcados con
// backoff.Permanent cortan los reintentos.
func (s *TransmissionService) submit(ctx context.Context, inv *entity.ElectronicInvoice) (*SubmitResult, error) {
	if s.gateway == nil {
		return nil, backoff.Permanent(fmt.Errorf("gateway no configurado"))
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.cfg.Backoff.InitialInterval
	exp.MaxInterval = s.cfg.Backoff.MaxInterval
	exp.MaxElapsedTime = s.cfg.Backoff.MaxElapsedTime
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, s.cfg.Backoff.MaxRetries), ctx)

	req := SubmitRequest{
		InvoiceID:      inv.ID,
		TransmissionID: inv.TransmissionID,
		DocumentRef:    inv.DocumentRef,
		AttemptIndex:   inv.AttemptIndex,
	}
	var res *SubmitResult
	op := func() error {
		r, err := s.gateway.Submit(ctx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Str("invoice_id", inv.ID).Dur("retry_in", wait).Msg("gateway no disponible, reintentando")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	if res == nil {
		res = &SubmitResult{}
	}
	return res, nil
}
