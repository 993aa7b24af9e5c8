package einvoicing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SubmissionOrchestrator ejecuta el envío al gateway fuera del ciclo HTTP:
//
//	TO_SEND → SENDING → gateway (backoff) → SENT | TO_SEND
//
// Cada envío corre en su propia goroutine con context.Background() + timeout,
// desacoplado de la petición que lo disparó.
type SubmissionOrchestrator struct {
	svc     *TransmissionService
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewSubmissionOrchestrator construye el orquestador. timeout <= 0 usa 30 s.
func NewSubmissionOrchestrator(svc *TransmissionService, timeout time.Duration, log zerolog.Logger) *SubmissionOrchestrator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SubmissionOrchestrator{svc: svc, timeout: timeout, log: log.With().Str("component", "submission").Logger()}
}

// ProcessAsync dispara el envío del intento en una goroutine independiente.
func (o *SubmissionOrchestrator) ProcessAsync(invoiceID string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.process(invoiceID)
	}()
}

// Wait espera a que terminen los envíos en curso (apagado ordenado).
func (o *SubmissionOrchestrator) Wait() { o.wg.Wait() }

func (o *SubmissionOrchestrator) process(invoiceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	inv, err := o.svc.Send(ctx, invoiceID)
	switch {
	case errors.Is(err, ErrSubmissionFailed):
		o.log.Warn().Err(err).Str("invoice_id", invoiceID).Msg("envío fallido, el intento vuelve a TO_SEND")
	case err != nil:
		o.log.Error().Err(err).Str("invoice_id", invoiceID).Msg("no se pudo procesar el envío")
	default:
		o.log.Info().
			Str("invoice_id", invoiceID).
			Str("status", string(inv.Status)).
			Int("send_attempts", inv.SendAttempts).
			Msg("documento entregado al gateway")
	}
}
