package einvoicing_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

func TestSend_AcuseDelGatewayPasaASent(t *testing.T) {
	h := newHarness(t, testConfig())
	q := h.queued(t, "sale-1")

	inv, err := h.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, inv.Status)
	assert.Equal(t, 1, inv.SendAttempts)
	assert.NotNil(t, inv.LastSentAt)
	assert.Equal(t, 1, h.gateway.Calls())
	assert.Equal(t, 5, h.eventCount(t, q.ID))
}

func TestSend_FallaTransitoriaReintentaConBackoff(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.failures = 2
	h.gateway.err = errGatewayDown
	q := h.queued(t, "sale-1")

	inv, err := h.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, inv.Status)
	assert.Equal(t, 3, h.gateway.Calls(), "dos fallos más el acuse")
}

func TestSend_ReintentosAgotadosVuelveAToSend(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.failures = 100
	h.gateway.err = errGatewayDown
	q := h.queued(t, "sale-1")

	inv, err := h.svc.Send(context.Background(), q.ID)
	require.ErrorIs(t, err, einvoicing.ErrSubmissionFailed)
	require.NotNil(t, inv)
	assert.Equal(t, entity.StatusToSend, inv.Status)
	assert.Equal(t, 3, h.gateway.Calls(), "intento inicial más MaxRetries")

	statuses := h.publisher.ToStatuses()
	assert.Equal(t, []string{"DRAFT", "GENERATED", "TO_SEND", "SENDING", "TO_SEND"}, statuses)
}

func TestSend_ErrorPermanenteNoSeReintenta(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.failures = 1
	h.gateway.err = permanentGatewayError()
	q := h.queued(t, "sale-1")

	inv, err := h.svc.Send(context.Background(), q.ID)
	require.ErrorIs(t, err, einvoicing.ErrSubmissionFailed)
	assert.Equal(t, entity.StatusToSend, inv.Status)
	assert.Equal(t, 1, h.gateway.Calls())
}

func TestSend_EstadoNoEnviableEsTransicionInvalida(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.sent(t, "sale-1")

	_, err := h.svc.Send(context.Background(), inv.ID)
	var invalid *einvoice.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.StatusSent, invalid.From)
	assert.Equal(t, entity.StatusSending, invalid.To)
	assert.Equal(t, 1, h.gateway.Calls())
}

func TestSend_EnvioEnCursoEsTransicionInvalida(t *testing.T) {
	h := newHarness(t, testConfig())
	h.gateway.hold = make(chan struct{})
	h.gateway.entered = make(chan struct{}, 1)
	q := h.queued(t, "sale-1")

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Send(context.Background(), q.ID)
		done <- err
	}()
	<-h.gateway.entered
	before := h.eventCount(t, q.ID)

	_, err := h.svc.Send(context.Background(), q.ID)
	var invalid *einvoice.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.StatusSending, invalid.From)
	assert.Equal(t, entity.StatusSending, invalid.To)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, before, h.eventCount(t, q.ID))

	close(h.gateway.hold)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.gateway.Calls())
}

func TestSend_IntentoInexistente(t *testing.T) {
	h := newHarness(t, testConfig())

	_, err := h.svc.Send(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, h.gateway.Calls())
}

func TestSubmissionOrchestrator_ProcessAsyncYWait(t *testing.T) {
	h := newHarness(t, testConfig())
	q := h.queued(t, "sale-1")

	orch := einvoicing.NewSubmissionOrchestrator(h.svc, 0, zerolog.Nop())
	orch.ProcessAsync(q.ID)
	orch.Wait()

	inv, err := h.svc.GetInvoice(context.Background(), testTenant, q.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusSent), inv.Status)
	assert.Equal(t, "RCPT-"+q.TransmissionID, lastRawPayload(t, h, q.ID))
}

func lastRawPayload(t *testing.T, h *harness, invoiceID string) string {
	t.Helper()
	ev, err := h.store.Events().LastByInvoice(context.Background(), invoiceID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	return ev.RawPayload
}
