package einvoicing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	sdiinfra "github.com/jhoicas/Gym-api/internal/infrastructure/sdi"
)

func TestApplyNotification_RicevutaConsegnaEntregaLaFactura(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "RC", "consegnata al destinatario")
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	require.Len(t, res.Applied, 2)
	assert.Equal(t, "ACCEPTED", res.Applied[0].ToStatus)
	assert.Equal(t, "DELIVERED", res.Applied[1].ToStatus)
	assert.Equal(t, "RC", res.Applied[1].NotificationKind)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, string(entity.StatusDelivered), res.Invoice.Status)
	assert.True(t, res.Invoice.Final)
	assert.Nil(t, res.Rejection)

	statuses := h.publisher.ToStatuses()
	assert.Equal(t, []string{"ACCEPTED", "DELIVERED"}, statuses[len(statuses)-2:])
}

func TestApplyNotification_DuplicadaNoGeneraEventos(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.sent(t, "sale-1")
	ctx := context.Background()
	in := dto.InboundNotificationRequest{NotificationID: "n-1", TransmissionID: inv.TransmissionID, Kind: "RC"}

	first, err := h.svc.ApplyNotification(ctx, in)
	require.NoError(t, err)
	require.False(t, first.Duplicate)
	before := h.eventCount(t, inv.ID)

	second, err := h.svc.ApplyNotification(ctx, in)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Empty(t, second.Applied)
	assert.Equal(t, before, h.eventCount(t, inv.ID))
}

func TestApplyNotification_DraftNoPuedeSaltarADelivered(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	draft, err := h.svc.RequestInvoice(ctx, testTenant, saleRequest("sale-1", ""))
	require.NoError(t, err)

	_, err = h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "n-rc", TransmissionID: draft.TransmissionID, Kind: "RC"})
	var invalid *einvoice.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, entity.StatusDraft, invalid.From)

	got, err := h.svc.GetInvoice(ctx, testTenant, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDraft), got.Status)
	assert.Equal(t, 1, h.eventCount(t, draft.ID))

	prior, err := h.store.Inbox().Get(ctx, "n-rc")
	require.NoError(t, err)
	assert.Nil(t, prior, "la notificación rechazada no queda marcada como procesada")
}

func TestApplyNotification_ScartoConCodigosNoCorregibles(t *testing.T) {
	cfg := testConfig()
	cfg.AutoResend = true
	h := newHarness(t, cfg)
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "NS", "00303 - IdCodice non valido\n00421 - Imposta non calcolata")
	require.NoError(t, err)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, string(entity.StatusRejected), res.Invoice.Status)
	assert.Equal(t, []string{"00303", "00421"}, res.Invoice.ErrorCodes)
	assert.True(t, res.Invoice.Resendable)

	require.NotNil(t, res.Rejection)
	assert.False(t, res.Rejection.AutoFixAvailable)
	assert.True(t, res.Rejection.RequiresConfirmation)
	require.Len(t, res.Rejection.Codes, 2)
	assert.NotEmpty(t, res.Rejection.Codes[0].Suggestion)
	assert.Nil(t, res.NextAttempt, "sin auto-corrección no hay reenvío automático")

	_, err = h.svc.ForceResend(context.Background(), testTenant, inv.ID, dto.ForceResendRequest{})
	require.NoError(t, err, "el operador confirma el reenvío")
}

func TestApplyNotification_AutoReenvioConCodigoCorregible(t *testing.T) {
	cfg := testConfig()
	cfg.AutoResend = true
	h := newHarness(t, cfg)
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "NS", "00428 - CAP non valido")
	require.NoError(t, err)
	require.NotNil(t, res.Rejection)
	assert.True(t, res.Rejection.AutoFixAvailable)

	require.NotNil(t, res.NextAttempt)
	next := res.NextAttempt
	assert.Equal(t, string(entity.StatusDraft), next.Status)
	assert.Equal(t, 2, next.AttemptIndex)
	assert.Equal(t, inv.ID, next.PreviousAttemptID)
	assert.NotEqual(t, inv.TransmissionID, next.TransmissionID)
	assert.Equal(t, "20100", next.Document.PostalCode)

	old, err := h.svc.GetInvoice(context.Background(), testTenant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusRejected), old.Status, "el intento rechazado no se modifica")
	assert.Equal(t, "20 1 00", old.Document.PostalCode)
}

func TestApplyNotification_CodigoNoCorregibleTrasUnoCorregibleBloqueaAutoReenvio(t *testing.T) {
	cfg := testConfig()
	cfg.AutoResend = true
	h := newHarness(t, cfg)
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "NS", "00428 - CAP non valido, 00421 - Imposta non calcolata")
	require.NoError(t, err)
	assert.Equal(t, []string{"00428", "00421"}, res.Invoice.ErrorCodes)
	require.NotNil(t, res.Rejection)
	assert.False(t, res.Rejection.AutoFixAvailable)
	assert.True(t, res.Rejection.RequiresConfirmation)
	assert.Nil(t, res.NextAttempt)

	chain, err := h.svc.ListAttempts(context.Background(), testTenant, "sale-1")
	require.NoError(t, err)
	assert.Len(t, chain, 1)
}

func TestApplyNotification_SinAutoReenvioSoloExplica(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "NS", "00428 - CAP non valido")
	require.NoError(t, err)
	require.NotNil(t, res.Rejection)
	assert.True(t, res.Rejection.AutoFixAvailable)
	assert.False(t, res.Rejection.RequiresConfirmation)
	assert.Nil(t, res.NextAttempt)
}

func TestApplyNotification_MancataConsegna(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "MC", "destinatario irraggiungibile")
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDeliveryFailed), res.Invoice.Status)
	assert.True(t, res.Invoice.Resendable)
	require.NotNil(t, res.Rejection)
	assert.Equal(t, []string{"destinatario irraggiungibile"}, res.Rejection.Unclassified)
}

func TestApplyNotification_MancataConsegnaXMLSinLineasCrudas(t *testing.T) {
	h := newHarness(t, testConfig())
	h.svc.SetParser(sdiinfra.NewNotificationParser())
	inv := h.sent(t, "sale-1")

	res, err := h.notify(t, inv, "MC", `<NotificaMancataConsegna>
  <IdentificativoSdI>111</IdentificativoSdI>
  <Descrizione>Canale non raggiungibile</Descrizione>
</NotificaMancataConsegna>`)
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDeliveryFailed), res.Invoice.Status)
	assert.Equal(t, []string{"Canale non raggiungibile"}, res.Invoice.UnclassifiedErrors)
	require.NotNil(t, res.Rejection)
	assert.Equal(t, []string{"Canale non raggiungibile"}, res.Rejection.Unclassified)
}

func TestApplyNotification_EsitoCommittente(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	accepted := h.sent(t, "sale-1")
	refused := h.sent(t, "sale-2")

	res, err := h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "ne-1", TransmissionID: accepted.TransmissionID, Kind: "NE", Outcome: "EC01"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusAccepted), res.Invoice.Status)

	res, err = h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "ne-2", TransmissionID: refused.TransmissionID, Kind: "ne", Outcome: "ec02"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusRejected), res.Invoice.Status)

	_, err = h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "ne-3", TransmissionID: accepted.TransmissionID, Kind: "NE"})
	var unrecognized *einvoice.UnrecognizedNotificationError
	assert.ErrorAs(t, err, &unrecognized, "NE sin resultado no se infiere")
}

func TestApplyNotification_DecorrenzaTerminiYAtestacion(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	inv := h.sent(t, "sale-1")
	res, err := h.notify(t, inv, "DT", "")
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDelivered), res.Invoice.Status)
	assert.NotNil(t, res.Invoice.AcceptedAt)

	// AT sobre un intento ya SENT no tiene efecto.
	other := h.sent(t, "sale-2")
	res, err = h.notify(t, other, "AT", "")
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Equal(t, string(entity.StatusSent), res.Invoice.Status)

	prior, err := h.store.Inbox().Get(ctx, fmt.Sprintf("AT-%s-%d", other.TransmissionID, notificationSeq))
	require.NoError(t, err)
	assert.NotNil(t, prior, "el no-op también queda registrado")
}

func TestApplyNotification_ErroresDeEntrada(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	inv := h.sent(t, "sale-1")

	_, err := h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "x", TransmissionID: inv.TransmissionID, Kind: "ZZ"})
	var unrecognized *einvoice.UnrecognizedNotificationError
	assert.ErrorAs(t, err, &unrecognized)

	_, err = h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "", TransmissionID: inv.TransmissionID, Kind: "RC"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.svc.ApplyNotification(ctx, dto.InboundNotificationRequest{NotificationID: "y", TransmissionID: "desconocida", Kind: "RC"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyNotification_ConcurrentesSobreElMismoIntento(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.sent(t, "sale-1")
	before := h.eventCount(t, inv.ID)

	const workers = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		duplicates int
		errs       []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.svc.ApplyNotification(context.Background(), dto.InboundNotificationRequest{
				NotificationID: "rc-redelivered",
				TransmissionID: inv.TransmissionID,
				Kind:           "RC",
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Duplicate {
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, workers-1, duplicates)
	assert.Equal(t, before+2, h.eventCount(t, inv.ID))

	require.NoError(t, h.svc.Reconcile(context.Background(), inv.ID))
}

func TestApplyNotification_IntentosDistintosEnParalelo(t *testing.T) {
	h := newHarness(t, testConfig())
	var invs []*dto.EInvoiceResponse
	for i := 0; i < 8; i++ {
		invs = append(invs, h.sent(t, fmt.Sprintf("sale-%d", i)))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(invs))
	for i, inv := range invs {
		wg.Add(1)
		go func(i int, inv *dto.EInvoiceResponse) {
			defer wg.Done()
			_, errs[i] = h.svc.ApplyNotification(context.Background(), dto.InboundNotificationRequest{
				NotificationID: "rc-" + inv.ID,
				TransmissionID: inv.TransmissionID,
				Kind:           "RC",
			})
		}(i, inv)
	}
	wg.Wait()

	for i, inv := range invs {
		require.NoError(t, errs[i])
		got, err := h.svc.GetInvoice(context.Background(), testTenant, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, string(entity.StatusDelivered), got.Status)
	}
}
