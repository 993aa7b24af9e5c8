package einvoicing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

func TestRequestInvoice_SinDocumentoQuedaEnDraft(t *testing.T) {
	h := newHarness(t, testConfig())

	out, err := h.svc.RequestInvoice(context.Background(), testTenant, saleRequest("sale-1", ""))
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusDraft), out.Status)
	assert.Equal(t, 1, out.AttemptIndex)
	assert.NotEmpty(t, out.TransmissionID)
	assert.Equal(t, 1, h.eventCount(t, out.ID))
	assert.Equal(t, []string{"DRAFT"}, h.publisher.ToStatuses())
}

func TestRequestInvoice_ConDocumentoAvanzaHastaToSend(t *testing.T) {
	h := newHarness(t, testConfig())

	out := h.queued(t, "sale-1")
	assert.Equal(t, "xml/sale-1.xml", out.DocumentRef)
	assert.Equal(t, 3, h.eventCount(t, out.ID))
	assert.Equal(t, []string{"DRAFT", "GENERATED", "TO_SEND"}, h.publisher.ToStatuses())
}

func TestRequestInvoice_DraftExistenteSeAvanza(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	draft, err := h.svc.RequestInvoice(ctx, testTenant, saleRequest("sale-1", ""))
	require.NoError(t, err)

	again, err := h.svc.RequestInvoice(ctx, testTenant, saleRequest("sale-1", ""))
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID, "sin documento devuelve el mismo DRAFT")

	advanced, err := h.svc.RequestInvoice(ctx, testTenant, saleRequest("sale-1", "xml/tardio.xml"))
	require.NoError(t, err)
	assert.Equal(t, draft.ID, advanced.ID)
	assert.Equal(t, string(entity.StatusToSend), advanced.Status)
}

func TestRequestInvoice_IntentoActivoExistente(t *testing.T) {
	h := newHarness(t, testConfig())
	h.queued(t, "sale-1")

	_, err := h.svc.RequestInvoice(context.Background(), testTenant, saleRequest("sale-1", "xml/otro.xml"))
	assert.ErrorIs(t, err, domain.ErrActiveAttemptExists)
}

func TestRequestInvoice_EntradaInvalida(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	_, err := h.svc.RequestInvoice(ctx, testTenant, dto.RequestEInvoiceRequest{SaleID: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = h.svc.RequestInvoice(ctx, "", saleRequest("sale-1", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	neg := saleRequest("sale-1", "")
	neg.GrandTotal = decimal.NewFromInt(-1)
	_, err = h.svc.RequestInvoice(ctx, testTenant, neg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequestInvoice_TrasCancelacionCreaNuevoIntento(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	first := h.queued(t, "sale-1")

	_, err := h.svc.Cancel(ctx, testTenant, first.ID)
	require.NoError(t, err)

	second, err := h.svc.RequestInvoice(ctx, testTenant, saleRequest("sale-1", "xml/v2.xml"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.TransmissionID, second.TransmissionID)
	assert.Equal(t, 2, second.AttemptIndex)
	assert.Equal(t, first.ID, second.PreviousAttemptID)

	chain, err := h.svc.ListAttempts(ctx, testTenant, "sale-1")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, string(entity.StatusCancelled), chain[0].Status)
	assert.Equal(t, string(entity.StatusToSend), chain[1].Status)
}

func TestGetInvoice_OtroTenantEsForbidden(t *testing.T) {
	h := newHarness(t, testConfig())
	inv := h.queued(t, "sale-1")

	_, err := h.svc.GetInvoice(context.Background(), "otro-gym", inv.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.GetInvoice(context.Background(), testTenant, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
