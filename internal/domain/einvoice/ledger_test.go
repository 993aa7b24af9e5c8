package einvoice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/infrastructure/memory"
)

func chainEvent(from, to entity.InvoiceStatus) *entity.TransmissionEvent {
	return &entity.TransmissionEvent{InvoiceID: "inv-1", FromStatus: from, ToStatus: to}
}

func TestFold_CadenaValida(t *testing.T) {
	got, err := einvoice.Fold([]*entity.TransmissionEvent{
		chainEvent("", entity.StatusDraft),
		chainEvent(entity.StatusDraft, entity.StatusGenerated),
		chainEvent(entity.StatusGenerated, entity.StatusToSend),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusToSend, got)
}

func TestFold_CadenasRotas(t *testing.T) {
	cases := map[string][]*entity.TransmissionEvent{
		"vacía":            nil,
		"no nace en DRAFT": {chainEvent("", entity.StatusSent)},
		"hueco":            {chainEvent("", entity.StatusDraft), chainEvent(entity.StatusGenerated, entity.StatusToSend)},
		"arista ilegal":    {chainEvent("", entity.StatusDraft), chainEvent(entity.StatusDraft, entity.StatusDelivered)},
	}
	for name, events := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := einvoice.Fold(events)
			assert.Error(t, err)
		})
	}
}

func TestLedger_RecordAsignaSecuencia(t *testing.T) {
	ctx := context.Background()
	ledger := einvoice.NewLedger(memory.NewStore().Events())

	first := chainEvent("", entity.StatusDraft)
	second := chainEvent(entity.StatusDraft, entity.StatusGenerated)
	require.NoError(t, ledger.Record(ctx, first))
	require.NoError(t, ledger.Record(ctx, second))
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	// Un evento que no continúa la cadena es una divergencia.
	err := ledger.Record(ctx, chainEvent(entity.StatusSent, entity.StatusAccepted))
	var div *einvoice.ReconciliationDivergenceError
	require.True(t, errors.As(err, &div))
	assert.Equal(t, entity.StatusGenerated, div.Folded)

	history, err := ledger.History(ctx, "inv-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestLedger_ReconcileDetectaDivergencia(t *testing.T) {
	ctx := context.Background()
	ledger := einvoice.NewLedger(memory.NewStore().Events())
	require.NoError(t, ledger.Record(ctx, chainEvent("", entity.StatusDraft)))
	require.NoError(t, ledger.Record(ctx, chainEvent(entity.StatusDraft, entity.StatusGenerated)))

	inv := invoiceIn(entity.StatusGenerated)
	assert.NoError(t, ledger.Reconcile(ctx, inv))

	// Escritura que esquivó la máquina de estados.
	inv.Status = entity.StatusSent
	err := ledger.Reconcile(ctx, inv)
	var div *einvoice.ReconciliationDivergenceError
	require.True(t, errors.As(err, &div))
	assert.Equal(t, entity.StatusSent, div.Cached)
	assert.Equal(t, entity.StatusGenerated, div.Folded)
}

func TestLedger_ReconcileSinEventos(t *testing.T) {
	ledger := einvoice.NewLedger(memory.NewStore().Events())
	err := ledger.Reconcile(context.Background(), invoiceIn(entity.StatusDraft))
	var div *einvoice.ReconciliationDivergenceError
	assert.True(t, errors.As(err, &div))
}
