package einvoice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newMachine() *einvoice.StateMachine {
	return einvoice.NewStateMachine(func() time.Time { return fixedNow })
}

// legalEdges tabla esperada, escrita a mano para detectar cambios accidentales.
var legalEdges = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.StatusDraft:     {entity.StatusGenerated, entity.StatusCancelled},
	entity.StatusGenerated: {entity.StatusToSend, entity.StatusCancelled},
	entity.StatusToSend:    {entity.StatusSending, entity.StatusCancelled},
	entity.StatusSending:   {entity.StatusSent, entity.StatusToSend, entity.StatusCancelled},
	entity.StatusSent:      {entity.StatusAccepted, entity.StatusRejected},
	entity.StatusAccepted:  {entity.StatusDelivered, entity.StatusDeliveryFailed},
}

func isLegal(from, to entity.InvoiceStatus) bool {
	for _, t := range legalEdges[from] {
		if t == to {
			return true
		}
	}
	return false
}

func invoiceIn(status entity.InvoiceStatus) *entity.ElectronicInvoice {
	return &entity.ElectronicInvoice{
		ID:             "inv-1",
		TenantID:       "gym-1",
		SaleID:         "sale-1",
		TransmissionID: "tx-1",
		AttemptIndex:   1,
		Status:         status,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestStateMachine_TodoEstadoTieneEntrada(t *testing.T) {
	for _, st := range entity.AllStatuses {
		_, err := einvoice.ParseStatus(string(st))
		assert.NoError(t, err, "estado %s sin entrada en la tabla", st)
	}
	_, err := einvoice.ParseStatus("PAID")
	assert.Error(t, err)
}

func TestStateMachine_AristasIlegalesNoCambianEstado(t *testing.T) {
	m := newMachine()
	for _, from := range entity.AllStatuses {
		for _, to := range entity.AllStatuses {
			if isLegal(from, to) {
				continue
			}
			inv := invoiceIn(from)
			out, ev, err := m.Apply(inv, to, einvoice.Cause{Trigger: "test"})

			var invalid *einvoice.InvalidTransitionError
			require.True(t, errors.As(err, &invalid), "%s → %s debía fallar", from, to)
			assert.Equal(t, from, invalid.From)
			assert.Equal(t, to, invalid.To)
			assert.Nil(t, out)
			assert.Nil(t, ev)
			assert.Equal(t, from, inv.Status, "el intento no debe cambiar")
		}
	}
}

func TestStateMachine_AristasLegales(t *testing.T) {
	m := newMachine()
	for from, targets := range legalEdges {
		for _, to := range targets {
			inv := invoiceIn(from)
			out, ev, err := m.Apply(inv, to, einvoice.Cause{Trigger: "test"})
			require.NoError(t, err, "%s → %s", from, to)
			assert.Equal(t, to, out.Status)
			assert.Equal(t, from, ev.FromStatus)
			assert.Equal(t, to, ev.ToStatus)
			assert.Equal(t, from, inv.Status, "Apply no muta la entrada")
		}
	}
}

func TestIsFinal_SoloTerminales(t *testing.T) {
	final := map[entity.InvoiceStatus]bool{
		entity.StatusDelivered:      true,
		entity.StatusRejected:       true,
		entity.StatusDeliveryFailed: true,
		entity.StatusCancelled:      true,
	}
	for _, st := range entity.AllStatuses {
		assert.Equal(t, final[st], einvoice.IsFinal(st), st)
		if final[st] {
			assert.Empty(t, einvoice.LegalTargets(st))
		}
	}
}

func TestCanResend_SoloRechazadaOEntregaFallida(t *testing.T) {
	for _, st := range entity.AllStatuses {
		want := st == entity.StatusRejected || st == entity.StatusDeliveryFailed
		assert.Equal(t, want, einvoice.CanResend(st), st)
	}
	assert.False(t, einvoice.CanResend(entity.StatusDelivered))
	assert.False(t, einvoice.CanResend(entity.StatusCancelled))
}

// ──────────────────────────────────────────────────────────────────────────────
// Efectos de las transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestStateMachine_ContadorSoloAlEntrarEnSending(t *testing.T) {
	m := newMachine()
	inv := invoiceIn(entity.StatusDraft)
	steps := []entity.InvoiceStatus{
		entity.StatusGenerated, entity.StatusToSend, entity.StatusSending,
		entity.StatusToSend, entity.StatusSending, entity.StatusSent,
		entity.StatusAccepted, entity.StatusDelivered,
	}
	var err error
	for _, st := range steps {
		inv, _, err = m.Apply(inv, st, einvoice.Cause{Trigger: "test"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inv.SendAttempts)
	require.NotNil(t, inv.LastSentAt)
	require.NotNil(t, inv.AcceptedAt)
	assert.Equal(t, fixedNow, *inv.AcceptedAt)
}

func TestStateMachine_CancelarDespuesDeEnviadaEsIlegal(t *testing.T) {
	m := newMachine()
	for _, st := range []entity.InvoiceStatus{entity.StatusSent, entity.StatusAccepted, entity.StatusDelivered} {
		_, _, err := m.Apply(invoiceIn(st), entity.StatusCancelled, einvoice.Cause{Trigger: einvoice.TriggerCancel})
		var invalid *einvoice.InvalidTransitionError
		assert.True(t, errors.As(err, &invalid), st)
	}
	for _, st := range []entity.InvoiceStatus{entity.StatusDraft, entity.StatusGenerated, entity.StatusToSend, entity.StatusSending} {
		_, _, err := m.Apply(invoiceIn(st), entity.StatusCancelled, einvoice.Cause{Trigger: einvoice.TriggerCancel})
		assert.NoError(t, err, st)
	}
}

func TestStateMachine_AcumulaCodigosSinDuplicar(t *testing.T) {
	m := newMachine()
	inv := invoiceIn(entity.StatusSent)
	inv.ErrorCodes = []string{"00303"}
	out, ev, err := m.Apply(inv, entity.StatusRejected, einvoice.Cause{
		Trigger:       einvoice.TriggerNotification,
		ErrorCodes:    []string{"00303", "00421"},
		SDIIdentifier: "111222333",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"00303", "00421"}, out.ErrorCodes)
	assert.Equal(t, []string{"00303", "00421"}, ev.ErrorCodes)
	assert.Equal(t, "111222333", out.SDIIdentifier)
	assert.Equal(t, []string{"00303"}, inv.ErrorCodes)
}

func TestStateMachine_TransitionRegistraEnLedger(t *testing.T) {
	ctx := context.Background()
	m := newMachine()
	ledger := einvoice.NewLedger(memory.NewStore().Events())

	inv, created := m.Create(invoiceIn(""), einvoice.Cause{Trigger: einvoice.TriggerCreate})
	require.NoError(t, ledger.Record(ctx, created))
	assert.Equal(t, entity.StatusDraft, inv.Status)

	inv, err := m.Transition(ctx, ledger, inv, entity.StatusGenerated, einvoice.Cause{Trigger: einvoice.TriggerGenerate})
	require.NoError(t, err)

	status, err := ledger.CurrentStatus(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Status, status)

	_, err = m.Transition(ctx, ledger, inv, entity.StatusDelivered, einvoice.Cause{Trigger: "test"})
	var invalid *einvoice.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))

	history, err := ledger.History(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2, "una transición inválida no agrega eventos")
}
