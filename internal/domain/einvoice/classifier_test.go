package einvoice_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

func TestClassify_CaminosPorTipo(t *testing.T) {
	c := einvoice.NewClassifier(sdi.DefaultRegistry())
	cases := []struct {
		name string
		n    einvoice.Notification
		want []entity.InvoiceStatus
	}{
		{"RC", einvoice.Notification{ID: "n1", Kind: einvoice.KindRC}, []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDelivered}},
		{"DT", einvoice.Notification{ID: "n2", Kind: einvoice.KindDT}, []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDelivered}},
		{"MC", einvoice.Notification{ID: "n3", Kind: einvoice.KindMC}, []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDeliveryFailed}},
		{"NS", einvoice.Notification{ID: "n4", Kind: einvoice.KindNS}, []entity.InvoiceStatus{entity.StatusRejected}},
		{"AT", einvoice.Notification{ID: "n5", Kind: einvoice.KindAT}, []entity.InvoiceStatus{entity.StatusSent}},
		{"NE EC01", einvoice.Notification{ID: "n6", Kind: einvoice.KindNE, Outcome: einvoice.OutcomeAccepted}, []entity.InvoiceStatus{entity.StatusAccepted}},
		{"NE EC02", einvoice.Notification{ID: "n7", Kind: einvoice.KindNE, Outcome: "ec02"}, []entity.InvoiceStatus{entity.StatusRejected}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Classify(tc.n)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Path)
		})
	}
}

func TestClassify_NSExtraeCodigos(t *testing.T) {
	c := einvoice.NewClassifier(nil)
	got, err := c.Classify(einvoice.Notification{
		ID:        "n1",
		Kind:      einvoice.KindNS,
		ErrorText: []string{"00303 - IdCodice non valido", "00421 - Imposta non calcolata", "errore generico"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"00303", "00421"}, got.CodeList())
	assert.Equal(t, []string{"errore generico"}, got.Unclassified)
	assert.True(t, got.Negative())
}

func TestClassify_XMLInterpretadoNoSeRecorreComoTexto(t *testing.T) {
	c := einvoice.NewClassifier(nil)
	got, err := c.Classify(einvoice.Notification{
		ID:            "n1",
		Kind:          einvoice.KindMC,
		RawMessage:    "<NotificaMancataConsegna>\n<IdentificativoSdI>111</IdentificativoSdI>\n</NotificaMancataConsegna>",
		PayloadDigest: "abc",
	})
	require.NoError(t, err)
	assert.Empty(t, got.Codes)
	assert.Empty(t, got.Unclassified)
}

func TestClassify_NESinEsitoNoSeInfiere(t *testing.T) {
	c := einvoice.NewClassifier(nil)
	for _, outcome := range []einvoice.RecipientOutcome{"", "EC03", "rifiutata"} {
		_, err := c.Classify(einvoice.Notification{ID: "n1", Kind: einvoice.KindNE, Outcome: outcome, RawMessage: "rifiutata"})
		var unrec *einvoice.UnrecognizedNotificationError
		assert.True(t, errors.As(err, &unrec), "outcome %q", outcome)
	}
}

func TestClassify_TipoDesconocido(t *testing.T) {
	c := einvoice.NewClassifier(nil)
	_, err := c.Classify(einvoice.Notification{ID: "n1", Kind: "XX"})
	var unrec *einvoice.UnrecognizedNotificationError
	require.True(t, errors.As(err, &unrec))
	assert.Equal(t, "n1", unrec.NotificationID)

	_, err = einvoice.ParseNotificationKind("n2", "zz")
	assert.True(t, errors.As(err, &unrec))

	k, err := einvoice.ParseNotificationKind("n3", " rc ")
	require.NoError(t, err)
	assert.Equal(t, einvoice.KindRC, k)
}

func TestPlan_OmitePasosYaAlcanzados(t *testing.T) {
	rc := []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDelivered}

	assert.Equal(t, rc, einvoice.Plan(entity.StatusSent, rc))
	assert.Equal(t, []entity.InvoiceStatus{entity.StatusDelivered}, einvoice.Plan(entity.StatusAccepted, rc))
	assert.Empty(t, einvoice.Plan(entity.StatusDelivered, rc))
	assert.Empty(t, einvoice.Plan(entity.StatusSent, []entity.InvoiceStatus{entity.StatusSent}))
}

// Una RC sobre un intento en DRAFT no tiene arista DRAFT → ACCEPTED/DELIVERED.
func TestClassify_RCSobreDraftEsTransicionInvalida(t *testing.T) {
	c := einvoice.NewClassifier(nil)
	m := newMachine()

	cls, err := c.Classify(einvoice.Notification{ID: "n1", Kind: einvoice.KindRC})
	require.NoError(t, err)

	inv := invoiceIn(entity.StatusDraft)
	steps := einvoice.Plan(inv.Status, cls.Path)
	require.NotEmpty(t, steps)

	_, _, err = m.Apply(inv, steps[0], einvoice.Cause{Trigger: einvoice.TriggerNotification})
	var invalid *einvoice.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, entity.StatusDraft, inv.Status)
}
