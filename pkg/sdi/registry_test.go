package sdi_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/pkg/sdi"
)

// ──────────────────────────────────────────────────────────────────────────────
// ParseFromMessage
// ──────────────────────────────────────────────────────────────────────────────

func TestParseFromMessage_CodigoConocido(t *testing.T) {
	reg := sdi.DefaultRegistry()

	ec, ok := reg.ParseFromMessage("00433 - importi non coerenti")
	require.True(t, ok)
	assert.Equal(t, "00433", ec.Code)
	assert.Equal(t, sdi.SeverityHigh, ec.Severity)
	assert.NotEmpty(t, ec.Suggestion)
}

func TestParseFromMessage_TextoSinCodigo(t *testing.T) {
	_, ok := sdi.DefaultRegistry().ParseFromMessage("garbage text")
	assert.False(t, ok)
}

func TestParseFromMessage_EntradasLimite(t *testing.T) {
	reg := sdi.DefaultRegistry()
	cases := []struct {
		name string
		in   string
		want string // "" = sin resultado
	}{
		{"vacío", "", ""},
		{"solo espacios", "   ", ""},
		{"espacios iniciales", "   00428 CAP errato", "00428"},
		{"seis dígitos", "004330 importi", ""},
		{"cuatro dígitos", "0043 importi", ""},
		{"código no catalogado", "99999 errore sconosciuto", ""},
		{"código al final", "errore 00433", ""},
		{"código seguido de guion", "00421-imposta", "00421"},
		{"código solo", "00404", "00404"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ec, ok := reg.ParseFromMessage(tc.in)
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.want, ec.Code)
		})
	}
}

func TestParseAll_SeparaSegmentosYConservaNoClasificados(t *testing.T) {
	codes, unclassified := sdi.DefaultRegistry().ParseAll(
		"00303 - IdCodice non valido\n00421 - imposta errata; testo libero | 00303 ripetuto")

	require.Len(t, codes, 2)
	assert.Equal(t, "00303", codes[0].Code)
	assert.Equal(t, "00421", codes[1].Code)
	assert.Equal(t, []string{"testo libero"}, unclassified)
}

func TestParseAll_VariosCodigosEnUnSegmento(t *testing.T) {
	reg := sdi.DefaultRegistry()
	cases := []struct {
		name         string
		in           string
		codes        []string
		unclassified []string
	}{
		{"corregible seguido de no corregible", "00428 - CAP non valido, 00421 - Imposta non calcolata", []string{"00428", "00421"}, nil},
		{"lista separada por comas", "00428, 00429", []string{"00428", "00429"}, nil},
		{"código desconocido con forma de código", "00428 - CAP non valido, 99999 - errore ignoto", []string{"00428"}, []string{"99999 - errore ignoto"}},
		{"número dentro de la descripción", "00428 - CAP 2010 errato, atteso 20100 numerico", []string{"00428"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			codes, unclassified := reg.ParseAll(tc.in)
			got := make([]string, 0, len(codes))
			for _, ec := range codes {
				got = append(got, ec.Code)
			}
			assert.Equal(t, tc.codes, got)
			assert.Equal(t, tc.unclassified, unclassified)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalogo_CodigosDeCincoDigitos(t *testing.T) {
	reg := sdi.NewRegistry()
	fiveDigits := regexp.MustCompile(`^\d{5}$`)

	assert.GreaterOrEqual(t, reg.Len(), 60)
	for _, ec := range reg.All() {
		assert.Regexp(t, fiveDigits, ec.Code)
		assert.NotEmpty(t, ec.Description, "código %s sin descripción", ec.Code)
		assert.NotEmpty(t, ec.Suggestion, "código %s sin sugerencia", ec.Code)
	}
}

func TestCatalogo_ListaBlancaAutoFix(t *testing.T) {
	var fixable []string
	for _, ec := range sdi.DefaultRegistry().All() {
		if ec.AutoFixable {
			fixable = append(fixable, ec.Code)
		}
	}
	assert.ElementsMatch(t, []string{
		sdi.CodeVATNatureMissing,
		sdi.CodeTransmissionFormatInvalid,
		sdi.CodePostalCodeInvalid,
		sdi.CodeProvinceInvalid,
	}, fixable)
}

func TestAllAutoFixable(t *testing.T) {
	reg := sdi.DefaultRegistry()

	assert.True(t, reg.AllAutoFixable([]string{"00428"}))
	assert.True(t, reg.AllAutoFixable([]string{"00428", "00429"}))
	assert.False(t, reg.AllAutoFixable([]string{"00303", "00421"}))
	assert.False(t, reg.AllAutoFixable([]string{"00428", "00421"}))
	assert.False(t, reg.AllAutoFixable([]string{"99999"}), "un código desconocido nunca es corregible")
	assert.False(t, reg.AllAutoFixable(nil), "sin códigos no hay auto-corrección")
}

func TestAll_DevuelveCopia(t *testing.T) {
	reg := sdi.NewRegistry()
	all := reg.All()
	all[0].Description = "modificado"

	ec, ok := reg.Lookup(all[0].Code)
	require.True(t, ok)
	assert.NotEqual(t, "modificado", ec.Description)
}
