package einvoice

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

// AutoFixDefaults valores fijos que usan las correcciones automáticas.
type AutoFixDefaults struct {
	TransmissionFormat string // FPR12 para clientes privados
	VATNature          string // Natura para líneas con IVA cero sin natura (p. ej. N2.2)
}

// AppliedFix corrección aplicada a un documento.
type AppliedFix struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

type fixFunc func(doc *entity.DocumentFields, d AutoFixDefaults) (string, error)

// AutoFixer correcciones deterministas para la lista blanca de códigos del catálogo.
type AutoFixer struct {
	defaults AutoFixDefaults
	fixes    map[string]fixFunc
}

// NewAutoFixer construye el corrector. Los valores vacíos toman FPR12 / N2.2.
func NewAutoFixer(defaults AutoFixDefaults) *AutoFixer {
	if defaults.TransmissionFormat == "" {
		defaults.TransmissionFormat = "FPR12"
	}
	if defaults.VATNature == "" {
		defaults.VATNature = "N2.2"
	}
	return &AutoFixer{
		defaults: defaults,
		fixes: map[string]fixFunc{
			sdi.CodeTransmissionFormatInvalid: fixTransmissionFormat,
			sdi.CodePostalCodeInvalid:         fixPostalCode,
			sdi.CodeProvinceInvalid:           fixProvince,
			sdi.CodeVATNatureMissing:          fixVATNature,
		},
	}
}

// Supports indica si hay corrección registrada para el código.
func (f *AutoFixer) Supports(code string) bool {
	_, ok := f.fixes[code]
	return ok
}

// Apply corrige una copia del documento para cada código. Falla si algún código no
// tiene corrección o si la corrección no es posible con los datos disponibles.
func (f *AutoFixer) Apply(doc entity.DocumentFields, codes []string) (entity.DocumentFields, []AppliedFix, error) {
	out := doc.Clone()
	applied := make([]AppliedFix, 0, len(codes))
	for _, code := range codes {
		fix, ok := f.fixes[code]
		if !ok {
			return doc, nil, fmt.Errorf("autofix: código %s no corregible automáticamente", code)
		}
		detail, err := fix(&out, f.defaults)
		if err != nil {
			return doc, nil, fmt.Errorf("autofix %s: %w", code, err)
		}
		applied = append(applied, AppliedFix{Code: code, Detail: detail})
	}
	return out, applied, nil
}

func fixTransmissionFormat(doc *entity.DocumentFields, d AutoFixDefaults) (string, error) {
	prev := doc.TransmissionFormat
	doc.TransmissionFormat = d.TransmissionFormat
	return fmt.Sprintf("FormatoTrasmissione %q → %q", prev, doc.TransmissionFormat), nil
}

// fixPostalCode deja sólo dígitos y rellena con ceros a la izquierda hasta 5.
func fixPostalCode(doc *entity.DocumentFields, _ AutoFixDefaults) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, doc.PostalCode)
	if digits == "" || len(digits) > 5 {
		return "", fmt.Errorf("CAP %q no normalizable", doc.PostalCode)
	}
	prev := doc.PostalCode
	doc.PostalCode = strings.Repeat("0", 5-len(digits)) + digits
	return fmt.Sprintf("CAP %q → %q", prev, doc.PostalCode), nil
}

func fixProvince(doc *entity.DocumentFields, _ AutoFixDefaults) (string, error) {
	p := strings.TrimSpace(doc.Province)
	if len([]rune(p)) != 2 {
		return "", fmt.Errorf("provincia %q no es una sigla de 2 letras", doc.Province)
	}
	prev := doc.Province
	doc.Province = cases.Upper(language.Italian).String(p)
	return fmt.Sprintf("Provincia %q → %q", prev, doc.Province), nil
}

func fixVATNature(doc *entity.DocumentFields, d AutoFixDefaults) (string, error) {
	var fixed []string
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if l.VATRate.IsZero() && strings.TrimSpace(l.Nature) == "" {
			l.Nature = d.VATNature
			fixed = append(fixed, fmt.Sprint(l.Number))
		}
	}
	if len(fixed) == 0 {
		return "", fmt.Errorf("ninguna línea con IVA cero sin natura")
	}
	return fmt.Sprintf("Natura %s en líneas %s", d.VATNature, strings.Join(fixed, ",")), nil
}
