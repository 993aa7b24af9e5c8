package einvoice

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

// DefaultMaxResends tope de reenvíos si la configuración no indica otro.
const DefaultMaxResends = 3

// ResendDecision evaluación de un intento fallido.
type ResendDecision struct {
	Resendable           bool            `json:"resendable"`
	AutoFixable          bool            `json:"auto_fixable"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
	Codes                []sdi.ErrorCode `json:"codes"`
	UnknownCodes         []string        `json:"unknown_codes,omitempty"`
	Unclassified         []string        `json:"unclassified,omitempty"`
	Resends              int             `json:"resends"`
	MaxResends           int             `json:"max_resends"`
}

// ResendRequest opciones del reenvío.
// Confirmed: el operador confirmó el reenvío (obligatorio si algún código no es auto-corregible).
// SkipAutoFix: no aplicar correcciones automáticas (el operador ya corrigió el documento).
type ResendRequest struct {
	Confirmed   bool
	SkipAutoFix bool
	Document    *entity.DocumentFields // documento corregido por el operador (opcional)
}

// ResendResult intento nuevo en DRAFT y el evento de creación.
type ResendResult struct {
	Attempt   *entity.ElectronicInvoice
	Event     *entity.TransmissionEvent
	Fixes     []AppliedFix
	AutoFixed bool // true si se reenvió sin confirmación humana
}

// ResendPolicy decide si y cómo un intento REJECTED/DELIVERY_FAILED puede reenviarse.
type ResendPolicy struct {
	maxResends int
	registry   *sdi.Registry
	fixer      *AutoFixer
	machine    *StateMachine
	newID      func() string
}

// NewResendPolicy construye la política. maxResends <= 0 usa DefaultMaxResends.
func NewResendPolicy(maxResends int, registry *sdi.Registry, fixer *AutoFixer, machine *StateMachine) *ResendPolicy {
	if maxResends <= 0 {
		maxResends = DefaultMaxResends
	}
	if registry == nil {
		registry = sdi.DefaultRegistry()
	}
	if fixer == nil {
		fixer = NewAutoFixer(AutoFixDefaults{})
	}
	if machine == nil {
		machine = NewStateMachine(nil)
	}
	return &ResendPolicy{maxResends: maxResends, registry: registry, fixer: fixer, machine: machine, newID: uuid.NewString}
}

// MaxResends tope configurado.
func (p *ResendPolicy) MaxResends() int { return p.maxResends }

// CanResend delega en el estado actual del intento.
func (p *ResendPolicy) CanResend(inv *entity.ElectronicInvoice) bool {
	return CanResend(inv.Status)
}

// Evaluate describe qué hace falta para reenviar el intento.
// AutoFixable exige al menos un código, todos en la lista blanca, y ningún texto
// de error sin clasificar.
func (p *ResendPolicy) Evaluate(inv *entity.ElectronicInvoice) ResendDecision {
	known, unknown := p.registry.Resolve(inv.ErrorCodes)
	d := ResendDecision{
		Resendable:   p.CanResend(inv),
		Codes:        known,
		UnknownCodes: unknown,
		Unclassified: append([]string(nil), inv.UnclassifiedErrors...),
		Resends:      resendsSoFar(inv),
		MaxResends:   p.maxResends,
	}
	d.AutoFixable = d.Resendable &&
		len(unknown) == 0 &&
		len(inv.UnclassifiedErrors) == 0 &&
		p.registry.AllAutoFixable(inv.ErrorCodes)
	d.RequiresConfirmation = d.Resendable && !d.AutoFixable
	return d
}

// PrepareResend crea el siguiente intento (DRAFT, nuevo TransmissionID, AttemptIndex+1)
// enlazado a la venta y al intento anterior, que no se modifica.
//
// Si todos los códigos son auto-corregibles se corrigen y no hace falta confirmación.
// En otro caso devuelve domain.ErrResendConfirmationRequired salvo que req.Confirmed.
func (p *ResendPolicy) PrepareResend(inv *entity.ElectronicInvoice, req ResendRequest) (*ResendResult, error) {
	if !p.CanResend(inv) {
		return nil, fmt.Errorf("%w: intento %s en %s", domain.ErrNotResendable, inv.ID, inv.Status)
	}
	if n := resendsSoFar(inv); n >= p.maxResends {
		return nil, &RetryExhaustedError{InvoiceID: inv.ID, SaleID: inv.SaleID, Resends: n, Max: p.maxResends}
	}

	decision := p.Evaluate(inv)
	doc := inv.Document
	if req.Document != nil {
		doc = *req.Document
	}

	var (
		fixes     []AppliedFix
		autoFixed bool
		err       error
	)
	switch {
	case decision.AutoFixable && !req.SkipAutoFix:
		doc, fixes, err = p.fixer.Apply(doc, inv.ErrorCodes)
		if err != nil {
			if !req.Confirmed {
				return nil, fmt.Errorf("%w: %v", domain.ErrResendConfirmationRequired, err)
			}
			fixes = nil
		} else {
			autoFixed = !req.Confirmed
		}
	case !req.Confirmed:
		return nil, domain.ErrResendConfirmationRequired
	case !req.SkipAutoFix:
		// Confirmado por el operador: se aplican las correcciones disponibles y el
		// resto queda a cargo del documento corregido.
		var fixable []string
		for _, c := range inv.ErrorCodes {
			if p.fixer.Supports(c) {
				fixable = append(fixable, c)
			}
		}
		if len(fixable) > 0 {
			if fixedDoc, applied, fixErr := p.fixer.Apply(doc, fixable); fixErr == nil {
				doc, fixes = fixedDoc, applied
			}
		}
	}

	next := &entity.ElectronicInvoice{
		ID:                p.newID(),
		TenantID:          inv.TenantID,
		SaleID:            inv.SaleID,
		PreviousAttemptID: inv.ID,
		TransmissionID:    p.newID(),
		AttemptIndex:      inv.AttemptIndex + 1,
		ResendCount:       inv.ResendCount + 1,
		GrandTotal:        inv.GrandTotal,
		Document:          doc.Clone(),
	}
	attempt, ev := p.machine.Create(next, Cause{
		Trigger:    TriggerResend,
		ErrorCodes: inv.ErrorCodes,
		RawPayload: describeResend(inv, fixes, autoFixed),
	})
	return &ResendResult{Attempt: attempt, Event: ev, Fixes: fixes, AutoFixed: autoFixed}, nil
}

// resendsSoFar cuenta sólo los intentos nacidos de un reenvío; los creados tras
// una cancelación heredan el contador sin incrementarlo.
func resendsSoFar(inv *entity.ElectronicInvoice) int {
	return inv.ResendCount
}

func describeResend(prev *entity.ElectronicInvoice, fixes []AppliedFix, autoFixed bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "reenvío del intento %s (#%d)", prev.ID, prev.AttemptIndex)
	if autoFixed {
		sb.WriteString(", auto-corregido")
	}
	for _, f := range fixes {
		fmt.Fprintf(&sb, "; %s: %s", f.Code, f.Detail)
	}
	return sb.String()
}
