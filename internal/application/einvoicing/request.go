package einvoicing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// RequestInvoice disparador de facturación {saleId, documentRef}.
//
//   - Sin intentos (o tras uno CANCELLED): crea el intento en DRAFT.
//   - Con un intento en DRAFT (p. ej. un reenvío esperando el XML regenerado): lo avanza.
//   - Con documentRef: DRAFT → GENERATED → TO_SEND en la misma transacción.
//
// Otro intento activo devuelve domain.ErrActiveAttemptExists; un intento fallido se
// continúa con reenvío, no con un disparo nuevo.
func (s *TransmissionService) RequestInvoice(ctx context.Context, tenantID string, in dto.RequestEInvoiceRequest) (*dto.EInvoiceResponse, error) {
	saleID := strings.TrimSpace(in.SaleID)
	if tenantID == "" || saleID == "" || in.GrandTotal.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	docRef := strings.TrimSpace(in.DocumentRef)

	unlock, err := s.locker.Lock(ctx, saleLockKey(tenantID, saleID))
	if err != nil {
		return nil, fmt.Errorf("lock venta %s: %w", saleID, err)
	}
	defer unlock()

	latest, err := s.invoiceRepo.GetLatestBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("obtener intento vigente: %w", err)
	}

	switch {
	case latest == nil, latest.Status == entity.StatusCancelled:
		inv, err := s.createAttempt(ctx, tenantID, saleID, latest, in, docRef)
		if err != nil {
			return nil, err
		}
		out := toEInvoiceResponse(inv)
		return &out, nil

	case latest.Status == entity.StatusDraft:
		if docRef == "" {
			out := toEInvoiceResponse(latest)
			return &out, nil
		}
		inv, _, err := s.mutate(ctx, latest.ID, func(ctx context.Context, sc *scope, cur *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
			return s.advance(ctx, sc, cur, docRef)
		})
		if err != nil {
			return nil, err
		}
		out := toEInvoiceResponse(inv)
		return &out, nil

	case !einvoice.IsFinal(latest.Status):
		return nil, fmt.Errorf("%w: intento %s en %s", domain.ErrActiveAttemptExists, latest.ID, latest.Status)

	case einvoice.CanResend(latest.Status):
		return nil, fmt.Errorf("%w: el intento %s terminó en %s, usar reenvío", domain.ErrConflict, latest.ID, latest.Status)

	default:
		return nil, fmt.Errorf("%w: la venta ya tiene factura en %s", domain.ErrConflict, latest.Status)
	}
}

func (s *TransmissionService) createAttempt(ctx context.Context, tenantID, saleID string, previous *entity.ElectronicInvoice, in dto.RequestEInvoiceRequest, docRef string) (*entity.ElectronicInvoice, error) {
	draft := &entity.ElectronicInvoice{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		SaleID:         saleID,
		TransmissionID: uuid.NewString(),
		AttemptIndex:   1,
		GrandTotal:     in.GrandTotal,
	}
	if doc := toDocument(in.Document); doc != nil {
		draft.Document = *doc
	}
	if previous != nil {
		draft.PreviousAttemptID = previous.ID
		draft.AttemptIndex = previous.AttemptIndex + 1
		draft.ResendCount = previous.ResendCount
	}

	var result *entity.ElectronicInvoice
	changes, err := s.runScoped(ctx, func(ctx context.Context, sc *scope) error {
		inv, ev := s.machine.Create(draft, einvoice.Cause{Trigger: einvoice.TriggerCreate})
		if err := sc.create(ctx, inv, ev); err != nil {
			return err
		}
		if docRef == "" {
			result = inv
			return nil
		}
		out, err := s.advance(ctx, sc, inv, docRef)
		if err != nil {
			return err
		}
		if err := sc.invoices.Update(ctx, out); err != nil {
			return fmt.Errorf("actualizar intento: %w", err)
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, changes)
	return result, nil
}

// advance DRAFT → GENERATED → TO_SEND con la referencia al XML generado externamente.
func (s *TransmissionService) advance(ctx context.Context, sc *scope, inv *entity.ElectronicInvoice, docRef string) (*entity.ElectronicInvoice, error) {
	next := inv.Clone()
	next.DocumentRef = docRef
	generated, err := sc.transition(ctx, next, entity.StatusGenerated, einvoice.Cause{Trigger: einvoice.TriggerGenerate, RawPayload: docRef})
	if err != nil {
		return nil, err
	}
	return sc.transition(ctx, generated, entity.StatusToSend, einvoice.Cause{Trigger: einvoice.TriggerEnqueue})
}
