package einvoicing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// Cancel anula localmente un intento. Sólo es legal antes de SENT; después el
// resultado lo decide la autoridad y la máquina de estados devuelve InvalidTransitionError.
func (s *TransmissionService) Cancel(ctx context.Context, tenantID, invoiceID string) (*dto.EInvoiceResponse, error) {
	if _, err := s.load(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	inv, _, err := s.mutate(ctx, invoiceID, func(ctx context.Context, sc *scope, cur *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
		return sc.transition(ctx, cur, entity.StatusCancelled, einvoice.Cause{Trigger: einvoice.TriggerCancel})
	})
	if err != nil {
		return nil, err
	}
	out := toEInvoiceResponse(inv)
	return &out, nil
}

// ForceResend reenvío pedido por el operador. La acción del operador es la
// confirmación explícita; OverrideAutoFix omite las correcciones automáticas.
func (s *TransmissionService) ForceResend(ctx context.Context, tenantID, invoiceID string, in dto.ForceResendRequest) (*dto.ResendResponse, error) {
	inv, err := s.load(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	res, err := s.resendLocked(ctx, inv, einvoice.ResendRequest{
		Confirmed:   true,
		SkipAutoFix: in.OverrideAutoFix,
		Document:    toDocument(in.Document),
	})
	if err != nil {
		return nil, err
	}
	out := &dto.ResendResponse{
		PreviousAttemptID: inv.ID,
		Attempt:           toEInvoiceResponse(res.Attempt),
		AutoFixed:         res.AutoFixed,
	}
	for _, f := range res.Fixes {
		out.Fixes = append(out.Fixes, dto.AppliedFixResponse{Code: f.Code, Detail: f.Detail})
	}
	return out, nil
}

// resendLocked crea el siguiente intento bajo el lock de la venta (orden: venta → intento).
func (s *TransmissionService) resendLocked(ctx context.Context, inv *entity.ElectronicInvoice, req einvoice.ResendRequest) (*einvoice.ResendResult, error) {
	unlock, err := s.locker.Lock(ctx, saleLockKey(inv.TenantID, inv.SaleID))
	if err != nil {
		return nil, fmt.Errorf("lock venta %s: %w", inv.SaleID, err)
	}
	defer unlock()

	var result *einvoice.ResendResult
	_, _, err = s.mutate(ctx, inv.ID, func(ctx context.Context, sc *scope, cur *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
		latest, err := sc.invoices.GetLatestBySale(ctx, cur.TenantID, cur.SaleID)
		if err != nil {
			return nil, fmt.Errorf("obtener intento vigente: %w", err)
		}
		if latest != nil && latest.ID != cur.ID {
			return nil, fmt.Errorf("%w: vigente %s", domain.ErrAttemptSuperseded, latest.ID)
		}
		res, err := s.policy.PrepareResend(cur, req)
		if err != nil {
			return nil, err
		}
		if err := sc.create(ctx, res.Attempt, res.Event); err != nil {
			return nil, err
		}
		result = res
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ResendCreated(result.AutoFixed)
	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("next_attempt_id", result.Attempt.ID).
		Int("attempt_index", result.Attempt.AttemptIndex).
		Bool("auto_fixed", result.AutoFixed).
		Int("fixes", len(result.Fixes)).
		Msg("reenvío creado")
	return result, nil
}
