package einvoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// Resultados de una notificación para métricas.
const (
	resultApplied           = "applied"
	resultNoop              = "noop"
	resultDuplicate         = "duplicate"
	resultUnrecognized      = "unrecognized"
	resultInvalidTransition = "invalid_transition"
	resultNotFound          = "not_found"
	resultHalted            = "halted"
)

// ApplyNotification aplica una notificación del SdI al intento de su transmissionId.
//
// La notificación se registra en el inbox dentro de la misma transacción que sus
// eventos: un ID repetido no produce eventos nuevos. Un tipo desconocido, una NE sin
// resultado reconocible o un salto ilegal de estado se devuelven como error sin tocar
// el intento (tampoco se marca la notificación como procesada).
func (s *TransmissionService) ApplyNotification(ctx context.Context, in dto.InboundNotificationRequest) (*dto.NotificationResultResponse, error) {
	in.NotificationID = strings.TrimSpace(in.NotificationID)
	in.TransmissionID = strings.TrimSpace(in.TransmissionID)
	if in.NotificationID == "" || in.TransmissionID == "" {
		return nil, domain.ErrInvalidInput
	}
	logger := s.log.With().Str("notification_id", in.NotificationID).Str("kind", in.Kind).Logger()

	kind, err := einvoice.ParseNotificationKind(in.NotificationID, in.Kind)
	if err != nil {
		s.metrics.NotificationHandled(in.Kind, resultUnrecognized)
		logger.Warn().Err(err).Msg("notificación no reconocida, requiere revisión manual")
		return nil, err
	}

	n, err := s.normalize(in, kind)
	if err != nil {
		s.metrics.NotificationHandled(string(kind), resultUnrecognized)
		logger.Warn().Err(err).Msg("notificación no reconocida, requiere revisión manual")
		return nil, err
	}

	duplicate := &dto.NotificationResultResponse{NotificationID: in.NotificationID, Duplicate: true, Applied: []dto.TransmissionEventResponse{}}
	prior, err := s.inboxRepo.Get(ctx, in.NotificationID)
	if err != nil {
		return nil, fmt.Errorf("consultar inbox: %w", err)
	}
	if prior != nil {
		s.metrics.NotificationHandled(string(kind), resultDuplicate)
		logger.Info().Msg("notificación duplicada ignorada")
		return duplicate, nil
	}

	inv, err := s.invoiceRepo.GetByTransmissionID(ctx, in.TransmissionID)
	if err != nil {
		return nil, fmt.Errorf("obtener intento por transmisión: %w", err)
	}
	if inv == nil {
		s.metrics.NotificationHandled(string(kind), resultNotFound)
		return nil, fmt.Errorf("%w: transmisión %s", domain.ErrNotFound, in.TransmissionID)
	}
	logger = logger.With().Str("invoice_id", inv.ID).Str("sale_id", inv.SaleID).Logger()

	cls, err := s.classifier.Classify(n)
	if err != nil {
		s.metrics.NotificationHandled(string(kind), resultUnrecognized)
		logger.Warn().Err(err).Msg("notificación no reconocida, requiere revisión manual")
		return nil, err
	}

	out, changes, err := s.mutate(ctx, inv.ID, func(ctx context.Context, sc *scope, cur *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error) {
		steps := einvoice.Plan(cur.Status, cls.Path)
		if err := sc.inbox.Register(ctx, &entity.ProcessedNotification{
			NotificationID: n.ID,
			InvoiceID:      cur.ID,
			Kind:           string(kind),
			EventCount:     len(steps),
			ReceivedAt:     s.now().UTC(),
		}); err != nil {
			return nil, err
		}
		for i, target := range steps {
			cause := einvoice.Cause{
				Trigger:          einvoice.TriggerNotification,
				NotificationKind: kind,
				NotificationID:   n.ID,
				RawPayload:       n.RawMessage,
				PayloadDigest:    n.PayloadDigest,
				SDIIdentifier:    n.SDIIdentifier,
			}
			if i == len(steps)-1 {
				cause.ErrorCodes = cls.CodeList()
				cause.Unclassified = cls.Unclassified
			}
			next, err := sc.transition(ctx, cur, target, cause)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateNotification) {
			s.metrics.NotificationHandled(string(kind), resultDuplicate)
			logger.Info().Msg("notificación duplicada ignorada")
			return duplicate, nil
		}
		s.notificationFailed(logger, kind, err)
		return nil, err
	}

	result := &dto.NotificationResultResponse{NotificationID: n.ID, Applied: make([]dto.TransmissionEventResponse, 0, len(changes))}
	for _, c := range changes {
		result.Applied = append(result.Applied, toEventResponse(c.event))
	}
	resp := toEInvoiceResponse(out)
	result.Invoice = &resp

	if len(changes) == 0 {
		s.metrics.NotificationHandled(string(kind), resultNoop)
		logger.Info().Str("status", string(out.Status)).Msg("notificación sin efecto: estado ya alcanzado")
		return result, nil
	}
	s.metrics.NotificationHandled(string(kind), resultApplied)

	if !einvoice.CanResend(out.Status) {
		return result, nil
	}

	rejection := &einvoice.FiscalRejectionError{InvoiceID: out.ID, Status: out.Status, Codes: cls.Codes, Unclassified: cls.Unclassified}
	logger.Warn().Err(rejection).Msg("resultado fiscal negativo")
	decision := s.policy.Evaluate(out)
	explanation := toRejectionExplanation(out, decision)
	result.Rejection = &explanation

	if s.cfg.AutoResend && decision.AutoFixable {
		next, err := s.resendLocked(ctx, out, einvoice.ResendRequest{})
		var exhausted *einvoice.RetryExhaustedError
		switch {
		case errors.As(err, &exhausted):
			result.Escalated = true
			logger.Error().Err(err).Str("escalation", "retry_exhausted").Msg("tope de reenvíos alcanzado, requiere intervención humana")
		case err != nil:
			logger.Error().Err(err).Msg("auto-reenvío fallido")
		default:
			attempt := toEInvoiceResponse(next.Attempt)
			result.NextAttempt = &attempt
		}
	}
	return result, nil
}

func (s *TransmissionService) notificationFailed(logger zerolog.Logger, kind einvoice.NotificationKind, err error) {
	var (
		invalid *einvoice.InvalidTransitionError
		div     *einvoice.ReconciliationDivergenceError
	)
	switch {
	case errors.As(err, &invalid):
		s.metrics.NotificationHandled(string(kind), resultInvalidTransition)
		logger.Warn().Err(err).Msg("notificación rechazada: transición inválida")
	case errors.As(err, &div):
		s.metrics.NotificationHandled(string(kind), resultHalted)
	default:
		logger.Error().Err(err).Msg("error aplicando notificación")
	}
}

// normalize convierte el mensaje crudo en una notificación de dominio. Si hay parser
// configurado se interpreta el XML del SdI; el campo outcome explícito completa la NE.
func (s *TransmissionService) normalize(in dto.InboundNotificationRequest, kind einvoice.NotificationKind) (einvoice.Notification, error) {
	n := einvoice.Notification{ID: in.NotificationID, Kind: kind, RawMessage: in.RawMessage}
	if s.parser != nil {
		parsed, err := s.parser.Parse(in.NotificationID, kind, in.RawMessage)
		if err != nil {
			return einvoice.Notification{}, err
		}
		n = parsed
	}
	n.TransmissionID = in.TransmissionID
	if n.Outcome == "" && in.Outcome != "" {
		n.Outcome = einvoice.RecipientOutcome(strings.ToUpper(strings.TrimSpace(in.Outcome)))
	}
	return n, nil
}
