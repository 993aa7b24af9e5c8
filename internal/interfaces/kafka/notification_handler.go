// Package kafka entrada de notificaciones del SdI por Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	kafkainfra "github.com/jhoicas/Gym-api/internal/infrastructure/kafka"
)

// NotificationApplier aplica una notificación entrante (TransmissionService).
type NotificationApplier interface {
	ApplyNotification(ctx context.Context, in dto.InboundNotificationRequest) (*dto.NotificationResultResponse, error)
}

// NotificationHandler consume el tópico de notificaciones. Los mensajes que nunca
// podrán aplicarse van al tópico de descarte y se confirman; los fallos transitorios
// se devuelven para que el offset no avance.
type NotificationHandler struct {
	applier    NotificationApplier
	deadLetter kafkainfra.MessageWriter
	dlqTopic   string
	log        zerolog.Logger
}

// NewNotificationHandler construye el handler. Con dlq nil los mensajes descartados
// sólo se registran en el log.
func NewNotificationHandler(applier NotificationApplier, dlq kafkainfra.MessageWriter, dlqTopic string, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		applier:    applier,
		deadLetter: dlq,
		dlqTopic:   dlqTopic,
		log:        log.With().Str("component", "sdi-notification-consumer").Logger(),
	}
}

// Handle procesa un mensaje; tiene la firma de kafkainfra.MessageHandler.
func (h *NotificationHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var in dto.InboundNotificationRequest
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		return h.discard(ctx, msg, fmt.Errorf("payload inválido: %w", err))
	}
	res, err := h.applier.ApplyNotification(ctx, in)
	if err != nil {
		if permanent(err) {
			return h.discard(ctx, msg, err)
		}
		return err
	}
	h.log.Debug().
		Str("notification_id", res.NotificationID).
		Bool("duplicate", res.Duplicate).
		Int("applied", len(res.Applied)).
		Msg("notificación consumida")
	return nil
}

func (h *NotificationHandler) discard(ctx context.Context, msg kafka.Message, cause error) error {
	h.log.Warn().Err(cause).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("key", string(msg.Key)).
		Msg("notificación descartada, requiere revisión manual")
	if h.deadLetter == nil || h.dlqTopic == "" {
		return nil
	}
	return h.deadLetter.Produce(ctx, h.dlqTopic, string(msg.Key), msg.Value,
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "source_topic", Value: []byte(msg.Topic)},
	)
}

// permanent errores que se repetirían en cada relectura del mensaje.
func permanent(err error) bool {
	var (
		unrecognized *einvoice.UnrecognizedNotificationError
		invalid      *einvoice.InvalidTransitionError
		div          *einvoice.ReconciliationDivergenceError
	)
	return errors.As(err, &unrecognized) ||
		errors.As(err, &invalid) ||
		errors.As(err, &div) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput)
}
