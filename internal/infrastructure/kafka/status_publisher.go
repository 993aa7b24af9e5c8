package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
)

var _ einvoicing.StatusPublisher = (*StatusPublisher)(nil)

// StatusPublisher publica cada cambio de estado en el tópico configurado, con el ID
// de la factura como clave.
type StatusPublisher struct {
	writer MessageWriter
	topic  string
}

// NewStatusPublisher construye el publicador.
func NewStatusPublisher(writer MessageWriter, topic string) *StatusPublisher {
	return &StatusPublisher{writer: writer, topic: topic}
}

// PublishStatusChanged serializa el evento en JSON.
func (p *StatusPublisher) PublishStatusChanged(ctx context.Context, ev dto.StatusChangedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	return p.writer.Produce(ctx, p.topic, ev.InvoiceID, payload,
		kafka.Header{Key: "event_type", Value: []byte("einvoice.status_changed")},
		kafka.Header{Key: "to_status", Value: []byte(ev.ToStatus)},
	)
}
