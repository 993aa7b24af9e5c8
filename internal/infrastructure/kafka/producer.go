// Package kafka adaptadores de segmentio/kafka-go: productor, consumidor y publicador
// de cambios de estado de factura.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter escritura de un mensaje en un tópico.
type MessageWriter interface {
	Produce(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error
}

// Producer productor síncrono. La clave (ID de factura) fija la partición y con ella
// el orden de los eventos de un mismo intento.
type Producer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

var _ MessageWriter = (*Producer)(nil)

// NewProducer construye el productor sobre los brokers indicados.
func NewProducer(brokers []string, log zerolog.Logger) *Producer {
	l := log.With().Str("component", "kafka-producer").Logger()
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Debug().Msgf(msg, args...) }),
			ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Error().Msgf(msg, args...) }),
		},
		log: l,
	}
}

// Produce escribe un mensaje y espera la confirmación de las réplicas.
func (p *Producer) Produce(ctx context.Context, topic, key string, value []byte, headers ...kafka.Header) error {
	produceCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()

	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: value, Headers: headers}
	if err := p.writer.WriteMessages(produceCtx, msg); err != nil {
		return fmt.Errorf("kafka produce %s: %w", topic, err)
	}
	p.log.Debug().Str("topic", topic).Str("key", key).Msg("mensaje publicado")
	return nil
}

// Close cierra el writer.
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("cerrar productor kafka: %w", err)
	}
	return nil
}
