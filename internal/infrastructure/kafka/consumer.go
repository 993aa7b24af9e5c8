package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageHandler procesa un mensaje. Si devuelve error el offset no se confirma y el
// mensaje se vuelve a leer.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consumer lector de un tópico dentro de un grupo de consumo.
type Consumer struct {
	reader *kafka.Reader
	topic  string
	group  string
	log    zerolog.Logger
}

// NewConsumer construye el consumidor.
func NewConsumer(brokers []string, groupID, topic string, log zerolog.Logger) *Consumer {
	l := log.With().Str("component", "kafka-consumer").Str("topic", topic).Logger()
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:          brokers,
			GroupID:          groupID,
			Topic:            topic,
			MinBytes:         1,
			MaxBytes:         10e6,
			ReadBatchTimeout: time.Second,
			CommitInterval:   0, // commit síncrono tras procesar
			MaxAttempts:      3,
			Logger:           kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Debug().Msgf(msg, args...) }),
			ErrorLogger:      kafka.LoggerFunc(func(msg string, args ...interface{}) { l.Error().Msgf(msg, args...) }),
		}),
		topic: topic,
		group: groupID,
		log:   l,
	}
}

// Start lee mensajes hasta que ctx se cancele. Un mensaje que falla no se confirma;
// tras una pausa se vuelve a intentar desde el último offset confirmado.
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) error {
	c.log.Info().Str("group_id", c.group).Msg("consumidor kafka iniciado")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.log.Warn().Err(err).Msg("cerrar lector kafka")
		}
	}()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.log.Error().Err(err).Msg("error leyendo de kafka")
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}
		if err := handler(ctx, msg); err != nil {
			c.log.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Str("key", string(msg.Key)).
				Msg("mensaje no procesado, no se confirma el offset")
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("no se pudo confirmar el offset")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
