package kafka_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	kafkahandler "github.com/jhoicas/Gym-api/internal/interfaces/kafka"
)

type fakeApplier struct {
	err      error
	received []dto.InboundNotificationRequest
}

func (f *fakeApplier) ApplyNotification(_ context.Context, in dto.InboundNotificationRequest) (*dto.NotificationResultResponse, error) {
	f.received = append(f.received, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.NotificationResultResponse{NotificationID: in.NotificationID}, nil
}

type sentMessage struct {
	topic   string
	key     string
	value   []byte
	headers []kafka.Header
}

type fakeWriter struct{ sent []sentMessage }

func (w *fakeWriter) Produce(_ context.Context, topic, key string, value []byte, headers ...kafka.Header) error {
	w.sent = append(w.sent, sentMessage{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func message(value string) kafka.Message {
	return kafka.Message{Topic: "sdi.notifications", Key: []byte("tx-1"), Value: []byte(value)}
}

const validPayload = `{"notification_id":"n-1","transmission_id":"tx-1","kind":"RC","raw_message":"ok"}`

func TestNotificationHandler_AplicaYConfirma(t *testing.T) {
	applier := &fakeApplier{}
	dlq := &fakeWriter{}
	h := kafkahandler.NewNotificationHandler(applier, dlq, "sdi.notifications.dlq", zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), message(validPayload)))
	require.Len(t, applier.received, 1)
	assert.Equal(t, "n-1", applier.received[0].NotificationID)
	assert.Equal(t, "RC", applier.received[0].Kind)
	assert.Empty(t, dlq.sent)
}

func TestNotificationHandler_PayloadInvalidoVaADescarte(t *testing.T) {
	applier := &fakeApplier{}
	dlq := &fakeWriter{}
	h := kafkahandler.NewNotificationHandler(applier, dlq, "sdi.notifications.dlq", zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), message("{no-json")))
	assert.Empty(t, applier.received)
	require.Len(t, dlq.sent, 1)
	assert.Equal(t, "sdi.notifications.dlq", dlq.sent[0].topic)
	assert.Equal(t, "tx-1", dlq.sent[0].key)
}

func TestNotificationHandler_ErroresPermanentesSeDescartan(t *testing.T) {
	cases := map[string]error{
		"no reconocida":    &einvoice.UnrecognizedNotificationError{NotificationID: "n-1", Kind: "XX"},
		"transición":       &einvoice.InvalidTransitionError{InvoiceID: "inv-1"},
		"divergencia":      &einvoice.ReconciliationDivergenceError{InvoiceID: "inv-1"},
		"sin transmisión":  domain.ErrNotFound,
		"entrada inválida": domain.ErrInvalidInput,
	}
	for name, cause := range cases {
		t.Run(name, func(t *testing.T) {
			dlq := &fakeWriter{}
			h := kafkahandler.NewNotificationHandler(&fakeApplier{err: cause}, dlq, "dlq", zerolog.Nop())

			require.NoError(t, h.Handle(context.Background(), message(validPayload)))
			require.Len(t, dlq.sent, 1)
			assert.Equal(t, "error", dlq.sent[0].headers[0].Key)
		})
	}
}

func TestNotificationHandler_ErrorTransitorioNoConfirma(t *testing.T) {
	dlq := &fakeWriter{}
	h := kafkahandler.NewNotificationHandler(&fakeApplier{err: errors.New("conexión rechazada")}, dlq, "dlq", zerolog.Nop())

	err := h.Handle(context.Background(), message(validPayload))
	require.Error(t, err)
	assert.Empty(t, dlq.sent)
}

func TestNotificationHandler_SinDescarteSoloRegistra(t *testing.T) {
	h := kafkahandler.NewNotificationHandler(&fakeApplier{}, nil, "", zerolog.Nop())
	assert.NoError(t, h.Handle(context.Background(), message("{no-json")))
}
