package einvoicing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/infrastructure/lock"
	"github.com/jhoicas/Gym-api/internal/infrastructure/memory"
)

const testTenant = "gym-milano-01"

// ── Dobles ───────────────────────────────────────────────────────────────────

// fakeGateway falla las primeras `failures` llamadas con err y después acusa recibo.
// Con hold no nil cada llamada avisa en entered y espera a que hold se cierre.
type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	hold     chan struct{}
	entered  chan struct{}
}

func (g *fakeGateway) Submit(_ context.Context, req einvoicing.SubmitRequest) (*einvoicing.SubmitResult, error) {
	g.mu.Lock()
	g.calls++
	n, hold, entered := g.calls, g.hold, g.entered
	g.mu.Unlock()

	if hold != nil {
		entered <- struct{}{}
		<-hold
	}
	if n <= g.failures {
		return nil, g.err
	}
	return &einvoicing.SubmitResult{ReceiptID: "RCPT-" + req.TransmissionID}, nil
}

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

var errGatewayDown = errors.New("gateway: 503 Service Unavailable")

func permanentGatewayError() error {
	return backoff.Permanent(errors.New("gateway: 400 documento inválido"))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []dto.StatusChangedEvent
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, ev dto.StatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ToStatuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.ToStatus
	}
	return out
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDispatcher) ProcessAsync(invoiceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, invoiceID)
}

// ── Armado ───────────────────────────────────────────────────────────────────

type harness struct {
	svc       *einvoicing.TransmissionService
	store     *memory.Store
	gateway   *fakeGateway
	publisher *recordingPublisher
}

func testConfig() einvoicing.Config {
	return einvoicing.Config{
		MaxResends: 3,
		Backoff: einvoicing.BackoffConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			MaxElapsedTime:  time.Second,
			MaxRetries:      2,
		},
	}
}

func newHarness(t *testing.T, cfg einvoicing.Config) *harness {
	t.Helper()
	store := memory.NewStore()
	gw := &fakeGateway{}
	pub := &recordingPublisher{}
	svc := einvoicing.NewTransmissionService(
		store.Invoices(), store.Events(), store.Inbox(), store,
		gw, lock.NewKeyedMutex(), nil, cfg, zerolog.Nop(),
	)
	svc.SetPublisher(pub)
	return &harness{svc: svc, store: store, gateway: gw, publisher: pub}
}

func saleRequest(saleID, docRef string) dto.RequestEInvoiceRequest {
	return dto.RequestEInvoiceRequest{
		SaleID:      saleID,
		DocumentRef: docRef,
		GrandTotal:  decimal.RequireFromString("59.90"),
		Document: &dto.DocumentDTO{
			TransmissionFormat: "FPR12",
			RecipientCode:      "0000000",
			PostalCode:         "20 1 00",
			Province:           "mi",
		},
	}
}

// queued intento en TO_SEND.
func (h *harness) queued(t *testing.T, saleID string) *dto.EInvoiceResponse {
	t.Helper()
	out, err := h.svc.RequestInvoice(context.Background(), testTenant, saleRequest(saleID, "xml/"+saleID+".xml"))
	require.NoError(t, err)
	require.Equal(t, string(entity.StatusToSend), out.Status)
	return out
}

// sent intento en SENT.
func (h *harness) sent(t *testing.T, saleID string) *dto.EInvoiceResponse {
	t.Helper()
	q := h.queued(t, saleID)
	_, err := h.svc.Send(context.Background(), q.ID)
	require.NoError(t, err)
	out, err := h.svc.GetInvoice(context.Background(), testTenant, q.ID)
	require.NoError(t, err)
	require.Equal(t, string(entity.StatusSent), out.Status)
	return out
}

var notificationSeq int

func (h *harness) notify(t *testing.T, inv *dto.EInvoiceResponse, kind, raw string) (*dto.NotificationResultResponse, error) {
	t.Helper()
	notificationSeq++
	return h.svc.ApplyNotification(context.Background(), dto.InboundNotificationRequest{
		NotificationID: fmt.Sprintf("%s-%s-%d", kind, inv.TransmissionID, notificationSeq),
		TransmissionID: inv.TransmissionID,
		Kind:           kind,
		RawMessage:     raw,
	})
}

func (h *harness) eventCount(t *testing.T, invoiceID string) int {
	t.Helper()
	events, err := h.store.Events().ListByInvoice(context.Background(), invoiceID)
	require.NoError(t, err)
	return len(events)
}
