// Package einvoicing orquesta el ciclo de transmisión de facturas electrónicas al SdI:
// disparo de facturación, envío al gateway, aplicación de notificaciones, reenvíos,
// cancelación y auditoría. Las reglas viven en internal/domain/einvoice; aquí se
// resuelven transacciones, locks, publicación de eventos y alarmas.
package einvoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/domain/repository"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

// ErrSubmissionFailed el gateway no aceptó el documento tras los reintentos de red.
var ErrSubmissionFailed = errors.New("el gateway no aceptó el envío")

// BackoffConfig reintentos de red dentro de SENDING.
type BackoffConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint64
}

// Config parámetros del servicio.
type Config struct {
	MaxResends         int  // tope de reenvíos por venta
	AutoResend         bool // reenviar sin confirmación cuando todos los códigos son auto-corregibles
	MaxConflictRetries int  // reintentos ante conflicto de versión
	Backoff            BackoffConfig
	AutoFix            einvoice.AutoFixDefaults
}

func (c Config) withDefaults() Config {
	if c.MaxResends <= 0 {
		c.MaxResends = einvoice.DefaultMaxResends
	}
	if c.MaxConflictRetries <= 0 {
		c.MaxConflictRetries = 3
	}
	if c.Backoff.InitialInterval <= 0 {
		c.Backoff.InitialInterval = 500 * time.Millisecond
	}
	if c.Backoff.MaxInterval <= 0 {
		c.Backoff.MaxInterval = 10 * time.Second
	}
	if c.Backoff.MaxElapsedTime <= 0 {
		c.Backoff.MaxElapsedTime = 2 * time.Minute
	}
	if c.Backoff.MaxRetries == 0 {
		c.Backoff.MaxRetries = 5
	}
	return c
}

// TransmissionService casos de uso del ciclo de transmisión.
type TransmissionService struct {
	invoiceRepo repository.ElectronicInvoiceRepository
	eventRepo   repository.TransmissionEventRepository
	inboxRepo   repository.NotificationInboxRepository
	tx          TxRunner
	gateway     Gateway
	locker      InvoiceLocker

	registry   *sdi.Registry
	machine    *einvoice.StateMachine
	classifier *einvoice.Classifier
	policy     *einvoice.ResendPolicy

	parser    NotificationParser
	publisher StatusPublisher
	pdf       AuditPDFGenerator
	metrics   Metrics
	log       zerolog.Logger
	now       func() time.Time
	cfg       Config
}

// NewTransmissionService construye el servicio. Publisher, parser, PDF y métricas se
// inyectan con los setters; sin ellos se usan implementaciones vacías.
func NewTransmissionService(
	invoiceRepo repository.ElectronicInvoiceRepository,
	eventRepo repository.TransmissionEventRepository,
	inboxRepo repository.NotificationInboxRepository,
	tx TxRunner,
	gateway Gateway,
	locker InvoiceLocker,
	registry *sdi.Registry,
	cfg Config,
	log zerolog.Logger,
) *TransmissionService {
	cfg = cfg.withDefaults()
	if registry == nil {
		registry = sdi.DefaultRegistry()
	}
	machine := einvoice.NewStateMachine(nil)
	return &TransmissionService{
		invoiceRepo: invoiceRepo,
		eventRepo:   eventRepo,
		inboxRepo:   inboxRepo,
		tx:          tx,
		gateway:     gateway,
		locker:      locker,
		registry:    registry,
		machine:     machine,
		classifier:  einvoice.NewClassifier(registry),
		policy:      einvoice.NewResendPolicy(cfg.MaxResends, registry, einvoice.NewAutoFixer(cfg.AutoFix), machine),
		publisher:   nopPublisher{},
		metrics:     nopMetrics{},
		log:         log.With().Str("component", "einvoicing").Logger(),
		now:         time.Now,
		cfg:         cfg,
	}
}

// SetPublisher salida de eventos de cambio de estado.
func (s *TransmissionService) SetPublisher(p StatusPublisher) {
	if p != nil {
		s.publisher = p
	}
}

// SetParser normalizador de notificaciones XML.
func (s *TransmissionService) SetParser(p NotificationParser) { s.parser = p }

// SetPDFGenerator generador del PDF de auditoría.
func (s *TransmissionService) SetPDFGenerator(g AuditPDFGenerator) { s.pdf = g }

// SetMetrics contadores operativos.
func (s *TransmissionService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Registry catálogo de códigos en uso.
func (s *TransmissionService) Registry() *sdi.Registry { return s.registry }

// ═══════════════════════════════════════════════════════════════════════════
// Núcleo de escritura
// ═══════════════════════════════════════════════════════════════════════════

type applied struct {
	invoice *entity.ElectronicInvoice
	event   *entity.TransmissionEvent
}

// scope repos atados a la transacción en curso y eventos escritos en ella.
type scope struct {
	invoices repository.ElectronicInvoiceRepository
	inbox    repository.NotificationInboxRepository
	ledger   *einvoice.Ledger
	machine  *einvoice.StateMachine
	applied  []applied
}

func (sc *scope) transition(ctx context.Context, inv *entity.ElectronicInvoice, target entity.InvoiceStatus, cause einvoice.Cause) (*entity.ElectronicInvoice, error) {
	out, ev, err := sc.machine.Apply(inv, target, cause)
	if err != nil {
		return nil, err
	}
	if err := sc.ledger.Record(ctx, ev); err != nil {
		return nil, err
	}
	sc.applied = append(sc.applied, applied{invoice: out, event: ev})
	return out, nil
}

func (sc *scope) create(ctx context.Context, inv *entity.ElectronicInvoice, ev *entity.TransmissionEvent) error {
	if err := sc.invoices.Create(ctx, inv); err != nil {
		return fmt.Errorf("crear intento: %w", err)
	}
	if err := sc.ledger.Record(ctx, ev); err != nil {
		return err
	}
	sc.applied = append(sc.applied, applied{invoice: inv, event: ev})
	return nil
}

func (sc *scope) touched(invoiceID string) bool {
	for _, a := range sc.applied {
		if a.event.InvoiceID == invoiceID {
			return true
		}
	}
	return false
}

type mutation func(ctx context.Context, sc *scope, inv *entity.ElectronicInvoice) (*entity.ElectronicInvoice, error)

func (s *TransmissionService) runScoped(ctx context.Context, fn func(ctx context.Context, sc *scope) error) ([]applied, error) {
	var changes []applied
	err := s.tx.RunTransmission(ctx, func(
		invoiceRepo repository.ElectronicInvoiceRepository,
		eventRepo repository.TransmissionEventRepository,
		inboxRepo repository.NotificationInboxRepository,
	) error {
		sc := &scope{
			invoices: invoiceRepo,
			inbox:    inboxRepo,
			ledger:   einvoice.NewLedger(eventRepo),
			machine:  s.machine,
		}
		if err := fn(ctx, sc); err != nil {
			return err
		}
		changes = sc.applied
		return nil
	})
	return changes, err
}

// mutate serializa la escritura sobre un intento: lock, transacción con recarga y
// reconciliación previa, fn, actualización de la caché y publicación tras el commit.
// Un conflicto de versión se reintenta; una divergencia detiene el intento.
func (s *TransmissionService) mutate(ctx context.Context, invoiceID string, fn mutation) (*entity.ElectronicInvoice, []applied, error) {
	unlock, err := s.locker.Lock(ctx, invoiceLockKey(invoiceID))
	if err != nil {
		return nil, nil, fmt.Errorf("lock intento %s: %w", invoiceID, err)
	}
	defer unlock()

	var (
		result  *entity.ElectronicInvoice
		changes []applied
	)
	for attempt := 0; ; attempt++ {
		result = nil
		changes, err = s.runScoped(ctx, func(ctx context.Context, sc *scope) error {
			inv, err := sc.invoices.GetByID(ctx, invoiceID)
			if err != nil {
				return fmt.Errorf("obtener intento: %w", err)
			}
			if inv == nil {
				return domain.ErrNotFound
			}
			if err := sc.ledger.Reconcile(ctx, inv); err != nil {
				return err
			}
			out, err := fn(ctx, sc, inv)
			if err != nil {
				return err
			}
			if out == nil {
				out = inv
			}
			if sc.touched(inv.ID) {
				if err := sc.invoices.Update(ctx, out); err != nil {
					return fmt.Errorf("actualizar intento: %w", err)
				}
			}
			result = out
			return nil
		})
		if errors.Is(err, domain.ErrConflict) && attempt < s.cfg.MaxConflictRetries {
			s.log.Debug().Str("invoice_id", invoiceID).Int("attempt", attempt+1).Msg("conflicto de versión, reintentando")
			continue
		}
		break
	}
	if err != nil {
		var div *einvoice.ReconciliationDivergenceError
		if errors.As(err, &div) {
			s.raiseDivergence(div)
		}
		return nil, nil, err
	}
	s.afterCommit(ctx, changes)
	return result, changes, nil
}

// afterCommit registra métricas, log y publica un evento por transición.
// Un fallo de publicación no deshace la transición ya confirmada.
func (s *TransmissionService) afterCommit(ctx context.Context, changes []applied) {
	for _, c := range changes {
		s.metrics.TransitionApplied(c.event.FromStatus, c.event.ToStatus, c.event.Trigger)
		s.log.Info().
			Str("invoice_id", c.invoice.ID).
			Str("sale_id", c.invoice.SaleID).
			Str("from", string(c.event.FromStatus)).
			Str("to", string(c.event.ToStatus)).
			Str("trigger", c.event.Trigger).
			Strs("error_codes", c.event.ErrorCodes).
			Msg("transición aplicada")
		if err := s.publisher.PublishStatusChanged(ctx, toStatusChanged(c.invoice, c.event)); err != nil {
			s.log.Warn().Err(err).Str("invoice_id", c.invoice.ID).Msg("no se pudo publicar el cambio de estado")
		}
	}
}

// raiseDivergence alarma operativa: el intento queda detenido hasta corrección manual.
func (s *TransmissionService) raiseDivergence(div *einvoice.ReconciliationDivergenceError) {
	s.metrics.DivergenceDetected()
	s.log.Error().
		Str("alarm", "ledger_divergence").
		Str("invoice_id", div.InvoiceID).
		Str("cached", string(div.Cached)).
		Str("folded", string(div.Folded)).
		Str("detail", div.Detail).
		Msg("estado en caché distinto del ledger; procesamiento automático detenido")
}

func invoiceLockKey(invoiceID string) string { return "einvoice:" + invoiceID }

func saleLockKey(tenantID, saleID string) string { return "sale:" + tenantID + ":" + saleID }

// ═══════════════════════════════════════════════════════════════════════════
// Lecturas
// ═══════════════════════════════════════════════════════════════════════════

// load obtiene el intento y verifica que pertenezca al tenant.
func (s *TransmissionService) load(ctx context.Context, tenantID, invoiceID string) (*entity.ElectronicInvoice, error) {
	if invoiceID == "" {
		return nil, domain.ErrInvalidInput
	}
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener intento: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if tenantID != "" && inv.TenantID != tenantID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}

// GetInvoice detalle de un intento.
func (s *TransmissionService) GetInvoice(ctx context.Context, tenantID, invoiceID string) (*dto.EInvoiceResponse, error) {
	inv, err := s.load(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	out := toEInvoiceResponse(inv)
	return &out, nil
}

// ListAttempts cadena de intentos de una venta, del original al más reciente.
func (s *TransmissionService) ListAttempts(ctx context.Context, tenantID, saleID string) ([]dto.EInvoiceResponse, error) {
	if tenantID == "" || saleID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := s.invoiceRepo.ListBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("listar intentos: %w", err)
	}
	out := make([]dto.EInvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, toEInvoiceResponse(inv))
	}
	return out, nil
}

// ListActive intentos no terminales (barrido de reconciliación y despacho).
func (s *TransmissionService) ListActive(ctx context.Context, limit int) ([]*entity.ElectronicInvoice, error) {
	var active []entity.InvoiceStatus
	for _, st := range entity.AllStatuses {
		if !einvoice.IsFinal(st) {
			active = append(active, st)
		}
	}
	return s.invoiceRepo.ListByStatuses(ctx, active, limit)
}

// ErrorCatalog catálogo completo de códigos del SdI.
func (s *TransmissionService) ErrorCatalog() []dto.ErrorCodeResponse {
	all := s.registry.All()
	out := make([]dto.ErrorCodeResponse, len(all))
	for i, ec := range all {
		out[i] = toErrorCodeResponse(ec)
	}
	return out
}

// ExplainRejection códigos del intento con descripción, sugerencia y disponibilidad de auto-corrección.
func (s *TransmissionService) ExplainRejection(ctx context.Context, tenantID, invoiceID string) (*dto.RejectionExplanationResponse, error) {
	inv, err := s.load(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	out := toRejectionExplanation(inv, s.policy.Evaluate(inv))
	return &out, nil
}

// Reconcile compara la caché con el ledger; una divergencia se alarma y se devuelve.
func (s *TransmissionService) Reconcile(ctx context.Context, invoiceID string) error {
	inv, err := s.load(ctx, "", invoiceID)
	if err != nil {
		return err
	}
	if err := einvoice.NewLedger(s.eventRepo).Reconcile(ctx, inv); err != nil {
		var div *einvoice.ReconciliationDivergenceError
		if errors.As(err, &div) {
			s.raiseDivergence(div)
		}
		return err
	}
	return nil
}

// AuditExport historial completo del intento para inspección fiscal.
func (s *TransmissionService) AuditExport(ctx context.Context, tenantID, invoiceID string) (*dto.AuditExportResponse, error) {
	inv, err := s.load(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	events, err := einvoice.NewLedger(s.eventRepo).History(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	folded, foldErr := einvoice.Fold(events)
	out := &dto.AuditExportResponse{
		Invoice:      toEInvoiceResponse(inv),
		Events:       make([]dto.TransmissionEventResponse, 0, len(events)),
		FoldedStatus: string(folded),
		Consistent:   foldErr == nil && folded == inv.Status,
		ExportedAt:   s.now().UTC(),
	}
	for _, ev := range events {
		out.Events = append(out.Events, toEventResponse(ev))
	}
	return out, nil
}

// AuditPDF exportación de auditoría en PDF.
func (s *TransmissionService) AuditPDF(ctx context.Context, tenantID, invoiceID string) ([]byte, string, error) {
	if s.pdf == nil {
		return nil, "", fmt.Errorf("generador PDF no configurado")
	}
	export, err := s.AuditExport(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	b, err := s.pdf.GenerateAuditPDF(export)
	if err != nil {
		return nil, "", fmt.Errorf("generar PDF de auditoría: %w", err)
	}
	filename := fmt.Sprintf("auditoria_%s_intento%d.pdf", export.Invoice.SaleID, export.Invoice.AttemptIndex)
	return b, filename, nil
}
