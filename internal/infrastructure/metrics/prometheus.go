// Package metrics contadores Prometheus del ciclo de transmisión.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

const namespace = "gym_einvoice"

var _ einvoicing.Metrics = (*TransmissionMetrics)(nil)

// TransmissionMetrics implementa einvoicing.Metrics sobre un registry propio.
type TransmissionMetrics struct {
	registry *prometheus.Registry

	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	divergences   prometheus.Counter
	gatewayCalls  *prometheus.HistogramVec
	resends       *prometheus.CounterVec
}

// NewTransmissionMetrics registra los colectores (más los de proceso y runtime de Go).
func NewTransmissionMetrics() *TransmissionMetrics {
	reg := prometheus.NewRegistry()
	m := &TransmissionMetrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Transiciones de estado aplicadas.",
		}, []string{"from", "to", "trigger"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notificaciones del SdI procesadas por tipo y resultado.",
		}, []string{"kind", "result"}),
		divergences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_divergences_total",
			Help:      "Alarmas de divergencia entre la caché de estado y el ledger.",
		}),
		gatewayCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_call_duration_seconds",
			Help:      "Duración de la entrega al gateway, reintentos incluidos.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"result"}),
		resends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resends_total",
			Help:      "Intentos de reenvío creados.",
		}, []string{"mode"}),
	}
	reg.MustRegister(
		m.transitions,
		m.notifications,
		m.divergences,
		m.gatewayCalls,
		m.resends,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry expuesto para tests y para /metrics.
func (m *TransmissionMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler HTTP de exposición.
func (m *TransmissionMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *TransmissionMetrics) TransitionApplied(from, to entity.InvoiceStatus, trigger string) {
	f := string(from)
	if f == "" {
		f = "none"
	}
	m.transitions.WithLabelValues(f, string(to), trigger).Inc()
}

func (m *TransmissionMetrics) NotificationHandled(kind, result string) {
	m.notifications.WithLabelValues(kind, result).Inc()
}

func (m *TransmissionMetrics) DivergenceDetected() { m.divergences.Inc() }

func (m *TransmissionMetrics) GatewayCall(result string, elapsed time.Duration) {
	m.gatewayCalls.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *TransmissionMetrics) ResendCreated(auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	m.resends.WithLabelValues(mode).Inc()
}
