package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/internal/infrastructure/metrics"
)

func TestTransmissionMetrics_Contadores(t *testing.T) {
	m := metrics.NewTransmissionMetrics()

	m.TransitionApplied("", entity.StatusDraft, "create")
	m.TransitionApplied(entity.StatusSent, entity.StatusRejected, "notification")
	m.TransitionApplied(entity.StatusSent, entity.StatusRejected, "notification")
	m.NotificationHandled("NS", "applied")
	m.DivergenceDetected()
	m.ResendCreated(true)
	m.ResendCreated(false)
	m.GatewayCall("ok", 150*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry(), "gym_einvoice_transitions_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "gym_einvoice_ledger_divergences_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry(), "gym_einvoice_resends_total"))
}

func TestTransmissionMetrics_Handler(t *testing.T) {
	m := metrics.NewTransmissionMetrics()
	m.NotificationHandled("RC", "duplicate")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `gym_einvoice_notifications_total{kind="RC",result="duplicate"} 1`))
}
