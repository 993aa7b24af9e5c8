package sdi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
)

// ── Entornos ──────────────────────────────────────────────────────────────────

const (
	// AppEnvDev no contacta al gateway: DevGateway simula el acuse.
	AppEnvDev = "dev"
	// AppEnvTest ambiente de pruebas del intermediario.
	AppEnvTest = "test"
	// AppEnvProd producción.
	AppEnvProd = "prod"
)

// ── Cliente HTTP ──────────────────────────────────────────────────────────────

var _ einvoicing.Gateway = (*HTTPGateway)(nil)

// HTTPGateway entrega documentos al intermediario de transmisión por HTTP/JSON.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway construye el cliente. timeout <= 0 usa 30 s.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitBody struct {
	InvoiceID      string `json:"invoice_id"`
	TransmissionID string `json:"transmission_id"`
	DocumentRef    string `json:"document_ref"`
	AttemptIndex   int    `json:"attempt_index"`
}

type submitResponse struct {
	ReceiptID     string `json:"receipt_id"`
	SDIIdentifier string `json:"sdi_identifier"`
	Error         string `json:"error"`
}

// Submit implementa einvoicing.Gateway. Los 4xx (salvo 408 y 429) se marcan como
// permanentes: repetir la petición no cambia la respuesta.
func (g *HTTPGateway) Submit(ctx context.Context, req einvoicing.SubmitRequest) (*einvoicing.SubmitResult, error) {
	if req.DocumentRef == "" {
		return nil, backoff.Permanent(fmt.Errorf("gateway: intento %s sin documento generado", req.InvoiceID))
	}
	payload, err := json.Marshal(submitBody{
		InvoiceID:      req.InvoiceID,
		TransmissionID: req.TransmissionID,
		DocumentRef:    req.DocumentRef,
		AttemptIndex:   req.AttemptIndex,
	})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("gateway: serializar petición: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transmissions", bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("gateway: crear request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.TransmissionID)
	if g.apiKey != "" {
		httpReq.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("gateway: timeout o cancelación: %w", ctx.Err()))
		}
		return nil, fmt.Errorf("gateway: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: leer respuesta: %w", err)
	}
	var body submitResponse
	_ = json.Unmarshal(raw, &body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if body.ReceiptID == "" {
			return nil, fmt.Errorf("gateway: respuesta %d sin receipt_id", resp.StatusCode)
		}
		return &einvoicing.SubmitResult{ReceiptID: body.ReceiptID, SDIIdentifier: body.SDIIdentifier}, nil
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("gateway: HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, backoff.Permanent(fmt.Errorf("gateway: HTTP %d: %s", resp.StatusCode, describe(body, raw)))
	default:
		return nil, fmt.Errorf("gateway: HTTP %d: %s", resp.StatusCode, describe(body, raw))
	}
}

func describe(body submitResponse, raw []byte) string {
	if body.Error != "" {
		return body.Error
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// ── Gateway de desarrollo ─────────────────────────────────────────────────────

var _ einvoicing.Gateway = DevGateway{}

// DevGateway acusa recibo sin salir del proceso (APP_ENV=dev).
type DevGateway struct{}

// Submit devuelve un recibo simulado.
func (DevGateway) Submit(_ context.Context, req einvoicing.SubmitRequest) (*einvoicing.SubmitResult, error) {
	if req.DocumentRef == "" {
		return nil, backoff.Permanent(fmt.Errorf("gateway dev: intento %s sin documento generado", req.InvoiceID))
	}
	return &einvoicing.SubmitResult{ReceiptID: "MOCK-RECEIPT-" + uuid.NewString()[:8]}, nil
}

// NewGateway elige la implementación según el entorno.
func NewGateway(env, baseURL, apiKey string, timeout time.Duration) einvoicing.Gateway {
	if env == AppEnvDev || baseURL == "" {
		return DevGateway{}
	}
	return NewHTTPGateway(baseURL, apiKey, timeout)
}
