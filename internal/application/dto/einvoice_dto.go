package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestEInvoiceRequest body para POST /api/einvoices (disparador de facturación de una venta).
// DocumentRef vacío deja el intento en DRAFT hasta que el generador externo entregue el XML.
type RequestEInvoiceRequest struct {
	SaleID      string          `json:"sale_id"`
	DocumentRef string          `json:"document_ref,omitempty"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	Document    *DocumentDTO    `json:"document,omitempty"`
}

// DocumentDTO campos del documento que el SdI valida y que la auto-corrección puede tocar.
type DocumentDTO struct {
	TransmissionFormat string            `json:"transmission_format"`
	RecipientCode      string            `json:"recipient_code"`
	RecipientPEC       string            `json:"recipient_pec,omitempty"`
	PostalCode         string            `json:"postal_code"`
	Province           string            `json:"province"`
	Lines              []DocumentLineDTO `json:"lines,omitempty"`
}

// DocumentLineDTO línea del documento.
type DocumentLineDTO struct {
	Number  int             `json:"number"`
	VATRate decimal.Decimal `json:"vat_rate"`
	Nature  string          `json:"nature,omitempty"`
}

// EInvoiceResponse intento de transmisión en respuestas.
type EInvoiceResponse struct {
	ID                 string          `json:"id"`
	TenantID           string          `json:"tenant_id"`
	SaleID             string          `json:"sale_id"`
	PreviousAttemptID  string          `json:"previous_attempt_id,omitempty"`
	AttemptIndex       int             `json:"attempt_index"`
	ResendCount        int             `json:"resend_count"`
	TransmissionID     string          `json:"transmission_id"`
	SDIIdentifier      string          `json:"sdi_identifier,omitempty"`
	DocumentRef        string          `json:"document_ref,omitempty"`
	Status             string          `json:"status"`
	Final              bool            `json:"final"`
	Resendable         bool            `json:"resendable"`
	ErrorCodes         []string        `json:"error_codes"`
	UnclassifiedErrors []string        `json:"unclassified_errors,omitempty"`
	SendAttempts       int             `json:"send_attempts"`
	LastSentAt         *time.Time      `json:"last_sent_at,omitempty"`
	AcceptedAt         *time.Time      `json:"accepted_at,omitempty"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	Document           DocumentDTO     `json:"document"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TransmissionEventResponse evento del ledger en la exportación de auditoría.
type TransmissionEventResponse struct {
	ID               string    `json:"id"`
	Seq              int64     `json:"seq"`
	FromStatus       string    `json:"from_status"`
	ToStatus         string    `json:"to_status"`
	Trigger          string    `json:"trigger"`
	NotificationKind string    `json:"notification_kind,omitempty"`
	NotificationID   string    `json:"notification_id,omitempty"`
	ErrorCodes       []string  `json:"error_codes"`
	RawPayload       string    `json:"raw_payload,omitempty"`
	PayloadDigest    string    `json:"payload_digest,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// AuditExportResponse historial completo de un intento para inspección fiscal.
type AuditExportResponse struct {
	Invoice      EInvoiceResponse            `json:"invoice"`
	Events       []TransmissionEventResponse `json:"events"`
	FoldedStatus string                      `json:"folded_status"`
	Consistent   bool                        `json:"consistent"`
	ExportedAt   time.Time                   `json:"exported_at"`
}

// ErrorCodeResponse código del catálogo del SdI.
type ErrorCodeResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	Severity    string `json:"severity"`
	AutoFixable bool   `json:"auto_fixable"`
}

// RejectionExplanationResponse GET /api/einvoices/:id/rejection.
// AutoFixAvailable sólo es true si todos los códigos son auto-corregibles.
type RejectionExplanationResponse struct {
	InvoiceID            string              `json:"invoice_id"`
	Status               string              `json:"status"`
	Resendable           bool                `json:"resendable"`
	AutoFixAvailable     bool                `json:"auto_fix_available"`
	RequiresConfirmation bool                `json:"requires_confirmation"`
	Codes                []ErrorCodeResponse `json:"codes"`
	UnknownCodes         []string            `json:"unknown_codes,omitempty"`
	Unclassified         []string            `json:"unclassified,omitempty"`
	Resends              int                 `json:"resends"`
	MaxResends           int                 `json:"max_resends"`
}

// ForceResendRequest body para POST /api/einvoices/:id/resend.
// OverrideAutoFix: no aplicar correcciones automáticas (el documento ya viene corregido).
type ForceResendRequest struct {
	OverrideAutoFix bool         `json:"override_auto_fix"`
	Document        *DocumentDTO `json:"document,omitempty"`
}

// AppliedFixResponse corrección aplicada al reenviar.
type AppliedFixResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// ResendResponse resultado del reenvío.
type ResendResponse struct {
	PreviousAttemptID string               `json:"previous_attempt_id"`
	Attempt           EInvoiceResponse     `json:"attempt"`
	AutoFixed         bool                 `json:"auto_fixed"`
	Fixes             []AppliedFixResponse `json:"fixes,omitempty"`
}

// InboundNotificationRequest notificación del SdI entregada por el gateway (webhook o Kafka).
// Outcome (EC01/EC02) sólo aplica a NE cuando el mensaje no es el XML de la notificación.
type InboundNotificationRequest struct {
	NotificationID string `json:"notification_id"`
	TransmissionID string `json:"transmission_id"`
	Kind           string `json:"kind"`
	RawMessage     string `json:"raw_message"`
	Outcome        string `json:"outcome,omitempty"`
}

// NotificationResultResponse resultado de aplicar una notificación.
type NotificationResultResponse struct {
	NotificationID string                        `json:"notification_id"`
	Duplicate      bool                          `json:"duplicate"`
	Invoice        *EInvoiceResponse             `json:"invoice,omitempty"`
	Applied        []TransmissionEventResponse   `json:"applied"`
	Rejection      *RejectionExplanationResponse `json:"rejection,omitempty"`
	NextAttempt    *EInvoiceResponse             `json:"next_attempt,omitempty"`
	Escalated      bool                          `json:"escalated,omitempty"`
}

// StatusChangedEvent evento publicado a consumidores de notificación y facturación.
type StatusChangedEvent struct {
	EventID      string    `json:"event_id"`
	InvoiceID    string    `json:"invoice_id"`
	TenantID     string    `json:"tenant_id"`
	SaleID       string    `json:"sale_id"`
	AttemptIndex int       `json:"attempt_index"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	Trigger      string    `json:"trigger"`
	ErrorCodes   []string  `json:"error_codes"`
	OccurredAt   time.Time `json:"occurred_at"`
}
