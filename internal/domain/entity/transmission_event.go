package entity

import "time"

// TransmissionEvent registro inmutable de una transición de estado.
// FromStatus vacío indica el evento de creación del intento.
type TransmissionEvent struct {
	ID               string
	InvoiceID        string
	Seq              int64 // Orden dentro del intento (1..n); lo asigna el ledger
	FromStatus       InvoiceStatus
	ToStatus         InvoiceStatus
	Trigger          string // generate | send | gateway-ack | notification | cancel | resend ...
	NotificationKind string // RC, NS, MC, NE, DT, AT (vacío si el disparo es interno)
	NotificationID   string
	ErrorCodes       []string
	RawPayload       string
	PayloadDigest    string // SHA-256 del XML canónico (C14N), si el payload era XML
	OccurredAt       time.Time
}
