package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de transmisión de una factura electrónica ante el SdI.
type InvoiceStatus string

// Estados de transmisión al SdI (Italia).
const (
	StatusDraft          InvoiceStatus = "DRAFT"           // Creada al solicitar la facturación de la venta
	StatusGenerated      InvoiceStatus = "GENERATED"       // XML generado por el módulo externo
	StatusToSend         InvoiceStatus = "TO_SEND"         // En cola para envío
	StatusSending        InvoiceStatus = "SENDING"         // Entregada al gateway, reintentos de red en curso
	StatusSent           InvoiceStatus = "SENT"            // Transmitida al SdI, resultado pendiente
	StatusAccepted       InvoiceStatus = "ACCEPTED"        // Superó los controles del SdI
	StatusDelivered      InvoiceStatus = "DELIVERED"       // Entregada al destinatario (o aceptación implícita)
	StatusRejected       InvoiceStatus = "REJECTED"        // Descartada por el SdI o rechazada por el destinatario
	StatusDeliveryFailed InvoiceStatus = "DELIVERY_FAILED" // Imposible de entregar al destinatario
	StatusCancelled      InvoiceStatus = "CANCELLED"       // Anulada localmente antes del envío
)

// AllStatuses lista cerrada de estados, en orden de ciclo de vida.
var AllStatuses = []InvoiceStatus{
	StatusDraft, StatusGenerated, StatusToSend, StatusSending, StatusSent,
	StatusAccepted, StatusDelivered, StatusRejected, StatusDeliveryFailed, StatusCancelled,
}

// DocumentLine línea del documento con los datos que el SdI valida y que la
// auto-corrección puede tocar. El cálculo de importes no se hace aquí.
type DocumentLine struct {
	Number  int             `json:"number"`
	VATRate decimal.Decimal `json:"vat_rate"`
	Nature  string          `json:"nature,omitempty"` // Natura IVA (N1, N2.2, ...) si VATRate = 0
}

// DocumentFields subconjunto del documento fiscal que viaja con cada intento.
// La generación del XML es externa; estos campos alimentan la regeneración
// tras una corrección.
type DocumentFields struct {
	TransmissionFormat string         `json:"transmission_format"` // FPR12 (privados) | FPA12 (PA)
	RecipientCode      string         `json:"recipient_code"`      // CodiceDestinatario
	RecipientPEC       string         `json:"recipient_pec,omitempty"`
	PostalCode         string         `json:"postal_code"` // CAP
	Province           string         `json:"province"`    // Sigla provincia
	Lines              []DocumentLine `json:"lines"`
}

// Clone copia profunda (las líneas no se comparten entre intentos).
func (d DocumentFields) Clone() DocumentFields {
	out := d
	if d.Lines != nil {
		out.Lines = make([]DocumentLine, len(d.Lines))
		copy(out.Lines, d.Lines)
	}
	return out
}

// ElectronicInvoice un intento de transmisión de la factura de una venta.
// Status es una caché del último evento del ledger; nunca es fuente de verdad.
type ElectronicInvoice struct {
	ID                 string
	TenantID           string // Sede / gimnasio dueño de la venta
	SaleID             string
	PreviousAttemptID  string // Intento anterior de la misma venta (vacío en el original)
	DocumentRef        string // Referencia al XML generado externamente
	TransmissionID     string // Identificador de transmisión (nuevo por intento)
	SDIIdentifier      string // IdentificativoSdI asignado por la autoridad
	AttemptIndex       int    // 1 = original
	ResendCount        int    // Reenvíos fiscales en la cadena; una cancelación local no cuenta
	Status             InvoiceStatus
	ErrorCodes         []string // Códigos catalogados acumulados en este intento
	UnclassifiedErrors []string // Texto de error no reconocido, para triage manual
	SendAttempts       int      // Sólo se incrementa al entrar en SENDING
	LastSentAt         *time.Time
	AcceptedAt         *time.Time
	GrandTotal         decimal.Decimal // Copia del total de la venta (ya calculado)
	Document           DocumentFields
	Version            int64 // Control optimista
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Clone copia profunda del intento.
func (inv *ElectronicInvoice) Clone() *ElectronicInvoice {
	out := *inv
	out.ErrorCodes = append([]string(nil), inv.ErrorCodes...)
	out.UnclassifiedErrors = append([]string(nil), inv.UnclassifiedErrors...)
	out.Document = inv.Document.Clone()
	if inv.LastSentAt != nil {
		t := *inv.LastSentAt
		out.LastSentAt = &t
	}
	if inv.AcceptedAt != nil {
		t := *inv.AcceptedAt
		out.AcceptedAt = &t
	}
	return &out
}
