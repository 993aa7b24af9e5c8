package einvoice

import (
	"strings"

	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

// NotificationKind tipo de notificación del SdI.
type NotificationKind string

const (
	KindRC NotificationKind = "RC" // Ricevuta di consegna
	KindNS NotificationKind = "NS" // Notifica di scarto
	KindMC NotificationKind = "MC" // Notifica di mancata consegna
	KindNE NotificationKind = "NE" // Notifica esito committente
	KindDT NotificationKind = "DT" // Decorrenza termini
	KindAT NotificationKind = "AT" // Attestazione di avvenuta trasmissione
)

// AllKinds lista cerrada de tipos de notificación.
var AllKinds = []NotificationKind{KindRC, KindNS, KindMC, KindNE, KindDT, KindAT}

// RecipientOutcome campo <Esito> de una NE. Es el contrato externo que decide
// entre aceptación y rechazo; cualquier otro valor no se interpreta.
type RecipientOutcome string

const (
	OutcomeAccepted RecipientOutcome = "EC01"
	OutcomeRefused  RecipientOutcome = "EC02"
)

// ParseNotificationKind valida el tipo recibido.
func ParseNotificationKind(notificationID, s string) (NotificationKind, error) {
	k := NotificationKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllKinds {
		if k == known {
			return k, nil
		}
	}
	return "", &UnrecognizedNotificationError{NotificationID: notificationID, Kind: s, Reason: "tipo desconocido"}
}

// Notification notificación entrante ya normalizada por el adaptador de transporte.
type Notification struct {
	ID             string
	TransmissionID string
	Kind           NotificationKind
	RawMessage     string
	Outcome        RecipientOutcome // sólo NE
	SDIIdentifier  string
	ErrorText      []string // una línea por error ("00303 - descrizione") si el XML traía ListaErrori
	PayloadDigest  string
}

// Classification resultado de clasificar una notificación.
// Path es la secuencia de estados a recorrer; Codes los códigos catalogados.
type Classification struct {
	Kind         NotificationKind
	Path         []entity.InvoiceStatus
	Codes        []sdi.ErrorCode
	Unclassified []string
}

// CodeList sólo los códigos, en orden.
func (c Classification) CodeList() []string {
	out := make([]string, len(c.Codes))
	for i, ec := range c.Codes {
		out[i] = ec.Code
	}
	return out
}

// Negative true si el estado final del camino es un resultado negativo reenviable.
func (c Classification) Negative() bool {
	return len(c.Path) > 0 && CanResend(c.Path[len(c.Path)-1])
}

// Classifier traduce notificaciones del SdI en caminos de estado.
type Classifier struct {
	registry *sdi.Registry
}

// NewClassifier construye el clasificador sobre el catálogo de códigos.
func NewClassifier(registry *sdi.Registry) *Classifier {
	if registry == nil {
		registry = sdi.DefaultRegistry()
	}
	return &Classifier{registry: registry}
}

// Classify decide el camino de estados de la notificación. Un tipo desconocido o una
// NE sin <Esito> reconocible devuelven UnrecognizedNotificationError.
func (c *Classifier) Classify(n Notification) (Classification, error) {
	out := Classification{Kind: n.Kind}
	switch n.Kind {
	case KindRC:
		out.Path = []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDelivered}
	case KindDT:
		out.Path = []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDelivered}
	case KindNS:
		out.Path = []entity.InvoiceStatus{entity.StatusRejected}
		out.Codes, out.Unclassified = c.extract(n)
	case KindMC:
		// El SdI superó los controles pero no pudo entregar al destinatario.
		out.Path = []entity.InvoiceStatus{entity.StatusAccepted, entity.StatusDeliveryFailed}
		out.Codes, out.Unclassified = c.extract(n)
	case KindNE:
		switch RecipientOutcome(strings.ToUpper(strings.TrimSpace(string(n.Outcome)))) {
		case OutcomeAccepted:
			out.Path = []entity.InvoiceStatus{entity.StatusAccepted}
		case OutcomeRefused:
			out.Path = []entity.InvoiceStatus{entity.StatusRejected}
			out.Codes, out.Unclassified = c.extract(n)
		default:
			return Classification{}, &UnrecognizedNotificationError{
				NotificationID: n.ID, Kind: string(n.Kind),
				Reason: "NE sin <Esito> EC01/EC02 (valor " + string(n.Outcome) + ")",
			}
		}
	case KindAT:
		out.Path = []entity.InvoiceStatus{entity.StatusSent}
	default:
		return Classification{}, &UnrecognizedNotificationError{NotificationID: n.ID, Kind: string(n.Kind), Reason: "tipo desconocido"}
	}
	return out, nil
}

// Plan recorta los pasos iniciales ya alcanzados por el intento (p. ej. RC sobre un
// intento ya ACCEPTED) y devuelve los pasos restantes. No valida aristas: eso lo hace
// la máquina de estados al aplicar cada paso.
func Plan(current entity.InvoiceStatus, path []entity.InvoiceStatus) []entity.InvoiceStatus {
	for i, st := range path {
		if st == current {
			return append([]entity.InvoiceStatus(nil), path[i+1:]...)
		}
	}
	return append([]entity.InvoiceStatus(nil), path...)
}

// extract busca códigos en las líneas de error del XML. Un XML ya interpretado
// (PayloadDigest) nunca se recorre como texto; el texto plano sí.
func (c *Classifier) extract(n Notification) ([]sdi.ErrorCode, []string) {
	text := n.RawMessage
	if len(n.ErrorText) > 0 || n.PayloadDigest != "" {
		text = strings.Join(n.ErrorText, "\n")
	}
	return c.registry.ParseAll(text)
}
