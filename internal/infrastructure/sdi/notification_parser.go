// Package sdi adaptadores del canal de intercambio: lectura de los archivos de
// notificación y cliente del gateway de envío.
package sdi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
)

// Elemento raíz de cada archivo de notificación.
var rootKinds = map[string]einvoice.NotificationKind{
	"RicevutaConsegna":                einvoice.KindRC,
	"NotificaScarto":                  einvoice.KindNS,
	"NotificaMancataConsegna":         einvoice.KindMC,
	"NotificaEsito":                   einvoice.KindNE,
	"NotificaDecorrenzaTermini":       einvoice.KindDT,
	"AttestazioneTrasmissioneFattura": einvoice.KindAT,
}

var _ einvoicing.NotificationParser = (*NotificationParser)(nil)

// NotificationParser interpreta el XML de una notificación. El texto que no es XML
// se devuelve tal cual para que el clasificador busque los códigos en él; del XML
// sólo cuentan ListaErrori y, en su defecto, los elementos Descrizione.
type NotificationParser struct{}

// NewNotificationParser crea el parser.
func NewNotificationParser() *NotificationParser {
	return &NotificationParser{}
}

// Parse implementa einvoicing.NotificationParser.
func (p *NotificationParser) Parse(notificationID string, kind einvoice.NotificationKind, raw string) (einvoice.Notification, error) {
	n := einvoice.Notification{ID: notificationID, Kind: kind, RawMessage: raw}
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "<") {
		return n, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(trimmed); err != nil {
		return einvoice.Notification{}, unrecognized(notificationID, kind, fmt.Sprintf("XML mal formado: %v", err))
	}
	root := doc.Root()
	if root == nil {
		return einvoice.Notification{}, unrecognized(notificationID, kind, "XML sin elemento raíz")
	}
	declared, ok := rootKinds[root.Tag]
	if !ok {
		return einvoice.Notification{}, unrecognized(notificationID, kind, "raíz desconocida "+root.Tag)
	}
	if declared != kind {
		return einvoice.Notification{}, unrecognized(notificationID, kind, fmt.Sprintf("el archivo es %s, no %s", declared, kind))
	}

	n.SDIIdentifier = text(root.FindElement(".//IdentificativoSdI"))
	for _, e := range root.FindElements(".//ListaErrori/Errore") {
		code := text(e.SelectElement("Codice"))
		desc := text(e.SelectElement("Descrizione"))
		switch {
		case code == "" && desc == "":
			continue
		case desc == "":
			n.ErrorText = append(n.ErrorText, code)
		default:
			n.ErrorText = append(n.ErrorText, code+" - "+desc)
		}
	}
	// MC y NE sin ListaErrori: la descripción libre es lo único que ve el operador.
	if len(n.ErrorText) == 0 {
		for _, e := range root.FindElements(".//Descrizione") {
			if d := text(e); d != "" {
				n.ErrorText = append(n.ErrorText, d)
			}
		}
	}
	if kind == einvoice.KindNE {
		n.Outcome = einvoice.RecipientOutcome(strings.ToUpper(text(root.FindElement(".//Esito"))))
	}

	digest, err := Digest([]byte(trimmed))
	if err != nil {
		return einvoice.Notification{}, unrecognized(notificationID, kind, fmt.Sprintf("canonicalización: %v", err))
	}
	n.PayloadDigest = digest
	return n, nil
}

// Digest SHA-256 en hex del XML canonicalizado (C14N inclusiva, sin declaración).
func Digest(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("<?xml")) {
		end := bytes.Index(data, []byte("?>"))
		if end < 0 {
			return "", fmt.Errorf("declaración XML sin cerrar")
		}
		data = bytes.TrimSpace(data[end+2:])
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func text(e *etree.Element) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text())
}

func unrecognized(id string, kind einvoice.NotificationKind, reason string) error {
	return &einvoice.UnrecognizedNotificationError{NotificationID: id, Kind: string(kind), Reason: reason}
}
