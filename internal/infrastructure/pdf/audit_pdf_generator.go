// Package pdf genera el PDF de auditoría de un intento de factura electrónica:
// la historia completa de transiciones tal como está en el ledger.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sede + Venta        │  Intento N + Estado          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: transmisión / IdentificativoSdI / total / envíos   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Seq | Fecha | De → A | Disparo | Notif. | Códigos    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: estado según ledger + consistencia + QR             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ einvoicing.AuditPDFGenerator = (*AuditPDFGenerator)(nil)

// AuditPDFGenerator implementa einvoicing.AuditPDFGenerator usando Maroto v2.
type AuditPDFGenerator struct{}

// NewAuditPDFGenerator construye el generador.
func NewAuditPDFGenerator() *AuditPDFGenerator { return &AuditPDFGenerator{} }

// GenerateAuditPDF genera el PDF y devuelve sus bytes.
func (g *AuditPDFGenerator) GenerateAuditPDF(export *dto.AuditExportResponse) ([]byte, error) {
	if export == nil {
		return nil, fmt.Errorf("pdf: exportación vacía")
	}
	inv := export.Invoice
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Auditoría de transmisión "+inv.ID, true).
		WithAuthor(inv.TenantID, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRows(inv)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(eventRows(export.Events)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(export)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(inv dto.EInvoiceResponse) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("AUDITORÍA DE TRANSMISIÓN SdI", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Sede: "+inv.TenantID+"   |   Venta: "+inv.SaleID, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("INTENTO %d", inv.AttemptIndex), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.Status, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Actualizado: "+inv.UpdatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func summaryRows(inv dto.EInvoiceResponse) []core.Row {
	kv := func(k, v string) core.Row {
		return row.New(5).Add(
			col.New(4).Add(text.New(k, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1})),
			col.New(8).Add(text.New(v, props.Text{Size: 8, Top: 1, Color: colorGray})),
		)
	}
	rows := []core.Row{
		kv("ID del intento", inv.ID),
		kv("Intento anterior", nonEmpty(inv.PreviousAttemptID, "—")),
		kv("Transmisión", inv.TransmissionID),
		kv("IdentificativoSdI", nonEmpty(inv.SDIIdentifier, "—")),
		kv("Documento", nonEmpty(inv.DocumentRef, "—")),
		kv("Total", "€ "+formatEuro(inv.GrandTotal)),
		kv("Envíos al gateway", fmt.Sprintf("%d", inv.SendAttempts)),
	}
	if len(inv.ErrorCodes) > 0 {
		rows = append(rows, kv("Códigos de error", strings.Join(inv.ErrorCodes, ", ")))
	}
	for _, u := range inv.UnclassifiedErrors {
		rows = append(rows, kv("Error sin clasificar", u))
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7.5, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Seq", 1, align.Center),
		h("Fecha (UTC)", 2, align.Left),
		h("Transición", 3, align.Left),
		h("Disparo", 2, align.Left),
		h("Notificación", 2, align.Left),
		h("Códigos", 2, align.Left),
	)
}

func eventRows(events []dto.TransmissionEventResponse) []core.Row {
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 7, Align: a, Top: 1}))
	}
	result := make([]core.Row, 0, len(events))
	for _, ev := range events {
		notif := ev.NotificationKind
		if ev.NotificationID != "" {
			notif += " " + ev.NotificationID
		}
		result = append(result, row.New(6).Add(
			cell(fmt.Sprintf("%d", ev.Seq), 1, align.Center),
			cell(ev.OccurredAt.UTC().Format("02/01/2006 15:04:05"), 2, align.Left),
			cell(nonEmpty(ev.FromStatus, "(alta)")+" -> "+ev.ToStatus, 3, align.Left),
			cell(ev.Trigger, 2, align.Left),
			cell(nonEmpty(strings.TrimSpace(notif), "—"), 2, align.Left),
			cell(nonEmpty(strings.Join(ev.ErrorCodes, ","), "—"), 2, align.Left),
		))
	}
	return result
}

func footerRows(export *dto.AuditExportResponse) []core.Row {
	consistency := "Caché de estado coherente con el ledger."
	color := colorGray
	if !export.Consistent {
		consistency = "DIVERGENCIA: el estado en caché no coincide con el ledger."
		color = colorAlert
	}
	return []core.Row{
		row.New(40).Add(
			col.New(4).Add(code.NewQr(export.Invoice.TransmissionID, props.Rect{Percent: 90, Center: true})),
			col.New(8).Add(
				text.New("Estado según ledger: "+nonEmpty(export.FoldedStatus, "—"), props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3, Color: colorPrimary,
				}),
				text.New(consistency, props.Text{Size: 8, Top: 12, Left: 3, Color: color}),
				text.New(fmt.Sprintf("%d eventos. Exportado el %s.", len(export.Events), export.ExportedAt.UTC().Format("02/01/2006 15:04 MST")), props.Text{
					Size: 7, Top: 20, Left: 3, Color: colorGray,
				}),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatEuro formato italiano: "1234.5" → "1.234,50".
func formatEuro(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
