package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/infrastructure/pdf"
)

func TestAuditPDFGenerator_GeneraPDF(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	export := &dto.AuditExportResponse{
		Invoice: dto.EInvoiceResponse{
			ID: "inv-1", TenantID: "gym-1", SaleID: "sale-1", AttemptIndex: 1,
			TransmissionID: "tx-1", Status: "REJECTED", ErrorCodes: []string{"00428"},
			GrandTotal: decimal.RequireFromString("45.50"), UpdatedAt: at,
		},
		Events: []dto.TransmissionEventResponse{
			{ID: "e1", Seq: 1, ToStatus: "DRAFT", Trigger: "create", OccurredAt: at},
			{ID: "e2", Seq: 2, FromStatus: "SENT", ToStatus: "REJECTED", Trigger: "notification",
				NotificationKind: "NS", NotificationID: "n-1", ErrorCodes: []string{"00428"}, OccurredAt: at},
		},
		FoldedStatus: "REJECTED",
		Consistent:   true,
		ExportedAt:   at,
	}

	out, err := pdf.NewAuditPDFGenerator().GenerateAuditPDF(export)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestAuditPDFGenerator_SinExportacion(t *testing.T) {
	_, err := pdf.NewAuditPDFGenerator().GenerateAuditPDF(nil)
	assert.Error(t, err)
}
