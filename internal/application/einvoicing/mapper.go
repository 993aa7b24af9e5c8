package einvoicing

import (
	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
	"github.com/jhoicas/Gym-api/pkg/sdi"
)

func toEInvoiceResponse(inv *entity.ElectronicInvoice) dto.EInvoiceResponse {
	codes := inv.ErrorCodes
	if codes == nil {
		codes = []string{}
	}
	return dto.EInvoiceResponse{
		ID:                 inv.ID,
		TenantID:           inv.TenantID,
		SaleID:             inv.SaleID,
		PreviousAttemptID:  inv.PreviousAttemptID,
		AttemptIndex:       inv.AttemptIndex,
		ResendCount:        inv.ResendCount,
		TransmissionID:     inv.TransmissionID,
		SDIIdentifier:      inv.SDIIdentifier,
		DocumentRef:        inv.DocumentRef,
		Status:             string(inv.Status),
		Final:              einvoice.IsFinal(inv.Status),
		Resendable:         einvoice.CanResend(inv.Status),
		ErrorCodes:         codes,
		UnclassifiedErrors: inv.UnclassifiedErrors,
		SendAttempts:       inv.SendAttempts,
		LastSentAt:         inv.LastSentAt,
		AcceptedAt:         inv.AcceptedAt,
		GrandTotal:         inv.GrandTotal,
		Document:           fromDocument(inv.Document),
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

func toEventResponse(ev *entity.TransmissionEvent) dto.TransmissionEventResponse {
	codes := ev.ErrorCodes
	if codes == nil {
		codes = []string{}
	}
	return dto.TransmissionEventResponse{
		ID:               ev.ID,
		Seq:              ev.Seq,
		FromStatus:       string(ev.FromStatus),
		ToStatus:         string(ev.ToStatus),
		Trigger:          ev.Trigger,
		NotificationKind: ev.NotificationKind,
		NotificationID:   ev.NotificationID,
		ErrorCodes:       codes,
		RawPayload:       ev.RawPayload,
		PayloadDigest:    ev.PayloadDigest,
		OccurredAt:       ev.OccurredAt,
	}
}

func toStatusChanged(inv *entity.ElectronicInvoice, ev *entity.TransmissionEvent) dto.StatusChangedEvent {
	codes := ev.ErrorCodes
	if codes == nil {
		codes = []string{}
	}
	return dto.StatusChangedEvent{
		EventID:      ev.ID,
		InvoiceID:    inv.ID,
		TenantID:     inv.TenantID,
		SaleID:       inv.SaleID,
		AttemptIndex: inv.AttemptIndex,
		FromStatus:   string(ev.FromStatus),
		ToStatus:     string(ev.ToStatus),
		Trigger:      ev.Trigger,
		ErrorCodes:   codes,
		OccurredAt:   ev.OccurredAt,
	}
}

func toErrorCodeResponse(ec sdi.ErrorCode) dto.ErrorCodeResponse {
	return dto.ErrorCodeResponse{
		Code:        ec.Code,
		Description: ec.Description,
		Suggestion:  ec.Suggestion,
		Severity:    string(ec.Severity),
		AutoFixable: ec.AutoFixable,
	}
}

func toRejectionExplanation(inv *entity.ElectronicInvoice, d einvoice.ResendDecision) dto.RejectionExplanationResponse {
	out := dto.RejectionExplanationResponse{
		InvoiceID:            inv.ID,
		Status:               string(inv.Status),
		Resendable:           d.Resendable,
		AutoFixAvailable:     d.AutoFixable,
		RequiresConfirmation: d.RequiresConfirmation,
		Codes:                make([]dto.ErrorCodeResponse, len(d.Codes)),
		UnknownCodes:         d.UnknownCodes,
		Unclassified:         d.Unclassified,
		Resends:              d.Resends,
		MaxResends:           d.MaxResends,
	}
	for i, ec := range d.Codes {
		out.Codes[i] = toErrorCodeResponse(ec)
	}
	return out
}

func fromDocument(d entity.DocumentFields) dto.DocumentDTO {
	out := dto.DocumentDTO{
		TransmissionFormat: d.TransmissionFormat,
		RecipientCode:      d.RecipientCode,
		RecipientPEC:       d.RecipientPEC,
		PostalCode:         d.PostalCode,
		Province:           d.Province,
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, dto.DocumentLineDTO{Number: l.Number, VATRate: l.VATRate, Nature: l.Nature})
	}
	return out
}

func toDocument(d *dto.DocumentDTO) *entity.DocumentFields {
	if d == nil {
		return nil
	}
	out := &entity.DocumentFields{
		TransmissionFormat: d.TransmissionFormat,
		RecipientCode:      d.RecipientCode,
		RecipientPEC:       d.RecipientPEC,
		PostalCode:         d.PostalCode,
		Province:           d.Province,
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, entity.DocumentLine{Number: l.Number, VATRate: l.VATRate, Nature: l.Nature})
	}
	return out
}
