package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
	"github.com/jhoicas/Gym-api/internal/domain/entity"
)

// EInvoiceHandler facturación electrónica de ventas del gimnasio (protegido).
type EInvoiceHandler struct {
	svc        *einvoicing.TransmissionService
	dispatcher einvoicing.Dispatcher
}

// NewEInvoiceHandler construye el handler. dispatcher recibe los intentos que quedan en TO_SEND.
func NewEInvoiceHandler(svc *einvoicing.TransmissionService, dispatcher einvoicing.Dispatcher) *EInvoiceHandler {
	return &EInvoiceHandler{svc: svc, dispatcher: dispatcher}
}

// Request godoc
// @Summary      Disparar la facturación electrónica de una venta
// @Description  Crea el intento en DRAFT; con document_ref lo avanza a TO_SEND y encola el envío al SdI.
// @Tags         einvoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RequestEInvoiceRequest  true  "Venta y referencia al XML generado"
// @Success      201   {object}  dto.EInvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/einvoices [post]
func (h *EInvoiceHandler) Request(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RequestEInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.svc.RequestInvoice(c.Context(), tenantID, in)
	if err != nil {
		return respondError(c, err)
	}
	if out.Status == string(entity.StatusToSend) {
		h.dispatch(out.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Detalle de un intento de transmisión
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del intento"
// @Success      200  {object}  dto.EInvoiceResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id} [get]
func (h *EInvoiceHandler) GetByID(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.svc.GetInvoice(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Rejection godoc
// @Summary      Explicación del rechazo
// @Description  Códigos del SdI con descripción, sugerencia y disponibilidad de auto-corrección.
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del intento"
// @Success      200  {object}  dto.RejectionExplanationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/rejection [get]
func (h *EInvoiceHandler) Rejection(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.svc.ExplainRejection(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Send godoc
// @Summary      Encolar el envío al gateway
// @Description  Sólo intentos en TO_SEND. El envío corre en segundo plano; el estado se consulta con GET.
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del intento"
// @Success      202  {object}  dto.AcceptedResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/send [post]
func (h *EInvoiceHandler) Send(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	inv, err := h.svc.GetInvoice(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if inv.Status != string(entity.StatusToSend) {
		return respondError(c, &einvoice.InvalidTransitionError{
			InvoiceID: inv.ID,
			From:      entity.InvoiceStatus(inv.Status),
			To:        entity.StatusSending,
		})
	}
	h.dispatch(inv.ID)
	return c.Status(fiber.StatusAccepted).JSON(dto.AcceptedResponse{
		InvoiceID: inv.ID,
		Status:    inv.Status,
		Message:   "envío encolado",
	})
}

// Cancel godoc
// @Summary      Anular un intento antes de SENT
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del intento"
// @Success      200  {object}  dto.EInvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/cancel [post]
func (h *EInvoiceHandler) Cancel(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.svc.Cancel(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Resend godoc
// @Summary      Reenvío forzado por el operador
// @Description  Crea el siguiente intento en DRAFT. override_auto_fix omite las correcciones automáticas.
// @Tags         einvoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true   "ID del intento rechazado"
// @Param        body  body      dto.ForceResendRequest  false  "Opciones de reenvío"
// @Success      201   {object}  dto.ResendResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/resend [post]
func (h *EInvoiceHandler) Resend(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ForceResendRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	out, err := h.svc.ForceResend(c.Context(), tenantID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Audit godoc
// @Summary      Exportación de auditoría (JSON)
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del intento"
// @Success      200  {object}  dto.AuditExportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/audit [get]
func (h *EInvoiceHandler) Audit(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.svc.AuditExport(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AuditPDF godoc
// @Summary      Exportación de auditoría (PDF)
// @Tags         einvoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del intento"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/audit.pdf [get]
func (h *EInvoiceHandler) AuditPDF(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	b, filename, err := h.svc.AuditPDF(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(b)
}

// Reconcile godoc
// @Summary      Reconciliar caché contra ledger
// @Description  423 si el estado en caché difiere del plegado del ledger (intento detenido).
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del intento"
// @Success      200  {object}  dto.EInvoiceResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/einvoices/{id}/reconcile [post]
func (h *EInvoiceHandler) Reconcile(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	inv, err := h.svc.GetInvoice(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Reconcile(c.Context(), inv.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// ListBySale godoc
// @Summary      Cadena de intentos de una venta
// @Tags         einvoices
// @Security     Bearer
// @Produce      json
// @Param        saleId  path      string  true  "ID de la venta"
// @Success      200     {array}   dto.EInvoiceResponse
// @Router       /api/sales/{saleId}/einvoices [get]
func (h *EInvoiceHandler) ListBySale(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.svc.ListAttempts(c.Context(), tenantID, c.Params("saleId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

func (h *EInvoiceHandler) dispatch(invoiceID string) {
	if h.dispatcher != nil {
		h.dispatcher.ProcessAsync(invoiceID)
	}
}
