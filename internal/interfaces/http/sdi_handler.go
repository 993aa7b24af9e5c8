package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
)

// SDIHandler endpoints del canal con el SdI: webhook de notificaciones y catálogo de códigos.
type SDIHandler struct {
	svc *einvoicing.TransmissionService
}

// NewSDIHandler construye el handler.
func NewSDIHandler(svc *einvoicing.TransmissionService) *SDIHandler {
	return &SDIHandler{svc: svc}
}

// Notification godoc
// @Summary      Webhook de notificaciones del SdI
// @Description  RC, NS, MC, NE, DT o AT. Un notification_id repetido responde 200 con duplicate=true sin nuevos eventos.
// @Tags         sdi
// @Security     ApiKey
// @Accept       json
// @Produce      json
// @Param        body  body      dto.InboundNotificationRequest  true  "Notificación"
// @Success      200   {object}  dto.NotificationResultResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/sdi/notifications [post]
func (h *SDIHandler) Notification(c *fiber.Ctx) error {
	var in dto.InboundNotificationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.svc.ApplyNotification(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ErrorCodes godoc
// @Summary      Catálogo de códigos de error del SdI
// @Tags         sdi
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ErrorCodeResponse
// @Router       /api/sdi/error-codes [get]
func (h *SDIHandler) ErrorCodes(c *fiber.Ctx) error {
	return c.JSON(h.svc.ErrorCatalog())
}
