package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Gym-api/internal/application/einvoicing"
	"github.com/jhoicas/Gym-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TransmissionSvc *einvoicing.TransmissionService
	Dispatcher      einvoicing.Dispatcher
	JWTSecret       string
	WebhookKeyHash  string
	MetricsHandler  nethttp.Handler // nil: sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")
	sdiHandler := NewSDIHandler(deps.TransmissionSvc)

	// Webhook del gateway (API key, sin JWT)
	api.Post("/sdi/notifications", RequireAPIKey(deps.WebhookKeyHash), sdiHandler.Notification)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleFiscal, jwt.RoleReception)
	fiscal := RequireRole(jwt.RoleAdmin, jwt.RoleFiscal)

	protected.Get("/sdi/error-codes", anyRole, sdiHandler.ErrorCodes)

	// Facturas electrónicas
	h := NewEInvoiceHandler(deps.TransmissionSvc, deps.Dispatcher)
	einvoices := protected.Group("/einvoices")
	einvoices.Post("/", anyRole, h.Request)
	einvoices.Get("/:id", anyRole, h.GetByID)
	einvoices.Get("/:id/rejection", anyRole, h.Rejection)
	einvoices.Post("/:id/send", fiscal, h.Send)
	einvoices.Post("/:id/cancel", fiscal, h.Cancel)
	einvoices.Post("/:id/resend", fiscal, h.Resend)
	einvoices.Get("/:id/audit", fiscal, h.Audit)
	einvoices.Get("/:id/audit.pdf", fiscal, h.AuditPDF)
	einvoices.Post("/:id/reconcile", fiscal, h.Reconcile)

	// Intentos por venta
	protected.Get("/sales/:saleId/einvoices", anyRole, h.ListBySale)
}
