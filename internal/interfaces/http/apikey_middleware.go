package http

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Gym-api/internal/application/dto"
)

// HeaderAPIKey cabecera con la que el gateway del SdI se autentica en el webhook.
const HeaderAPIKey = "X-API-Key"

// RequireAPIKey compara la cabecera X-API-Key con el hash bcrypt configurado.
// Sin hash configurado el webhook queda cerrado (503).
func RequireAPIKey(keyHash string) fiber.Handler {
	hash := []byte(keyHash)
	return func(c *fiber.Ctx) error {
		if len(hash) == 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "WEBHOOK_DISABLED",
				Message: "webhook de notificaciones no configurado",
			})
		}
		key := c.Get(HeaderAPIKey)
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_API_KEY", Message: HeaderAPIKey + " requerido"})
		}
		if err := bcrypt.CompareHashAndPassword(hash, []byte(key)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_API_KEY", Message: "API key inválida"})
		}
		return c.Next()
	}
}
