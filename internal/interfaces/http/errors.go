package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Gym-api/internal/application/dto"
	"github.com/jhoicas/Gym-api/internal/domain"
	"github.com/jhoicas/Gym-api/internal/domain/einvoice"
)

// respondError traduce errores de dominio y del ciclo de transmisión a HTTP.
func respondError(c *fiber.Ctx, err error) error {
	status, code := classifyError(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func classifyError(err error) (int, string) {
	var (
		invalid      *einvoice.InvalidTransitionError
		unrecognized *einvoice.UnrecognizedNotificationError
		exhausted    *einvoice.RetryExhaustedError
		divergence   *einvoice.ReconciliationDivergenceError
	)
	switch {
	case errors.As(err, &invalid):
		return fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.As(err, &unrecognized):
		return fiber.StatusUnprocessableEntity, "UNRECOGNIZED_NOTIFICATION"
	case errors.As(err, &exhausted):
		return fiber.StatusConflict, "RETRY_EXHAUSTED"
	case errors.As(err, &divergence):
		return fiber.StatusLocked, "LEDGER_DIVERGENCE"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrActiveAttemptExists):
		return fiber.StatusConflict, "ACTIVE_ATTEMPT_EXISTS"
	case errors.Is(err, domain.ErrAttemptSuperseded):
		return fiber.StatusConflict, "ATTEMPT_SUPERSEDED"
	case errors.Is(err, domain.ErrResendConfirmationRequired):
		return fiber.StatusConflict, "CONFIRMATION_REQUIRED"
	case errors.Is(err, domain.ErrNotResendable):
		return fiber.StatusConflict, "NOT_RESENDABLE"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}
