package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del ciclo de transmisión.
var (
	ErrDuplicateNotification      = errors.New("notificación ya procesada")
	ErrActiveAttemptExists        = errors.New("la venta ya tiene un intento de factura activo")
	ErrAttemptSuperseded          = errors.New("el intento fue sustituido por uno más reciente")
	ErrNotResendable              = errors.New("el estado del intento no admite reenvío")
	ErrResendConfirmationRequired = errors.New("el reenvío requiere confirmación explícita del operador")
)
