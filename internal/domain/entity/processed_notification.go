package entity

import "time"

// ProcessedNotification notificación del SdI ya aplicada a un intento.
type ProcessedNotification struct {
	NotificationID string
	InvoiceID      string
	Kind           string
	EventCount     int // eventos generados (0 si el resultado ya estaba alcanzado)
	ReceivedAt     time.Time
}
