package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AcceptedResponse respuesta 202 de operaciones que continúan en segundo plano.
type AcceptedResponse struct {
	InvoiceID string `json:"invoice_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}
