package dto

type CreatePaymentRequest struct {
	Amount   float64 `json:"amount"`
	Receiver string  `json:"receiver"`
	Method   string  `json:"method"`
	Status   string  `json:"status"`
}
