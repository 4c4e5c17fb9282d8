// internal/domain/payment/dto.go
package payment

// GatewayOrder is the order-creation result from the payment gateway.
type GatewayOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt,omitempty"`
}

// GatewayConfirmation is the payload the gateway posts back after checkout.
// The signature must be verified before any settlement is recorded.
type GatewayConfirmation struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type RecordPaymentInput struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Method        Method  `json:"method" binding:"required"`
	ExternalTxnID *string `json:"external_txn_id"`
	Description   string  `json:"description"`
}
