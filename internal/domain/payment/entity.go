// internal/domain/payment/entity.go
package payment

import "time"

type Method string

const (
	MethodGateway  Method = "gateway"
	MethodCash     Method = "cash"
	MethodBank     Method = "bank_transfer"
	MethodUPI      Method = "upi"
	MethodRecorded Method = "manual"
)

// Event is one settlement transaction against a monthly bill. Events are
// append-only: once written they are never mutated or deleted, and a bill's
// paid total is always the sum over its events.
//
// Events key on (gym, month, year) rather than a bill row because the
// current month accepts payments before any bill row exists.
type Event struct {
	ID            string    `json:"id" db:"id"`
	GymID         int64     `json:"gym_id" db:"gym_id"`
	BillMonth     int       `json:"bill_month" db:"bill_month"`
	BillYear      int       `json:"bill_year" db:"bill_year"`
	Amount        float64   `json:"amount" db:"amount"`
	Method        Method    `json:"method" db:"method"`
	ExternalTxnID *string   `json:"external_txn_id,omitempty" db:"external_txn_id"`
	Description   string    `json:"description,omitempty" db:"description"`
	ProcessedBy   int64     `json:"processed_by" db:"processed_by"`
	PaidAt        time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
