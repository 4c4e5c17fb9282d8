// internal/domain/subscription/entity.go
package subscription

import "time"

type PlanType string

const (
	PlanMonthly   PlanType = "monthly"
	PlanQuarterly PlanType = "quarterly"
	PlanYearly    PlanType = "yearly"
)

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Payment records a gym's payment for its own CRM subscription plan.
// It is independent of membership billing; rollups report the two side by
// side but never fold them into one figure without attribution.
type Payment struct {
	ID             string        `json:"id" db:"id"`
	GymID          int64         `json:"gym_id" db:"gym_id"`
	PlanType       PlanType      `json:"plan_type" db:"plan_type"`
	DurationMonths int           `json:"duration_months" db:"duration_months"`
	Amount         float64       `json:"amount" db:"amount"`
	Currency       string        `json:"currency" db:"currency"`
	StartsOn       time.Time     `json:"starts_on" db:"starts_on"`
	EndsOn         time.Time     `json:"ends_on" db:"ends_on"`
	OrderID        *string       `json:"order_id,omitempty" db:"order_id"`
	PaymentID      *string       `json:"payment_id,omitempty" db:"payment_id"`
	Status         PaymentStatus `json:"status" db:"status"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}
