// internal/domain/subscription/dto.go
package subscription

type RecordPaymentInput struct {
	PlanType       PlanType `json:"plan_type" binding:"required,oneof=monthly quarterly yearly"`
	DurationMonths int      `json:"duration_months" binding:"required,min=1,max=36"`
	Amount         float64  `json:"amount" binding:"required,gt=0"`
	Currency       string   `json:"currency" binding:"omitempty,len=3"`
	OrderID        *string  `json:"order_id"`
	PaymentID      *string  `json:"payment_id"`
}

type ListFilters struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
