// internal/domain/billing/dto.go
package billing

import (
	"math"
	"time"
)

type FinalizeMonthInput struct {
	GymID int64 `json:"gym_id" binding:"required"`
	Month int   `json:"month" binding:"required,min=1,max=12"`
	Year  int   `json:"year" binding:"required,min=2000,max=2100"`
}

type FinalizeAllInput struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
}

type HistoryFilters struct {
	MonthsBack int `form:"months_back" binding:"omitempty,min=1,max=60"`
}

// BillResponse is the display form of a bill. Amounts are rounded to two
// decimals here and nowhere earlier.
type BillResponse struct {
	ID        string `json:"id"`
	GymID     int64  `json:"gym_id"`
	BillMonth int    `json:"bill_month"`
	BillYear  int    `json:"bill_year"`

	Lines     []LineResponse                   `json:"lines"`
	Breakdown map[MembershipTier]TierBreakdown `json:"breakdown"`
	Payments  []PaymentRef                     `json:"payments,omitempty"`

	TotalAmount  float64 `json:"total_amount"`
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
	TotalOverdue float64 `json:"total_overdue"`

	Status      BillStatus `json:"status"`
	DueDate     string     `json:"due_date"`
	IsCurrent   bool       `json:"is_current"`
	IsFinalized bool       `json:"is_finalized"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

type LineResponse struct {
	MemberID       int64          `json:"member_id"`
	MemberName     string         `json:"member_name"`
	Phone          string         `json:"phone,omitempty"`
	Email          string         `json:"email,omitempty"`
	Tier           MembershipTier `json:"tier"`
	MonthlyFee     float64        `json:"monthly_fee"`
	DaysActive     int            `json:"days_active"`
	DaysInMonth    int            `json:"days_in_month"`
	ProRatedAmount float64        `json:"pro_rated_amount"`
	IsActive       bool           `json:"is_active"`
}

type HistoryResponse struct {
	GymID int64          `json:"gym_id"`
	Bills []BillResponse `json:"bills"`
	Count int            `json:"count"`
}

// Round2 rounds a monetary amount to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToResponse converts a bill to its display form.
func (b *MonthlyBill) ToResponse() BillResponse {
	lines := make([]LineResponse, 0, len(b.Lines))
	for _, l := range b.Lines {
		lines = append(lines, LineResponse{
			MemberID:       l.MemberID,
			MemberName:     l.MemberName,
			Phone:          l.Phone,
			Email:          l.Email,
			Tier:           l.Tier,
			MonthlyFee:     Round2(l.MonthlyFee),
			DaysActive:     l.DaysActive,
			DaysInMonth:    l.DaysInMonth,
			ProRatedAmount: Round2(l.ProRatedAmount),
			IsActive:       l.IsActive,
		})
	}

	breakdown := make(map[MembershipTier]TierBreakdown, len(b.Breakdown))
	for tier, tb := range b.Breakdown {
		breakdown[tier] = TierBreakdown{
			MemberCount:   tb.MemberCount,
			TotalAmount:   Round2(tb.TotalAmount),
			PaidAmount:    Round2(tb.PaidAmount),
			PendingAmount: Round2(tb.PendingAmount),
		}
	}

	return BillResponse{
		ID:           b.ID,
		GymID:        b.GymID,
		BillMonth:    b.BillMonth,
		BillYear:     b.BillYear,
		Lines:        lines,
		Breakdown:    breakdown,
		Payments:     b.Payments,
		TotalAmount:  Round2(b.TotalAmount),
		TotalPaid:    Round2(b.TotalPaid),
		TotalPending: Round2(b.TotalPending),
		TotalOverdue: Round2(b.TotalOverdue),
		Status:       b.Status,
		DueDate:      b.DueDate.Format("2006-01-02"),
		IsCurrent:    !b.IsFinalized,
		IsFinalized:  b.IsFinalized,
		FinalizedAt:  b.FinalizedAt,
	}
}
