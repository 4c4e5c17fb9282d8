// internal/service/billing/aggregator.go
package billing

import (
	"time"

	"gymflow-service/internal/domain/billing"
	"gymflow-service/internal/domain/membership"
	"gymflow-service/internal/domain/payment"
)

// BuildBill combines every member's pro-rated amount for one (gym, month)
// into a single bill. The result carries no payments yet; ApplyPayments
// layers those on. TotalAmount is always the sum over the lines, never a
// cached figure.
//
// Records whose span misses the month entirely contribute no line.
func BuildBill(gymID int64, month, year int, records []membership.MemberRecord, now time.Time) *billing.MonthlyBill {
	monthStart, monthEnd := billing.MonthBounds(year, month)

	lines := make([]billing.MemberBillingLine, 0, len(records))
	total := 0.0
	for _, rec := range records {
		if rec.GymID != gymID {
			continue
		}
		daysActive, daysInMonth, amount := Prorate(rec.MonthlyFee, rec.ActiveFrom, rec.ActiveTo, monthStart, monthEnd)
		if daysActive == 0 {
			continue
		}
		lines = append(lines, billing.MemberBillingLine{
			MemberID:       rec.MemberID,
			MemberName:     rec.Name,
			Phone:          rec.Phone,
			Email:          rec.Email,
			Tier:           rec.Tier,
			MonthlyFee:     rec.MonthlyFee,
			DaysActive:     daysActive,
			DaysInMonth:    daysInMonth,
			ProRatedAmount: amount,
			IsActive:       rec.ActiveOn(dateOnly(now)),
		})
		total += amount
	}

	bill := &billing.MonthlyBill{
		ID:          billing.CurrentBillID(gymID, year, month),
		GymID:       gymID,
		BillMonth:   month,
		BillYear:    year,
		Lines:       lines,
		TotalAmount: total,
		DueDate:     monthEnd,
		Status:      billing.StatusPending,
	}
	bill.Breakdown = buildBreakdown(bill)
	return bill
}

// buildBreakdown groups the bill's lines by membership tier. The map is
// total over the tier enumeration, so every tier appears even when empty.
func buildBreakdown(bill *billing.MonthlyBill) map[billing.MembershipTier]billing.TierBreakdown {
	breakdown := make(map[billing.MembershipTier]billing.TierBreakdown, len(billing.AllTiers()))
	for _, tier := range billing.AllTiers() {
		breakdown[tier] = billing.TierBreakdown{}
	}
	for _, line := range bill.Lines {
		tb := breakdown[line.Tier]
		tb.MemberCount++
		tb.TotalAmount += line.ProRatedAmount
		breakdown[line.Tier] = tb
	}
	return breakdown
}

// ApplyPayments attaches settlement events to a bill and re-derives every
// figure that depends on them: paid/pending/overdue totals, the derived
// status, and the per-tier paid/pending split.
//
// Overdue is a pure function of the due date and the derived status; no
// stored overdue figure is ever trusted.
func ApplyPayments(bill *billing.MonthlyBill, events []payment.Event, now time.Time) {
	paid := 0.0
	refs := make([]billing.PaymentRef, 0, len(events))
	for _, ev := range events {
		paid += ev.Amount
		refs = append(refs, billing.PaymentRef{
			ID:            ev.ID,
			Amount:        ev.Amount,
			Method:        string(ev.Method),
			ExternalTxnID: ev.ExternalTxnID,
			Description:   ev.Description,
			ProcessedBy:   ev.ProcessedBy,
			PaidAt:        ev.PaidAt,
		})
	}

	bill.Payments = refs
	bill.TotalPaid = paid
	bill.TotalPending = bill.TotalAmount - paid
	if bill.TotalPending < 0 {
		bill.TotalPending = 0
	}

	switch {
	case bill.FullyPaid():
		bill.Status = billing.StatusFullyPaid
	case dateOnly(now).After(dateOnly(bill.DueDate)):
		bill.Status = billing.StatusOverdue
	default:
		bill.Status = billing.StatusPending
	}

	if bill.Status == billing.StatusOverdue {
		bill.TotalOverdue = bill.TotalPending
	} else {
		bill.TotalOverdue = 0
	}

	// Payments settle the bill as a whole, so the per-tier paid split is
	// allocated proportionally to each tier's share of the total.
	for tier, tb := range bill.Breakdown {
		if bill.TotalAmount > 0 {
			tb.PaidAmount = paid * tb.TotalAmount / bill.TotalAmount
		}
		tb.PendingAmount = tb.TotalAmount - tb.PaidAmount
		if tb.PendingAmount < 0 {
			tb.PendingAmount = 0
		}
		bill.Breakdown[tier] = tb
	}
}
