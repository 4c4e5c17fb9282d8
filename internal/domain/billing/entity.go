// internal/domain/billing/entity.go
package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type MembershipTier string

const (
	TierBasic            MembershipTier = "basic"
	TierPremium          MembershipTier = "premium"
	TierVIP              MembershipTier = "vip"
	TierPersonalTraining MembershipTier = "personal_training"
)

// AllTiers returns every membership tier in display order. Breakdown maps
// are built over this slice so a new tier cannot be silently skipped.
func AllTiers() []MembershipTier {
	return []MembershipTier{TierBasic, TierPremium, TierVIP, TierPersonalTraining}
}

// Valid reports whether t is one of the known tiers.
func (t MembershipTier) Valid() bool {
	switch t {
	case TierBasic, TierPremium, TierVIP, TierPersonalTraining:
		return true
	}
	return false
}

type BillStatus string

const (
	StatusPending   BillStatus = "pending"
	StatusOverdue   BillStatus = "overdue"
	StatusFullyPaid BillStatus = "fully_paid"
)

// MemberBillingLine is one member's contribution to one month's bill.
// For a finalized bill the line is frozen history and is never recomputed.
type MemberBillingLine struct {
	MemberID       int64          `json:"member_id" db:"member_id"`
	MemberName     string         `json:"member_name" db:"member_name"`
	Phone          string         `json:"phone,omitempty" db:"phone"`
	Email          string         `json:"email,omitempty" db:"email"`
	Tier           MembershipTier `json:"tier" db:"tier"`
	MonthlyFee     float64        `json:"monthly_fee" db:"monthly_fee"`
	DaysActive     int            `json:"days_active" db:"days_active"`
	DaysInMonth    int            `json:"days_in_month" db:"days_in_month"`
	ProRatedAmount float64        `json:"pro_rated_amount" db:"pro_rated_amount"`
	IsActive       bool           `json:"is_active" db:"is_active"`
}

// TierBreakdown is the per-tier subtotal of a bill. It is derived from the
// lines whenever a bill is materialized, never stored on its own.
type TierBreakdown struct {
	MemberCount   int     `json:"member_count"`
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
}

// MonthlyBill is the aggregate bill for one (gym, month, year).
//
// Totals are always live sums over Lines and Payments; no total is stored
// independently, so they cannot drift from their parts.
type MonthlyBill struct {
	ID        string `json:"id"`
	GymID     int64  `json:"gym_id"`
	BillMonth int    `json:"bill_month"`
	BillYear  int    `json:"bill_year"`

	Lines     []MemberBillingLine              `json:"lines"`
	Breakdown map[MembershipTier]TierBreakdown `json:"breakdown"`
	Payments  []PaymentRef                     `json:"payments,omitempty"`

	TotalAmount  float64 `json:"total_amount"`
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
	TotalOverdue float64 `json:"total_overdue"`

	Status      BillStatus `json:"status"`
	DueDate     time.Time  `json:"due_date"`
	IsFinalized bool       `json:"is_finalized"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// PaymentRef is the bill-embedded view of a settlement event.
type PaymentRef struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	ExternalTxnID *string   `json:"external_txn_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	ProcessedBy   int64     `json:"processed_by,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
}

// FullyPaid reports whether the bill is settled in full.
func (b *MonthlyBill) FullyPaid() bool {
	return b.TotalAmount > 0 && b.TotalPaid >= b.TotalAmount
}

const currentBillPrefix = "current"

// CurrentBillID synthesizes the identifier of a gym's live current-month
// bill. The current month is never persisted, so it has no stored key.
func CurrentBillID(gymID int64, year, month int) string {
	return fmt.Sprintf("%s-%d-%d-%d", currentBillPrefix, gymID, year, month)
}

// ParseCurrentBillID reverses CurrentBillID. ok is false for stored ids.
func ParseCurrentBillID(id string) (gymID int64, year, month int, ok bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 || parts[0] != currentBillPrefix {
		return 0, 0, 0, false
	}
	gymID, err1 := strconv.ParseInt(parts[1], 10, 64)
	year, err2 := strconv.Atoi(parts[2])
	month, err3 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return gymID, year, month, true
}

// MonthBounds returns the first and last calendar day of a month.
func MonthBounds(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// DaysInMonth returns the calendar length of a month (28-31).
func DaysInMonth(year, month int) int {
	_, end := MonthBounds(year, month)
	return end.Day()
}
