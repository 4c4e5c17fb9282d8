// internal/domain/membership/entity.go
package membership

import (
	"time"

	"gymflow-service/internal/domain/billing"
)

// MemberRecord is one member's activity span as reported by the membership
// records collaborator. ActiveTo is nil while the membership is open-ended.
type MemberRecord struct {
	MemberID   int64                  `json:"member_id" db:"id"`
	GymID      int64                  `json:"gym_id" db:"gym_id"`
	Name       string                 `json:"name" db:"name"`
	Phone      string                 `json:"phone" db:"phone"`
	Email      string                 `json:"email" db:"email"`
	Tier       billing.MembershipTier `json:"tier" db:"tier"`
	MonthlyFee float64                `json:"monthly_fee" db:"monthly_fee"`
	ActiveFrom time.Time              `json:"active_from" db:"active_from"`
	ActiveTo   *time.Time             `json:"active_to,omitempty" db:"active_to"`
}

// ActiveOn reports whether the membership covers the given day.
func (m *MemberRecord) ActiveOn(day time.Time) bool {
	if day.Before(m.ActiveFrom) {
		return false
	}
	return m.ActiveTo == nil || !day.After(*m.ActiveTo)
}
