// internal/service/billing/proration.go
package billing

import (
	"time"

	"gymflow-service/internal/domain/billing"
)

// Prorate computes one member's owed fraction of a fixed monthly fee for
// the month bounded by [monthStart, monthEnd].
//
// daysActive is the inclusive day-count of the overlap between the
// membership span and the month. A membership that starts and ends on the
// same day counts as one active day. A nil activeTo means the membership is
// open-ended and runs through monthEnd. Spans that miss the month entirely
// yield zero; the function is total and never fails.
func Prorate(fee float64, activeFrom time.Time, activeTo *time.Time, monthStart, monthEnd time.Time) (daysActive, daysInMonth int, amount float64) {
	monthStart = dateOnly(monthStart)
	monthEnd = dateOnly(monthEnd)
	daysInMonth = int(monthEnd.Sub(monthStart).Hours()/24) + 1

	start := dateOnly(activeFrom)
	if start.Before(monthStart) {
		start = monthStart
	}

	end := monthEnd
	if activeTo != nil {
		if t := dateOnly(*activeTo); t.Before(end) {
			end = t
		}
	}

	if end.Before(start) {
		return 0, daysInMonth, 0
	}

	daysActive = int(end.Sub(start).Hours()/24) + 1
	amount = fee * float64(daysActive) / float64(daysInMonth)
	return daysActive, daysInMonth, amount
}

// dateOnly truncates a timestamp to its calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ProrateMonth is Prorate with the month given as (month, year).
func ProrateMonth(fee float64, activeFrom time.Time, activeTo *time.Time, month, year int) (daysActive, daysInMonth int, amount float64) {
	start, end := billing.MonthBounds(year, month)
	return Prorate(fee, activeFrom, activeTo, start, end)
}
