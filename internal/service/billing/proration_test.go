package billing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func TestProrate(t *testing.T) {
	monthStart := day(2026, time.June, 1)
	monthEnd := day(2026, time.June, 30)

	tests := []struct {
		name       string
		fee        float64
		activeFrom time.Time
		activeTo   *time.Time
		wantDays   int
		wantAmount float64
	}{
		{
			name:       "full month open ended",
			fee:        900,
			activeFrom: day(2026, time.January, 1),
			wantDays:   30,
			wantAmount: 900,
		},
		{
			name:       "joins mid month",
			fee:        41.67,
			activeFrom: day(2026, time.June, 16),
			wantDays:   15,
			wantAmount: 20.835,
		},
		{
			name:       "leaves mid month",
			fee:        600,
			activeFrom: day(2025, time.March, 1),
			activeTo:   dayPtr(2026, time.June, 10),
			wantDays:   10,
			wantAmount: 200,
		},
		{
			name:       "joins and leaves same day",
			fee:        300,
			activeFrom: day(2026, time.June, 7),
			activeTo:   dayPtr(2026, time.June, 7),
			wantDays:   1,
			wantAmount: 10,
		},
		{
			name:       "span ends before month",
			fee:        500,
			activeFrom: day(2025, time.January, 1),
			activeTo:   dayPtr(2026, time.May, 31),
			wantDays:   0,
			wantAmount: 0,
		},
		{
			name:       "span starts after month",
			fee:        500,
			activeFrom: day(2026, time.July, 1),
			wantDays:   0,
			wantAmount: 0,
		},
		{
			name:       "zero fee",
			fee:        0,
			activeFrom: day(2026, time.June, 1),
			wantDays:   30,
			wantAmount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daysActive, daysInMonth, amount := Prorate(tt.fee, tt.activeFrom, tt.activeTo, monthStart, monthEnd)
			assert.Equal(t, tt.wantDays, daysActive)
			assert.Equal(t, 30, daysInMonth)
			assert.InDelta(t, tt.wantAmount, amount, 1e-9)
		})
	}
}

func TestProrateFebruaryLengths(t *testing.T) {
	// Leap year February has 29 days, a regular one 28.
	_, days, amount := ProrateMonth(290, day(2020, time.January, 1), nil, 2, 2020)
	require.Equal(t, 29, days)
	assert.InDelta(t, 290, amount, 1e-9)

	_, days, amount = ProrateMonth(280, day(2020, time.January, 1), nil, 2, 2021)
	require.Equal(t, 28, days)
	assert.InDelta(t, 280, amount, 1e-9)
}

func TestProrateFullMonthEqualsFee(t *testing.T) {
	// A member active the whole month owes exactly the fee, whatever the
	// month's length.
	for month := 1; month <= 12; month++ {
		days, daysInMonth, amount := ProrateMonth(1234.56, day(2024, time.January, 1), nil, month, 2025)
		assert.Equal(t, daysInMonth, days, "month %d", month)
		assert.InDelta(t, 1234.56, amount, 1e-9, "month %d", month)
	}
}

func TestProrateNeverExceedsFee(t *testing.T) {
	fee := 777.77
	for startDay := 1; startDay <= 30; startDay++ {
		_, _, amount := ProrateMonth(fee, day(2026, time.June, startDay), nil, 6, 2026)
		assert.LessOrEqual(t, amount, fee+1e-9)
		assert.GreaterOrEqual(t, amount, 0.0)
	}
}

func TestProrateIgnoresTimeOfDay(t *testing.T) {
	// A join at 23:59 counts the same calendar days as one at midnight.
	late := time.Date(2026, time.June, 16, 23, 59, 59, 0, time.UTC)
	daysLate, _, amountLate := ProrateMonth(41.67, late, nil, 6, 2026)
	daysMid, _, amountMid := ProrateMonth(41.67, day(2026, time.June, 16), nil, 6, 2026)
	assert.Equal(t, daysMid, daysLate)
	assert.True(t, math.Abs(amountLate-amountMid) < 1e-12)
}
