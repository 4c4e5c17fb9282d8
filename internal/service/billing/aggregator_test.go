package billing

import (
	"testing"
	"time"

	"gymflow-service/internal/domain/billing"
	"gymflow-service/internal/domain/membership"
	"gymflow-service/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id, gymID int64, tier billing.MembershipTier, fee float64, from time.Time, to *time.Time) membership.MemberRecord {
	return membership.MemberRecord{
		MemberID:   id,
		GymID:      gymID,
		Name:       "member",
		Tier:       tier,
		MonthlyFee: fee,
		ActiveFrom: from,
		ActiveTo:   to,
	}
}

func TestBuildBillTotalIsSumOfLines(t *testing.T) {
	now := day(2026, time.June, 20)
	records := []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 900, day(2026, time.January, 1), nil),
		member(2, 7, billing.TierPremium, 41.67, day(2026, time.June, 16), nil),
		member(3, 7, billing.TierVIP, 600, day(2025, time.March, 1), dayPtr(2026, time.June, 10)),
	}

	bill := BuildBill(7, 6, 2026, records, now)

	require.Len(t, bill.Lines, 3)
	sum := 0.0
	for _, line := range bill.Lines {
		sum += line.ProRatedAmount
	}
	assert.InDelta(t, sum, bill.TotalAmount, 1e-9)
	assert.Equal(t, billing.CurrentBillID(7, 2026, 6), bill.ID)
	assert.Equal(t, day(2026, time.June, 30), bill.DueDate)
}

func TestBuildBillSkipsInactiveSpans(t *testing.T) {
	now := day(2026, time.June, 20)
	records := []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 900, day(2026, time.January, 1), dayPtr(2026, time.May, 31)),
		member(2, 7, billing.TierBasic, 900, day(2026, time.July, 1), nil),
	}

	bill := BuildBill(7, 6, 2026, records, now)
	assert.Empty(t, bill.Lines)
	assert.Zero(t, bill.TotalAmount)
}

func TestBuildBillIgnoresOtherGyms(t *testing.T) {
	now := day(2026, time.June, 20)
	records := []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 900, day(2026, time.January, 1), nil),
		member(2, 8, billing.TierBasic, 900, day(2026, time.January, 1), nil),
	}

	bill := BuildBill(7, 6, 2026, records, now)
	require.Len(t, bill.Lines, 1)
	assert.Equal(t, int64(1), bill.Lines[0].MemberID)
}

func TestBuildBillBreakdownCoversEveryTier(t *testing.T) {
	now := day(2026, time.June, 20)
	records := []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 500, day(2026, time.January, 1), nil),
		member(2, 7, billing.TierBasic, 500, day(2026, time.January, 1), nil),
		member(3, 7, billing.TierVIP, 2000, day(2026, time.January, 1), nil),
	}

	bill := BuildBill(7, 6, 2026, records, now)

	require.Len(t, bill.Breakdown, len(billing.AllTiers()))
	assert.Equal(t, 2, bill.Breakdown[billing.TierBasic].MemberCount)
	assert.InDelta(t, 1000, bill.Breakdown[billing.TierBasic].TotalAmount, 1e-9)
	assert.Equal(t, 1, bill.Breakdown[billing.TierVIP].MemberCount)
	assert.Zero(t, bill.Breakdown[billing.TierPremium].MemberCount)
	assert.Zero(t, bill.Breakdown[billing.TierPersonalTraining].MemberCount)

	total := 0.0
	for _, tb := range bill.Breakdown {
		total += tb.TotalAmount
	}
	assert.InDelta(t, bill.TotalAmount, total, 1e-9)
}

func TestApplyPaymentsDerivesStatus(t *testing.T) {
	now := day(2026, time.June, 20)
	records := []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 1000, day(2026, time.January, 1), nil),
	}

	t.Run("pending before due date", func(t *testing.T) {
		bill := BuildBill(7, 6, 2026, records, now)
		ApplyPayments(bill, nil, now)
		assert.Equal(t, billing.StatusPending, bill.Status)
		assert.InDelta(t, 1000, bill.TotalPending, 1e-9)
		assert.Zero(t, bill.TotalOverdue)
	})

	t.Run("overdue after due date", func(t *testing.T) {
		bill := BuildBill(7, 6, 2026, records, now)
		ApplyPayments(bill, nil, day(2026, time.July, 1))
		assert.Equal(t, billing.StatusOverdue, bill.Status)
		assert.InDelta(t, 1000, bill.TotalOverdue, 1e-9)
	})

	t.Run("fully paid wins over overdue", func(t *testing.T) {
		bill := BuildBill(7, 6, 2026, records, now)
		events := []payment.Event{
			{ID: "p1", Amount: 600, Method: payment.MethodCash, PaidAt: now},
			{ID: "p2", Amount: 400, Method: payment.MethodGateway, PaidAt: now},
		}
		ApplyPayments(bill, events, day(2026, time.July, 15))
		assert.Equal(t, billing.StatusFullyPaid, bill.Status)
		assert.InDelta(t, 1000, bill.TotalPaid, 1e-9)
		assert.Zero(t, bill.TotalPending)
		assert.Zero(t, bill.TotalOverdue)
		require.Len(t, bill.Payments, 2)
	})
}

func TestApplyPaymentsOverpaymentClampsPending(t *testing.T) {
	now := day(2026, time.June, 20)
	bill := BuildBill(7, 6, 2026, []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 1000, day(2026, time.January, 1), nil),
	}, now)

	ApplyPayments(bill, []payment.Event{
		{ID: "p1", Amount: 1200, Method: payment.MethodBank, PaidAt: now},
	}, now)

	assert.Zero(t, bill.TotalPending)
	assert.InDelta(t, 1200, bill.TotalPaid, 1e-9)
	assert.Equal(t, billing.StatusFullyPaid, bill.Status)
}

func TestApplyPaymentsAllocatesTierSplitProportionally(t *testing.T) {
	now := day(2026, time.June, 20)
	bill := BuildBill(7, 6, 2026, []membership.MemberRecord{
		member(1, 7, billing.TierBasic, 750, day(2026, time.January, 1), nil),
		member(2, 7, billing.TierVIP, 250, day(2026, time.January, 1), nil),
	}, now)

	// Half the bill is paid, so each tier shows half its subtotal paid.
	ApplyPayments(bill, []payment.Event{
		{ID: "p1", Amount: 500, Method: payment.MethodUPI, PaidAt: now},
	}, now)

	assert.InDelta(t, 375, bill.Breakdown[billing.TierBasic].PaidAmount, 1e-9)
	assert.InDelta(t, 375, bill.Breakdown[billing.TierBasic].PendingAmount, 1e-9)
	assert.InDelta(t, 125, bill.Breakdown[billing.TierVIP].PaidAmount, 1e-9)
	assert.InDelta(t, 125, bill.Breakdown[billing.TierVIP].PendingAmount, 1e-9)
}

func TestRoundingHappensOnlyInResponse(t *testing.T) {
	now := day(2026, time.June, 20)
	bill := BuildBill(7, 6, 2026, []membership.MemberRecord{
		member(1, 7, billing.TierPremium, 41.67, day(2026, time.June, 16), nil),
	}, now)

	// Internal figure keeps full precision.
	assert.InDelta(t, 20.835, bill.TotalAmount, 1e-9)

	resp := bill.ToResponse()
	assert.InDelta(t, 20.84, resp.TotalAmount, 1e-9)
	require.Len(t, resp.Lines, 1)
	assert.InDelta(t, 20.84, resp.Lines[0].ProRatedAmount, 1e-9)
}
