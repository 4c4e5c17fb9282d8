package rollup

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymflow-service/internal/domain/billing"
	xerrors "gymflow-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBills struct {
	current   map[int64]*billing.MonthlyBill
	finalized map[int64][]billing.MonthlyBill
	liveErr   map[int64]error
}

func (f *fakeBills) GetCurrentMonthBill(_ context.Context, gymID int64) (*billing.MonthlyBill, error) {
	if err := f.liveErr[gymID]; err != nil {
		return nil, err
	}
	if b, ok := f.current[gymID]; ok {
		return b, nil
	}
	return &billing.MonthlyBill{GymID: gymID, BillMonth: 6, BillYear: 2026, Status: billing.StatusPending}, nil
}

func (f *fakeBills) ListFinalizedBills(_ context.Context, gymID int64, _ int) ([]billing.MonthlyBill, error) {
	return f.finalized[gymID], nil
}

type fakeGyms struct {
	ids     []int64
	members int64
}

func (f *fakeGyms) ListGymIDs(context.Context) ([]int64, error) { return f.ids, nil }

func (f *fakeGyms) CountActiveMembers(context.Context, time.Time) (int64, error) {
	return f.members, nil
}

type fakeSubs struct {
	total float64
}

func (f *fakeSubs) SumCaptured(context.Context, time.Time, time.Time) (float64, error) {
	return f.total, nil
}

func finalizedBill(gymID int64, month, year int, total, paid float64) billing.MonthlyBill {
	status := billing.StatusOverdue
	pending := total - paid
	if pending <= 0 && total > 0 {
		status = billing.StatusFullyPaid
		pending = 0
	}
	return billing.MonthlyBill{
		ID:           "fin",
		GymID:        gymID,
		BillMonth:    month,
		BillYear:     year,
		TotalAmount:  total,
		TotalPaid:    paid,
		TotalPending: pending,
		Status:       status,
		IsFinalized:  true,
	}
}

func newRollup(bills *fakeBills, gyms *fakeGyms, subs *fakeSubs) *Service {
	return NewService(bills, gyms, subs, zap.NewNop()).
		WithClock(func() time.Time { return time.Date(2026, time.June, 20, 12, 0, 0, 0, time.UTC) })
}

func TestGymSummaryCountsOnlyFinalizedMonths(t *testing.T) {
	bills := &fakeBills{
		current: map[int64]*billing.MonthlyBill{
			7: {GymID: 7, BillMonth: 6, BillYear: 2026, TotalAmount: 500, TotalPending: 500, Status: billing.StatusPending},
		},
		finalized: map[int64][]billing.MonthlyBill{
			7: {
				finalizedBill(7, 5, 2026, 1000, 1000),
				finalizedBill(7, 4, 2026, 1000, 400),
			},
		},
	}
	svc := newRollup(bills, &fakeGyms{ids: []int64{7}}, &fakeSubs{})

	summary, err := svc.GymSummary(context.Background(), 7)
	require.NoError(t, err)

	assert.InDelta(t, 2000, summary.TotalBilledAmount, 1e-9)
	assert.InDelta(t, 1400, summary.TotalPaidTillNow, 1e-9)
	// The in-progress month's 500 is not owed yet and stays out of pending.
	assert.InDelta(t, 600, summary.TotalPendingAmount, 1e-9)
	assert.Equal(t, 1, summary.TotalFullyPaidBills)
	assert.Equal(t, 1, summary.TotalPendingBills)

	require.NotNil(t, summary.CurrentMonth)
	assert.InDelta(t, 500, summary.CurrentMonth.TotalAmount, 1e-9)
}

func TestGymSummarySurfacesLiveFailure(t *testing.T) {
	bills := &fakeBills{
		liveErr: map[int64]error{7: xerrors.ErrUpstreamUnavailable},
	}
	svc := newRollup(bills, &fakeGyms{ids: []int64{7}}, &fakeSubs{})

	_, err := svc.GymSummary(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, xerrors.Retryable(err))
}

func TestPlatformSummarySkipsFailingGyms(t *testing.T) {
	bills := &fakeBills{
		current: map[int64]*billing.MonthlyBill{
			7: {GymID: 7, BillMonth: 6, BillYear: 2026, TotalAmount: 500, TotalPaid: 200, TotalPending: 300},
		},
		finalized: map[int64][]billing.MonthlyBill{
			7: {finalizedBill(7, 5, 2026, 1000, 1000)},
			8: {finalizedBill(8, 5, 2026, 2000, 500)},
		},
		liveErr: map[int64]error{8: errors.New("connection refused")},
	}
	svc := newRollup(bills, &fakeGyms{ids: []int64{7, 8}, members: 120}, &fakeSubs{total: 999})

	summary, err := svc.PlatformSummary(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalGyms)
	assert.Equal(t, []int64{8}, summary.GymsSkipped)
	assert.Equal(t, int64(120), summary.TotalMembers)

	// Gym 7 live + both gyms' finalized May bills.
	assert.InDelta(t, 3500, summary.TotalBilledAmount, 1e-9)
	assert.InDelta(t, 1700, summary.TotalRevenue, 1e-9)
	assert.InDelta(t, 1800, summary.TotalPendingAmount, 1e-9)
	assert.InDelta(t, 999, summary.SubscriptionRevenue, 1e-9)
	assert.InDelta(t, 850, summary.AverageRevenuePerGym, 1e-9)
	assert.InDelta(t, 1700.0/3500.0, summary.CollectionRate, 1e-6)
}

func TestPlatformSummaryIgnoresStrayCurrentMonthRow(t *testing.T) {
	bills := &fakeBills{
		current: map[int64]*billing.MonthlyBill{
			7: {GymID: 7, BillMonth: 6, BillYear: 2026, TotalAmount: 500, TotalPending: 500},
		},
		finalized: map[int64][]billing.MonthlyBill{
			// A finalized row for the in-progress month must not double
			// count against the live figure.
			7: {finalizedBill(7, 6, 2026, 500, 0)},
		},
	}
	svc := newRollup(bills, &fakeGyms{ids: []int64{7}}, &fakeSubs{})

	summary, err := svc.PlatformSummary(context.Background(), "")
	require.NoError(t, err)
	assert.InDelta(t, 500, summary.TotalBilledAmount, 1e-9)
}

func TestPlatformSummaryPeriodFilter(t *testing.T) {
	bills := &fakeBills{
		finalized: map[int64][]billing.MonthlyBill{
			7: {
				finalizedBill(7, 5, 2026, 1000, 1000),
				finalizedBill(7, 1, 2024, 800, 800),
			},
		},
	}
	svc := newRollup(bills, &fakeGyms{ids: []int64{7}}, &fakeSubs{})

	summary, err := svc.PlatformSummary(context.Background(), "2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-01", summary.Period)
	// The 2024 bill predates the period and is excluded.
	assert.InDelta(t, 1000, summary.TotalBilledAmount, 1e-9)

	_, err = svc.PlatformSummary(context.Background(), "January 2026")
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.ErrInvalidInput))
}
