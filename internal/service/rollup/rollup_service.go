// internal/service/rollup/rollup_service.go
package rollup

import (
	"context"
	"fmt"
	"time"

	"gymflow-service/internal/domain/billing"
	xerrors "gymflow-service/internal/pkg/errors"
	"gymflow-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

// BillProvider supplies materialized bills, live and finalized.
type BillProvider interface {
	GetCurrentMonthBill(ctx context.Context, gymID int64) (*billing.MonthlyBill, error)
	ListFinalizedBills(ctx context.Context, gymID int64, limit int) ([]billing.MonthlyBill, error)
}

// GymSource exposes the platform's gym and member population.
type GymSource interface {
	ListGymIDs(ctx context.Context) ([]int64, error)
	CountActiveMembers(ctx context.Context, asOf time.Time) (int64, error)
}

// SubscriptionRevenue totals the gyms' own CRM subscription payments.
type SubscriptionRevenue interface {
	SumCaptured(ctx context.Context, from, to time.Time) (float64, error)
}

// GymSummary aggregates one gym's finalized billing history. The current
// month is reported on the side and never counted into the pending figures:
// a month that has not ended is not owed yet.
type GymSummary struct {
	GymID               int64   `json:"gym_id"`
	TotalBilledAmount   float64 `json:"total_billed_amount"`
	TotalPaidTillNow    float64 `json:"total_paid_till_now"`
	TotalPendingAmount  float64 `json:"total_pending_amount"`
	TotalPendingBills   int     `json:"total_pending_bills"`
	TotalFullyPaidBills int     `json:"total_fully_paid_bills"`

	CurrentMonth *billing.BillResponse `json:"current_month,omitempty"`
}

// PlatformSummary rolls the whole platform up for one reporting period.
// Membership billing and subscription revenue stay attributed separately.
type PlatformSummary struct {
	Period               string  `json:"period"`
	TotalGyms            int     `json:"total_gyms"`
	TotalMembers         int64   `json:"total_members"`
	TotalBilledAmount    float64 `json:"total_billed_amount"`
	TotalRevenue         float64 `json:"total_revenue"`
	TotalPendingAmount   float64 `json:"total_pending_amount"`
	AverageRevenuePerGym float64 `json:"average_revenue_per_gym"`
	CollectionRate       float64 `json:"collection_rate"`
	SubscriptionRevenue  float64 `json:"subscription_revenue"`
	GymsSkipped          []int64 `json:"gyms_skipped,omitempty"`
}

type Service struct {
	bills  BillProvider
	source GymSource
	subs   SubscriptionRevenue
	logger *zap.Logger
	now    func() time.Time
}

func NewService(bills BillProvider, source GymSource, subs SubscriptionRevenue, logger *zap.Logger) *Service {
	return &Service{
		bills:  bills,
		source: source,
		subs:   subs,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GymSummary aggregates one gym's history. A failing live read surfaces as
// a transient error here: a single-gym report must not silently show zero.
func (s *Service) GymSummary(ctx context.Context, gymID int64) (*GymSummary, error) {
	finalized, err := s.bills.ListFinalizedBills(ctx, gymID, 0)
	if err != nil {
		return nil, err
	}

	summary := &GymSummary{GymID: gymID}
	for i := range finalized {
		b := &finalized[i]
		summary.TotalBilledAmount += b.TotalAmount
		summary.TotalPaidTillNow += b.TotalPaid
		summary.TotalPendingAmount += b.TotalPending
		if b.Status == billing.StatusFullyPaid {
			summary.TotalFullyPaidBills++
		} else {
			summary.TotalPendingBills++
		}
	}

	summary.TotalBilledAmount = billing.Round2(summary.TotalBilledAmount)
	summary.TotalPaidTillNow = billing.Round2(summary.TotalPaidTillNow)
	summary.TotalPendingAmount = billing.Round2(summary.TotalPendingAmount)

	current, err := s.bills.GetCurrentMonthBill(ctx, gymID)
	if err != nil {
		return nil, err
	}
	resp := current.ToResponse()
	summary.CurrentMonth = &resp

	return summary, nil
}

// PlatformSummary rolls up every gym for the reporting period. A gym whose
// live computation fails contributes zero and is listed under GymsSkipped;
// the report itself still succeeds.
func (s *Service) PlatformSummary(ctx context.Context, period string) (*PlatformSummary, error) {
	periodStart, err := s.parsePeriod(period)
	if err != nil {
		return nil, err
	}

	gymIDs, err := s.source.ListGymIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gym list: %v", xerrors.ErrUpstreamUnavailable, err)
	}

	now := s.now()
	summary := &PlatformSummary{
		Period:    periodStart.Format("2006-01"),
		TotalGyms: len(gymIDs),
	}

	for _, gymID := range gymIDs {
		live, err := s.bills.GetCurrentMonthBill(ctx, gymID)
		if err != nil {
			s.logger.Warn("dropping gym from platform rollup",
				zap.Int64("gym_id", gymID),
				zap.Error(err))
			metrics.RollupFailures.Inc()
			summary.GymsSkipped = append(summary.GymsSkipped, gymID)
		} else {
			summary.TotalBilledAmount += live.TotalAmount
			summary.TotalRevenue += live.TotalPaid
			summary.TotalPendingAmount += live.TotalPending
		}

		finalized, err := s.bills.ListFinalizedBills(ctx, gymID, 0)
		if err != nil {
			return nil, err
		}
		for i := range finalized {
			b := &finalized[i]
			if !s.inPeriod(b, periodStart) {
				continue
			}
			// A stray finalized row for the in-progress month would double
			// count against the live figure; the live computation wins.
			if b.BillMonth == int(now.Month()) && b.BillYear == now.Year() {
				continue
			}
			summary.TotalBilledAmount += b.TotalAmount
			summary.TotalRevenue += b.TotalPaid
			summary.TotalPendingAmount += b.TotalPending
		}
	}

	members, err := s.source.CountActiveMembers(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%w: member count: %v", xerrors.ErrUpstreamUnavailable, err)
	}
	summary.TotalMembers = members

	subRevenue, err := s.subs.SumCaptured(ctx, periodStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sum subscription revenue: %w", err)
	}
	summary.SubscriptionRevenue = billing.Round2(subRevenue)

	if summary.TotalGyms > 0 {
		summary.AverageRevenuePerGym = summary.TotalRevenue / float64(summary.TotalGyms)
	}
	if summary.TotalBilledAmount > 0 {
		summary.CollectionRate = summary.TotalRevenue / summary.TotalBilledAmount
	}

	summary.TotalBilledAmount = billing.Round2(summary.TotalBilledAmount)
	summary.TotalRevenue = billing.Round2(summary.TotalRevenue)
	summary.TotalPendingAmount = billing.Round2(summary.TotalPendingAmount)
	summary.AverageRevenuePerGym = billing.Round2(summary.AverageRevenuePerGym)

	return summary, nil
}

// parsePeriod accepts "YYYY-MM" as the start of the reporting period and
// defaults to the twelve months ending now.
func (s *Service) parsePeriod(period string) (time.Time, error) {
	if period == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0), nil
	}

	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: period %q, want YYYY-MM", xerrors.ErrInvalidInput, period)
	}
	return t, nil
}

func (s *Service) inPeriod(b *billing.MonthlyBill, periodStart time.Time) bool {
	monthStart, _ := billing.MonthBounds(b.BillYear, b.BillMonth)
	return !monthStart.Before(periodStart)
}
