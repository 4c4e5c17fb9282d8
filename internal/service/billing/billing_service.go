// internal/service/billing/billing_service.go
package billing

import (
	"context"
	"fmt"
	"time"

	"gymflow-service/internal/domain/billing"
	"gymflow-service/internal/domain/membership"
	"gymflow-service/internal/domain/payment"
	xerrors "gymflow-service/internal/pkg/errors"
	"gymflow-service/internal/pkg/metrics"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ActivitySource is the membership records collaborator. The billing core
// only ever reads from it; member CRUD belongs to the membership service.
type ActivitySource interface {
	ListActiveMemberships(ctx context.Context, gymID int64, monthStart, monthEnd time.Time) ([]membership.MemberRecord, error)
	ListGymIDs(ctx context.Context) ([]int64, error)
}

// BillStore persists finalized bills. The current month never touches it.
type BillStore interface {
	// InsertFinalized stores a finalized bill. If a record already exists
	// for the same (gym, month, year), the existing record is returned with
	// created=false and nothing is written.
	InsertFinalized(ctx context.Context, bill *billing.MonthlyBill) (stored *billing.MonthlyBill, created bool, err error)
	FindByID(ctx context.Context, id string) (*billing.MonthlyBill, error)
	FindByMonth(ctx context.Context, gymID int64, month, year int) (*billing.MonthlyBill, error)
	ListFinalized(ctx context.Context, gymID int64, limit int) ([]billing.MonthlyBill, error)
}

// PaymentStore reads settlement events for a bill's (gym, month, year) key.
type PaymentStore interface {
	ListForMonth(ctx context.Context, gymID int64, month, year int) ([]payment.Event, error)
}

type Service struct {
	source   ActivitySource
	bills    BillStore
	payments PaymentStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(source ActivitySource, bills BillStore, payments PaymentStore, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		bills:    bills,
		payments: payments,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetCurrentMonthBill recomputes the gym's live bill for the in-progress
// month. Nothing is cached or stored; every call reflects the membership
// data at the time of the read.
func (s *Service) GetCurrentMonthBill(ctx context.Context, gymID int64) (*billing.MonthlyBill, error) {
	now := s.now()
	return s.computeLive(ctx, gymID, int(now.Month()), now.Year())
}

func (s *Service) computeLive(ctx context.Context, gymID int64, month, year int) (*billing.MonthlyBill, error) {
	monthStart, monthEnd := billing.MonthBounds(year, month)

	records, err := s.source.ListActiveMemberships(ctx, gymID, monthStart, monthEnd)
	if err != nil {
		s.logger.Error("membership source unavailable",
			zap.Int64("gym_id", gymID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err))
		return nil, fmt.Errorf("%w: membership records for gym %d, %d-%02d: %v",
			xerrors.ErrUpstreamUnavailable, gymID, year, month, err)
	}

	events, err := s.payments.ListForMonth(ctx, gymID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for gym %d, %d-%02d: %w", gymID, year, month, err)
	}

	bill := BuildBill(gymID, month, year, records, s.now())
	ApplyPayments(bill, events, s.now())
	metrics.LiveBillComputations.Inc()
	return bill, nil
}

// GetBillingHistory returns the live current-month bill first, then up to
// monthsBack finalized months, most recent first. The current (month, year)
// pair is excluded from the historical set even if a stray record exists
// there: until finalization the live computation is authoritative.
func (s *Service) GetBillingHistory(ctx context.Context, gymID int64, monthsBack int) ([]billing.MonthlyBill, error) {
	if monthsBack <= 0 {
		monthsBack = 12
	}

	now := s.now()
	curMonth, curYear := int(now.Month()), now.Year()

	current, err := s.computeLive(ctx, gymID, curMonth, curYear)
	if err != nil {
		return nil, err
	}

	// Over-fetch by one so a stray current-month row cannot shrink the page.
	stored, err := s.bills.ListFinalized(ctx, gymID, monthsBack+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing history for gym %d: %w", gymID, err)
	}

	bills := make([]billing.MonthlyBill, 0, len(stored)+1)
	bills = append(bills, *current)
	for i := range stored {
		if stored[i].BillMonth == curMonth && stored[i].BillYear == curYear {
			continue
		}
		if len(bills) > monthsBack {
			break
		}
		if err := s.materialize(ctx, &stored[i]); err != nil {
			return nil, err
		}
		bills = append(bills, stored[i])
	}

	return bills, nil
}

// ListFinalizedBills returns a gym's finalized bills, fully materialized,
// most recent first. limit <= 0 returns the gym's entire history.
func (s *Service) ListFinalizedBills(ctx context.Context, gymID int64, limit int) ([]billing.MonthlyBill, error) {
	stored, err := s.bills.ListFinalized(ctx, gymID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized bills for gym %d: %w", gymID, err)
	}
	for i := range stored {
		if err := s.materialize(ctx, &stored[i]); err != nil {
			return nil, err
		}
	}
	return stored, nil
}

// GetBillDetail resolves either a synthesized current-month id or a stored
// bill id to a fully materialized bill.
func (s *Service) GetBillDetail(ctx context.Context, billID string) (*billing.MonthlyBill, error) {
	if gymID, year, month, ok := billing.ParseCurrentBillID(billID); ok {
		now := s.now()
		if month == int(now.Month()) && year == now.Year() {
			return s.computeLive(ctx, gymID, month, year)
		}
		// A current-style id for a closed month points at whatever was
		// frozen for it.
		bill, err := s.bills.FindByMonth(ctx, gymID, month, year)
		if err != nil {
			return nil, err
		}
		if err := s.materialize(ctx, bill); err != nil {
			return nil, err
		}
		return bill, nil
	}

	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := s.materialize(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// materialize layers payments and derived figures onto a stored bill. Lines
// are frozen history; everything payment-derived is recomputed at read time.
func (s *Service) materialize(ctx context.Context, bill *billing.MonthlyBill) error {
	events, err := s.payments.ListForMonth(ctx, bill.GymID, bill.BillMonth, bill.BillYear)
	if err != nil {
		return fmt.Errorf("failed to load payments for bill %s: %w", bill.ID, err)
	}
	if bill.Breakdown == nil {
		bill.Breakdown = buildBreakdown(bill)
	}
	ApplyPayments(bill, events, s.now())
	return nil
}

// FinalizeMonth freezes one gym's bill for a closed month into permanent
// history. It is idempotent: a repeat call finds the existing record and
// returns it unchanged. The current (or a future) month cannot be finalized.
func (s *Service) FinalizeMonth(ctx context.Context, gymID int64, month, year int) (*billing.MonthlyBill, error) {
	if month < 1 || month > 12 || year < 2000 {
		return nil, fmt.Errorf("%w: month %d, year %d", xerrors.ErrInvalidInput, month, year)
	}

	now := s.now()
	if year > now.Year() || (year == now.Year() && month >= int(now.Month())) {
		return nil, fmt.Errorf("%w: %d-%02d has not ended", xerrors.ErrMonthOpen, year, month)
	}

	monthStart, monthEnd := billing.MonthBounds(year, month)
	records, err := s.source.ListActiveMemberships(ctx, gymID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: membership records for gym %d, %d-%02d: %v",
			xerrors.ErrUpstreamUnavailable, gymID, year, month, err)
	}

	bill := BuildBill(gymID, month, year, records, now)
	bill.ID = ulid.Make().String()
	bill.IsFinalized = true
	finalizedAt := now
	bill.FinalizedAt = &finalizedAt

	stored, created, err := s.bills.InsertFinalized(ctx, bill)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize gym %d, %d-%02d: %w", gymID, year, month, err)
	}
	if created {
		metrics.BillsFinalized.Inc()
		s.logger.Info("billing month finalized",
			zap.Int64("gym_id", gymID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.String("bill_id", stored.ID),
			zap.Float64("total_amount", stored.TotalAmount),
			zap.Int("lines", len(stored.Lines)))
	} else {
		s.logger.Info("billing month already finalized, returning existing record",
			zap.Int64("gym_id", gymID),
			zap.Int("month", month),
			zap.Int("year", year),
			zap.String("bill_id", stored.ID))
	}

	if err := s.materialize(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// FinalizeAllGyms runs finalization for every known gym. One gym's failure
// does not stop the batch.
func (s *Service) FinalizeAllGyms(ctx context.Context, month, year int) (finalized []billing.MonthlyBill, failed []int64, err error) {
	gymIDs, err := s.source.ListGymIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: gym list: %v", xerrors.ErrUpstreamUnavailable, err)
	}

	for _, gymID := range gymIDs {
		bill, ferr := s.FinalizeMonth(ctx, gymID, month, year)
		if ferr != nil {
			s.logger.Warn("finalization failed for gym",
				zap.Int64("gym_id", gymID),
				zap.Int("month", month),
				zap.Int("year", year),
				zap.Error(ferr))
			failed = append(failed, gymID)
			continue
		}
		finalized = append(finalized, *bill)
	}

	return finalized, failed, nil
}
