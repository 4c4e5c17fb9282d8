// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gymflow-service/internal/domain/subscription"
	xerrors "gymflow-service/internal/pkg/errors"
	"gymflow-service/internal/repository/postgres"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Service records the gyms' payments for their own CRM subscription plans.
// These are platform revenue, not membership billing, and the two are never
// folded together.
type Service struct {
	repo   *postgres.SubscriptionPaymentRepository
	logger *zap.Logger
}

func NewService(repo *postgres.SubscriptionPaymentRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RecordPayment stores a subscription payment for a gym. A payment id in
// the input marks it captured immediately (offline/recorded payments);
// otherwise it stays in created until the gateway confirms.
func (s *Service) RecordPayment(ctx context.Context, gymID int64, input *subscription.RecordPaymentInput) (*subscription.Payment, error) {
	if gymID <= 0 {
		return nil, fmt.Errorf("%w: gym id", xerrors.ErrInvalidInput)
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = "INR"
	}

	now := time.Now()
	p := &subscription.Payment{
		ID:             ulid.Make().String(),
		GymID:          gymID,
		PlanType:       input.PlanType,
		DurationMonths: input.DurationMonths,
		Amount:         input.Amount,
		Currency:       currency,
		StartsOn:       now,
		EndsOn:         now.AddDate(0, input.DurationMonths, 0),
		OrderID:        input.OrderID,
		PaymentID:      input.PaymentID,
		Status:         subscription.PaymentStatusCreated,
	}
	if input.PaymentID != nil && *input.PaymentID != "" {
		p.Status = subscription.PaymentStatusCaptured
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("subscription payment recorded",
		zap.Int64("gym_id", gymID),
		zap.String("payment_id", p.ID),
		zap.String("plan_type", string(p.PlanType)),
		zap.Float64("amount", p.Amount),
		zap.String("status", string(p.Status)))

	return p, nil
}

// CapturePayment marks a created subscription payment captured after the
// gateway confirms it.
func (s *Service) CapturePayment(ctx context.Context, id, gatewayPaymentID string) (*subscription.Payment, error) {
	if err := s.repo.MarkCaptured(ctx, id, gatewayPaymentID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// ListPayments returns a gym's subscription payments, newest first.
func (s *Service) ListPayments(ctx context.Context, gymID int64, filters *subscription.ListFilters) ([]subscription.Payment, error) {
	return s.repo.ListByGym(ctx, gymID, filters.Limit, filters.Offset)
}
