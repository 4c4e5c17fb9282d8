// internal/repository/postgres/subscription_payment_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymflow-service/internal/domain/subscription"
	xerrors "gymflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionPaymentRepository stores the gyms' own CRM subscription
// payments, kept apart from membership billing.
type SubscriptionPaymentRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionPaymentRepository(db *pgxpool.Pool) *SubscriptionPaymentRepository {
	return &SubscriptionPaymentRepository{db: db}
}

func (r *SubscriptionPaymentRepository) Create(ctx context.Context, p *subscription.Payment) error {
	query := `
		INSERT INTO subscription_payments (
			id, gym_id, plan_type, duration_months, amount, currency,
			starts_on, ends_on, order_id, payment_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.GymID, p.PlanType, p.DurationMonths, p.Amount, p.Currency,
		p.StartsOn, p.EndsOn, p.OrderID, p.PaymentID, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription payment: %w", err)
	}

	return nil
}

func (r *SubscriptionPaymentRepository) FindByID(ctx context.Context, id string) (*subscription.Payment, error) {
	query := `
		SELECT id, gym_id, plan_type, duration_months, amount, currency,
		       starts_on, ends_on, order_id, payment_id, status, created_at, updated_at
		FROM subscription_payments
		WHERE id = $1
	`

	var p subscription.Payment
	var planType, status string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.GymID, &planType, &p.DurationMonths, &p.Amount, &p.Currency,
		&p.StartsOn, &p.EndsOn, &p.OrderID, &p.PaymentID, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription payment: %w", err)
	}

	p.PlanType = subscription.PlanType(planType)
	p.Status = subscription.PaymentStatus(status)
	return &p, nil
}

// MarkCaptured transitions a created payment to captured with the gateway
// payment id. Already-captured rows are left untouched.
func (r *SubscriptionPaymentRepository) MarkCaptured(ctx context.Context, id, paymentID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE subscription_payments
		SET payment_id = $2, status = 'captured', updated_at = NOW()
		WHERE id = $1 AND status = 'created'
	`, id, paymentID)
	if err != nil {
		return fmt.Errorf("failed to capture subscription payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrConflict
	}
	return nil
}

func (r *SubscriptionPaymentRepository) ListByGym(ctx context.Context, gymID int64, limit, offset int) ([]subscription.Payment, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, gym_id, plan_type, duration_months, amount, currency,
		       starts_on, ends_on, order_id, payment_id, status, created_at, updated_at
		FROM subscription_payments
		WHERE gym_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, gymID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription payments: %w", err)
	}
	defer rows.Close()

	var payments []subscription.Payment
	for rows.Next() {
		var p subscription.Payment
		var planType, status string
		if err := rows.Scan(
			&p.ID, &p.GymID, &planType, &p.DurationMonths, &p.Amount, &p.Currency,
			&p.StartsOn, &p.EndsOn, &p.OrderID, &p.PaymentID, &status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription payment: %w", err)
		}
		p.PlanType = subscription.PlanType(planType)
		p.Status = subscription.PaymentStatus(status)
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

// SumCaptured totals captured subscription revenue created in [from, to].
func (r *SubscriptionPaymentRepository) SumCaptured(ctx context.Context, from, to time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM subscription_payments
		WHERE status = 'captured' AND created_at >= $1 AND created_at < $2
	`

	var total float64
	if err := r.db.QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum subscription revenue: %w", err)
	}
	return total, nil
}
