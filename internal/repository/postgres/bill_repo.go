// internal/repository/postgres/bill_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymflow-service/internal/domain/billing"
	xerrors "gymflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BillRepository persists finalized monthly bills. Only derived-free facts
// are stored: the frozen lines plus the bill's identity and finalization
// stamp. Totals and status are always recomputed from lines and payments,
// so no stored figure can drift.
type BillRepository struct {
	db *pgxpool.Pool
}

func NewBillRepository(db *pgxpool.Pool) *BillRepository {
	return &BillRepository{db: db}
}

// InsertFinalized writes a finalized bill and its frozen lines in one
// transaction. The unique constraint on (gym_id, bill_month, bill_year)
// makes concurrent finalization safe: exactly one caller inserts, every
// other caller gets the stored record back with created=false.
func (r *BillRepository) InsertFinalized(ctx context.Context, bill *billing.MonthlyBill) (*billing.MonthlyBill, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var insertedID string
	err = tx.QueryRow(ctx, `
		INSERT INTO monthly_bills (id, gym_id, bill_month, bill_year, due_date, finalized_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (gym_id, bill_month, bill_year) DO NOTHING
		RETURNING id
	`, bill.ID, bill.GymID, bill.BillMonth, bill.BillYear, bill.DueDate, bill.FinalizedAt).Scan(&insertedID)

	if errors.Is(err, pgx.ErrNoRows) {
		// Another finalization won the race or already ran. Idempotent
		// success: hand back the existing record untouched.
		existing, ferr := r.FindByMonth(ctx, bill.GymID, bill.BillMonth, bill.BillYear)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert bill: %w", err)
	}

	for _, line := range bill.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO bill_lines (
				bill_id, member_id, member_name, phone, email,
				tier, monthly_fee, days_active, days_in_month,
				pro_rated_amount, is_active
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, bill.ID, line.MemberID, line.MemberName, line.Phone, line.Email,
			line.Tier, line.MonthlyFee, line.DaysActive, line.DaysInMonth,
			line.ProRatedAmount, line.IsActive)
		if err != nil {
			return nil, false, fmt.Errorf("failed to insert bill line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit bill: %w", err)
	}

	return bill, true, nil
}

// FindByID retrieves a finalized bill with its frozen lines.
func (r *BillRepository) FindByID(ctx context.Context, id string) (*billing.MonthlyBill, error) {
	query := `
		SELECT id, gym_id, bill_month, bill_year, due_date, finalized_at
		FROM monthly_bills
		WHERE id = $1
	`
	return r.scanBill(ctx, r.db.QueryRow(ctx, query, id))
}

// FindByMonth retrieves the finalized bill for one (gym, month, year).
func (r *BillRepository) FindByMonth(ctx context.Context, gymID int64, month, year int) (*billing.MonthlyBill, error) {
	query := `
		SELECT id, gym_id, bill_month, bill_year, due_date, finalized_at
		FROM monthly_bills
		WHERE gym_id = $1 AND bill_month = $2 AND bill_year = $3
	`
	return r.scanBill(ctx, r.db.QueryRow(ctx, query, gymID, month, year))
}

// ListFinalized returns a gym's finalized bills, most recent month first.
// limit <= 0 returns all of them.
func (r *BillRepository) ListFinalized(ctx context.Context, gymID int64, limit int) ([]billing.MonthlyBill, error) {
	query := `
		SELECT id, gym_id, bill_month, bill_year, due_date, finalized_at
		FROM monthly_bills
		WHERE gym_id = $1
		ORDER BY bill_year DESC, bill_month DESC
	`
	args := []interface{}{gymID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []billing.MonthlyBill
	for rows.Next() {
		var bill billing.MonthlyBill
		var finalizedAt time.Time
		if err := rows.Scan(&bill.ID, &bill.GymID, &bill.BillMonth, &bill.BillYear, &bill.DueDate, &finalizedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bill.IsFinalized = true
		bill.FinalizedAt = &finalizedAt
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bills: %w", err)
	}

	for i := range bills {
		if err := r.loadLines(ctx, &bills[i]); err != nil {
			return nil, err
		}
	}

	return bills, nil
}

func (r *BillRepository) scanBill(ctx context.Context, row pgx.Row) (*billing.MonthlyBill, error) {
	var bill billing.MonthlyBill
	var finalizedAt time.Time

	err := row.Scan(&bill.ID, &bill.GymID, &bill.BillMonth, &bill.BillYear, &bill.DueDate, &finalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}

	bill.IsFinalized = true
	bill.FinalizedAt = &finalizedAt

	if err := r.loadLines(ctx, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *BillRepository) loadLines(ctx context.Context, bill *billing.MonthlyBill) error {
	rows, err := r.db.Query(ctx, `
		SELECT member_id, member_name, COALESCE(phone, ''), COALESCE(email, ''),
		       tier, monthly_fee, days_active, days_in_month, pro_rated_amount, is_active
		FROM bill_lines
		WHERE bill_id = $1
		ORDER BY member_id
	`, bill.ID)
	if err != nil {
		return fmt.Errorf("failed to load bill lines: %w", err)
	}
	defer rows.Close()

	bill.Lines = nil
	bill.TotalAmount = 0
	for rows.Next() {
		var line billing.MemberBillingLine
		var tier string
		if err := rows.Scan(
			&line.MemberID, &line.MemberName, &line.Phone, &line.Email,
			&tier, &line.MonthlyFee, &line.DaysActive, &line.DaysInMonth,
			&line.ProRatedAmount, &line.IsActive,
		); err != nil {
			return fmt.Errorf("failed to scan bill line: %w", err)
		}
		line.Tier = billing.MembershipTier(tier)
		bill.Lines = append(bill.Lines, line)
		bill.TotalAmount += line.ProRatedAmount
	}

	return rows.Err()
}
