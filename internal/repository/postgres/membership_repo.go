// internal/repository/postgres/membership_repo.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"gymflow-service/internal/domain/billing"
	"gymflow-service/internal/domain/membership"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepository is the read side of the membership records
// collaborator. Member CRUD lives in the membership service; billing only
// ever queries activity spans.
type MembershipRepository struct {
	db *pgxpool.Pool
}

func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// ListActiveMemberships returns every member of a gym whose activity span
// overlaps [monthStart, monthEnd].
func (r *MembershipRepository) ListActiveMemberships(ctx context.Context, gymID int64, monthStart, monthEnd time.Time) ([]membership.MemberRecord, error) {
	query := `
		SELECT id, gym_id, name, COALESCE(phone, ''), COALESCE(email, ''),
		       tier, monthly_fee, active_from, active_to
		FROM membership_records
		WHERE gym_id = $1
		  AND active_from <= $2
		  AND (active_to IS NULL OR active_to >= $3)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, gymID, monthEnd, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var records []membership.MemberRecord
	for rows.Next() {
		var rec membership.MemberRecord
		var tier string
		if err := rows.Scan(
			&rec.MemberID, &rec.GymID, &rec.Name, &rec.Phone, &rec.Email,
			&tier, &rec.MonthlyFee, &rec.ActiveFrom, &rec.ActiveTo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan membership record: %w", err)
		}
		rec.Tier = billing.MembershipTier(tier)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read membership records: %w", err)
	}

	return records, nil
}

// ListGymIDs returns every gym that has membership records.
func (r *MembershipRepository) ListGymIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT gym_id FROM membership_records ORDER BY gym_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gyms: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan gym id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// CountActiveMembers counts members active on the given day, platform-wide.
func (r *MembershipRepository) CountActiveMembers(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM membership_records
		WHERE active_from <= $1
		  AND (active_to IS NULL OR active_to >= $1)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, asOf).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return count, nil
}
