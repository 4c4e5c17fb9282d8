// internal/repository/postgres/payment_event_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gymflow-service/internal/domain/payment"
	xerrors "gymflow-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentEventRepository is the append-only settlement ledger. Events are
// never updated or deleted; a bill's paid total is the sum over its events.
type PaymentEventRepository struct {
	db *pgxpool.Pool
}

func NewPaymentEventRepository(db *pgxpool.Pool) *PaymentEventRepository {
	return &PaymentEventRepository{db: db}
}

// Append records one settlement event. A partial unique index on the
// external transaction id backs gateway-level dedupe: re-applying the same
// transaction returns ErrDuplicateEntry and writes nothing.
func (r *PaymentEventRepository) Append(ctx context.Context, ev *payment.Event) error {
	query := `
		INSERT INTO payment_events (
			id, gym_id, bill_month, bill_year, amount, method,
			external_txn_id, description, processed_by, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		ev.ID, ev.GymID, ev.BillMonth, ev.BillYear, ev.Amount, ev.Method,
		ev.ExternalTxnID, ev.Description, ev.ProcessedBy, ev.PaidAt,
	).Scan(&ev.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to append payment event: %w", err)
	}

	return nil
}

// ListForMonth returns every settlement event for one (gym, month, year),
// oldest first.
func (r *PaymentEventRepository) ListForMonth(ctx context.Context, gymID int64, month, year int) ([]payment.Event, error) {
	query := `
		SELECT id, gym_id, bill_month, bill_year, amount, method,
		       external_txn_id, COALESCE(description, ''), processed_by, paid_at, created_at
		FROM payment_events
		WHERE gym_id = $1 AND bill_month = $2 AND bill_year = $3
		ORDER BY paid_at ASC
	`

	rows, err := r.db.Query(ctx, query, gymID, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	defer rows.Close()

	var events []payment.Event
	for rows.Next() {
		var ev payment.Event
		var method string
		if err := rows.Scan(
			&ev.ID, &ev.GymID, &ev.BillMonth, &ev.BillYear, &ev.Amount, &method,
			&ev.ExternalTxnID, &ev.Description, &ev.ProcessedBy, &ev.PaidAt, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment event: %w", err)
		}
		ev.Method = payment.Method(method)
		events = append(events, ev)
	}

	return events, rows.Err()
}

// FindByExternalTxnID looks up an event by its gateway transaction id.
func (r *PaymentEventRepository) FindByExternalTxnID(ctx context.Context, gymID int64, month, year int, txnID string) (*payment.Event, error) {
	query := `
		SELECT id, gym_id, bill_month, bill_year, amount, method,
		       external_txn_id, COALESCE(description, ''), processed_by, paid_at, created_at
		FROM payment_events
		WHERE gym_id = $1 AND bill_month = $2 AND bill_year = $3 AND external_txn_id = $4
	`

	var ev payment.Event
	var method string
	err := r.db.QueryRow(ctx, query, gymID, month, year, txnID).Scan(
		&ev.ID, &ev.GymID, &ev.BillMonth, &ev.BillYear, &ev.Amount, &method,
		&ev.ExternalTxnID, &ev.Description, &ev.ProcessedBy, &ev.PaidAt, &ev.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment event: %w", err)
	}

	ev.Method = payment.Method(method)
	return &ev, nil
}
