package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, league_id, user_id, amount_cents, currency, status, gateway_ref, created_at, paid_at`

// Insert persists a new pending payment.
func (r *Repository) Insert(ctx context.Context, payment Payment) (Payment, error) {
	const query = `
INSERT INTO payments (id, league_id, user_id, amount_cents, currency, status, gateway_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at`
	row := r.pool.QueryRow(ctx, query,
		payment.ID, payment.LeagueID, payment.UserID, payment.AmountCents,
		payment.Currency, string(payment.Status), payment.GatewayRef, payment.CreatedAt)
	if err := row.Scan(&payment.CreatedAt); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// Get fetches a payment by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, err
	}
	return payment, nil
}

// SetGatewayRef stores the checkout session reference.
func (r *Repository) SetGatewayRef(ctx context.Context, id uuid.UUID, ref string) error {
	_, err := r.pool.Exec(ctx, `UPDATE payments SET gateway_ref = $2 WHERE id = $1`, id, ref)
	return err
}

// MarkPaid settles a pending payment. Returns false when the payment is
// missing or already settled.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE payments SET status = 'paid', paid_at = $2 WHERE id = $1 AND status = 'pending'`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed flags a payment whose checkout could not be opened or settled.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE payments SET status = 'failed', paid_at = NULL WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByLeague returns all payments in a league, newest first.
func (r *Repository) ListByLeague(ctx context.Context, leagueID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE league_id = $1 ORDER BY created_at DESC`, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, payment)
	}
	return out, rows.Err()
}

// FinanceSummary aggregates collection status for a league.
func (r *Repository) FinanceSummary(ctx context.Context, leagueID int64) (FinanceSummary, error) {
	const query = `
SELECT
  COUNT(*) FILTER (WHERE status = 'paid'),
  COUNT(*) FILTER (WHERE status = 'pending'),
  COUNT(*) FILTER (WHERE status = 'failed'),
  COALESCE(SUM(amount_cents) FILTER (WHERE status = 'paid'), 0)
FROM payments WHERE league_id = $1`
	summary := FinanceSummary{LeagueID: leagueID}
	err := r.pool.QueryRow(ctx, query, leagueID).Scan(
		&summary.PaidCount, &summary.PendingCount, &summary.FailedCount, &summary.TotalPaidCents)
	if err != nil {
		return FinanceSummary{}, err
	}
	return summary, nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		payment Payment
		status  string
	)
	err := row.Scan(
		&payment.ID, &payment.LeagueID, &payment.UserID, &payment.AmountCents,
		&payment.Currency, &status, &payment.GatewayRef, &payment.CreatedAt, &payment.PaidAt)
	if err != nil {
		return Payment{}, err
	}
	payment.Status = Status(status)
	return payment, nil
}
