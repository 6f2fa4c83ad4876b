package paymentrepo

import (
	"context"
	"database/sql"
	"time"

	"carrental/model"
)

type Repo interface {
	InsertOrder(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error)
	FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, orderID, gatewayPaymentID string, at time.Time) error
	InsertRefund(ctx context.Context, tx *sql.Tx, bookingID, userID int64, amount float64) error
	ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Payment, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) InsertOrder(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error) {
	const q = `
INSERT INTO payments (booking_id, user_id, kind, amount, status, gateway_order_id)
VALUES ($1,$2,$3,$4,'CREATED',$5)
RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, q,
		p.BookingID, p.UserID, p.Kind, p.Amount, p.GatewayOrderID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *repo) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	const q = `
SELECT id, booking_id, user_id, kind, amount, status, gateway_order_id, gateway_payment_id, created_at, paid_at
FROM payments
WHERE gateway_order_id = $1`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&p.ID, &p.BookingID, &p.UserID, &p.Kind, &p.Amount, &p.Status,
		&p.GatewayOrderID, &p.GatewayPaymentID, &p.CreatedAt, &p.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) MarkPaid(ctx context.Context, tx *sql.Tx, orderID, gatewayPaymentID string, at time.Time) error {
	const q = `
UPDATE payments
SET status = 'PAID', gateway_payment_id = $2, paid_at = $3
WHERE gateway_order_id = $1 AND status = 'CREATED'`
	res, err := tx.ExecContext(ctx, q, orderID, gatewayPaymentID, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertRefund records the money returned on cancellation. Refund rows carry
// no gateway order; they reference the booking they reverse.
func (r *repo) InsertRefund(ctx context.Context, tx *sql.Tx, bookingID, userID int64, amount float64) error {
	const q = `
INSERT INTO payments (booking_id, user_id, kind, amount, status, gateway_order_id, paid_at)
VALUES ($1,$2,'REFUND',$3,'REFUNDED','refund:' || $1 || ':' || extract(epoch from clock_timestamp()), NOW())`
	_, err := tx.ExecContext(ctx, q, bookingID, userID, amount)
	return err
}

func (r *repo) ListByBooking(ctx context.Context, bookingID int64) ([]model.Payment, error) {
	return r.list(ctx, `WHERE booking_id = $1`, bookingID)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Payment, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

func (r *repo) list(ctx context.Context, where string, arg any) ([]model.Payment, error) {
	const cols = `id, booking_id, user_id, kind, amount, status, gateway_order_id, gateway_payment_id, created_at, paid_at`
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cols+` FROM payments `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UserID, &p.Kind, &p.Amount, &p.Status,
			&p.GatewayOrderID, &p.GatewayPaymentID, &p.CreatedAt, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
