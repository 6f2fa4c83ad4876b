// repository/booking/bookingRepository.go
package bookingrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"carrental/model"
)

// Phase selects a dashboard slice of a renter's bookings.
type Phase string

const (
	PhaseLive      Phase = "live"
	PhasePast      Phase = "past"
	PhaseCancelled Phase = "cancelled"
)

type Repo interface {
	Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) (int64, error)
	Get(ctx context.Context, id int64) (*model.Booking, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)

	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
	SetPaymentSplit(ctx context.Context, tx *sql.Tx, id int64, down, due float64, status model.BookingStatus) error
	ClearDue(ctx context.Context, tx *sql.Tx, id int64) error
	SetDocuments(ctx context.Context, tx *sql.Tx, id int64, d *model.Documents) error
	SetOTPs(ctx context.Context, tx *sql.Tx, id int64, startOTP, endOTP string) error
	BumpOTPTries(ctx context.Context, tx *sql.Tx, id int64, end bool) (int, error)
	StartRide(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error
	EndRide(ctx context.Context, tx *sql.Tx, id int64) error
	Cancel(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error

	ListByRenter(ctx context.Context, renterID int64, phase Phase) ([]model.Booking, error)
	ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Booking, error)
	ListLiveRides(ctx context.Context) ([]model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)

	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)
	CancelOverdue(ctx context.Context, now time.Time, grace time.Duration) (int64, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const bookingCols = `
	id, car_id, renter_id, start_time, end_time, status, ride_status,
	car_price_total, car_wash_charge, late_night_charge, total_amount,
	down_payment, due_amount, hold_until,
	doc_name, doc_address, doc_contact, doc_files,
	start_otp, end_otp, start_otp_tries, end_otp_tries,
	actual_start_time, created_at, cancelled_at`

func scanBooking(row interface {
	Scan(dest ...any) error
}) (*model.Booking, error) {
	var b model.Booking
	var docName, docAddress, docContact sql.NullString
	var docFiles []byte
	err := row.Scan(
		&b.ID, &b.CarID, &b.RenterID, &b.StartTime, &b.EndTime, &b.Status, &b.RideStatus,
		&b.Breakdown.CarPriceTotal, &b.Breakdown.CarWashCharge, &b.Breakdown.LateNightCharge, &b.Breakdown.TotalAmount,
		&b.DownPayment, &b.DueAmount, &b.HoldUntil,
		&docName, &docAddress, &docContact, &docFiles,
		&b.StartOTP, &b.EndOTP, &b.StartOTPTries, &b.EndOTPTries,
		&b.ActualStartTime, &b.CreatedAt, &b.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if docName.Valid {
		d := &model.Documents{
			Name:    docName.String,
			Address: docAddress.String,
			Contact: docContact.String,
		}
		if len(docFiles) > 0 {
			_ = json.Unmarshal(docFiles, &d.Files)
		}
		b.Documents = d
	}
	return &b, nil
}

func (r *repo) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) (int64, error) {
	const q = `
INSERT INTO bookings (car_id, renter_id, start_time, end_time, status, ride_status,
	car_price_total, car_wash_charge, late_night_charge, total_amount, hold_until)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, q,
		b.CarID, b.RenterID, b.StartTime, b.EndTime, b.Status, b.RideStatus,
		b.Breakdown.CarPriceTotal, b.Breakdown.CarWashCharge, b.Breakdown.LateNightCharge,
		b.Breakdown.TotalAmount, b.HoldUntil,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

func (r *repo) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id))
}

func (r *repo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

func (r *repo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *repo) SetPaymentSplit(ctx context.Context, tx *sql.Tx, id int64, down, due float64, status model.BookingStatus) error {
	const q = `
UPDATE bookings
SET down_payment = $2, due_amount = $3, status = $4, hold_until = NULL
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, down, due, status)
	return err
}

func (r *repo) ClearDue(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `
UPDATE bookings
SET down_payment = down_payment + due_amount, due_amount = 0
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

func (r *repo) SetDocuments(ctx context.Context, tx *sql.Tx, id int64, d *model.Documents) error {
	files, err := json.Marshal(d.Files)
	if err != nil {
		return err
	}
	const q = `
UPDATE bookings
SET doc_name = $2, doc_address = $3, doc_contact = $4, doc_files = $5
WHERE id = $1`
	_, err = tx.ExecContext(ctx, q, id, d.Name, d.Address, d.Contact, files)
	return err
}

func (r *repo) SetOTPs(ctx context.Context, tx *sql.Tx, id int64, startOTP, endOTP string) error {
	const q = `
UPDATE bookings
SET start_otp = $2, end_otp = $3, start_otp_tries = 0, end_otp_tries = 0
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, startOTP, endOTP)
	return err
}

// BumpOTPTries increments the attempt counter for the start or end code and
// returns the new count, so the service can enforce lockout.
func (r *repo) BumpOTPTries(ctx context.Context, tx *sql.Tx, id int64, end bool) (int, error) {
	col := "start_otp_tries"
	if end {
		col = "end_otp_tries"
	}
	var n int
	err := tx.QueryRowContext(ctx,
		`UPDATE bookings SET `+col+` = `+col+` + 1 WHERE id = $1 RETURNING `+col, id).Scan(&n)
	return n, err
}

func (r *repo) StartRide(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error {
	const q = `
UPDATE bookings
SET ride_status = 'LIVE', actual_start_time = $2, start_otp = NULL
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, at)
	return err
}

func (r *repo) EndRide(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `
UPDATE bookings
SET ride_status = 'COMPLETED', end_otp = NULL
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

func (r *repo) Cancel(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error {
	const q = `
UPDATE bookings
SET status = 'CANCELLED', cancelled_at = $2, hold_until = NULL
WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, at)
	return err
}

func (r *repo) listWhere(ctx context.Context, where string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingCols+` FROM bookings `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) ListByRenter(ctx context.Context, renterID int64, phase Phase) ([]model.Booking, error) {
	switch phase {
	case PhasePast:
		return r.listWhere(ctx,
			`WHERE renter_id = $1 AND ride_status = 'COMPLETED' ORDER BY created_at DESC`, renterID)
	case PhaseCancelled:
		return r.listWhere(ctx,
			`WHERE renter_id = $1 AND status = 'CANCELLED' ORDER BY created_at DESC`, renterID)
	case PhaseLive:
		return r.listWhere(ctx,
			`WHERE renter_id = $1 AND status <> 'CANCELLED' AND ride_status <> 'COMPLETED' ORDER BY created_at DESC`, renterID)
	default:
		return r.listWhere(ctx, `WHERE renter_id = $1 ORDER BY created_at DESC`, renterID)
	}
}

func (r *repo) ListByStatus(ctx context.Context, status model.BookingStatus) ([]model.Booking, error) {
	return r.listWhere(ctx, `WHERE status = $1 ORDER BY created_at`, status)
}

func (r *repo) ListByOwner(ctx context.Context, ownerID int64) ([]model.Booking, error) {
	return r.listWhere(ctx,
		`WHERE car_id IN (SELECT id FROM cars WHERE owner_id = $1) ORDER BY created_at DESC`, ownerID)
}

func (r *repo) ListLiveRides(ctx context.Context) ([]model.Booking, error) {
	return r.listWhere(ctx, `WHERE ride_status = 'LIVE' ORDER BY actual_start_time`)
}

func (r *repo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.listWhere(ctx, `ORDER BY created_at DESC`)
}

// ReleaseExpiredHolds cancels RESERVED bookings whose hold lapsed before a
// payment arrived, freeing their calendar ranges.
func (r *repo) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	const q = `
UPDATE bookings
SET status = 'CANCELLED', cancelled_at = $1
WHERE status = 'RESERVED' AND hold_until IS NOT NULL AND hold_until < $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelOverdue cancels approved bookings whose due amount is still unpaid
// past start_time plus the grace period and whose ride never started.
func (r *repo) CancelOverdue(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	const q = `
UPDATE bookings
SET status = 'CANCELLED', cancelled_at = $1
WHERE status = 'APPROVED'
  AND ride_status = 'NONE'
  AND due_amount > 0
  AND start_time + make_interval(secs => $2) < $1`
	res, err := r.db.ExecContext(ctx, q, now, grace.Seconds())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
