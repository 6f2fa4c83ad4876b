package earningsrepo

import (
	"context"
	"database/sql"
	"time"
)

// Row is one approved booking's contribution to an earnings report.
type Row struct {
	BookingID   int64     `json:"booking_id"`
	CarID       int64     `json:"car_id"`
	CarName     string    `json:"car_name"`
	StartTime   time.Time `json:"start_time"`
	TotalAmount float64   `json:"total_amount"`
}

type Repo interface {
	// ApprovedByOwner returns approved bookings for the owner's cars,
	// optionally narrowed by year and/or month (zero means any).
	ApprovedByOwner(ctx context.Context, ownerID int64, year, month int) ([]Row, error)
	// ApprovedAll is the platform-wide equivalent.
	ApprovedAll(ctx context.Context, year, month int) ([]Row, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const baseQuery = `
SELECT b.id, b.car_id, c.name, b.start_time, b.total_amount
FROM bookings b
JOIN cars c ON c.id = b.car_id
WHERE b.status = 'APPROVED'`

func (r *repo) ApprovedByOwner(ctx context.Context, ownerID int64, year, month int) ([]Row, error) {
	q := baseQuery + `
  AND c.owner_id = $1
  AND ($2 = 0 OR EXTRACT(YEAR FROM b.start_time) = $2)
  AND ($3 = 0 OR EXTRACT(MONTH FROM b.start_time) = $3)
ORDER BY b.start_time`
	return r.query(ctx, q, ownerID, year, month)
}

func (r *repo) ApprovedAll(ctx context.Context, year, month int) ([]Row, error) {
	q := baseQuery + `
  AND ($1 = 0 OR EXTRACT(YEAR FROM b.start_time) = $1)
  AND ($2 = 0 OR EXTRACT(MONTH FROM b.start_time) = $2)
ORDER BY b.start_time`
	return r.query(ctx, q, year, month)
}

func (r *repo) query(ctx context.Context, q string, args ...any) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.BookingID, &row.CarID, &row.CarName, &row.StartTime, &row.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
