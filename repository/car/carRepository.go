// repository/car/carRepository.go
package carrepo

import (
	"context"
	"database/sql"
	"time"

	"carrental/model"
)

// Filter narrows the public catalog listing. Zero values mean "any".
type Filter struct {
	Location string
	Seats    int
	FuelType string
}

type Repo interface {
	CreateCar(ctx context.Context, c *model.Car) (int64, error)
	UpdateCar(ctx context.Context, c *model.Car) error
	List(ctx context.Context, f Filter) ([]model.Car, error)
	Detail(ctx context.Context, id int64) (*model.Car, error)
	Retire(ctx context.Context, id int64) error
	OwnerOf(ctx context.Context, carID int64) (int64, error)

	// LockCar serializes all range claims for one car. Every overlap
	// check-and-insert runs between LockCar and tx commit.
	LockCar(ctx context.Context, tx *sql.Tx, carID int64) (pricePerDay float64, retired bool, err error)
	HasOverlap(ctx context.Context, tx *sql.Tx, carID int64, start, end time.Time) (bool, error)

	InsertBlock(ctx context.Context, tx *sql.Tx, carID int64, start, end time.Time) (int64, error)
	DeleteBlock(ctx context.Context, carID, blockID int64) (bool, error)
	ListBlocks(ctx context.Context, carID int64) ([]model.CarBlock, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) CreateCar(ctx context.Context, c *model.Car) (int64, error) {
	const q = `
INSERT INTO cars (owner_id, name, brand, location, seats, fuel_type, transmission, price_per_day, image)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		c.OwnerID, c.Name, c.Brand, c.Location, c.Seats, c.FuelType, c.Transmission, c.PricePerDay, c.Image,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) UpdateCar(ctx context.Context, c *model.Car) error {
	const q = `
UPDATE cars
SET name = $2, brand = $3, location = $4, seats = $5, fuel_type = $6,
    transmission = $7, price_per_day = $8, image = $9
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		c.ID, c.Name, c.Brand, c.Location, c.Seats, c.FuelType, c.Transmission, c.PricePerDay, c.Image,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Car, error) {
	const q = `
SELECT id, owner_id, name, brand, location, seats, fuel_type, transmission, price_per_day, image, retired
FROM cars
WHERE retired = FALSE
  AND ($1 = '' OR location ILIKE '%' || $1 || '%')
  AND ($2 = 0  OR seats = $2)
  AND ($3 = '' OR fuel_type = $3)
ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, f.Location, f.Seats, f.FuelType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Car
	for rows.Next() {
		var c model.Car
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Brand, &c.Location, &c.Seats,
			&c.FuelType, &c.Transmission, &c.PricePerDay, &c.Image, &c.Retired); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Car, error) {
	const q = `
SELECT id, owner_id, name, brand, location, seats, fuel_type, transmission, price_per_day, image, retired
FROM cars
WHERE id = $1`
	var c model.Car
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Brand,
		&c.Location, &c.Seats, &c.FuelType, &c.Transmission, &c.PricePerDay, &c.Image, &c.Retired)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Retire soft-retires a car. Rows are never deleted while bookings reference them.
func (r *repo) Retire(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cars SET retired = TRUE WHERE id = $1`, id)
	return err
}

func (r *repo) OwnerOf(ctx context.Context, carID int64) (int64, error) {
	var ownerID int64
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM cars WHERE id = $1`, carID).Scan(&ownerID)
	return ownerID, err
}

func (r *repo) LockCar(ctx context.Context, tx *sql.Tx, carID int64) (float64, bool, error) {
	const q = `
		SELECT price_per_day, retired
		FROM cars
		WHERE id = $1
		FOR UPDATE`
	var price float64
	var retired bool
	err := tx.QueryRowContext(ctx, q, carID).Scan(&price, &retired)
	return price, retired, err
}

// HasOverlap reports whether [start,end) collides with an owner block or a
// booking that still holds its range. Half-open: touching endpoints are fine.
// Expired RESERVED holds are ignored; the sweeper cancels them lazily.
func (r *repo) HasOverlap(ctx context.Context, tx *sql.Tx, carID int64, start, end time.Time) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM car_blocks
	WHERE car_id = $1 AND start_time < $3 AND $2 < end_time
) OR EXISTS (
	SELECT 1 FROM bookings
	WHERE car_id = $1
	  AND status IN ('RESERVED','PENDING_APPROVAL','APPROVED')
	  AND ride_status <> 'COMPLETED'
	  AND (status <> 'RESERVED' OR hold_until IS NULL OR hold_until > NOW())
	  AND start_time < $3 AND $2 < end_time
)`
	var overlaps bool
	err := tx.QueryRowContext(ctx, q, carID, start, end).Scan(&overlaps)
	return overlaps, err
}

func (r *repo) InsertBlock(ctx context.Context, tx *sql.Tx, carID int64, start, end time.Time) (int64, error) {
	const q = `
INSERT INTO car_blocks (car_id, start_time, end_time)
VALUES ($1,$2,$3)
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, carID, start, end).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) DeleteBlock(ctx context.Context, carID, blockID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM car_blocks WHERE id = $1 AND car_id = $2`, blockID, carID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *repo) ListBlocks(ctx context.Context, carID int64) ([]model.CarBlock, error) {
	const q = `
SELECT id, car_id, start_time, end_time
FROM car_blocks
WHERE car_id = $1
ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, carID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CarBlock
	for rows.Next() {
		var b model.CarBlock
		if err := rows.Scan(&b.ID, &b.CarID, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
