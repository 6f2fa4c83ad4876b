package carsvc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carrental/model"
	carrepo "carrental/repository/car"
)

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrNotOwner     ErrCode = "NOT_OWNER"
	ErrUnavailable  ErrCode = "UNAVAILABLE"
	ErrInvalidRange ErrCode = "INVALID_RANGE"
	ErrRetired      ErrCode = "RETIRED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Create(ctx context.Context, c *model.Car) (int64, error)
	// Update edits listing details. Rate changes only affect future
	// quotes; existing bookings keep their frozen breakdown.
	Update(ctx context.Context, c *model.Car) error
	List(ctx context.Context, f carrepo.Filter) ([]model.Car, error)
	Detail(ctx context.Context, id int64) (*model.Car, error)
	Retire(ctx context.Context, id int64) error

	// Block claims [start,end) for owner maintenance under the same per-car
	// lock bookings use, so a block can never shadow a live booking.
	Block(ctx context.Context, actorID int64, isAdmin bool, carID int64, start, end time.Time) (int64, error)
	Unblock(ctx context.Context, actorID int64, isAdmin bool, carID, blockID int64) error
	Blocks(ctx context.Context, actorID int64, isAdmin bool, carID int64) ([]model.CarBlock, error)
}

type service struct {
	db *sql.DB
	r  carrepo.Repo
}

func New(db *sql.DB, r carrepo.Repo) Service { return &service{db: db, r: r} }

func (s *service) Create(ctx context.Context, c *model.Car) (int64, error) {
	if c.Name == "" || c.PricePerDay <= 0 {
		return 0, makeErr(ErrInvalidRange)
	}
	return s.r.CreateCar(ctx, c)
}

func (s *service) Update(ctx context.Context, c *model.Car) error {
	if c.Name == "" || c.PricePerDay <= 0 {
		return makeErr(ErrInvalidRange)
	}
	err := s.r.UpdateCar(ctx, c)
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	return err
}

func (s *service) List(ctx context.Context, f carrepo.Filter) ([]model.Car, error) {
	return s.r.List(ctx, f)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Car, error) {
	c, err := s.r.Detail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return c, err
}

func (s *service) Retire(ctx context.Context, id int64) error {
	if _, err := s.Detail(ctx, id); err != nil {
		return err
	}
	return s.r.Retire(ctx, id)
}

func (s *service) Block(ctx context.Context, actorID int64, isAdmin bool, carID int64, start, end time.Time) (id int64, err error) {
	if !end.After(start) {
		return 0, makeErr(ErrInvalidRange)
	}
	if err := s.authorize(ctx, actorID, isAdmin, carID); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, _, err = s.r.LockCar(ctx, tx, carID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, makeErr(ErrNotFound)
		}
		return 0, err
	}
	overlaps, err := s.r.HasOverlap(ctx, tx, carID, start, end)
	if err != nil {
		return 0, err
	}
	if overlaps {
		return 0, makeErr(ErrUnavailable)
	}

	if id, err = s.r.InsertBlock(ctx, tx, carID, start, end); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *service) Unblock(ctx context.Context, actorID int64, isAdmin bool, carID, blockID int64) error {
	if err := s.authorize(ctx, actorID, isAdmin, carID); err != nil {
		return err
	}
	removed, err := s.r.DeleteBlock(ctx, carID, blockID)
	if err != nil {
		return err
	}
	if !removed {
		return makeErr(ErrNotFound)
	}
	return nil
}

func (s *service) Blocks(ctx context.Context, actorID int64, isAdmin bool, carID int64) ([]model.CarBlock, error) {
	if err := s.authorize(ctx, actorID, isAdmin, carID); err != nil {
		return nil, err
	}
	return s.r.ListBlocks(ctx, carID)
}

func (s *service) authorize(ctx context.Context, actorID int64, isAdmin bool, carID int64) error {
	if isAdmin {
		return nil
	}
	ownerID, err := s.r.OwnerOf(ctx, carID)
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	if err != nil {
		return err
	}
	if ownerID != actorID {
		return makeErr(ErrNotOwner)
	}
	return nil
}
