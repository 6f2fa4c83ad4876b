package bookingsvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"carrental/config"
	"carrental/model"
	authrepo "carrental/repository/auth"
	bookingrepo "carrental/repository/booking"
	carrepo "carrental/repository/car"
	"carrental/repository/notify"
	paymentrepo "carrental/repository/payment"
	pricingsvc "carrental/service/pricing"
	"carrental/util/otp"
)

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrUnavailable     ErrCode = "UNAVAILABLE"
	ErrInvalidRange    ErrCode = "INVALID_RANGE"
	ErrRetired         ErrCode = "RETIRED"
	ErrStateTransition ErrCode = "STATE_TRANSITION"
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
	// Quote prices a range without claiming it. Availability conflicts
	// surface here, not later at approval.
	Quote(ctx context.Context, carID int64, start, end time.Time) (model.Breakdown, error)

	// Reserve atomically checks availability and claims [start,end) for the
	// renter. The claim is a soft hold until a payment arrives.
	Reserve(ctx context.Context, renterID, carID int64, start, end time.Time) (*model.Booking, error)

	Cancel(ctx context.Context, actorID int64, admin bool, bookingID int64) (refund float64, err error)
	SubmitDocuments(ctx context.Context, renterID, bookingID int64, docs *model.Documents) (*model.Booking, error)

	Approve(ctx context.Context, bookingID int64) (*model.Booking, error)
	Reject(ctx context.Context, bookingID int64) error

	Get(ctx context.Context, id int64) (*model.Booking, error)
	MyBookings(ctx context.Context, renterID int64, phase bookingrepo.Phase) ([]model.Booking, error)
	Approvals(ctx context.Context) ([]model.Booking, error)
	All(ctx context.Context) ([]model.Booking, error)
	ByOwner(ctx context.Context, ownerID int64) ([]model.Booking, error)
	LiveRides(ctx context.Context) ([]model.Booking, error)
}

type service struct {
	db  *sql.DB
	br  bookingrepo.Repo
	cr  carrepo.Repo
	pr  paymentrepo.Repo
	ur  authrepo.Repo
	nt  notify.Notifier
	cfg config.App
	log *slog.Logger
}

func New(db *sql.DB, br bookingrepo.Repo, cr carrepo.Repo, pr paymentrepo.Repo,
	ur authrepo.Repo, nt notify.Notifier, cfg config.App, log *slog.Logger) Service {
	return &service{db: db, br: br, cr: cr, pr: pr, ur: ur, nt: nt, cfg: cfg, log: log}
}

func (s *service) Quote(ctx context.Context, carID int64, start, end time.Time) (model.Breakdown, error) {
	car, err := s.cr.Detail(ctx, carID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Breakdown{}, makeErr(ErrNotFound)
	}
	if err != nil {
		return model.Breakdown{}, err
	}
	if car.Retired {
		return model.Breakdown{}, makeErr(ErrRetired)
	}

	b, err := pricingsvc.Quote(car.PricePerDay, start, end, s.cfg.Pricing)
	if err != nil {
		return model.Breakdown{}, makeErr(ErrInvalidRange)
	}

	// Availability pre-check, read-only; the binding check happens again
	// under the car lock at reserve time.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return model.Breakdown{}, err
	}
	defer tx.Rollback()
	overlaps, err := s.cr.HasOverlap(ctx, tx, carID, start, end)
	if err != nil {
		return model.Breakdown{}, err
	}
	if overlaps {
		return model.Breakdown{}, makeErr(ErrUnavailable)
	}
	return b, nil
}

func (s *service) Reserve(ctx context.Context, renterID, carID int64, start, end time.Time) (bk *model.Booking, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock serializes concurrent reservations per car: of two overlapping
	// attempts exactly one sees the other's insert.
	pricePerDay, retired, err := s.cr.LockCar(ctx, tx, carID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if retired {
		return nil, makeErr(ErrRetired)
	}

	breakdown, err := pricingsvc.Quote(pricePerDay, start, end, s.cfg.Pricing)
	if err != nil {
		return nil, makeErr(ErrInvalidRange)
	}

	overlaps, err := s.cr.HasOverlap(ctx, tx, carID, start, end)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, makeErr(ErrUnavailable)
	}

	hold := time.Now().UTC().Add(s.cfg.Booking.ReserveHoldTTL)
	bk = &model.Booking{
		CarID:      carID,
		RenterID:   renterID,
		StartTime:  start,
		EndTime:    end,
		Status:     model.BookingReserved,
		RideStatus: model.RideNone,
		Breakdown:  breakdown,
		HoldUntil:  &hold,
	}
	if _, err = s.br.Insert(ctx, tx, bk); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.send(ctx, renterID, notify.KindBookingReserved, map[string]any{
		"booking_id": bk.ID,
		"total":      breakdown.TotalAmount,
		"hold_until": hold,
	})
	return bk, nil
}

// Cancel refunds a share of the amount paid based on how far out pickup is.
// Admin cancellation is an override and always refunds in full.
func (s *service) Cancel(ctx context.Context, actorID int64, admin bool, bookingID int64) (refund float64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.br.GetForUpdate(ctx, tx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, makeErr(ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	if !admin && b.RenterID != actorID {
		return 0, makeErr(ErrNotOwner)
	}
	if b.Status == model.BookingCancelled || b.RideStatus != model.RideNone {
		return 0, makeErr(ErrStateTransition)
	}

	frac := 1.0
	if !admin {
		frac = pricingsvc.RefundFraction(time.Now(), b.StartTime)
	}
	refund = frac * b.DownPayment

	if err = s.br.Cancel(ctx, tx, bookingID, time.Now().UTC()); err != nil {
		return 0, err
	}
	if refund > 0 {
		if err = s.pr.InsertRefund(ctx, tx, bookingID, b.RenterID, refund); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.send(ctx, b.RenterID, notify.KindBookingCancelled, map[string]any{
		"booking_id": bookingID,
		"refund":     refund,
	})
	return refund, nil
}

func (s *service) SubmitDocuments(ctx context.Context, renterID, bookingID int64, docs *model.Documents) (out *model.Booking, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.br.GetForUpdate(ctx, tx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, makeErr(ErrNotOwner)
	}
	if b.Status != model.BookingPendingApproval && b.Status != model.BookingDocsRejected {
		return nil, makeErr(ErrStateTransition)
	}

	if err = s.br.SetDocuments(ctx, tx, bookingID, docs); err != nil {
		return nil, err
	}
	// Resubmission after rejection re-enters the approval queue.
	if b.Status == model.BookingDocsRejected {
		if err = s.br.UpdateStatus(ctx, tx, bookingID, model.BookingPendingApproval); err != nil {
			return nil, err
		}
		b.Status = model.BookingPendingApproval
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	b.Documents = docs
	return b, nil
}

// Approve moves a booking to APPROVED and mints the two single-use ride
// codes. The codes are shown to the renter only; the owner learns them at
// the car.
func (s *service) Approve(ctx context.Context, bookingID int64) (out *model.Booking, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.br.GetForUpdate(ctx, tx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPendingApproval {
		return nil, makeErr(ErrStateTransition)
	}

	startOTP, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	endOTP, err := otp.Generate()
	if err != nil {
		return nil, err
	}

	if err = s.br.SetOTPs(ctx, tx, bookingID, startOTP, endOTP); err != nil {
		return nil, err
	}
	if err = s.br.UpdateStatus(ctx, tx, bookingID, model.BookingApproved); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	b.Status = model.BookingApproved
	b.StartOTP, b.EndOTP = &startOTP, &endOTP
	s.send(ctx, b.RenterID, notify.KindBookingApproved, map[string]any{
		"booking_id": bookingID,
		"start_otp":  startOTP,
		"end_otp":    endOTP,
	})
	return b, nil
}

func (s *service) Reject(ctx context.Context, bookingID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.br.GetForUpdate(ctx, tx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	if err != nil {
		return err
	}
	if b.Status != model.BookingPendingApproval {
		return makeErr(ErrStateTransition)
	}

	if err = s.br.UpdateStatus(ctx, tx, bookingID, model.BookingDocsRejected); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.send(ctx, b.RenterID, notify.KindDocsRejected, map[string]any{"booking_id": bookingID})
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Booking, error) {
	b, err := s.br.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return b, err
}

func (s *service) MyBookings(ctx context.Context, renterID int64, phase bookingrepo.Phase) ([]model.Booking, error) {
	return s.br.ListByRenter(ctx, renterID, phase)
}

func (s *service) Approvals(ctx context.Context) ([]model.Booking, error) {
	return s.br.ListByStatus(ctx, model.BookingPendingApproval)
}

func (s *service) All(ctx context.Context) ([]model.Booking, error) {
	return s.br.ListAll(ctx)
}

func (s *service) ByOwner(ctx context.Context, ownerID int64) ([]model.Booking, error) {
	return s.br.ListByOwner(ctx, ownerID)
}

func (s *service) LiveRides(ctx context.Context) ([]model.Booking, error) {
	return s.br.ListLiveRides(ctx)
}

// send delivers a notification without ever failing the caller.
func (s *service) send(ctx context.Context, userID int64, kind notify.Kind, payload map[string]any) {
	recipient := strconv.FormatInt(userID, 10)
	if u, err := s.ur.ByID(ctx, userID); err == nil {
		recipient = u.Email
	}
	if err := s.nt.Send(ctx, notify.Message{Recipient: recipient, Kind: kind, Payload: payload}); err != nil {
		s.log.Error("notify failed", "kind", kind, "user_id", userID, "err", err)
	}
}
