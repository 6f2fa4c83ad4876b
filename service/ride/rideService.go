package ridesvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"carrental/model"
	bookingrepo "carrental/repository/booking"
	carrepo "carrental/repository/car"
	"carrental/repository/notify"
	"carrental/util/otp"
)

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrInvalidOtp      ErrCode = "INVALID_OTP"
	ErrOtpLocked       ErrCode = "OTP_LOCKED"
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
	// VerifyStart consumes the start code: ride NONE -> LIVE, records the
	// actual pickup time. The code is invalidated on success.
	VerifyStart(ctx context.Context, ownerID, bookingID int64, code string) (*model.Booking, error)

	// VerifyEnd consumes the end code: ride LIVE -> COMPLETED.
	VerifyEnd(ctx context.Context, ownerID, bookingID int64, code string) (*model.Booking, error)

	// ForceEnd is the admin override for a stuck LIVE ride; no OTP.
	ForceEnd(ctx context.Context, bookingID int64) error
}

type service struct {
	db          *sql.DB
	br          bookingrepo.Repo
	cr          carrepo.Repo
	nt          notify.Notifier
	maxAttempts int
	log         *slog.Logger
}

func New(db *sql.DB, br bookingrepo.Repo, cr carrepo.Repo, nt notify.Notifier,
	maxAttempts int, log *slog.Logger) Service {
	return &service{db: db, br: br, cr: cr, nt: nt, maxAttempts: maxAttempts, log: log}
}

func (s *service) VerifyStart(ctx context.Context, ownerID, bookingID int64, code string) (*model.Booking, error) {
	return s.verify(ctx, ownerID, bookingID, code, false)
}

func (s *service) VerifyEnd(ctx context.Context, ownerID, bookingID int64, code string) (*model.Booking, error) {
	return s.verify(ctx, ownerID, bookingID, code, true)
}

func (s *service) verify(ctx context.Context, ownerID, bookingID int64, code string, end bool) (out *model.Booking, err error) {
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

	carOwner, err := s.cr.OwnerOf(ctx, b.CarID)
	if err != nil {
		return nil, err
	}
	if carOwner != ownerID {
		return nil, makeErr(ErrNotOwner)
	}

	if b.Status != model.BookingApproved {
		return nil, makeErr(ErrStateTransition)
	}
	want, tries := b.StartOTP, b.StartOTPTries
	if end {
		want, tries = b.EndOTP, b.EndOTPTries
		if b.RideStatus != model.RideLive {
			return nil, makeErr(ErrStateTransition)
		}
	} else if b.RideStatus != model.RideNone {
		return nil, makeErr(ErrStateTransition)
	}

	// Once the cap is hit the code is dead even if guessed right.
	if tries >= s.maxAttempts {
		return nil, makeErr(ErrOtpLocked)
	}

	// A consumed code is NULL; treat it like any other mismatch.
	if want == nil || !otp.Match(*want, code) {
		tries, terr := s.br.BumpOTPTries(ctx, tx, bookingID, end)
		if terr != nil {
			return nil, terr
		}
		if err = tx.Commit(); err != nil {
			return nil, err
		}
		if tries >= s.maxAttempts {
			return nil, makeErr(ErrOtpLocked)
		}
		return nil, makeErr(ErrInvalidOtp)
	}

	now := time.Now().UTC()
	if end {
		if err = s.br.EndRide(ctx, tx, bookingID); err != nil {
			return nil, err
		}
		b.RideStatus = model.RideCompleted
		b.EndOTP = nil
	} else {
		if err = s.br.StartRide(ctx, tx, bookingID, now); err != nil {
			return nil, err
		}
		b.RideStatus = model.RideLive
		b.ActualStartTime = &now
		b.StartOTP = nil
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	kind := notify.KindRideStarted
	if end {
		kind = notify.KindRideEnded
	}
	if nerr := s.nt.Send(ctx, notify.Message{
		Recipient: strconv.FormatInt(b.RenterID, 10),
		Kind:      kind,
		Payload:   map[string]any{"booking_id": bookingID},
	}); nerr != nil {
		s.log.Error("notify failed", "kind", kind, "err", nerr)
	}
	return b, nil
}

func (s *service) ForceEnd(ctx context.Context, bookingID int64) (err error) {
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
	if b.RideStatus != model.RideLive {
		return makeErr(ErrStateTransition)
	}
	if err = s.br.EndRide(ctx, tx, bookingID); err != nil {
		return err
	}
	return tx.Commit()
}
