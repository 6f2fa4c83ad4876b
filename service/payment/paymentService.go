package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"time"

	"carrental/config"
	"carrental/model"
	bookingrepo "carrental/repository/booking"
	"carrental/repository/notify"
	paymentrepo "carrental/repository/payment"
	razorpayrepo "carrental/repository/razorpay"

	"github.com/google/uuid"
)

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrNotOwner        ErrCode = "NOT_OWNER"
	ErrPayment         ErrCode = "PAYMENT"
	ErrStateTransition ErrCode = "STATE_TRANSITION"
	ErrNothingDue      ErrCode = "NOTHING_DUE"
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

type Method string

const (
	MethodFull    Method = "full"
	MethodPartial Method = "partial"
)

type OrderCreated struct {
	PaymentID int64   `json:"payment_id"`
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// Callback is the signed confirmation the gateway posts back.
type Callback struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

type Service interface {
	// CreateOrder opens a gateway order for the initial payment on a
	// RESERVED booking, full or partial.
	CreateOrder(ctx context.Context, userID, bookingID int64, method Method) (*OrderCreated, error)

	// CreateDueOrder opens a gateway order for the remaining balance.
	CreateDueOrder(ctx context.Context, userID, bookingID int64) (*OrderCreated, error)

	// Confirm verifies the callback signature and applies the payment:
	// the split is recorded and RESERVED moves to PENDING_APPROVAL.
	// Replayed callbacks are no-ops.
	Confirm(ctx context.Context, cb Callback) (*model.Booking, error)

	History(ctx context.Context, userID int64) ([]model.Payment, error)
}

type service struct {
	db  *sql.DB
	br  bookingrepo.Repo
	pr  paymentrepo.Repo
	gw  razorpayrepo.Repo
	nt  notify.Notifier
	cfg config.Booking
	log *slog.Logger
}

func New(db *sql.DB, br bookingrepo.Repo, pr paymentrepo.Repo, gw razorpayrepo.Repo,
	nt notify.Notifier, cfg config.Booking, log *slog.Logger) Service {
	return &service{db: db, br: br, pr: pr, gw: gw, nt: nt, cfg: cfg, log: log}
}

func (s *service) CreateOrder(ctx context.Context, userID, bookingID int64, method Method) (*OrderCreated, error) {
	b, err := s.getOwn(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingReserved || holdLapsed(b) {
		return nil, makeErr(ErrStateTransition)
	}

	amount := b.Breakdown.TotalAmount
	kind := model.PaymentFull
	if method == MethodPartial {
		amount = math.Round(b.Breakdown.TotalAmount * s.cfg.PartialFraction)
		kind = model.PaymentPartial
	}
	return s.openOrder(ctx, b, kind, amount)
}

func (s *service) CreateDueOrder(ctx context.Context, userID, bookingID int64) (*OrderCreated, error) {
	b, err := s.getOwn(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BookingCancelled {
		return nil, makeErr(ErrStateTransition)
	}
	if b.DueAmount <= 0 {
		return nil, makeErr(ErrNothingDue)
	}
	return s.openOrder(ctx, b, model.PaymentDue, b.DueAmount)
}

func (s *service) openOrder(ctx context.Context, b *model.Booking, kind model.PaymentKind, amount float64) (out *OrderCreated, err error) {
	order, err := s.gw.CreateOrder(razorpayrepo.CreateOrderReq{
		Amount:   amount,
		Currency: "INR",
		Receipt:  uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p := &model.Payment{
		BookingID:      b.ID,
		UserID:         b.RenterID,
		Kind:           kind,
		Amount:         amount,
		GatewayOrderID: order.OrderID,
	}
	if _, err = s.pr.InsertOrder(ctx, tx, p); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &OrderCreated{
		PaymentID: p.ID,
		OrderID:   order.OrderID,
		Amount:    amount,
		Currency:  order.Currency,
	}, nil
}

func (s *service) Confirm(ctx context.Context, cb Callback) (out *model.Booking, err error) {
	// The signature is the trust boundary; nothing below runs without it.
	if err := s.gw.VerifySignature(cb.OrderID, cb.PaymentID, cb.Signature); err != nil {
		return nil, makeErr(ErrPayment)
	}

	p, err := s.pr.FindByOrderID(ctx, cb.OrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if p.Status == model.PaymentPaid {
		// duplicate callback
		return s.br.Get(ctx, p.BookingID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := s.br.GetForUpdate(ctx, tx, p.BookingID)
	if err != nil {
		return nil, err
	}

	switch p.Kind {
	case model.PaymentFull, model.PaymentPartial:
		// An expired hold is no longer a claim on the range: the overlap
		// predicate ignores it, so someone else may hold the dates by now.
		// A late callback must not resurrect it into a firm booking.
		if b.Status != model.BookingReserved || holdLapsed(b) {
			return nil, makeErr(ErrStateTransition)
		}
		down := b.Breakdown.TotalAmount
		if p.Kind == model.PaymentPartial {
			down = p.Amount
		}
		due := b.Breakdown.TotalAmount - down
		if err = s.br.SetPaymentSplit(ctx, tx, b.ID, down, due, model.BookingPendingApproval); err != nil {
			return nil, err
		}
		b.DownPayment, b.DueAmount = down, due
		b.Status = model.BookingPendingApproval
	case model.PaymentDue:
		if b.Status == model.BookingCancelled || b.DueAmount <= 0 {
			return nil, makeErr(ErrStateTransition)
		}
		if err = s.br.ClearDue(ctx, tx, b.ID); err != nil {
			return nil, err
		}
		b.DownPayment += b.DueAmount
		b.DueAmount = 0
	default:
		return nil, makeErr(ErrPayment)
	}

	if err = s.pr.MarkPaid(ctx, tx, cb.OrderID, cb.PaymentID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if nerr := s.nt.Send(ctx, notify.Message{
		Recipient: strconv.FormatInt(b.RenterID, 10),
		Kind:      notify.KindPaymentReceived,
		Payload:   map[string]any{"booking_id": b.ID, "amount": p.Amount},
	}); nerr != nil {
		s.log.Error("notify failed", "kind", notify.KindPaymentReceived, "err", nerr)
	}
	return b, nil
}

func (s *service) History(ctx context.Context, userID int64) ([]model.Payment, error) {
	return s.pr.ListByUser(ctx, userID)
}

func holdLapsed(b *model.Booking) bool {
	return b.HoldUntil != nil && b.HoldUntil.Before(time.Now().UTC())
}

func (s *service) getOwn(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	b, err := s.br.Get(ctx, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if b.RenterID != userID {
		return nil, makeErr(ErrNotOwner)
	}
	return b, nil
}
