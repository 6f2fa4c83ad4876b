package paymentsvc

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"carrental/config"
	"carrental/model"
	bookingrepo "carrental/repository/booking"
	"carrental/repository/notify"
	paymentrepo "carrental/repository/payment"
	razorpayrepo "carrental/repository/razorpay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingRepo struct {
	bookingrepo.Repo

	getFn          func(ctx context.Context, id int64) (*model.Booking, error)
	getForUpdateFn func(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	setSplitFn     func(ctx context.Context, tx *sql.Tx, id int64, down, due float64, status model.BookingStatus) error
	clearDueFn     func(ctx context.Context, tx *sql.Tx, id int64) error
}

func (m *mockBookingRepo) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return m.getFn(ctx, id)
}

func (m *mockBookingRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return m.getForUpdateFn(ctx, tx, id)
}

func (m *mockBookingRepo) SetPaymentSplit(ctx context.Context, tx *sql.Tx, id int64, down, due float64, status model.BookingStatus) error {
	return m.setSplitFn(ctx, tx, id, down, due, status)
}

func (m *mockBookingRepo) ClearDue(ctx context.Context, tx *sql.Tx, id int64) error {
	return m.clearDueFn(ctx, tx, id)
}

type mockPaymentRepo struct {
	paymentrepo.Repo

	insertOrderFn   func(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error)
	findByOrderIDFn func(ctx context.Context, orderID string) (*model.Payment, error)
	markPaidFn      func(ctx context.Context, tx *sql.Tx, orderID, gatewayPaymentID string, at time.Time) error
}

func (m *mockPaymentRepo) InsertOrder(ctx context.Context, tx *sql.Tx, p *model.Payment) (int64, error) {
	return m.insertOrderFn(ctx, tx, p)
}

func (m *mockPaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return m.findByOrderIDFn(ctx, orderID)
}

func (m *mockPaymentRepo) MarkPaid(ctx context.Context, tx *sql.Tx, orderID, gatewayPaymentID string, at time.Time) error {
	return m.markPaidFn(ctx, tx, orderID, gatewayPaymentID, at)
}

type mockGateway struct {
	createOrderFn func(req razorpayrepo.CreateOrderReq) (*razorpayrepo.CreateOrderResp, error)
	verifyFn      func(orderID, paymentID, signature string) error
}

func (m *mockGateway) CreateOrder(req razorpayrepo.CreateOrderReq) (*razorpayrepo.CreateOrderResp, error) {
	return m.createOrderFn(req)
}

func (m *mockGateway) VerifySignature(orderID, paymentID, signature string) error {
	return m.verifyFn(orderID, paymentID, signature)
}

type mockNotifier struct{ sent []notify.Message }

func (m *mockNotifier) Send(_ context.Context, msg notify.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func bookingCfg() config.Booking {
	return config.Booking{PartialFraction: 0.1}
}

func newSvc(t *testing.T, br *mockBookingRepo, pr *mockPaymentRepo, gw *mockGateway, nt *mockNotifier) Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(newStubDB(t), br, pr, gw, nt, bookingCfg(), log)
}

func reservedBooking() *model.Booking {
	return &model.Booking{
		ID:       42,
		RenterID: 3,
		Status:   model.BookingReserved,
		Breakdown: model.Breakdown{
			CarPriceTotal: 2000,
			CarWashCharge: 200,
			TotalAmount:   2200,
		},
	}
}

func okGateway() *mockGateway {
	return &mockGateway{
		createOrderFn: func(req razorpayrepo.CreateOrderReq) (*razorpayrepo.CreateOrderResp, error) {
			return &razorpayrepo.CreateOrderResp{OrderID: "order_abc", Amount: req.Amount, Currency: "INR"}, nil
		},
		verifyFn: func(string, string, string) error { return nil },
	}
}

func TestCreateOrder_FullAmount(t *testing.T) {
	var orderedAmount float64
	gw := okGateway()
	gw.createOrderFn = func(req razorpayrepo.CreateOrderReq) (*razorpayrepo.CreateOrderResp, error) {
		orderedAmount = req.Amount
		return &razorpayrepo.CreateOrderResp{OrderID: "order_abc", Amount: req.Amount, Currency: "INR"}, nil
	}
	var insertedKind model.PaymentKind
	br := &mockBookingRepo{
		getFn: func(context.Context, int64) (*model.Booking, error) { return reservedBooking(), nil },
	}
	pr := &mockPaymentRepo{
		insertOrderFn: func(_ context.Context, _ *sql.Tx, p *model.Payment) (int64, error) {
			insertedKind = p.Kind
			p.ID = 9
			return 9, nil
		},
	}
	svc := newSvc(t, br, pr, gw, &mockNotifier{})

	out, err := svc.CreateOrder(context.Background(), 3, 42, MethodFull)
	require.NoError(t, err)
	assert.Equal(t, 2200.0, orderedAmount)
	assert.Equal(t, model.PaymentFull, insertedKind)
	assert.Equal(t, "order_abc", out.OrderID)
	assert.Equal(t, int64(9), out.PaymentID)
}

func TestCreateOrder_PartialAmountRounded(t *testing.T) {
	var orderedAmount float64
	gw := okGateway()
	gw.createOrderFn = func(req razorpayrepo.CreateOrderReq) (*razorpayrepo.CreateOrderResp, error) {
		orderedAmount = req.Amount
		return &razorpayrepo.CreateOrderResp{OrderID: "order_abc", Amount: req.Amount, Currency: "INR"}, nil
	}
	br := &mockBookingRepo{
		getFn: func(context.Context, int64) (*model.Booking, error) { return reservedBooking(), nil },
	}
	pr := &mockPaymentRepo{
		insertOrderFn: func(_ context.Context, _ *sql.Tx, p *model.Payment) (int64, error) { return 9, nil },
	}
	svc := newSvc(t, br, pr, gw, &mockNotifier{})

	_, err := svc.CreateOrder(context.Background(), 3, 42, MethodPartial)
	require.NoError(t, err)
	assert.Equal(t, 220.0, orderedAmount)
}

func TestCreateOrder_OnlyOnReserved(t *testing.T) {
	b := reservedBooking()
	b.Status = model.BookingPendingApproval
	br := &mockBookingRepo{
		getFn: func(context.Context, int64) (*model.Booking, error) { return b, nil },
	}
	svc := newSvc(t, br, &mockPaymentRepo{}, okGateway(), &mockNotifier{})

	_, err := svc.CreateOrder(context.Background(), 3, 42, MethodFull)
	assert.Equal(t, ErrStateTransition, Code(err))
}

func TestCreateOrder_ExpiredHold(t *testing.T) {
	b := reservedBooking()
	past := time.Now().UTC().Add(-time.Hour)
	b.HoldUntil = &past
	br := &mockBookingRepo{
		getFn: func(context.Context, int64) (*model.Booking, error) { return b, nil },
	}
	gw := okGateway()
	gw.createOrderFn = func(razorpayrepo.CreateOrderReq) (*razorpayrepo.CreateOrderResp, error) {
		t.Fatal("no gateway order may be opened on a lapsed hold")
		return nil, nil
	}
	svc := newSvc(t, br, &mockPaymentRepo{}, gw, &mockNotifier{})

	_, err := svc.CreateOrder(context.Background(), 3, 42, MethodFull)
	assert.Equal(t, ErrStateTransition, Code(err))
}

func TestCreateOrder_NotTheRenter(t *testing.T) {
	br := &mockBookingRepo{
		getFn: func(context.Context, int64) (*model.Booking, error) { return reservedBooking(), nil },
	}
	svc := newSvc(t, br, &mockPaymentRepo{}, okGateway(), &mockNotifier{})

	_, err := svc.CreateOrder(context.Background(), 4, 42, MethodFull)
	assert.Equal(t, ErrNotOwner, Code(err))
}

func TestCreateDueOrder_NothingDue(t *testing.T) {
	b := reservedBooking()
	b.Status = model.BookingApproved
	b.DueAmount = 0
	br := &mockBookingRepo{
		getFn: func(context.Context, int64) (*model.Booking, error) { return b, nil },
	}
	svc := newSvc(t, br, &mockPaymentRepo{}, okGateway(), &mockNotifier{})

	_, err := svc.CreateDueOrder(context.Background(), 3, 42)
	assert.Equal(t, ErrNothingDue, Code(err))
}

func TestConfirm_RejectsBadSignature(t *testing.T) {
	gw := okGateway()
	gw.verifyFn = func(string, string, string) error { return errors.New("signature mismatch") }
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			t.Fatal("order must not be looked up before the signature passes")
			return nil, nil
		},
	}
	svc := newSvc(t, &mockBookingRepo{}, pr, gw, &mockNotifier{})

	_, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "bogus",
	})
	assert.Equal(t, ErrPayment, Code(err))
}

func TestConfirm_PartialSplitsDownAndDue(t *testing.T) {
	var down, due float64
	var statusSet model.BookingStatus
	var paid bool
	br := &mockBookingRepo{
		getForUpdateFn: func(context.Context, *sql.Tx, int64) (*model.Booking, error) {
			return reservedBooking(), nil
		},
		setSplitFn: func(_ context.Context, _ *sql.Tx, _ int64, d, u float64, s model.BookingStatus) error {
			down, due, statusSet = d, u, s
			return nil
		},
	}
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return &model.Payment{
				ID: 9, BookingID: 42, Kind: model.PaymentPartial,
				Amount: 220, Status: model.PaymentCreated, GatewayOrderID: "order_abc",
			}, nil
		},
		markPaidFn: func(context.Context, *sql.Tx, string, string, time.Time) error {
			paid = true
			return nil
		},
	}
	nt := &mockNotifier{}
	svc := newSvc(t, br, pr, okGateway(), nt)

	out, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, 220.0, down)
	assert.Equal(t, 1980.0, due)
	assert.Equal(t, out.Breakdown.TotalAmount, down+due, "split must preserve the frozen total")
	assert.Equal(t, model.BookingPendingApproval, statusSet)
	assert.Equal(t, model.BookingPendingApproval, out.Status)

	require.Len(t, nt.sent, 1)
	assert.Equal(t, notify.KindPaymentReceived, nt.sent[0].Kind)
}

func TestConfirm_FullPaymentLeavesNoDue(t *testing.T) {
	var down, due float64
	br := &mockBookingRepo{
		getForUpdateFn: func(context.Context, *sql.Tx, int64) (*model.Booking, error) {
			return reservedBooking(), nil
		},
		setSplitFn: func(_ context.Context, _ *sql.Tx, _ int64, d, u float64, _ model.BookingStatus) error {
			down, due = d, u
			return nil
		},
	}
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return &model.Payment{
				ID: 9, BookingID: 42, Kind: model.PaymentFull,
				Amount: 2200, Status: model.PaymentCreated, GatewayOrderID: "order_abc",
			}, nil
		},
		markPaidFn: func(context.Context, *sql.Tx, string, string, time.Time) error { return nil },
	}
	svc := newSvc(t, br, pr, okGateway(), &mockNotifier{})

	_, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, 2200.0, down)
	assert.Zero(t, due)
}

func TestConfirm_LateCallbackOnExpiredHold(t *testing.T) {
	b := reservedBooking()
	past := time.Now().UTC().Add(-time.Hour)
	b.HoldUntil = &past
	br := &mockBookingRepo{
		getForUpdateFn: func(context.Context, *sql.Tx, int64) (*model.Booking, error) { return b, nil },
		setSplitFn: func(context.Context, *sql.Tx, int64, float64, float64, model.BookingStatus) error {
			t.Fatal("an expired hold must not be confirmed; its range may belong to another booking")
			return nil
		},
	}
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return &model.Payment{
				ID: 9, BookingID: 42, Kind: model.PaymentFull,
				Amount: 2200, Status: model.PaymentCreated, GatewayOrderID: "order_abc",
			}, nil
		},
		markPaidFn: func(context.Context, *sql.Tx, string, string, time.Time) error {
			t.Fatal("no payment may settle against a lapsed hold")
			return nil
		},
	}
	svc := newSvc(t, br, pr, okGateway(), &mockNotifier{})

	_, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})
	assert.Equal(t, ErrStateTransition, Code(err))
}

func TestConfirm_LiveHoldStillConfirms(t *testing.T) {
	b := reservedBooking()
	future := time.Now().UTC().Add(20 * time.Minute)
	b.HoldUntil = &future
	var split bool
	br := &mockBookingRepo{
		getForUpdateFn: func(context.Context, *sql.Tx, int64) (*model.Booking, error) { return b, nil },
		setSplitFn: func(context.Context, *sql.Tx, int64, float64, float64, model.BookingStatus) error {
			split = true
			return nil
		},
	}
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return &model.Payment{
				ID: 9, BookingID: 42, Kind: model.PaymentFull,
				Amount: 2200, Status: model.PaymentCreated, GatewayOrderID: "order_abc",
			}, nil
		},
		markPaidFn: func(context.Context, *sql.Tx, string, string, time.Time) error { return nil },
	}
	svc := newSvc(t, br, pr, okGateway(), &mockNotifier{})

	_, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, split)
}

func TestConfirm_DuplicateCallbackIsANoOp(t *testing.T) {
	br := &mockBookingRepo{
		getFn: func(_ context.Context, id int64) (*model.Booking, error) {
			b := reservedBooking()
			b.ID = id
			b.Status = model.BookingPendingApproval
			return b, nil
		},
	}
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return &model.Payment{ID: 9, BookingID: 42, Status: model.PaymentPaid}, nil
		},
		markPaidFn: func(context.Context, *sql.Tx, string, string, time.Time) error {
			t.Fatal("a settled payment must not be marked paid again")
			return nil
		},
	}
	svc := newSvc(t, br, pr, okGateway(), &mockNotifier{})

	out, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_abc", PaymentID: "pay_1", Signature: "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
}

func TestConfirm_DueSettlement(t *testing.T) {
	var cleared bool
	b := reservedBooking()
	b.Status = model.BookingApproved
	b.DownPayment = 220
	b.DueAmount = 1980
	br := &mockBookingRepo{
		getForUpdateFn: func(context.Context, *sql.Tx, int64) (*model.Booking, error) { return b, nil },
		clearDueFn: func(context.Context, *sql.Tx, int64) error {
			cleared = true
			return nil
		},
	}
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return &model.Payment{
				ID: 10, BookingID: 42, Kind: model.PaymentDue,
				Amount: 1980, Status: model.PaymentCreated, GatewayOrderID: "order_due",
			}, nil
		},
		markPaidFn: func(context.Context, *sql.Tx, string, string, time.Time) error { return nil },
	}
	svc := newSvc(t, br, pr, okGateway(), &mockNotifier{})

	out, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_due", PaymentID: "pay_2", Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Equal(t, 2200.0, out.DownPayment)
	assert.Zero(t, out.DueAmount)
}

func TestConfirm_UnknownOrder(t *testing.T) {
	pr := &mockPaymentRepo{
		findByOrderIDFn: func(context.Context, string) (*model.Payment, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc := newSvc(t, &mockBookingRepo{}, pr, okGateway(), &mockNotifier{})

	_, err := svc.Confirm(context.Background(), Callback{
		OrderID: "order_nope", PaymentID: "pay_1", Signature: "sig",
	})
	assert.Equal(t, ErrNotFound, Code(err))
}
