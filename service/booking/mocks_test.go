package bookingsvc

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"carrental/model"
	authrepo "carrental/repository/auth"
	bookingrepo "carrental/repository/booking"
	carrepo "carrental/repository/car"
	"carrental/repository/notify"
	paymentrepo "carrental/repository/payment"
)

type mockBookingRepo struct {
	insertFn       func(ctx context.Context, tx *sql.Tx, b *model.Booking) (int64, error)
	getFn          func(ctx context.Context, id int64) (*model.Booking, error)
	getForUpdateFn func(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error)
	updateStatusFn func(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error
	setDocumentsFn func(ctx context.Context, tx *sql.Tx, id int64, d *model.Documents) error
	setOTPsFn      func(ctx context.Context, tx *sql.Tx, id int64, startOTP, endOTP string) error
	cancelFn       func(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error

	releaseHoldsFn  func(ctx context.Context, now time.Time) (int64, error)
	cancelOverdueFn func(ctx context.Context, now time.Time, grace time.Duration) (int64, error)
}

var _ bookingrepo.Repo = (*mockBookingRepo)(nil)

func (m *mockBookingRepo) Insert(ctx context.Context, tx *sql.Tx, b *model.Booking) (int64, error) {
	return m.insertFn(ctx, tx, b)
}

func (m *mockBookingRepo) Get(ctx context.Context, id int64) (*model.Booking, error) {
	return m.getFn(ctx, id)
}

func (m *mockBookingRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Booking, error) {
	return m.getForUpdateFn(ctx, tx, id)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.BookingStatus) error {
	return m.updateStatusFn(ctx, tx, id, status)
}

func (m *mockBookingRepo) SetPaymentSplit(context.Context, *sql.Tx, int64, float64, float64, model.BookingStatus) error {
	panic("unexpected SetPaymentSplit")
}

func (m *mockBookingRepo) ClearDue(context.Context, *sql.Tx, int64) error {
	panic("unexpected ClearDue")
}

func (m *mockBookingRepo) SetDocuments(ctx context.Context, tx *sql.Tx, id int64, d *model.Documents) error {
	return m.setDocumentsFn(ctx, tx, id, d)
}

func (m *mockBookingRepo) SetOTPs(ctx context.Context, tx *sql.Tx, id int64, startOTP, endOTP string) error {
	return m.setOTPsFn(ctx, tx, id, startOTP, endOTP)
}

func (m *mockBookingRepo) BumpOTPTries(context.Context, *sql.Tx, int64, bool) (int, error) {
	panic("unexpected BumpOTPTries")
}

func (m *mockBookingRepo) StartRide(context.Context, *sql.Tx, int64, time.Time) error {
	panic("unexpected StartRide")
}

func (m *mockBookingRepo) EndRide(context.Context, *sql.Tx, int64) error {
	panic("unexpected EndRide")
}

func (m *mockBookingRepo) Cancel(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error {
	return m.cancelFn(ctx, tx, id, at)
}

func (m *mockBookingRepo) ListByRenter(context.Context, int64, bookingrepo.Phase) ([]model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListByStatus(context.Context, model.BookingStatus) ([]model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListByOwner(context.Context, int64) ([]model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepo) ListLiveRides(context.Context) ([]model.Booking, error) { return nil, nil }
func (m *mockBookingRepo) ListAll(context.Context) ([]model.Booking, error)       { return nil, nil }

func (m *mockBookingRepo) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	return m.releaseHoldsFn(ctx, now)
}

func (m *mockBookingRepo) CancelOverdue(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	return m.cancelOverdueFn(ctx, now, grace)
}

type mockCarRepo struct {
	detailFn     func(ctx context.Context, id int64) (*model.Car, error)
	lockCarFn    func(ctx context.Context, tx *sql.Tx, carID int64) (float64, bool, error)
	hasOverlapFn func(ctx context.Context, tx *sql.Tx, carID int64, start, end time.Time) (bool, error)
}

var _ carrepo.Repo = (*mockCarRepo)(nil)

func (m *mockCarRepo) CreateCar(context.Context, *model.Car) (int64, error) {
	panic("unexpected CreateCar")
}

func (m *mockCarRepo) UpdateCar(context.Context, *model.Car) error { panic("unexpected UpdateCar") }

func (m *mockCarRepo) List(context.Context, carrepo.Filter) ([]model.Car, error) { return nil, nil }

func (m *mockCarRepo) Detail(ctx context.Context, id int64) (*model.Car, error) {
	return m.detailFn(ctx, id)
}

func (m *mockCarRepo) Retire(context.Context, int64) error { panic("unexpected Retire") }

func (m *mockCarRepo) OwnerOf(context.Context, int64) (int64, error) {
	panic("unexpected OwnerOf")
}

func (m *mockCarRepo) LockCar(ctx context.Context, tx *sql.Tx, carID int64) (float64, bool, error) {
	return m.lockCarFn(ctx, tx, carID)
}

func (m *mockCarRepo) HasOverlap(ctx context.Context, tx *sql.Tx, carID int64, start, end time.Time) (bool, error) {
	return m.hasOverlapFn(ctx, tx, carID, start, end)
}

func (m *mockCarRepo) InsertBlock(context.Context, *sql.Tx, int64, time.Time, time.Time) (int64, error) {
	panic("unexpected InsertBlock")
}

func (m *mockCarRepo) DeleteBlock(context.Context, int64, int64) (bool, error) {
	panic("unexpected DeleteBlock")
}

func (m *mockCarRepo) ListBlocks(context.Context, int64) ([]model.CarBlock, error) {
	return nil, nil
}

type mockPaymentRepo struct {
	insertRefundFn func(ctx context.Context, tx *sql.Tx, bookingID, userID int64, amount float64) error
}

var _ paymentrepo.Repo = (*mockPaymentRepo)(nil)

func (m *mockPaymentRepo) InsertOrder(context.Context, *sql.Tx, *model.Payment) (int64, error) {
	panic("unexpected InsertOrder")
}

func (m *mockPaymentRepo) FindByOrderID(context.Context, string) (*model.Payment, error) {
	panic("unexpected FindByOrderID")
}

func (m *mockPaymentRepo) MarkPaid(context.Context, *sql.Tx, string, string, time.Time) error {
	panic("unexpected MarkPaid")
}

func (m *mockPaymentRepo) InsertRefund(ctx context.Context, tx *sql.Tx, bookingID, userID int64, amount float64) error {
	return m.insertRefundFn(ctx, tx, bookingID, userID, amount)
}

func (m *mockPaymentRepo) ListByBooking(context.Context, int64) ([]model.Payment, error) {
	return nil, nil
}

func (m *mockPaymentRepo) ListByUser(context.Context, int64) ([]model.Payment, error) {
	return nil, nil
}

type mockAuthRepo struct{}

var _ authrepo.Repo = mockAuthRepo{}

func (mockAuthRepo) Create(context.Context, *model.User) error { return nil }

func (mockAuthRepo) ByEmail(context.Context, string) (*model.User, error) { return nil, nil }

func (mockAuthRepo) ByID(_ context.Context, id int64) (*model.User, error) {
	return &model.User{ID: id, Email: "renter@example.com"}, nil
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *mockNotifier) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockNotifier) messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}
