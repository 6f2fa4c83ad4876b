package notify

import (
	"context"
	"log/slog"
)

type Kind string

const (
	KindBookingReserved  Kind = "booking_reserved"
	KindPaymentReceived  Kind = "payment_received"
	KindBookingApproved  Kind = "booking_approved"
	KindDocsRejected     Kind = "documents_rejected"
	KindBookingCancelled Kind = "booking_cancelled"
	KindRideStarted      Kind = "ride_started"
	KindRideEnded        Kind = "ride_ended"
)

type Message struct {
	Recipient string // email or phone
	Kind      Kind
	Payload   map[string]any
}

// Notifier is the delivery channel for status changes and OTP display.
// Callers never fail a state transition on a delivery error; they log it.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

type logNotifier struct{ log *slog.Logger }

// NewLog returns a Notifier that writes messages to the log. Stands in for
// the email/SMS provider in dev and in tests.
func NewLog(log *slog.Logger) Notifier { return &logNotifier{log: log} }

func (n *logNotifier) Send(_ context.Context, m Message) error {
	n.log.Info("notify", "recipient", m.Recipient, "kind", m.Kind, "payload", m.Payload)
	return nil
}
