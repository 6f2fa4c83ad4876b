// model/paymentModel.go
package model

import "time"

type PaymentKind string

const (
	PaymentFull    PaymentKind = "FULL"
	PaymentPartial PaymentKind = "PARTIAL"
	PaymentDue     PaymentKind = "DUE"
	PaymentRefund  PaymentKind = "REFUND"
)

type PaymentStatus string

const (
	PaymentCreated  PaymentStatus = "CREATED"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Payment is one ledger row of the reconciliation trail for a booking:
// gateway orders, their confirmations, and refunds.
type Payment struct {
	ID               int64         `json:"id"`
	BookingID        int64         `json:"booking_id"`
	UserID           int64         `json:"user_id"`
	Kind             PaymentKind   `json:"kind"`
	Amount           float64       `json:"amount"`
	Status           PaymentStatus `json:"status"`
	GatewayOrderID   string        `json:"gateway_order_id"`
	GatewayPaymentID *string       `json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	PaidAt           *time.Time    `json:"paid_at,omitempty"`
}
