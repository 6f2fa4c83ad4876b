// model/bookingModel.go
package model

import "time"

type BookingStatus string

const (
	BookingReserved        BookingStatus = "RESERVED"
	BookingPendingApproval BookingStatus = "PENDING_APPROVAL"
	BookingApproved        BookingStatus = "APPROVED"
	BookingDocsRejected    BookingStatus = "DOCUMENTS_REJECTED"
	BookingCancelled       BookingStatus = "CANCELLED"
)

type RideStatus string

const (
	RideNone      RideStatus = "NONE"
	RideLive      RideStatus = "LIVE"
	RideCompleted RideStatus = "COMPLETED"
)

// Breakdown is computed once at reservation time and never recomputed.
type Breakdown struct {
	CarPriceTotal   float64 `json:"car_price_total"`
	CarWashCharge   float64 `json:"car_wash_charge"`
	LateNightCharge float64 `json:"late_night_charge"`
	TotalAmount     float64 `json:"total_amount"`
}

type Documents struct {
	Name    string            `json:"name"`
	Address string            `json:"address"`
	Contact string            `json:"contact"`
	Files   map[string]string `json:"files"` // doc type -> stored path
}

type Booking struct {
	ID       int64 `json:"id"`
	CarID    int64 `json:"car_id"`
	RenterID int64 `json:"renter_id"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status     BookingStatus `json:"status"`
	RideStatus RideStatus    `json:"ride_status"`

	Breakdown   Breakdown `json:"breakdown"`
	DownPayment float64   `json:"down_payment"`
	DueAmount   float64   `json:"due_amount"`

	HoldUntil *time.Time `json:"hold_until,omitempty"`

	Documents *Documents `json:"documents,omitempty"`

	StartOTP        *string    `json:"start_otp,omitempty"`
	EndOTP          *string    `json:"end_otp,omitempty"`
	StartOTPTries   int        `json:"-"`
	EndOTPTries     int        `json:"-"`
	ActualStartTime *time.Time `json:"actual_start_time,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}
