package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	RazorpayKeyID  string `env:"RAZORPAY_KEY_ID"`
	RazorpaySecret string `env:"RAZORPAY_KEY_SECRET"`

	Pricing Pricing
	Booking Booking
}

// Pricing holds the policy constants the calculator applies on top of the
// per-day rate. Operator-tunable, not business law.
type Pricing struct {
	CarWashCharge   float64
	LateNightCharge float64
	LateNightFrom   int // hour, inclusive
	LateNightUntil  int // hour, exclusive
	MaxRentalDays   int
}

type Booking struct {
	PartialFraction float64       // share of total taken as down payment
	ReserveHoldTTL  time.Duration // how long an unpaid reservation keeps its range
	DueGracePeriod  time.Duration // unpaid due amount past start_time before auto-cancel
	CommissionRate  float64       // platform cut of approved booking totals
	MaxOtpAttempts  int
	SweepInterval   time.Duration
}
