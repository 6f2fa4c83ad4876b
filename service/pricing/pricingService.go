package pricingsvc

import (
	"errors"
	"math"
	"time"

	"carrental/config"
	"carrental/model"
)

var ErrInvalidRange = errors.New("invalid rental range")

// Quote is a pure function from (rate, range, policy) to an itemized
// breakdown. It is called once per reservation; the result is frozen on the
// booking and never recomputed.
func Quote(pricePerDay float64, start, end time.Time, p config.Pricing) (model.Breakdown, error) {
	if !end.After(start) {
		return model.Breakdown{}, ErrInvalidRange
	}

	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	if p.MaxRentalDays > 0 && days > p.MaxRentalDays {
		return model.Breakdown{}, ErrInvalidRange
	}

	b := model.Breakdown{
		CarPriceTotal: float64(days) * pricePerDay,
		CarWashCharge: p.CarWashCharge,
	}

	// Surcharge applies at most once, even when both pickup and return fall
	// inside the late-night window.
	if inLateNightWindow(start, p) || inLateNightWindow(end, p) {
		b.LateNightCharge = p.LateNightCharge
	}

	b.TotalAmount = b.CarPriceTotal + b.CarWashCharge + b.LateNightCharge
	return b, nil
}

// inLateNightWindow checks the hour against [From, Until). The window is
// allowed to wrap midnight (the default 22..6 does).
func inLateNightWindow(t time.Time, p config.Pricing) bool {
	h := t.Hour()
	if p.LateNightFrom == p.LateNightUntil {
		return false
	}
	if p.LateNightFrom < p.LateNightUntil {
		return h >= p.LateNightFrom && h < p.LateNightUntil
	}
	return h >= p.LateNightFrom || h < p.LateNightUntil
}

// RefundFraction maps the gap between now and pickup to the refunded share
// of the amount paid: full refund over 24h out, half between 12h and 24h,
// nothing inside 12h.
func RefundFraction(now, startTime time.Time) float64 {
	until := startTime.Sub(now)
	switch {
	case until > 24*time.Hour:
		return 1.0
	case until > 12*time.Hour:
		return 0.5
	default:
		return 0
	}
}
