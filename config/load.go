package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

func Load() App {
	_ = godotenv.Load(".env")

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		Env:         getenv("APP_ENV", "dev"),

		RazorpayKeyID:  os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
	}

	cfg.Pricing = Pricing{
		CarWashCharge:   cast.ToFloat64(getenv("CAR_WASH_CHARGE", "200")),
		LateNightCharge: cast.ToFloat64(getenv("LATE_NIGHT_CHARGE", "300")),
		LateNightFrom:   cast.ToInt(getenv("LATE_NIGHT_FROM_HOUR", "22")),
		LateNightUntil:  cast.ToInt(getenv("LATE_NIGHT_UNTIL_HOUR", "6")),
		MaxRentalDays:   cast.ToInt(getenv("MAX_RENTAL_DAYS", "30")),
	}

	cfg.Booking = Booking{
		PartialFraction: cast.ToFloat64(getenv("PARTIAL_PAYMENT_FRACTION", "0.1")),
		ReserveHoldTTL:  cast.ToDuration(getenv("RESERVE_HOLD_TTL", "30m")),
		DueGracePeriod:  cast.ToDuration(getenv("DUE_GRACE_PERIOD", "2h")),
		CommissionRate:  cast.ToFloat64(getenv("COMMISSION_RATE", "0.2")),
		MaxOtpAttempts:  cast.ToInt(getenv("MAX_OTP_ATTEMPTS", "5")),
		SweepInterval:   cast.ToDuration(getenv("SWEEP_INTERVAL", "1m")),
	}

	if cfg.Booking.SweepInterval <= 0 {
		cfg.Booking.SweepInterval = time.Minute
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
