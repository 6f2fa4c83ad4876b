// Package main car rental API.
//
// @title           Car Rental API
// @version         1.0
// @description     Booking and availability engine for a car rental marketplace.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"carrental/app/echoServer"
	adminctrl "carrental/app/echoServer/controller/admin"
	authctrl "carrental/app/echoServer/controller/auth"
	bookingctrl "carrental/app/echoServer/controller/booking"
	carctrl "carrental/app/echoServer/controller/car"
	ownerctrl "carrental/app/echoServer/controller/owner"
	paymentctrl "carrental/app/echoServer/controller/payment"
	"carrental/app/echoServer/validation"
	"carrental/config"
	authrepo "carrental/repository/auth"
	bookingrepo "carrental/repository/booking"
	carrepo "carrental/repository/car"
	"carrental/repository/docstore"
	earningsrepo "carrental/repository/earnings"
	"carrental/repository/notify"
	paymentrepo "carrental/repository/payment"
	razorpayrepo "carrental/repository/razorpay"
	authsvc "carrental/service/auth"
	bookingsvc "carrental/service/booking"
	carsvc "carrental/service/car"
	earningssvc "carrental/service/earnings"
	paymentsvc "carrental/service/payment"
	ridesvc "carrental/service/ride"
	"carrental/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(cfg.DatabaseURL, "migrations"); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// repos
	ar := authrepo.New(db)
	cr := carrepo.New(db)
	br := bookingrepo.New(db)
	pr := paymentrepo.New(db)
	er := earningsrepo.New(db)
	gw := razorpayrepo.NewHTTP(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	nt := notify.NewLog(log)
	docs := docstore.NewDisk(getenv("DOCUMENT_DIR", "documents"))

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	cs := carsvc.New(db, cr)
	bs := bookingsvc.New(db, br, cr, pr, ar, nt, cfg, log)
	ps := paymentsvc.New(db, br, pr, gw, nt, cfg.Booking, log)
	rs := ridesvc.New(db, br, cr, nt, cfg.Booking.MaxOtpAttempts, log)
	es := earningssvc.New(er, cfg.Booking.CommissionRate)

	// hold-expiry and overdue-payment sweeper
	cleaner := bookingsvc.NewCleaner(br, cfg.Booking.DueGracePeriod, log)
	go cleaner.Run(ctx, cfg.Booking.SweepInterval)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	carC := &carctrl.Controller{Svc: cs, V: v, Log: log}
	bookingC := &bookingctrl.Controller{Svc: bs, Docs: docs, V: v, Log: log}
	paymentC := &paymentctrl.Controller{Svc: ps, V: v, Log: log}
	ownerC := &ownerctrl.Controller{Bookings: bs, Cars: cs, Rides: rs, Earnings: es, V: v, Log: log}
	adminC := &adminctrl.Controller{Bookings: bs, Rides: rs, Earnings: es, Log: log}

	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{"status": "ok"})
	})

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Car:       carC,
		Booking:   bookingC,
		Payment:   paymentC,
		Owner:     ownerC,
		Admin:     adminC,
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)
	e.Logger.Fatal(e.Start(":" + port))
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
