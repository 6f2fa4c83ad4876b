package echoServer

import (
	"carrental/app/echoServer/controller/admin"
	"carrental/app/echoServer/controller/auth"
	"carrental/app/echoServer/controller/booking"
	"carrental/app/echoServer/controller/car"
	"carrental/app/echoServer/controller/owner"
	"carrental/app/echoServer/controller/payment"
	"carrental/model"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type C struct {
	Auth      *auth.Controller
	Car       *car.Controller
	Booking   *booking.Controller
	Payment   *payment.Controller
	Owner     *owner.Controller
	Admin     *admin.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Gateway callback. Authenticated by its HMAC signature, not by JWT.
	pub.POST("/payment/confirm", c.Payment.Confirm)

	// Authenticated
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(c.JWTSecret),
		TokenLookup: "header:Authorization:Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	}))

	// Catalog
	authed.GET("/cars", c.Car.List)
	authed.GET("/cars/:id", c.Car.Detail)

	// Quote and reserve
	authed.POST("/cars/:id/quote", c.Booking.Quote)
	authed.POST("/cars/:id/reserve", c.Booking.Reserve)

	// Booking lifecycle
	authed.POST("/bookings/:id/pay", c.Payment.CreateOrder)
	authed.POST("/bookings/:id/pay_due", c.Payment.CreateDueOrder)
	authed.POST("/bookings/:id/documents", c.Booking.SubmitDocuments)
	authed.POST("/bookings/:id/cancel", c.Booking.Cancel)
	authed.GET("/bookings/my", c.Booking.MyBookings)
	authed.GET("/payments/my", c.Payment.History)

	// Owner console (admins can use it for any car)
	own := authed.Group("/owner", RequireRole(string(model.RoleOwner), string(model.RoleAdmin)))
	own.GET("/bookings", c.Owner.ListBookings)
	own.POST("/bookings/:id/start_ride", c.Owner.StartRide)
	own.POST("/bookings/:id/end_ride", c.Owner.EndRide)
	own.POST("/cars/:id/blocks", c.Owner.AddBlock)
	own.DELETE("/cars/:id/blocks/:block_id", c.Owner.RemoveBlock)
	own.GET("/cars/:id/blocks", c.Owner.ListBlocks)
	own.GET("/earnings", c.Owner.EarningsReport)

	// Admin console
	adm := authed.Group("/admin", RequireRole(string(model.RoleAdmin)))
	adm.POST("/cars", c.Car.Create)
	adm.PUT("/cars/:id", c.Car.Update)
	adm.POST("/cars/:id/retire", c.Car.Retire)
	adm.GET("/approvals", c.Admin.Approvals)
	adm.POST("/bookings/:id/approve", c.Admin.Approve)
	adm.POST("/bookings/:id/reject", c.Admin.Reject)
	adm.GET("/bookings", c.Admin.ListBookings)
	adm.POST("/bookings/:id/cancel", c.Admin.Cancel)
	adm.GET("/live_rides", c.Admin.LiveRides)
	adm.POST("/bookings/:id/force_end", c.Admin.ForceEnd)
	adm.GET("/earnings", c.Admin.EarningsReport)
}
