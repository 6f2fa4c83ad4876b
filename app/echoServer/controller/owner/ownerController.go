package owner

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"carrental/app/echoServer/jwtx"
	"carrental/model"
	bookingsvc "carrental/service/booking"
	carsvc "carrental/service/car"
	earningssvc "carrental/service/earnings"
	ridesvc "carrental/service/ride"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Controller serves the /v1/owner routes. Every handler here runs behind
// the owner-or-admin role middleware; admins get the wider variants via
// the admin controller instead.
type Controller struct {
	Bookings bookingsvc.Service
	Cars     carsvc.Service
	Rides    ridesvc.Service
	Earnings earningssvc.Service
	V        *validator.Validate
	Log      *slog.Logger
}

type otpReq struct {
	Code string `json:"otp" validate:"required,len=6,numeric"`
}

type blockReq struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// GET /v1/owner/bookings
func (h *Controller) ListBookings(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Bookings.ByOwner(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("owner bookings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func rideFail(c echo.Context, log *slog.Logger, op string, err error) error {
	switch ridesvc.Code(err) {
	case ridesvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case ridesvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case ridesvc.ErrInvalidOtp:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid otp"})
	case ridesvc.ErrOtpLocked:
		return c.JSON(http.StatusLocked, echo.Map{"message": "otp attempts exhausted"})
	case ridesvc.ErrStateTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "operation not valid for booking state"})
	default:
		log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/owner/bookings/:id/start_ride
func (h *Controller) StartRide(c echo.Context) error {
	return h.ride(c, false)
}

// POST /v1/owner/bookings/:id/end_ride
func (h *Controller) EndRide(c echo.Context) error {
	return h.ride(c, true)
}

func (h *Controller) ride(c echo.Context, end bool) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	var bk *model.Booking
	if end {
		bk, err = h.Rides.VerifyEnd(c.Request().Context(), uid, id, req.Code)
	} else {
		bk, err = h.Rides.VerifyStart(c.Request().Context(), uid, id, req.Code)
	}
	if err != nil {
		return rideFail(c, h.Log, "ride transition", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": bk})
}

func blockFail(c echo.Context, log *slog.Logger, op string, err error) error {
	switch carsvc.Code(err) {
	case carsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case carsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case carsvc.ErrInvalidRange:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid time range"})
	case carsvc.ErrUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "car is not free in that period"})
	case carsvc.ErrRetired:
		return c.JSON(http.StatusConflict, echo.Map{"message": "car is retired"})
	default:
		log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/owner/cars/:id/blocks
func (h *Controller) AddBlock(c echo.Context) error {
	carID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req blockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	start, ok1 := parseTime(req.StartTime)
	end, ok2 := parseTime(req.EndTime)
	if !ok1 || !ok2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "unrecognized time format"})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	role, _ := jwtx.RoleFromContext(c)

	id, err := h.Cars.Block(c.Request().Context(), uid, role == string(model.RoleAdmin), carID, start, end)
	if err != nil {
		return blockFail(c, h.Log, "add block", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"block_id": id})
}

// DELETE /v1/owner/cars/:id/blocks/:block_id
func (h *Controller) RemoveBlock(c echo.Context) error {
	carID, ok := pathID(c, "id")
	blockID, ok2 := pathID(c, "block_id")
	if !ok || !ok2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	role, _ := jwtx.RoleFromContext(c)

	if err := h.Cars.Unblock(c.Request().Context(), uid, role == string(model.RoleAdmin), carID, blockID); err != nil {
		return blockFail(c, h.Log, "remove block", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "block removed"})
}

// GET /v1/owner/cars/:id/blocks
func (h *Controller) ListBlocks(c echo.Context) error {
	carID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	role, _ := jwtx.RoleFromContext(c)

	rows, err := h.Cars.Blocks(c.Request().Context(), uid, role == string(model.RoleAdmin), carID)
	if err != nil {
		return blockFail(c, h.Log, "list blocks", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/owner/earnings?year=&month=
func (h *Controller) EarningsReport(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	year, _ := strconv.Atoi(c.QueryParam("year"))
	month, _ := strconv.Atoi(c.QueryParam("month"))

	rep, err := h.Earnings.Owner(c.Request().Context(), uid, year, month)
	if err != nil {
		h.Log.Error("owner earnings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rep)
}
