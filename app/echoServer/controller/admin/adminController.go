package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	bookingsvc "carrental/service/booking"
	earningssvc "carrental/service/earnings"
	ridesvc "carrental/service/ride"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Bookings bookingsvc.Service
	Rides    ridesvc.Service
	Earnings earningssvc.Service
	Log      *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Controller) bookingFail(c echo.Context, op string, err error) error {
	switch bookingsvc.Code(err) {
	case bookingsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case bookingsvc.ErrStateTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "operation not valid for booking state"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// GET /v1/admin/approvals
func (h *Controller) Approvals(c echo.Context) error {
	rows, err := h.Bookings.Approvals(c.Request().Context())
	if err != nil {
		h.Log.Error("approvals", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/bookings/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	bk, err := h.Bookings.Approve(c.Request().Context(), id)
	if err != nil {
		return h.bookingFail(c, "approve", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": bk})
}

// POST /v1/admin/bookings/:id/reject
func (h *Controller) Reject(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Bookings.Reject(c.Request().Context(), id); err != nil {
		return h.bookingFail(c, "reject", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "documents rejected"})
}

// GET /v1/admin/bookings
func (h *Controller) ListBookings(c echo.Context) error {
	rows, err := h.Bookings.All(c.Request().Context())
	if err != nil {
		h.Log.Error("admin bookings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/bookings/:id/cancel. Override cancel: refunds whatever
// was paid in full regardless of the notice window.
func (h *Controller) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	refund, err := h.Bookings.Cancel(c.Request().Context(), 0, true, id)
	if err != nil {
		return h.bookingFail(c, "admin cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "refund": refund})
}

// GET /v1/admin/live_rides
func (h *Controller) LiveRides(c echo.Context) error {
	rows, err := h.Bookings.LiveRides(c.Request().Context())
	if err != nil {
		h.Log.Error("live rides", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/admin/bookings/:id/force_end
func (h *Controller) ForceEnd(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Rides.ForceEnd(c.Request().Context(), id); err != nil {
		switch ridesvc.Code(err) {
		case ridesvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
		case ridesvc.ErrStateTransition:
			return c.JSON(http.StatusConflict, echo.Map{"message": "ride is not live"})
		default:
			h.Log.Error("force end", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ride ended"})
}

// GET /v1/admin/earnings?year=&month=
func (h *Controller) EarningsReport(c echo.Context) error {
	year, _ := strconv.Atoi(c.QueryParam("year"))
	month, _ := strconv.Atoi(c.QueryParam("month"))

	rep, err := h.Earnings.Platform(c.Request().Context(), year, month)
	if err != nil {
		h.Log.Error("platform earnings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, rep)
}
