package booking

import (
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	"carrental/model"
	bookingrepo "carrental/repository/booking"
	"carrental/repository/docstore"
	bookingsvc "carrental/service/booking"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc  bookingsvc.Service
	Docs docstore.Store
	V    *validator.Validate
	Log  *slog.Logger
}

// docTypes are the uploads a booking needs before review.
var docTypes = []string{"aadhar", "driving_license"}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch bookingsvc.Code(err) {
	case bookingsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "booking or car not found"})
	case bookingsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case bookingsvc.ErrUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "car unavailable for the requested dates"})
	case bookingsvc.ErrInvalidRange:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date range"})
	case bookingsvc.ErrRetired:
		return c.JSON(http.StatusGone, echo.Map{"message": "car no longer listed"})
	case bookingsvc.ErrStateTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "operation not valid for booking state"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/cars/:id/quote
func (h *Controller) Quote(c echo.Context) error {
	carID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || carID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req RangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	start, end, err := req.Range()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid time format"})
	}

	b, err := h.Svc.Quote(c.Request().Context(), carID, start, end)
	if err != nil {
		return h.fail(c, "booking quote", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"breakdown": b})
}

// POST /v1/cars/:id/reserve
func (h *Controller) Reserve(c echo.Context) error {
	carID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || carID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req RangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	start, end, err := req.Range()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid time format"})
	}

	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	bk, err := h.Svc.Reserve(c.Request().Context(), uid, carID, start, end)
	if err != nil {
		return h.fail(c, "booking reserve", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id": bk.ID,
		"status":     bk.Status,
		"breakdown":  bk.Breakdown,
		"hold_until": bk.HoldUntil,
	})
}

// POST /v1/bookings/:id/cancel
func (h *Controller) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	refund, err := h.Svc.Cancel(c.Request().Context(), uid, false, id)
	if err != nil {
		return h.fail(c, "booking cancel", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cancelled", "refund": refund})
}

// POST /v1/bookings/:id/documents (multipart)
func (h *Controller) SubmitDocuments(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	docs := &model.Documents{
		Name:    c.FormValue("name"),
		Address: c.FormValue("address"),
		Contact: c.FormValue("contact"),
		Files:   map[string]string{},
	}
	if docs.Name == "" || docs.Address == "" || docs.Contact == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name, address and contact are required"})
	}

	for _, dt := range docTypes {
		fh, err := c.FormFile(dt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "missing document: " + dt})
		}
		src, err := fh.Open()
		if err != nil {
			h.Log.Error("document open", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
		path, err := h.Docs.Save(id, dt, fh.Filename, src)
		src.Close()
		if err != nil {
			h.Log.Error("document store", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
		docs.Files[dt] = path
	}

	bk, err := h.Svc.SubmitDocuments(c.Request().Context(), uid, id, docs)
	if err != nil {
		return h.fail(c, "booking documents", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "documents submitted", "status": bk.Status})
}

// GET /v1/bookings/my?phase=live|past|cancelled
func (h *Controller) MyBookings(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	phase := bookingrepo.Phase(c.QueryParam("phase"))

	rows, err := h.Svc.MyBookings(c.Request().Context(), uid, phase)
	if err != nil {
		h.Log.Error("my bookings", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
