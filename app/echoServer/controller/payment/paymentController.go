package payment

import (
	"log/slog"
	"net/http"
	"strconv"

	"carrental/app/echoServer/jwtx"
	paymentsvc "carrental/service/payment"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc paymentsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type payReq struct {
	Method string `json:"method" validate:"required,oneof=full partial"`
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	switch paymentsvc.Code(err) {
	case paymentsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case paymentsvc.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case paymentsvc.ErrPayment:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "payment verification failed"})
	case paymentsvc.ErrStateTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "operation not valid for booking state"})
	case paymentsvc.ErrNothingDue:
		return c.JSON(http.StatusConflict, echo.Map{"message": "no due amount on booking"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// POST /v1/bookings/:id/pay
func (h *Controller) CreateOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req payReq
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

	out, err := h.Svc.CreateOrder(c.Request().Context(), uid, id, paymentsvc.Method(req.Method))
	if err != nil {
		return h.fail(c, "payment order", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// POST /v1/bookings/:id/pay_due
func (h *Controller) CreateDueOrder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	out, err := h.Svc.CreateDueOrder(c.Request().Context(), uid, id)
	if err != nil {
		return h.fail(c, "due payment order", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// POST /v1/payment/confirm handles the signed gateway callback. Public
// route; the HMAC signature is the authentication.
func (h *Controller) Confirm(c echo.Context) error {
	var cb paymentsvc.Callback
	if err := c.Bind(&cb); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(cb); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error"})
	}

	bk, err := h.Svc.Confirm(c.Request().Context(), cb)
	if err != nil {
		return h.fail(c, "payment confirm", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "payment recorded",
		"booking_id":   bk.ID,
		"status":       bk.Status,
		"down_payment": bk.DownPayment,
		"due_amount":   bk.DueAmount,
	})
}

// GET /v1/payments/my
func (h *Controller) History(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.History(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("payment history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
