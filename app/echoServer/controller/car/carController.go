package car

import (
	"log/slog"
	"net/http"
	"strconv"

	"carrental/model"
	carrepo "carrental/repository/car"
	carsvc "carrental/service/car"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc carsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/cars
func (h *Controller) List(c echo.Context) error {
	seats, _ := strconv.Atoi(c.QueryParam("seats"))
	f := carrepo.Filter{
		Location: c.QueryParam("location"),
		Seats:    seats,
		FuelType: c.QueryParam("fuel_type"),
	}
	cars, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("car list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cars})
}

// GET /v1/cars/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	car, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "car not found"})
		}
		h.Log.Error("car detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": car})
}

// POST /v1/admin/cars
func (h *Controller) Create(c echo.Context) error {
	var req CreateCarReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	id, err := h.Svc.Create(c.Request().Context(), &model.Car{
		OwnerID:      req.OwnerID,
		Name:         req.Name,
		Brand:        req.Brand,
		Location:     req.Location,
		Seats:        req.Seats,
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		PricePerDay:  req.PricePerDay,
		Image:        req.Image,
	})
	if err != nil {
		h.Log.Error("car create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// PUT /v1/admin/cars/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateCarReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	err = h.Svc.Update(c.Request().Context(), &model.Car{
		ID:           id,
		Name:         req.Name,
		Brand:        req.Brand,
		Location:     req.Location,
		Seats:        req.Seats,
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		PricePerDay:  req.PricePerDay,
		Image:        req.Image,
	})
	if err != nil {
		switch carsvc.Code(err) {
		case carsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "car not found"})
		case carsvc.ErrInvalidRange:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid car details"})
		default:
			h.Log.Error("car update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// POST /v1/admin/cars/:id/retire
func (h *Controller) Retire(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Retire(c.Request().Context(), id); err != nil {
		if carsvc.Code(err) == carsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "car not found"})
		}
		h.Log.Error("car retire", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "retired"})
}
