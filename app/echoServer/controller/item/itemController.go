package item

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/binkim00/rentex/app/echoServer/jwtx"
	"github.com/binkim00/rentex/model"
	itemsvc "github.com/binkim00/rentex/service/item"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc itemsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/items
func (h *Controller) Register(c echo.Context) error {
	var req UpsertItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	it := &model.Item{
		Name:          req.Name,
		Description:   req.Description,
		StockQuantity: req.StockQuantity,
		Status:        model.ItemStatus(req.Status),
		DailyPrice:    req.DailyPrice,
	}
	out, err := h.Svc.Register(c.Request().Context(), uid, it)
	if err != nil {
		h.Log.Error("item register", "err", err)
		switch itemsvc.Code(err) {
		case itemsvc.ErrNotPartner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "partner account required"})
		case itemsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// GET /v1/items
func (h *Controller) List(c echo.Context) error {
	items, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("item list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

// GET /v1/items/mine
func (h *Controller) Mine(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	items, err := h.Svc.ListByPartner(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("item mine", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items})
}

// GET /v1/items/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	it, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if itemsvc.Code(err) == itemsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		}
		h.Log.Error("item detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": it})
}

// PUT /v1/items/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpsertItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	it := &model.Item{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		StockQuantity: req.StockQuantity,
		Status:        model.ItemStatus(req.Status),
		DailyPrice:    req.DailyPrice,
	}
	if err := h.Svc.Update(c.Request().Context(), uid, it); err != nil {
		switch itemsvc.Code(err) {
		case itemsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		case itemsvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case itemsvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("item update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DELETE /v1/items/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request().Context(), uid, id); err != nil {
		switch itemsvc.Code(err) {
		case itemsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		case itemsvc.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		default:
			h.Log.Error("item delete", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
