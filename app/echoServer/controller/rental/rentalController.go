package rental

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/binkim00/rentex/app/echoServer/jwtx"
	rs "github.com/binkim00/rentex/service/rental"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/rentals
func (h *Controller) Create(c echo.Context) error {
	var req CreateRentalReq
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

	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)

	out, err := h.Svc.Create(c.Request().Context(), uid, req.ItemID, start, end)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrBadDates:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date range"})
		case rs.ErrItemNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "item not found"})
		case rs.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "item already rented for those dates"})
		default:
			h.Log.Error("rental create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// POST /v1/admin/rentals/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	return h.adminTransition(c, h.Svc.Approve, "approved")
}

// POST /v1/admin/rentals/:id/start
func (h *Controller) Start(c echo.Context) error {
	return h.adminTransition(c, h.Svc.Start, "rented")
}

// POST /v1/admin/rentals/:id/return
func (h *Controller) CompleteReturn(c echo.Context) error {
	return h.adminTransition(c, h.Svc.CompleteReturn, "returned")
}

func (h *Controller) adminTransition(c echo.Context, fn func(ctx context.Context, id int64) error, done string) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	if err := fn(c.Request().Context(), id); err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "rental not found"})
		case rs.ErrWrongStatus:
			return c.JSON(http.StatusConflict, echo.Map{"message": "rental not in expected status"})
		case rs.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "conflicting rental exists"})
		default:
			h.Log.Error("rental transition", "err", err, "rental_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": done})
}

// POST /v1/rentals/:id/return-request
func (h *Controller) RequestReturn(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := jwtx.UserIDFromContext(c)

	if err := h.Svc.RequestReturn(c.Request().Context(), uid, id); err != nil {
		switch rs.Code(err) {
		case rs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "rental not found"})
		case rs.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case rs.ErrWrongStatus:
			return c.JSON(http.StatusConflict, echo.Map{"message": "rental not in expected status"})
		default:
			h.Log.Error("rental return request", "err", err, "rental_id", id)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "return requested"})
}

// GET /v1/rentals/my
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	rows, err := h.Svc.MyHistory(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("rental history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/admin/rentals/overdue
func (h *Controller) Overdue(c echo.Context) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if d := c.QueryParam("as_of"); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid as_of date"})
		}
		today = t
	}
	rows, err := h.Svc.ScanOverdue(c.Request().Context(), today)
	if err != nil {
		h.Log.Error("overdue scan", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
