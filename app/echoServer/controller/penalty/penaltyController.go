package penalty

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/binkim00/rentex/app/echoServer/jwtx"
	ps "github.com/binkim00/rentex/service/penalty"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ps.Service
	V   *validator.Validate
	Log *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GET /v1/penalties/me
func (h *Controller) My(c echo.Context) error {
	uid, _ := jwtx.UserIDFromContext(c)
	out, err := h.Svc.MyPenalties(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("my penalties", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// POST /v1/admin/penalties/users/:id
func (h *Controller) Grant(c echo.Context) error {
	uid, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req GrantPenaltyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}

	entry, err := h.Svc.Grant(c.Request().Context(), uid, req.Points, req.Reason)
	if err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		h.Log.Error("penalty grant", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": entry})
}

// DELETE /v1/admin/penalties/entries/:id
func (h *Controller) Revoke(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.RevokeEntry(c.Request().Context(), id); err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "entry not found"})
		}
		h.Log.Error("penalty revoke", "err", err, "entry_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "revoked"})
}

// POST /v1/admin/penalties/entries/:id/pay
func (h *Controller) MarkPaid(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.MarkEntryPaid(c.Request().Context(), id); err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "entry not found"})
		}
		h.Log.Error("penalty mark paid", "err", err, "entry_id", id)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "paid"})
}

// POST /v1/admin/penalties/users/:id/reset
func (h *Controller) Reset(c echo.Context) error {
	uid, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.ResetUser(c.Request().Context(), uid); err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		h.Log.Error("penalty reset", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reset"})
}

// POST /v1/admin/penalties/users/:id/reconcile
func (h *Controller) Reconcile(c echo.Context) error {
	uid, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Reconcile(c.Request().Context(), uid); err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		h.Log.Error("penalty reconcile", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reconciled"})
}

// GET /v1/admin/penalties/users/:id/entries
func (h *Controller) Entries(c echo.Context) error {
	uid, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	entries, err := h.Svc.ListEntries(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("penalty entries", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": entries})
}

// GET /v1/admin/penalties/users/:id/summary
func (h *Controller) Summary(c echo.Context) error {
	uid, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	s, err := h.Svc.Summary(c.Request().Context(), uid)
	if err != nil {
		if ps.Code(err) == ps.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		h.Log.Error("penalty summary", "err", err, "user_id", uid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": s})
}
