package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/model"
	"github.com/eldiiar/arena-lobby/internal/repository"
)

// AdminHandler implements the operator endpoints: event lifecycle,
// credential publication, balance top-ups and account blocking.
type AdminHandler struct {
	Accounts *repository.AccountRepo
	Events   *repository.EventRepo
	Tokens   *repository.TokenRepo
}

// NewAdminHandler constructs an AdminHandler with the provided dependencies.
func NewAdminHandler(a *repository.AccountRepo, e *repository.EventRepo, t *repository.TokenRepo) *AdminHandler {
	return &AdminHandler{Accounts: a, Events: e, Tokens: t}
}

type createEventReq struct {
	Mode      string    `json:"mode"`
	EntryFee  int64     `json:"entry_fee"`
	PrizePool int64     `json:"prize_pool"`
	StartTime time.Time `json:"start_time"`
}

// CreateEvent registers a new upcoming event. Credentials stay unpublished
// until PublishCredentials is called.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Mode = strings.TrimSpace(req.Mode)
	if req.Mode == "" || req.StartTime.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mode/start_time required"})
	}
	if req.EntryFee < 0 || req.PrizePool < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fee/prize must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev := model.Event{
		Mode:      req.Mode,
		EntryFee:  req.EntryFee,
		PrizePool: req.PrizePool,
		StartTime: req.StartTime.UTC(),
	}
	if err := h.Events.Create(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": ev.ID})
}

type publishReq struct {
	RoomID     string `json:"room_id"`
	RoomSecret string `json:"room_secret"`
}

// PublishCredentials records the room credentials for an event and stamps
// the publication instant, which anchors every participant's staggered
// reveal countdown. Publication is one-shot; repeating it is a conflict.
func (h *AdminHandler) PublishCredentials(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req publishReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RoomID = strings.TrimSpace(req.RoomID)
	req.RoomSecret = strings.TrimSpace(req.RoomSecret)
	if req.RoomID == "" || req.RoomSecret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id/room_secret required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Events.PublishCredentials(ctx, eventID, req.RoomID, req.RoomSecret)
	switch {
	case errors.Is(err, arena.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrAlreadyPublished):
		return c.JSON(http.StatusConflict, echo.Map{"error": "credentials already published"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type topUpReq struct {
	Amount int64 `json:"amount"`
}

// TopUp credits an account balance.
func (h *AdminHandler) TopUp(c echo.Context) error {
	accountID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}
	var req topUpReq
	if err := c.Bind(&req); err != nil || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Credit(ctx, accountID, req.Amount); err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "top-up failed"})
	}
	a, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": a.ID, "balance": a.Balance})
}

// Block disables an account: scrambles its password and revokes every
// refresh token, so the next token expiry is the last access it gets.
func (h *AdminHandler) Block(c echo.Context) error {
	accountID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Block(ctx, accountID); err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block failed"})
	}
	if err := h.Tokens.RevokeAllForAccount(ctx, accountID); err != nil {
		c.Logger().Warnf("revoke tokens for blocked account %d: %v", accountID, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes an event outright together with its live seats. Meant
// for events created by mistake; finished events should be archived
// instead so their rosters survive.
func (h *AdminHandler) Delete(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, eventID); err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Archive moves a finished event's roster to the archive table and frees
// the live seats.
func (h *AdminHandler) Archive(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	moved, err := h.Events.Archive(ctx, eventID)
	if err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "archive failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "archived_seats": moved})
}
