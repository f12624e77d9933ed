package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/model"
	"github.com/eldiiar/arena-lobby/internal/queue"
	"github.com/eldiiar/arena-lobby/internal/repository"
	"github.com/eldiiar/arena-lobby/internal/reveal"
)

// EventHandler serves the event directory, the join operation and the
// per-participant reveal state.
type EventHandler struct {
	Directory *arena.Directory
	Allocator *arena.Allocator
	Accounts  *repository.AccountRepo
	Events    *repository.EventRepo
	Seats     *repository.SeatRepo
	Reveals   *reveal.Scheduler // may be nil when Redis is unavailable
}

// NewEventHandler constructs an EventHandler with the provided dependencies.
func NewEventHandler(d *arena.Directory, a *arena.Allocator, acc *repository.AccountRepo,
	ev *repository.EventRepo, st *repository.SeatRepo, rv *reveal.Scheduler) *EventHandler {
	return &EventHandler{Directory: d, Allocator: a, Accounts: acc, Events: ev, Seats: st, Reveals: rv}
}

type eventResp struct {
	ID           uint64    `json:"id"`
	Mode         string    `json:"mode"`
	EntryFee     int64     `json:"entry_fee"`
	PrizePool    int64     `json:"prize_pool"`
	StartTime    time.Time `json:"start_time"`
	Participants int       `json:"participants"`
	Capacity     int       `json:"capacity"`
	Full         bool      `json:"full"`
}

func toEventResp(s arena.EventSummary) eventResp {
	return eventResp{
		ID:           s.Event.ID,
		Mode:         s.Event.Mode,
		EntryFee:     s.Event.EntryFee,
		PrizePool:    s.Event.PrizePool,
		StartTime:    s.Event.StartTime,
		Participants: s.Participants,
		Capacity:     model.SeatCapacity,
		Full:         s.Participants >= model.SeatCapacity,
	}
}

// List returns the public event directory. Room credentials are never part
// of this payload; they surface only through the reveal endpoint.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	summaries, err := h.Directory.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]eventResp, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toEventResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// Join reserves the next seat in the event for the caller, debiting the
// entry fee atomically with the seat insert. On success it emits a
// seat.allocated message best-effort; a broker outage never fails a
// committed join.
func (h *EventHandler) Join(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	seat, err := h.Allocator.Join(ctx, accountID, eventID)
	if err != nil {
		status, msg := joinFailure(err)
		return c.JSON(status, echo.Map{"error": msg})
	}

	go h.publishAllocation(seat)

	return c.JSON(http.StatusCreated, echo.Map{
		"event_id":  seat.EventID,
		"seat":      seat.Seat,
		"joined_at": seat.JoinedAt,
	})
}

// publishAllocation enriches the committed seat with account and event
// details and publishes it. Runs detached from the request.
func (h *EventHandler) publishAllocation(seat model.SeatAssignment) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := queue.SeatAllocatedEvent{
		EventID:     seat.EventID,
		AccountID:   seat.AccountID,
		Nickname:    seat.Nickname,
		Seat:        seat.Seat,
		AllocatedAt: seat.JoinedAt.Format(time.RFC3339),
	}
	if a, err := h.Accounts.GetByID(ctx, seat.AccountID); err == nil {
		msg.GameID = a.GameID
	}
	if e, err := h.Events.GetByID(ctx, seat.EventID); err == nil {
		msg.Mode = e.Mode
		msg.EntryFee = e.EntryFee
		msg.StartTime = e.StartTime.Format(time.RFC3339)
	}
	_ = queue.PublishSeatAllocated(ctx, msg)
}

// Current returns the event anchoring the caller's countdown: the most
// recently started event where the caller holds a seat, plus the seat
// number and current reveal phase.
func (h *EventHandler) Current(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, seat, err := h.Directory.CurrentFor(ctx, accountID)
	if errors.Is(err, arena.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"phase": reveal.PhaseNoEvent.String()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	state := reveal.Derive(reveal.ObservationFromEvent(ev, seat), time.Now().UTC())
	return c.JSON(http.StatusOK, echo.Map{
		"event": eventResp{
			ID: ev.ID, Mode: ev.Mode, EntryFee: ev.EntryFee, PrizePool: ev.PrizePool,
			StartTime: ev.StartTime, Capacity: model.SeatCapacity,
		},
		"seat":  seat,
		"phase": state.Phase.String(),
	})
}

// Reveal returns the caller's reveal state for their current event:
// the phase, the remaining countdown and, once the seat's staggered
// moment has passed, the room credentials. The state is reconciled with
// the persisted record so it survives restarts and never counts down
// twice.
func (h *EventHandler) Reveal(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, seat, err := h.Directory.CurrentFor(ctx, accountID)
	if errors.Is(err, arena.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{"phase": reveal.PhaseNoEvent.String()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	obs := reveal.ObservationFromEvent(ev, seat)
	var state reveal.State
	if h.Reveals != nil {
		state, err = h.Reveals.Observe(ctx, accountID, obs)
		if err != nil {
			// The derived state is still valid; only persistence failed.
			c.Logger().Warnf("persist reveal state for account %d: %v", accountID, err)
		}
	} else {
		state = reveal.Derive(obs, time.Now().UTC())
	}

	resp := echo.Map{
		"event_id":          ev.ID,
		"seat":              seat,
		"phase":             state.Phase.String(),
		"remaining_seconds": int64(state.Remaining / time.Second),
	}
	if !state.RevealAt.IsZero() {
		resp["reveal_at"] = state.RevealAt
	}
	if state.Credentials != nil {
		resp["credentials"] = state.Credentials
	}
	return c.JSON(http.StatusOK, resp)
}

// Roster returns the live seat list of an event ordered by seat number.
func (h *EventHandler) Roster(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seats, err := h.Seats.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	type rosterEntry struct {
		Seat     int       `json:"seat"`
		Nickname string    `json:"nickname"`
		JoinedAt time.Time `json:"joined_at"`
	}
	out := make([]rosterEntry, 0, len(seats))
	for _, s := range seats {
		out = append(out, rosterEntry{Seat: s.Seat, Nickname: s.Nickname, JoinedAt: s.JoinedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": eventID,
		"seats":    out,
		"capacity": model.SeatCapacity,
	})
}
