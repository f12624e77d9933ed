// Package handler implements the HTTP surface: auth, the public event
// directory, the join/current/reveal endpoints and the admin operations.
// Handlers translate the arena error kinds into HTTP status codes so the
// allocator stays transport-agnostic.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eldiiar/arena-lobby/internal/arena"
)

// getAccountID extracts the account_id injected by the JWT middleware and
// converts it to uint64.
func getAccountID(c echo.Context) (uint64, error) {
	v := c.Get("account_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid account_id in context")
}

// joinFailure maps an allocation error to its HTTP status and message.
// Every precondition failure is terminal for the call; anything outside
// the domain taxonomy is treated as the store being unavailable, the one
// retryable condition.
func joinFailure(err error) (int, string) {
	switch {
	case errors.Is(err, arena.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, arena.ErrForbidden):
		return http.StatusForbidden, "account is blocked"
	case errors.Is(err, arena.ErrConflict):
		return http.StatusConflict, "already joined"
	case errors.Is(err, arena.ErrCapacityExceeded):
		return http.StatusConflict, "event is full"
	case errors.Is(err, arena.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "insufficient balance"
	default:
		return http.StatusServiceUnavailable, "store unavailable"
	}
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}
