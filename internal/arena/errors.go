// Package arena implements the core coordination logic for capacity-limited
// events: the seat allocator and the event directory. Both operate against
// narrow store interfaces so their correctness does not depend on any
// particular database or transport. Handlers translate the sentinel errors
// defined here into HTTP status codes.
package arena

import "errors"

// ErrNotFound is returned when an account or event does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when a blocked account attempts to join an
// event. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("account is blocked")

// ErrCapacityExceeded is returned when an event already holds its full
// complement of seats. Handlers should translate this into HTTP 409.
var ErrCapacityExceeded = errors.New("event is full")

// ErrInsufficientFunds is returned when the account balance is below the
// event entry fee. Handlers should translate this into HTTP 402.
var ErrInsufficientFunds = errors.New("insufficient balance")

// ErrConflict is returned when the account already holds a seat in the
// event. A second seat for the same (event, account) pair is never
// created. Handlers should translate this into HTTP 409.
var ErrConflict = errors.New("seat already held for this event")

// ErrStoreUnavailable wraps transient infrastructure failures. It is the
// only retryable condition; retries must re-run the whole allocation
// transaction since the checked preconditions may have changed.
var ErrStoreUnavailable = errors.New("store unavailable")
