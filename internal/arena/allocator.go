package arena

import (
	"context"
	"time"

	"github.com/eldiiar/arena-lobby/internal/model"
)

// LedgerTx exposes the per-transaction operations the allocator needs.
// Implementations must make every method observe the mutations performed
// earlier in the same transaction, and EventForUpdate must take an
// exclusive row lock on the event so that concurrent allocations for the
// same event serialize on the seat-number computation.
type LedgerTx interface {
	// AccountByID loads an account or returns ErrNotFound.
	AccountByID(ctx context.Context, id uint64) (model.Account, error)
	// EventForUpdate loads an event under an exclusive row lock or
	// returns ErrNotFound.
	EventForUpdate(ctx context.Context, id uint64) (model.Event, error)
	// HasSeat reports whether the account already holds a live seat in
	// the event.
	HasSeat(ctx context.Context, eventID, accountID uint64) (bool, error)
	// SeatCount returns the number of live seat assignments for the event.
	SeatCount(ctx context.Context, eventID uint64) (int, error)
	// MaxSeat returns the highest assigned seat number for the event, or
	// zero when the event has no live seats.
	MaxSeat(ctx context.Context, eventID uint64) (int, error)
	// InsertSeat inserts a new seat assignment, populating its generated
	// ID. A duplicate (event, account) pair returns ErrConflict.
	InsertSeat(ctx context.Context, seat *model.SeatAssignment) error
	// DebitBalance subtracts amount from the account balance. It returns
	// ErrInsufficientFunds instead of ever driving the balance negative.
	DebitBalance(ctx context.Context, accountID uint64, amount int64) error
}

// Ledger runs a function inside a single atomic transaction. When fn
// returns an error the transaction is rolled back and no mutation
// survives; otherwise all mutations commit together.
type Ledger interface {
	Allocate(ctx context.Context, fn func(tx LedgerTx) error) error
}

// Allocator commits seats into capacity-limited events. A successful Join
// writes the seat assignment and the balance debit as one unit; any
// precondition failure leaves the store untouched.
type Allocator struct {
	ledger   Ledger
	capacity int
	clock    func() time.Time
}

// NewAllocator returns an Allocator with the standard 100-seat capacity.
func NewAllocator(ledger Ledger) *Allocator {
	return &Allocator{
		ledger:   ledger,
		capacity: model.SeatCapacity,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Join reserves the next seat in the event for the account and debits the
// entry fee. Preconditions are checked in order, each with a distinct
// failure: the account must exist (ErrNotFound) and not be blocked
// (ErrForbidden), the event must exist (ErrNotFound), the account must not
// already hold a seat (ErrConflict), the event must have a free seat
// (ErrCapacityExceeded) and the balance must cover the fee
// (ErrInsufficientFunds). The seat number is max(existing)+1, computed
// under the event row lock so two concurrent joiners can never receive the
// same seat and the capacity check cannot be raced past.
func (a *Allocator) Join(ctx context.Context, accountID, eventID uint64) (model.SeatAssignment, error) {
	var assigned model.SeatAssignment
	err := a.ledger.Allocate(ctx, func(tx LedgerTx) error {
		account, err := tx.AccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Blocked {
			return ErrForbidden
		}
		event, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		held, err := tx.HasSeat(ctx, eventID, accountID)
		if err != nil {
			return err
		}
		if held {
			return ErrConflict
		}
		count, err := tx.SeatCount(ctx, eventID)
		if err != nil {
			return err
		}
		if count >= a.capacity {
			return ErrCapacityExceeded
		}
		if account.Balance < event.EntryFee {
			return ErrInsufficientFunds
		}
		max, err := tx.MaxSeat(ctx, eventID)
		if err != nil {
			return err
		}
		seat := model.SeatAssignment{
			EventID:   eventID,
			AccountID: accountID,
			Seat:      max + 1,
			Nickname:  account.Nickname,
			JoinedAt:  a.clock(),
		}
		if err := tx.InsertSeat(ctx, &seat); err != nil {
			return err
		}
		if err := tx.DebitBalance(ctx, accountID, event.EntryFee); err != nil {
			return err
		}
		assigned = seat
		return nil
	})
	if err != nil {
		return model.SeatAssignment{}, err
	}
	return assigned, nil
}
