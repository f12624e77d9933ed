package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/model"
)

// Ledger implements arena.Ledger over MySQL. Allocate opens one
// transaction; the event row lock taken by EventForUpdate serializes
// concurrent allocations for the same event, which makes the capacity
// check, the max(seat)+1 computation, the insert and the debit appear
// atomic to every other caller.
type Ledger struct{ DB *sql.DB }

// NewLedger returns a Ledger bound to the given database.
func NewLedger(db *sql.DB) *Ledger { return &Ledger{DB: db} }

// Allocate runs fn inside a transaction. Any error from fn rolls the
// transaction back so no partial mutation survives; infrastructure
// failures around begin/commit are wrapped as arena.ErrStoreUnavailable,
// the only retryable condition.
func (l *Ledger) Allocate(ctx context.Context, fn func(tx arena.LedgerTx) error) error {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(arena.ErrStoreUnavailable, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Join(arena.ErrStoreUnavailable, err)
	}
	committed = true
	return nil
}

// ledgerTx adapts one *sql.Tx to arena.LedgerTx.
type ledgerTx struct{ tx *sql.Tx }

func (t *ledgerTx) AccountByID(ctx context.Context, id uint64) (model.Account, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, arena.ErrNotFound
	}
	return a, err
}

func (t *ledgerTx) EventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? FOR UPDATE", id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, arena.ErrNotFound
	}
	return e, err
}

func (t *ledgerTx) HasSeat(ctx context.Context, eventID, accountID uint64) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		"SELECT 1 FROM seat_assignments WHERE event_id=? AND account_id=? LIMIT 1",
		eventID, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *ledgerTx) SeatCount(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM seat_assignments WHERE event_id=?", eventID).Scan(&n)
	return n, err
}

func (t *ledgerTx) MaxSeat(ctx context.Context, eventID uint64) (int, error) {
	var max int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seat), 0) FROM seat_assignments WHERE event_id=?", eventID).Scan(&max)
	return max, err
}

func (t *ledgerTx) InsertSeat(ctx context.Context, seat *model.SeatAssignment) error {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO seat_assignments (event_id, account_id, seat, nickname, joined_at) VALUES (?,?,?,?,?)",
		seat.EventID, seat.AccountID, seat.Seat, seat.Nickname, seat.JoinedAt.UTC())
	if err != nil {
		// The unique key on (event_id, account_id) is the backstop for
		// duplicate joins that slipped past the in-tx check.
		if isDuplicateKey(err) {
			return arena.ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	seat.ID = uint64(id)
	return nil
}

func (t *ledgerTx) DebitBalance(ctx context.Context, accountID uint64, amount int64) error {
	// A zero debit must succeed without touching the row: MySQL reports
	// changed rows, not matched rows, so `balance = balance - 0` would
	// yield zero affected rows and read as an insufficient balance.
	if amount == 0 {
		return nil
	}
	res, err := t.tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance - ? WHERE id=? AND balance >= ?",
		amount, accountID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	// The allocator already verified the balance; the guard here keeps the
	// never-negative invariant even if a concurrent debit landed first.
	if n == 0 {
		return arena.ErrInsufficientFunds
	}
	return nil
}
