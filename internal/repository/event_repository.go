package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/model"
)

// ErrAlreadyPublished is returned when an event's room credentials are
// published a second time. Credentials transition from null to non-null
// exactly once. Handlers should translate this into HTTP 409.
var ErrAlreadyPublished = errors.New("credentials already published")

// EventRepo provides data access to the events table and the read queries
// behind the event directory. It implements arena.Catalog.
type EventRepo struct{ DB *sql.DB }

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "id, mode, entry_fee, prize_pool, start_time, room_id, room_secret, credentials_at, created_at"

func scanEvent(scan func(dest ...any) error) (model.Event, error) {
	var (
		e      model.Event
		room   sql.NullString
		secret sql.NullString
		credAt sql.NullTime
	)
	err := scan(&e.ID, &e.Mode, &e.EntryFee, &e.PrizePool, &e.StartTime,
		&room, &secret, &credAt, &e.CreatedAt)
	if err != nil {
		return model.Event{}, err
	}
	if room.Valid {
		v := room.String
		e.RoomID = &v
	}
	if secret.Valid {
		v := secret.String
		e.RoomSecret = &v
	}
	if credAt.Valid {
		t := credAt.Time.UTC()
		e.CredentialsAt = &t
	}
	return e, nil
}

// Create inserts a new event and populates the generated ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (mode, entry_fee, prize_pool, start_time) VALUES (?,?,?,?)",
		e.Mode, e.EntryFee, e.PrizePool, e.StartTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches a single event, or arena.ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id=?", id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, arena.ErrNotFound
	}
	return e, err
}

// ListEvents returns every event together with its live participant count.
// The count is a correlated subquery over seat_assignments, so it is
// computed fresh on every call.
func (r *EventRepo) ListEvents(ctx context.Context) ([]arena.EventSummary, error) {
	const q = `SELECT e.id, e.mode, e.entry_fee, e.prize_pool, e.start_time,
	                  e.room_id, e.room_secret, e.credentials_at, e.created_at,
	                  (SELECT COUNT(*) FROM seat_assignments s WHERE s.event_id = e.id)
	           FROM events e
	           ORDER BY e.start_time ASC, e.id ASC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	summaries := make([]arena.EventSummary, 0)
	for rows.Next() {
		var (
			e      model.Event
			room   sql.NullString
			secret sql.NullString
			credAt sql.NullTime
			count  int
		)
		if err := rows.Scan(&e.ID, &e.Mode, &e.EntryFee, &e.PrizePool, &e.StartTime,
			&room, &secret, &credAt, &e.CreatedAt, &count); err != nil {
			return nil, err
		}
		if room.Valid {
			v := room.String
			e.RoomID = &v
		}
		if secret.Valid {
			v := secret.String
			e.RoomSecret = &v
		}
		if credAt.Valid {
			t := credAt.Time.UTC()
			e.CredentialsAt = &t
		}
		summaries = append(summaries, arena.EventSummary{Event: e, Participants: count})
	}
	return summaries, rows.Err()
}

// CurrentEventFor returns the most recently started event in which the
// account holds a live seat, plus the seat number. Returns
// arena.ErrNotFound when the account holds no seat anywhere.
func (r *EventRepo) CurrentEventFor(ctx context.Context, accountID uint64) (model.Event, int, error) {
	const q = `SELECT e.id, e.mode, e.entry_fee, e.prize_pool, e.start_time,
	                  e.room_id, e.room_secret, e.credentials_at, e.created_at,
	                  s.seat
	           FROM seat_assignments s
	           JOIN events e ON e.id = s.event_id
	           WHERE s.account_id = ?
	           ORDER BY e.start_time DESC
	           LIMIT 1`
	row := r.DB.QueryRowContext(ctx, q, accountID)
	var seat int
	e, err := scanEvent(func(dest ...any) error {
		return row.Scan(append(dest, &seat)...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, 0, arena.ErrNotFound
	}
	if err != nil {
		return model.Event{}, 0, err
	}
	return e, seat, nil
}

// PublishCredentials records the room credentials and the publication
// instant for an event. Publication happens exactly once: a second call
// returns ErrAlreadyPublished, and a missing event returns
// arena.ErrNotFound.
func (r *EventRepo) PublishCredentials(ctx context.Context, eventID uint64, roomID, roomSecret string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE events SET room_id=?, room_secret=?, credentials_at=UTC_TIMESTAMP() WHERE id=? AND room_id IS NULL",
		roomID, roomSecret, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id=?", eventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return arena.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyPublished
}

// Delete removes an event and its live seat assignments in one
// transaction. The event row is locked first so deletion serializes behind
// any in-flight allocation. Returns arena.ErrNotFound when no such event
// exists. Entry fees already debited are not refunded.
func (r *EventRepo) Delete(ctx context.Context, eventID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var id uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM events WHERE id=? FOR UPDATE", eventID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return arena.ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM seat_assignments WHERE event_id=?", eventID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id=?", eventID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Archive moves an event's live seat assignments into seat_archive and
// clears the live table, as one transaction. The event row is locked first
// with the same FOR UPDATE lock the allocator takes, so archival serializes
// behind any in-flight allocation for the event instead of racing it.
func (r *EventRepo) Archive(ctx context.Context, eventID uint64) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var id uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM events WHERE id=? FOR UPDATE", eventID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, arena.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO seat_archive (event_id, account_id, seat, nickname, joined_at, archived_at)
		 SELECT event_id, account_id, seat, nickname, joined_at, ? FROM seat_assignments WHERE event_id=?`,
		time.Now().UTC(), eventID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM seat_assignments WHERE event_id=?", eventID)
	if err != nil {
		return 0, err
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return moved, nil
}
