package repository

import (
	"context"
	"database/sql"

	"github.com/eldiiar/arena-lobby/internal/model"
)

// SeatRepo provides read access to live seat assignments. All writes to
// seat_assignments happen inside the allocation transaction (ledger.go) or
// the archival transaction (event_repository.go).
type SeatRepo struct{ DB *sql.DB }

// NewSeatRepo returns a SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{DB: db} }

// ListByEvent returns the live roster of an event ordered by seat number,
// suitable for rendering the 100-slot lobby grid.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.SeatAssignment, error) {
	const q = `SELECT id, event_id, account_id, seat, nickname, joined_at
	           FROM seat_assignments WHERE event_id=? ORDER BY seat ASC`
	rows, err := r.DB.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.SeatAssignment, 0)
	for rows.Next() {
		var s model.SeatAssignment
		if err := rows.Scan(&s.ID, &s.EventID, &s.AccountID, &s.Seat, &s.Nickname, &s.JoinedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
