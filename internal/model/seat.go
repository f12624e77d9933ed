package model

import "time"

// SeatCapacity is the fixed number of seats in every event.
const SeatCapacity = 100

// SeatAssignment represents a participant's numbered reservation within an
// event, as stored in the `seat_assignments` table. Seat numbers are dense,
// start at 1 and are never reused while the event is live. An account holds
// at most one seat per event; the table enforces this with a unique key on
// (event_id, account_id).
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the seat belongs to.
//  AccountID – account holding the seat.
//  Seat      – 1-based seat number within the event.
//  Nickname  – nickname snapshot taken at join time.
//  JoinedAt  – when the seat was committed.
type SeatAssignment struct {
	ID        uint64    // seat_assignments.id
	EventID   uint64    // seat_assignments.event_id
	AccountID uint64    // seat_assignments.account_id
	Seat      int       // seat_assignments.seat
	Nickname  string    // seat_assignments.nickname
	JoinedAt  time.Time // seat_assignments.joined_at
}
