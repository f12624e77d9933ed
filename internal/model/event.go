package model

import "time"

// Event represents a capacity-limited competitive event as stored in the
// `events` table. Room credentials start out null and transition exactly
// once to non-null when an administrator publishes them; CredentialsAt
// records the server-side publication instant, which anchors every
// participant's staggered reveal moment.
//
// Fields:
//  ID            – primary key identifier.
//  Mode          – game-mode label (e.g. SOLO, DUO, SQUAD).
//  EntryFee      – entry fee in whole currency units; non-negative.
//  PrizePool     – informational prize pool.
//  StartTime     – scheduled start, UTC.
//  RoomID        – session room identifier (nil until published).
//  RoomSecret    – session room secret (nil until published).
//  CredentialsAt – when the credentials were published (nil until published).
//  CreatedAt     – timestamp of creation.
type Event struct {
	ID            uint64     // events.id
	Mode          string     // events.mode
	EntryFee      int64      // events.entry_fee
	PrizePool     int64      // events.prize_pool
	StartTime     time.Time  // events.start_time
	RoomID        *string    // events.room_id (nullable)
	RoomSecret    *string    // events.room_secret (nullable)
	CredentialsAt *time.Time // events.credentials_at (nullable)
	CreatedAt     time.Time  // events.created_at
}

// CredentialsPublished reports whether the room credentials have been
// published for this event.
func (e Event) CredentialsPublished() bool {
	return e.RoomID != nil && e.RoomSecret != nil && e.CredentialsAt != nil
}
