// Package queue defines the message payloads exchanged over the broker and
// the background consumer that records them.
package queue

// SeatAllocatedEvent is published after a join commits. It carries enough
// context for downstream consumers (logging, notifications, analytics)
// without another trip to the primary database.
type SeatAllocatedEvent struct {
	EventID     uint64 `json:"event_id"`
	AccountID   uint64 `json:"account_id"`
	GameID      string `json:"game_id"`
	Nickname    string `json:"nickname"`
	Seat        int    `json:"seat"`
	Mode        string `json:"mode"`
	EntryFee    int64  `json:"entry_fee"`
	StartTime   string `json:"start_time"`
	AllocatedAt string `json:"allocated_at"`
}
