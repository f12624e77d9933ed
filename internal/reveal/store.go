package reveal

import (
	"context"
	"time"
)

// Record is the durable per-(account, event) reveal state. The reveal
// moment is stored as an absolute wall-clock timestamp, never as seconds
// remaining, so a process restart recomputes the same countdown instead of
// resetting it. Revealed is a one-way latch: once set, no countdown is
// displayed again for this pair.
type Record struct {
	RevealAt time.Time `json:"reveal_at"`
	Revealed bool      `json:"revealed"`
}

// Store persists reveal records keyed by (account, event) durably enough to
// survive a process restart.
type Store interface {
	// Load returns the record for the pair and whether one exists.
	Load(ctx context.Context, accountID, eventID uint64) (Record, bool, error)
	// Save writes the record for the pair, replacing any previous one.
	Save(ctx context.Context, accountID, eventID uint64, rec Record) error
	// Clear removes every record belonging to the account.
	Clear(ctx context.Context, accountID uint64) error
}
