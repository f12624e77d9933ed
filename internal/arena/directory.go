package arena

import (
	"context"
	"sort"

	"github.com/eldiiar/arena-lobby/internal/model"
)

// EventSummary pairs an event with its live participant count. The count
// is computed at read time and never cached past the call.
type EventSummary struct {
	Event        model.Event
	Participants int
}

// Catalog is the read-side store interface the directory consumes.
type Catalog interface {
	// ListEvents returns all events with live participant counts, in any
	// order.
	ListEvents(ctx context.Context) ([]EventSummary, error)
	// CurrentEventFor returns the most recently started event in which
	// the account holds a live seat, together with the seat number, or
	// ErrNotFound.
	CurrentEventFor(ctx context.Context, accountID uint64) (model.Event, int, error)
}

// Directory is the pure read path over events. It has no failure modes
// beyond store unavailability and performs no coordination of its own.
type Directory struct {
	catalog Catalog
}

// NewDirectory returns a Directory over the given catalog.
func NewDirectory(catalog Catalog) *Directory {
	return &Directory{catalog: catalog}
}

// List returns all events ascending by start time, ties broken by ID so
// the ordering is deterministic.
func (d *Directory) List(ctx context.Context) ([]EventSummary, error) {
	events, err := d.catalog.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Event.StartTime.Equal(events[j].Event.StartTime) {
			return events[i].Event.ID < events[j].Event.ID
		}
		return events[i].Event.StartTime.Before(events[j].Event.StartTime)
	})
	return events, nil
}

// CurrentFor returns the event anchoring the account's countdown: the most
// recently started event where the account holds a seat, plus the seat
// number. Returns ErrNotFound when the account holds no seat anywhere.
func (d *Directory) CurrentFor(ctx context.Context, accountID uint64) (model.Event, int, error) {
	return d.catalog.CurrentEventFor(ctx, accountID)
}
