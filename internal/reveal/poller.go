package reveal

import (
	"context"
	"log"
	"time"
)

// Source fetches the current authoritative event state for one account.
// ok is false when the account holds no seat in any event.
type Source interface {
	Current(ctx context.Context) (obs Observation, ok bool, err error)
}

// Poller drives one account's reveal state: a slow ticker re-fetches the
// authoritative state from the Source while a fast ticker re-derives the
// visible countdown between fetches. The fast ticker never mutates
// anything authoritative — it only recomputes remaining = revealAt - now,
// so local clock drift self-corrects against the next fetch instead of
// accumulating. Cancelling the context stops both tickers deterministically;
// no timer fires after Run returns.
type Poller struct {
	AccountID uint64
	Source    Source
	Scheduler *Scheduler

	// PollInterval is how often authoritative state is re-fetched.
	// Defaults to 20s.
	PollInterval time.Duration
	// TickInterval drives the visible countdown between fetches.
	// Defaults to 1s.
	TickInterval time.Duration
	// OnState receives every recomputed state. Must be non-nil.
	OnState func(State)
}

// Run polls until ctx is cancelled, then returns nil. A failed fetch keeps
// the last good observation; the state machine simply catches up on the
// next successful poll. Reconnection after a restart is not a separate
// path: constructing a new Poller and calling Run recomputes everything
// from the persisted reveal record and current time.
func (p *Poller) Run(ctx context.Context) error {
	pollEvery := p.PollInterval
	if pollEvery <= 0 {
		pollEvery = 20 * time.Second
	}
	tickEvery := p.TickInterval
	if tickEvery <= 0 {
		tickEvery = time.Second
	}

	var (
		obs     Observation
		haveObs bool
	)
	fetch := func() {
		next, ok, err := p.Source.Current(ctx)
		if err != nil {
			log.Printf("reveal-poller: fetch failed for account %d: %v", p.AccountID, err)
			return
		}
		obs, haveObs = next, ok
	}
	emit := func() {
		if !haveObs {
			p.OnState(State{Phase: PhaseNoEvent})
			return
		}
		state, err := p.Scheduler.Observe(ctx, p.AccountID, obs)
		if err != nil {
			log.Printf("reveal-poller: persist failed for account %d: %v", p.AccountID, err)
		}
		p.OnState(state)
	}

	fetch()
	emit()

	poll := time.NewTicker(pollEvery)
	defer poll.Stop()
	tick := time.NewTicker(tickEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			fetch()
			emit()
		case <-tick.C:
			emit()
		}
	}
}
