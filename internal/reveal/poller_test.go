package reveal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu  sync.Mutex
	obs Observation
	ok  bool
	err error
}

func (f *fakeSource) Current(context.Context) (Observation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obs, f.ok, f.err
}

func (f *fakeSource) set(obs Observation, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs, f.ok, f.err = obs, ok, err
}

func collectStates(t *testing.T, p *Poller, n int) []State {
	t.Helper()
	states := make(chan State, 64)
	p.OnState = func(s State) {
		select {
		case states <- s:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	var got []State
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case s := <-states:
			got = append(got, s)
		case <-deadline:
			cancel()
			t.Fatalf("collected %d states, want %d", len(got), n)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v after cancel, want nil", err)
	}
	return got
}

func TestPollerEmitsNoEventWithoutSeat(t *testing.T) {
	p := &Poller{
		AccountID:    9,
		Source:       &fakeSource{},
		Scheduler:    NewScheduler(newMemStore()),
		PollInterval: 10 * time.Millisecond,
		TickInterval: 5 * time.Millisecond,
	}
	for _, s := range collectStates(t, p, 3) {
		if s.Phase != PhaseNoEvent {
			t.Fatalf("phase = %v, want no event", s.Phase)
		}
	}
}

func TestPollerRevealsPastMoment(t *testing.T) {
	src := &fakeSource{}
	src.set(obsWithCreds(1), true, nil)

	sched := NewScheduler(newMemStore())
	// Wall clock far past the reveal moment.
	sched.clock = fixedClock(credsAt.Add(time.Hour))

	p := &Poller{
		AccountID:    9,
		Source:       src,
		Scheduler:    sched,
		PollInterval: 10 * time.Millisecond,
		TickInterval: 5 * time.Millisecond,
	}
	for _, s := range collectStates(t, p, 3) {
		if s.Phase != PhaseRevealed || s.Credentials == nil {
			t.Fatalf("state = %+v, want revealed with credentials", s)
		}
	}
}

func TestPollerKeepsLastObservationOnFetchError(t *testing.T) {
	src := &fakeSource{}
	src.set(obsWithCreds(1), true, nil)

	sched := NewScheduler(newMemStore())
	sched.clock = fixedClock(credsAt.Add(time.Hour))

	p := &Poller{
		AccountID:    9,
		Source:       src,
		Scheduler:    sched,
		PollInterval: 10 * time.Millisecond,
		TickInterval: 5 * time.Millisecond,
	}

	states := make(chan State, 64)
	p.OnState = func(s State) {
		select {
		case states <- s:
		default:
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// First state comes from the good fetch.
	select {
	case s := <-states:
		if s.Phase != PhaseRevealed {
			t.Fatalf("initial phase = %v, want revealed", s.Phase)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no initial state")
	}

	// Break the source; subsequent states must keep the last observation
	// rather than dropping to no-event.
	src.set(Observation{}, false, errors.New("network down"))
	deadline := time.After(5 * time.Second)
	for seen := 0; seen < 5; {
		select {
		case s := <-states:
			if s.Phase != PhaseRevealed {
				t.Fatalf("phase = %v after fetch error, want revealed", s.Phase)
			}
			seen++
		case <-deadline:
			t.Fatalf("states stopped after fetch error")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned %v, want nil", err)
	}
}
