package reveal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	recs    map[[2]uint64]Record
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[[2]uint64]Record)}
}

func (m *memStore) Load(_ context.Context, accountID, eventID uint64) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return Record{}, false, m.loadErr
	}
	rec, ok := m.recs[[2]uint64{accountID, eventID}]
	return rec, ok, nil
}

func (m *memStore) Save(_ context.Context, accountID, eventID uint64, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.recs[[2]uint64{accountID, eventID}] = rec
	return nil
}

func (m *memStore) Clear(_ context.Context, accountID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.recs {
		if k[0] == accountID {
			delete(m.recs, k)
		}
	}
	return nil
}

var (
	start   = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	credsAt = start.Add(5 * time.Second)
)

func obsWithCreds(seat int) Observation {
	return Observation{
		EventID:       1,
		Start:         start,
		CredentialsAt: credsAt,
		Credentials:   Credentials{RoomID: "R-77", RoomSecret: "s3cret"},
		Seat:          seat,
	}
}

func TestDerive(t *testing.T) {
	cases := []struct {
		name      string
		obs       Observation
		now       time.Time
		phase     Phase
		remaining time.Duration
	}{
		{
			name:  "no seat means no event",
			obs:   Observation{EventID: 1, Start: start},
			now:   start,
			phase: PhaseNoEvent,
		},
		{
			name:  "zero start means no event",
			obs:   Observation{EventID: 1, Seat: 3},
			now:   start,
			phase: PhaseNoEvent,
		},
		{
			name:      "before start counts down to start",
			obs:       Observation{EventID: 1, Start: start, Seat: 3},
			now:       start.Add(-90 * time.Second),
			phase:     PhaseAwaitingStart,
			remaining: 90 * time.Second,
		},
		{
			name:  "started without credentials",
			obs:   Observation{EventID: 1, Start: start, Seat: 3},
			now:   start.Add(time.Minute),
			phase: PhaseAwaitingCredentials,
		},
		{
			// Credentials published at start+5s; seat 3 reveals three
			// stagger steps later, at start+20s.
			name:      "counting to the staggered moment",
			obs:       obsWithCreds(3),
			now:       start.Add(8 * time.Second),
			phase:     PhaseCounting,
			remaining: 12 * time.Second,
		},
		{
			name:  "revealed exactly at the moment",
			obs:   obsWithCreds(3),
			now:   credsAt.Add(15 * time.Second),
			phase: PhaseRevealed,
		},
		{
			name:  "revealed long after, remaining never negative",
			obs:   obsWithCreds(3),
			now:   credsAt.Add(time.Hour),
			phase: PhaseRevealed,
		},
		{
			name:      "seat one reveals first",
			obs:       obsWithCreds(1),
			now:       credsAt,
			phase:     PhaseCounting,
			remaining: 5 * time.Second,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Derive(tc.obs, tc.now)
			if got.Phase != tc.phase {
				t.Fatalf("phase = %v, want %v", got.Phase, tc.phase)
			}
			if got.Remaining != tc.remaining {
				t.Fatalf("remaining = %v, want %v", got.Remaining, tc.remaining)
			}
			if got.Remaining < 0 {
				t.Fatalf("remaining is negative: %v", got.Remaining)
			}
			if tc.phase == PhaseRevealed {
				if got.Credentials == nil || got.Credentials.RoomID != "R-77" {
					t.Fatalf("revealed state missing credentials: %+v", got.Credentials)
				}
			} else if got.Credentials != nil {
				t.Fatalf("credentials leaked in phase %v", got.Phase)
			}
		})
	}
}

func TestDeriveRemainingIsMonotonic(t *testing.T) {
	obs := obsWithCreds(5)
	prev := time.Duration(1<<62 - 1)
	for now := start; now.Before(credsAt.Add(time.Minute)); now = now.Add(time.Second) {
		got := Derive(obs, now)
		if got.Phase == PhaseCounting {
			if got.Remaining > prev {
				t.Fatalf("remaining grew from %v to %v at %v", prev, got.Remaining, now)
			}
			prev = got.Remaining
		}
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestObservePersistsAbsoluteRevealMoment(t *testing.T) {
	store := newMemStore()
	s := NewScheduler(store)
	s.clock = fixedClock(credsAt.Add(2 * time.Second))

	state, err := s.Observe(context.Background(), 9, obsWithCreds(3))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if state.Phase != PhaseCounting {
		t.Fatalf("phase = %v, want counting", state.Phase)
	}
	rec, found, _ := store.Load(context.Background(), 9, 1)
	if !found || !rec.RevealAt.Equal(credsAt.Add(15*time.Second)) {
		t.Fatalf("persisted record = %+v found=%v, want reveal at creds+15s", rec, found)
	}
	if rec.Revealed {
		t.Fatalf("latch set while still counting")
	}

	// Re-observing the same moment does not rewrite the record.
	saves := store.saves
	if _, err := s.Observe(context.Background(), 9, obsWithCreds(3)); err != nil {
		t.Fatalf("re-observe: %v", err)
	}
	if store.saves != saves {
		t.Fatalf("record rewritten on identical observation")
	}
}

func TestObserveSetsLatchAfterMoment(t *testing.T) {
	store := newMemStore()
	s := NewScheduler(store)
	s.clock = fixedClock(credsAt.Add(time.Minute))

	state, err := s.Observe(context.Background(), 9, obsWithCreds(3))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if state.Phase != PhaseRevealed || state.Credentials == nil {
		t.Fatalf("state = %+v, want revealed with credentials", state)
	}
	rec, found, _ := store.Load(context.Background(), 9, 1)
	if !found || !rec.Revealed {
		t.Fatalf("latch not persisted: %+v found=%v", rec, found)
	}
}

func TestObserveLatchShortCircuitsCountdown(t *testing.T) {
	store := newMemStore()
	store.recs[[2]uint64{9, 1}] = Record{RevealAt: credsAt.Add(15 * time.Second), Revealed: true}

	s := NewScheduler(store)
	// Clock says we would still be counting; the latch wins.
	s.clock = fixedClock(credsAt.Add(2 * time.Second))

	state, err := s.Observe(context.Background(), 9, obsWithCreds(3))
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if state.Phase != PhaseRevealed || state.Credentials == nil {
		t.Fatalf("state = %+v, want revealed via latch", state)
	}
}

func TestObserveLatchIgnoredBeforePublication(t *testing.T) {
	store := newMemStore()
	store.recs[[2]uint64{9, 1}] = Record{RevealAt: credsAt.Add(15 * time.Second), Revealed: true}

	s := NewScheduler(store)
	s.clock = fixedClock(start.Add(time.Minute))

	// Event started but the observation carries no credentials. A stale
	// latch must not surface empty credentials.
	obs := Observation{EventID: 1, Start: start, Seat: 3}
	state, err := s.Observe(context.Background(), 9, obs)
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if state.Phase != PhaseAwaitingCredentials {
		t.Fatalf("phase = %v, want awaiting credentials", state.Phase)
	}
	if state.Credentials != nil {
		t.Fatalf("empty credentials surfaced: %+v", state.Credentials)
	}
}

func TestObserveSurvivesRestart(t *testing.T) {
	store := newMemStore()

	first := NewScheduler(store)
	first.clock = fixedClock(credsAt.Add(2 * time.Second))
	if _, err := first.Observe(context.Background(), 9, obsWithCreds(3)); err != nil {
		t.Fatalf("first observe: %v", err)
	}

	// New scheduler over the same store, later wall clock: the countdown
	// resumes from the absolute moment instead of restarting.
	second := NewScheduler(store)
	second.clock = fixedClock(credsAt.Add(10 * time.Second))
	state, err := second.Observe(context.Background(), 9, obsWithCreds(3))
	if err != nil {
		t.Fatalf("second observe: %v", err)
	}
	if state.Phase != PhaseCounting || state.Remaining != 5*time.Second {
		t.Fatalf("state = %+v, want counting with 5s left", state)
	}

	third := NewScheduler(store)
	third.clock = fixedClock(credsAt.Add(time.Hour))
	state, err = third.Observe(context.Background(), 9, obsWithCreds(3))
	if err != nil {
		t.Fatalf("third observe: %v", err)
	}
	if state.Phase != PhaseRevealed {
		t.Fatalf("phase = %v, want revealed after the moment passed", state.Phase)
	}
}

func TestObserveReturnsStateDespiteStoreError(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("redis down")

	s := NewScheduler(store)
	s.clock = fixedClock(credsAt.Add(2 * time.Second))

	state, err := s.Observe(context.Background(), 9, obsWithCreds(3))
	if err == nil {
		t.Fatalf("expected store error")
	}
	if state.Phase != PhaseCounting {
		t.Fatalf("derived state lost on store error: %+v", state)
	}
}

func TestClearRemovesAccountRecords(t *testing.T) {
	store := newMemStore()
	store.recs[[2]uint64{9, 1}] = Record{Revealed: true}
	store.recs[[2]uint64{9, 2}] = Record{Revealed: true}
	store.recs[[2]uint64{8, 1}] = Record{Revealed: true}

	s := NewScheduler(store)
	if err := s.Clear(context.Background(), 9); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := store.Load(context.Background(), 9, 1); found {
		t.Fatalf("record for cleared account survived")
	}
	if _, found, _ := store.Load(context.Background(), 8, 1); !found {
		t.Fatalf("clear removed another account's record")
	}
}
