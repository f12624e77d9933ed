// Package reveal derives, for a participant's seat in an event, the exact
// moment the session room credentials become visible, and keeps that
// derivation restart-safe. There is no server-side scheduling daemon: every
// observer recomputes its state from (start time, credentials publication
// time, seat, now), so the computation is idempotent and time-based, and a
// missed poll simply catches up on the next one.
package reveal

import (
	"context"
	"time"

	"github.com/eldiiar/arena-lobby/internal/model"
)

// Stagger is the fixed per-seat delay added to the credential publication
// time. Seat 1 reveals first; each later seat reveals Stagger later, which
// spreads the session-join load across participants.
const Stagger = 5 * time.Second

// Phase enumerates the states of the per-(account, event) machine.
// Transitions are level-triggered: every observation recomputes the phase
// from scratch, so the machine can never desynchronize.
type Phase int

const (
	// PhaseNoEvent means the account holds no seat in any event.
	PhaseNoEvent Phase = iota
	// PhaseAwaitingStart means the event has not started; Remaining
	// counts down to the start time.
	PhaseAwaitingStart
	// PhaseAwaitingCredentials means the event has started but the room
	// credentials are not yet published; there is nothing to count down
	// to, poll again later.
	PhaseAwaitingCredentials
	// PhaseCounting means credentials are published and Remaining counts
	// down to this participant's own reveal moment.
	PhaseCounting
	// PhaseRevealed means the reveal moment has passed; Credentials are
	// visible and stay visible.
	PhaseRevealed
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingStart:
		return "AWAITING_START"
	case PhaseAwaitingCredentials:
		return "AWAITING_CREDENTIALS"
	case PhaseCounting:
		return "COUNTING"
	case PhaseRevealed:
		return "REVEALED"
	default:
		return "NO_EVENT"
	}
}

// Credentials are the published session room credentials.
type Credentials struct {
	RoomID     string `json:"room_id"`
	RoomSecret string `json:"room_secret"`
}

// Observation is one snapshot of authoritative event state for a
// participant, as fetched from the server.
type Observation struct {
	EventID       uint64
	Start         time.Time
	CredentialsAt time.Time // zero until the credentials are published
	Credentials   Credentials
	Seat          int
}

// State is the derived, displayable reveal state.
type State struct {
	Phase       Phase
	Remaining   time.Duration // to start or to the reveal moment; never negative
	RevealAt    time.Time     // zero until credentials are published
	Credentials *Credentials  // non-nil only in PhaseRevealed
}

// ObservationFromEvent builds an Observation from a directory event and
// seat number.
func ObservationFromEvent(ev model.Event, seat int) Observation {
	obs := Observation{EventID: ev.ID, Start: ev.StartTime, Seat: seat}
	if ev.CredentialsPublished() {
		obs.CredentialsAt = *ev.CredentialsAt
		obs.Credentials = Credentials{RoomID: *ev.RoomID, RoomSecret: *ev.RoomSecret}
	}
	return obs
}

// Moment returns the wall-clock reveal moment for a seat given the
// credential publication time.
func Moment(credentialsAt time.Time, seat int) time.Time {
	return credentialsAt.Add(time.Duration(seat) * Stagger)
}

// Derive computes the reveal state for an observation at the given instant.
// It is a pure function: calling it again later with the same observation
// yields a monotonically non-increasing Remaining, and once the reveal
// moment has passed it always yields PhaseRevealed. Malformed input (zero
// start time, non-positive seat) degrades to a phase with no countdown,
// never to a negative timer.
func Derive(obs Observation, now time.Time) State {
	if obs.Start.IsZero() || obs.Seat <= 0 {
		return State{Phase: PhaseNoEvent}
	}
	if now.Before(obs.Start) {
		return State{Phase: PhaseAwaitingStart, Remaining: obs.Start.Sub(now)}
	}
	if obs.CredentialsAt.IsZero() {
		return State{Phase: PhaseAwaitingCredentials}
	}
	at := Moment(obs.CredentialsAt, obs.Seat)
	if now.Before(at) {
		return State{Phase: PhaseCounting, Remaining: at.Sub(now), RevealAt: at}
	}
	creds := obs.Credentials
	return State{Phase: PhaseRevealed, RevealAt: at, Credentials: &creds}
}

// Scheduler applies Derive and keeps the persisted reveal record (wall-clock
// reveal moment plus one-way revealed latch) in sync, which makes the
// countdown resumable and duplicate-reveal-free across reconnects.
type Scheduler struct {
	store Store
	clock func() time.Time
}

// NewScheduler returns a Scheduler over the given persistence store.
func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store, clock: func() time.Time { return time.Now().UTC() }}
}

// Observe derives the reveal state for one observation and reconciles it
// with the persisted record:
//
//   - if the latch is already set, the countdown is skipped and the
//     credentials are shown immediately;
//   - if the reveal moment has passed but the latch is unset, the latch is
//     set and the credentials are shown immediately (no backwards countdown);
//   - otherwise the absolute reveal moment is persisted so a restarted
//     process recomputes the identical countdown.
//
// Store failures degrade gracefully: the derived state is still returned
// alongside the error so the caller can display it and log the failure.
func (s *Scheduler) Observe(ctx context.Context, accountID uint64, obs Observation) (State, error) {
	state := Derive(obs, s.clock())

	rec, found, err := s.store.Load(ctx, accountID, obs.EventID)
	if err != nil {
		return state, err
	}
	// The latch only short-circuits once credentials exist in the
	// observation; honoring it earlier would surface empty credentials.
	if found && rec.Revealed && state.Phase >= PhaseCounting {
		creds := obs.Credentials
		return State{Phase: PhaseRevealed, RevealAt: rec.RevealAt, Credentials: &creds}, nil
	}

	switch state.Phase {
	case PhaseCounting:
		if !found || !rec.RevealAt.Equal(state.RevealAt) {
			err = s.store.Save(ctx, accountID, obs.EventID, Record{RevealAt: state.RevealAt})
		}
	case PhaseRevealed:
		if !found || !rec.Revealed {
			err = s.store.Save(ctx, accountID, obs.EventID, Record{RevealAt: state.RevealAt, Revealed: true})
		}
	}
	return state, err
}

// Clear removes all persisted reveal state for an account. Call it on
// logout so stale countdown anchors never leak into the next session.
func (s *Scheduler) Clear(ctx context.Context, accountID uint64) error {
	return s.store.Clear(ctx, accountID)
}
