// Package service contains the core business logic for the ligtascab
// commuter service.
package service

import (
	"errors"
	"sync"

	"github.com/ligtascab/ligtascab/internal/model"
)

// ─── Session Errors ─────────────────────────────────────────

var (
	ErrNoSelection     = errors.New("no tricycle selected")
	ErrNoActiveRide    = errors.New("no ride is active")
	ErrConfirmInFlight = errors.New("a confirmation is already in progress")
	ErrStaleScan       = errors.New("scan result arrived after dismissal")
	ErrRideInProgress  = errors.New("a ride is already in progress")
)

// ─── Transition table ───────────────────────────────────────

// allowedTransitions is the directed graph of legal ride session moves.
//
//	Idle → VehicleSelected → RideActive → RideCompleted → Idle
//
// The only backward edge is VehicleSelected → Idle (the "No" path, which
// discards the selection without any backend call).
var allowedTransitions = map[model.RideState][]model.RideState{
	model.StateIdle:            {model.StateVehicleSelected},
	model.StateVehicleSelected: {model.StateRideActive, model.StateIdle},
	model.StateRideActive:      {model.StateRideCompleted},
	model.StateRideCompleted:   {model.StateIdle},
}

// CanTransition reports whether from → to is a legal session move.
func CanTransition(from, to model.RideState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ─── RideSession ────────────────────────────────────────────

// RideSession is the per-commuter ride context: the currently selected
// tricycle and the active ride, mutated only through named transitions.
// All mutations are serialized behind the mutex; the UI-facing layer only
// ever reads through the accessors.
//
// Lookup tokens implement the stale-result guard: every scan is issued a
// monotonically increasing token, and a lookup result is applied only if its
// token is still the latest. Dismissing the modal bumps the counter, so a
// lookup that was in flight at dismissal can no longer land.
type RideSession struct {
	mu         sync.Mutex
	state      model.RideState
	tricycle   *model.Tricycle
	ride       *model.Ride
	lookupSeq  uint64
	confirming bool
}

// NewRideSession creates a session in the Idle state.
func NewRideSession() *RideSession {
	return &RideSession{state: model.StateIdle}
}

// State returns the current lifecycle state.
func (s *RideSession) State() model.RideState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectedTricycle returns the currently selected tricycle, or nil.
func (s *RideSession) SelectedTricycle() *model.Tricycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tricycle
}

// ActiveRide returns the current ride, or nil if none was created yet.
func (s *RideSession) ActiveRide() *model.Ride {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ride
}

// BeginLookup issues a token for a new scan. Issuing a token invalidates
// every earlier outstanding lookup.
func (s *RideSession) BeginLookup() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupSeq++
	return s.lookupSeq
}

// ApplySelection stores a resolved tricycle if the token is still current
// and the session can move to VehicleSelected. ErrStaleScan means a
// dismissal or a fresh scan got there first; ErrRideInProgress means the
// commuter still has an active ride and must end it before scanning again.
//
// A completed ride does not block the next scan: scanning from
// RideCompleted passes through Idle first, clearing the finished ride, so
// the commuter can start a new cycle without a separate reset.
func (s *RideSession) ApplySelection(token uint64, tc *model.Tricycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.lookupSeq {
		return ErrStaleScan
	}
	if s.state == model.StateRideActive {
		return ErrRideInProgress
	}
	if s.state == model.StateRideCompleted {
		s.state = model.StateIdle
		s.ride = nil
	}
	// Re-scanning while a selection is shown replaces it.
	if s.state != model.StateVehicleSelected && !CanTransition(s.state, model.StateVehicleSelected) {
		return ErrStaleScan
	}

	s.state = model.StateVehicleSelected
	s.tricycle = tc
	return nil
}

// Dismiss is the "No"/"x" path: it discards the selection and returns to
// Idle without any backend call. Outstanding lookups are invalidated so
// their results cannot land after the dismissal. Dismissing a completed
// ride clears it the same way, so the session never parks in RideCompleted.
func (s *RideSession) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookupSeq++
	switch s.state {
	case model.StateVehicleSelected:
		s.state = model.StateIdle
	case model.StateRideCompleted:
		s.state = model.StateIdle
		s.ride = nil
	}
	s.tricycle = nil
}

// BeginConfirm marks the confirmation in flight. A second press while the
// first is unresolved gets ErrConfirmInFlight; confirming without a
// selection gets ErrNoSelection.
func (s *RideSession) BeginConfirm() (*model.Tricycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.StateVehicleSelected || s.tricycle == nil {
		return nil, ErrNoSelection
	}
	if s.confirming {
		return nil, ErrConfirmInFlight
	}
	s.confirming = true
	return s.tricycle, nil
}

// FinishConfirm resolves an in-flight confirmation. On success the created
// ride becomes the session's active ride; on failure the session stays in
// VehicleSelected so the commuter can retry or dismiss.
func (s *RideSession) FinishConfirm(ride *model.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirming = false
	if ride == nil {
		return
	}
	s.state = model.StateRideActive
	s.ride = ride
}

// CompleteRide records the closed ride and moves to RideCompleted.
func (s *RideSession) CompleteRide(ride *model.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !CanTransition(s.state, model.StateRideCompleted) {
		return ErrNoActiveRide
	}
	s.state = model.StateRideCompleted
	s.ride = ride
	return nil
}

// Reset clears all session state back to Idle (navigation home).
func (s *RideSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookupSeq++
	s.state = model.StateIdle
	s.tricycle = nil
	s.ride = nil
	s.confirming = false
}
