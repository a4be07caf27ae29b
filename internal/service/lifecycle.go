package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/repository"
)

// ─── Lifecycle Errors ───────────────────────────────────────

var (
	// ErrTricycleNotFound is returned when a scanned code resolves to no
	// vehicle record. The handler renders it as the invalid-QR message.
	ErrTricycleNotFound = errors.New("tricycle not found for scanned code")

	// ErrRideCreateFailed is returned when the ride insert (or the
	// personnel snapshot fetch feeding it) fails. The session stays in
	// VehicleSelected.
	ErrRideCreateFailed = errors.New("unable to create new ride")
)

// ─── Store interfaces ───────────────────────────────────────

// TricycleStore resolves scanned codes and personnel references.
type TricycleStore interface {
	FetchByCode(ctx context.Context, code string) (*model.Tricycle, error)
	FetchDriver(ctx context.Context, driverID string) (*model.Driver, error)
	FetchOperator(ctx context.Context, operatorID string) (*model.Operator, error)
}

// RideStore persists rides.
type RideStore interface {
	CreateRide(ctx context.Context, ride *model.Ride) (*model.Ride, error)
	CompleteRide(ctx context.Context, rideID string, endTime time.Time) (*model.Ride, error)
	RateRide(ctx context.Context, rideID string, rating int, comment string) error
	FetchRecent(ctx context.Context, commuterID string) (*model.Ride, error)
	History(ctx context.Context, commuterID string, limit int) ([]model.Ride, error)
}

// ─── LifecycleService ───────────────────────────────────────

// HistoryLimit caps the ride history page, matching the home screen's
// recent-rides list.
const HistoryLimit = 6

// LifecycleService drives the ride lifecycle:
//
//	Idle → VehicleSelected → RideActive → RideCompleted → Idle
//
// One RideSession exists per authenticated commuter. All transitions come
// from sequential user actions on a single active screen, but every session
// mutation is still serialized behind the session's lock — a stale scan
// result racing a dismissal must lose deterministically.
type LifecycleService struct {
	tricycles TricycleStore
	rides     RideStore
	fares     FareTable

	mu       sync.Mutex
	sessions map[string]*RideSession

	now func() time.Time
}

// NewLifecycleService creates the lifecycle controller.
func NewLifecycleService(tricycles TricycleStore, rides RideStore, fares FareTable) *LifecycleService {
	return &LifecycleService{
		tricycles: tricycles,
		rides:     rides,
		fares:     fares,
		sessions:  make(map[string]*RideSession),
		now:       time.Now,
	}
}

// Session returns the commuter's ride session, creating it on first use.
func (s *LifecycleService) Session(commuterID string) *RideSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[commuterID]
	if !ok {
		sess = NewRideSession()
		s.sessions[commuterID] = sess
	}
	return sess
}

// ScanVehicle resolves a scanned QR payload to a tricycle and selects it.
//
// The lookup is tagged with a session token before the backend call; the
// result is applied only if the token is still current when it lands, so a
// dismissal during the round trip discards the result instead of mutating
// state. A failed lookup leaves the session untouched — a fresh scan simply
// issues a new token. Scanning with a ride still active gets
// ErrRideInProgress; scanning after a completed ride clears it and starts
// the next cycle.
func (s *LifecycleService) ScanVehicle(ctx context.Context, commuterID, code string) (*model.Tricycle, error) {
	sess := s.Session(commuterID)
	token := sess.BeginLookup()

	tc, err := s.tricycles.FetchByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTricycleNotFound
		}
		return nil, fmt.Errorf("scan lookup: %w", err)
	}

	if err := sess.ApplySelection(token, tc); err != nil {
		log.Printf("[lifecycle] Rejected scan result for commuter %s (code %s): %v", commuterID, code, err)
		return nil, err
	}

	log.Printf("[lifecycle] Commuter %s selected tricycle %s (plate %s, status %s)",
		commuterID, tc.ID, tc.PlateNumber, tc.Status)
	return tc, nil
}

// ConfirmRide is the "Yes, details are correct" path.
//
// Flow:
//  1. Single-shot guard: a second press while the first confirmation is in
//     flight gets ErrConfirmInFlight — two presses can never produce two
//     ride inserts.
//  2. Re-resolve the driver and operator full records from the references
//     stored on the selected tricycle.
//  3. Insert the ride with vehicle/driver/operator snapshots and the fixed
//     fare from the fare table.
//  4. On success the session moves to RideActive; on any failure it stays
//     in VehicleSelected and the error is returned for the caller to render
//     (never a silent failure).
func (s *LifecycleService) ConfirmRide(ctx context.Context, commuterID string) (*model.Ride, error) {
	sess := s.Session(commuterID)

	tc, err := sess.BeginConfirm()
	if err != nil {
		return nil, err
	}

	ride, err := s.createRide(ctx, commuterID, tc)
	if err != nil {
		sess.FinishConfirm(nil)
		log.Printf("[lifecycle] Ride creation failed for commuter %s: %v", commuterID, err)
		return nil, fmt.Errorf("%w: %v", ErrRideCreateFailed, err)
	}

	sess.FinishConfirm(ride)
	log.Printf("[lifecycle] ✓ Ride %s active for commuter %s (fare %s)", ride.ID, commuterID, ride.Fare)
	return ride, nil
}

func (s *LifecycleService) createRide(ctx context.Context, commuterID string, tc *model.Tricycle) (*model.Ride, error) {
	driver, err := s.tricycles.FetchDriver(ctx, tc.AssignedDriver)
	if err != nil {
		return nil, fmt.Errorf("resolve driver: %w", err)
	}
	operator, err := s.tricycles.FetchOperator(ctx, tc.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("resolve operator: %w", err)
	}

	ride := &model.Ride{
		CommuterID:      commuterID,
		TricycleDetails: *tc,
		DriverDetails:   *driver,
		OperatorDetails: *operator,
		Fare:            s.fares.FareFor(tc),
	}

	return s.rides.CreateRide(ctx, ride)
}

// DismissSelection is the "No"/"x" path: discard the selected tricycle and
// return to Idle. No backend call is made.
func (s *LifecycleService) DismissSelection(commuterID string) {
	s.Session(commuterID).Dismiss()
}

// EndRide closes the active ride, recording an optional personnel rating
// first. The end time is set via an update keyed by the ride ID; the fare
// is untouched.
func (s *LifecycleService) EndRide(ctx context.Context, commuterID string, rating *int, ratingComment string) (*model.Ride, error) {
	sess := s.Session(commuterID)

	active := sess.ActiveRide()
	if active == nil || sess.State() != model.StateRideActive {
		return nil, ErrNoActiveRide
	}

	if rating != nil {
		if err := s.rides.RateRide(ctx, active.ID, *rating, ratingComment); err != nil {
			return nil, fmt.Errorf("record rating: %w", err)
		}
	}

	completed, err := s.rides.CompleteRide(ctx, active.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("end ride %s: %w", active.ID, err)
	}

	if err := sess.CompleteRide(completed); err != nil {
		return nil, err
	}

	log.Printf("[lifecycle] ✓ Ride %s completed for commuter %s", completed.ID, commuterID)
	return completed, nil
}

// Reset clears the commuter's session back to Idle (navigation home).
func (s *LifecycleService) Reset(commuterID string) {
	s.Session(commuterID).Reset()
}

// RecentRide returns the commuter's most recent ride.
func (s *LifecycleService) RecentRide(ctx context.Context, commuterID string) (*model.Ride, error) {
	return s.rides.FetchRecent(ctx, commuterID)
}

// RideHistory returns the commuter's latest rides, newest first.
func (s *LifecycleService) RideHistory(ctx context.Context, commuterID string) ([]model.Ride, error) {
	return s.rides.History(ctx, commuterID, HistoryLimit)
}
