package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligtascab/ligtascab/internal/model"
	"github.com/ligtascab/ligtascab/internal/repository"
)

// ─── Fakes ──────────────────────────────────────────────────

type fakeTricycleStore struct {
	tricycles map[string]*model.Tricycle
	drivers   map[string]*model.Driver
	operators map[string]*model.Operator

	// onFetchByCode runs inside FetchByCode, between issuing the lookup
	// token and applying the result. Used to interleave a dismissal.
	onFetchByCode func()

	failDriver error
}

func (f *fakeTricycleStore) FetchByCode(_ context.Context, code string) (*model.Tricycle, error) {
	if f.onFetchByCode != nil {
		f.onFetchByCode()
	}
	tc, ok := f.tricycles[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return tc, nil
}

func (f *fakeTricycleStore) FetchDriver(_ context.Context, id string) (*model.Driver, error) {
	if f.failDriver != nil {
		return nil, f.failDriver
	}
	d, ok := f.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeTricycleStore) FetchOperator(_ context.Context, id string) (*model.Operator, error) {
	op, ok := f.operators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return op, nil
}

type fakeRideStore struct {
	mu      sync.Mutex
	nextID  int
	created []*model.Ride
	rides   map[string]*model.Ride

	// onCreateRide runs inside CreateRide while the confirmation is in
	// flight. Used to simulate a double press.
	onCreateRide func()
}

func newFakeRideStore() *fakeRideStore {
	return &fakeRideStore{rides: make(map[string]*model.Ride)}
}

func (f *fakeRideStore) CreateRide(_ context.Context, ride *model.Ride) (*model.Ride, error) {
	if f.onCreateRide != nil {
		f.onCreateRide()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ride.ID = fmt.Sprintf("ride-%d", f.nextID)
	ride.CreatedAt = time.Now()
	f.created = append(f.created, ride)
	f.rides[ride.ID] = ride
	return ride, nil
}

func (f *fakeRideStore) CompleteRide(_ context.Context, rideID string, endTime time.Time) (*model.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ride.EndTime = &endTime
	return ride, nil
}

func (f *fakeRideStore) RateRide(_ context.Context, rideID string, rating int, comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.Rating = &rating
	ride.RatingComment = comment
	return nil
}

func (f *fakeRideStore) FetchRecent(_ context.Context, commuterID string) (*model.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.created) - 1; i >= 0; i-- {
		if f.created[i].CommuterID == commuterID {
			return f.created[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRideStore) History(_ context.Context, commuterID string, limit int) ([]model.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Ride
	for i := len(f.created) - 1; i >= 0 && len(out) < limit; i-- {
		if f.created[i].CommuterID == commuterID {
			out = append(out, *f.created[i])
		}
	}
	return out, nil
}

func (f *fakeRideStore) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// ─── Fixtures ───────────────────────────────────────────────

const commuterID = "commuter-1"

func testStores() (*fakeTricycleStore, *fakeRideStore) {
	tricycles := &fakeTricycleStore{
		tricycles: map[string]*model.Tricycle{
			"MCP-1234": {
				ID:             "MCP-1234",
				PlateNumber:    "MCP-1234",
				AssignedDriver: "D1",
				OperatorID:     "O1",
				Status:         model.TricycleActive,
			},
		},
		drivers: map[string]*model.Driver{
			"D1": {ID: "D1", FirstName: "Juan", LastName: "Dela Cruz"},
		},
		operators: map[string]*model.Operator{
			"O1": {ID: "O1", FirstName: "Maria", LastName: "Santos"},
		},
	}
	return tricycles, newFakeRideStore()
}

func testLifecycle() (*LifecycleService, *fakeTricycleStore, *fakeRideStore) {
	tricycles, rides := testStores()
	svc := NewLifecycleService(tricycles, rides, NewFlatFareTable(""))
	return svc, tricycles, rides
}

// ─── Scan ───────────────────────────────────────────────────

func TestScanVehicle_PopulatesSession(t *testing.T) {
	svc, _, _ := testLifecycle()

	tc, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	assert.Equal(t, "MCP-1234", tc.PlateNumber)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateVehicleSelected, sess.State())
	require.NotNil(t, sess.SelectedTricycle())
	assert.Equal(t, "MCP-1234", sess.SelectedTricycle().PlateNumber)
}

func TestScanVehicle_NotFound(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "NO-SUCH")
	assert.ErrorIs(t, err, ErrTricycleNotFound)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateIdle, sess.State())
	assert.Nil(t, sess.SelectedTricycle())
}

func TestScanVehicle_FreshScanAfterFailure(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "NO-SUCH")
	require.ErrorIs(t, err, ErrTricycleNotFound)

	// A failed lookup does not poison the session; the next scan works.
	_, err = svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	assert.Equal(t, model.StateVehicleSelected, svc.Session(commuterID).State())
}

func TestScanVehicle_DismissedMidFlight(t *testing.T) {
	svc, tricycles, _ := testLifecycle()

	// The commuter closes the modal while the lookup is still on the wire.
	tricycles.onFetchByCode = func() {
		svc.DismissSelection(commuterID)
	}

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	assert.ErrorIs(t, err, ErrStaleScan)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateIdle, sess.State())
	assert.Nil(t, sess.SelectedTricycle())
}

func TestScanVehicle_DuringActiveRide(t *testing.T) {
	svc, _, rides := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	ride, err := svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)

	// Scanning a second unit mid-ride is rejected, not treated as stale.
	_, err = svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	assert.ErrorIs(t, err, ErrRideInProgress)
	assert.NotErrorIs(t, err, ErrStaleScan)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateRideActive, sess.State())
	require.NotNil(t, sess.ActiveRide())
	assert.Equal(t, ride.ID, sess.ActiveRide().ID)
	assert.Equal(t, 1, rides.insertCount())
}

// ─── Confirm ────────────────────────────────────────────────

func TestConfirmRide_CreatesRideWithSnapshots(t *testing.T) {
	svc, _, rides := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)

	ride, err := svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)

	assert.Equal(t, commuterID, ride.CommuterID)
	assert.Equal(t, "MCP-1234", ride.TricycleDetails.PlateNumber)
	assert.Equal(t, "Juan", ride.DriverDetails.FirstName)
	assert.Equal(t, "Maria", ride.OperatorDetails.FirstName)
	assert.Equal(t, "15.00", ride.Fare)
	assert.Nil(t, ride.EndTime)
	assert.True(t, ride.Active())

	assert.Equal(t, 1, rides.insertCount())
	assert.Equal(t, model.StateRideActive, svc.Session(commuterID).State())
}

func TestConfirmRide_WithoutSelection(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ConfirmRide(context.Background(), commuterID)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestConfirmRide_DoublePressSingleInsert(t *testing.T) {
	svc, _, rides := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)

	// The second press lands while the first insert is still in flight.
	var secondErr error
	rides.onCreateRide = func() {
		rides.onCreateRide = nil
		_, secondErr = svc.ConfirmRide(context.Background(), commuterID)
	}

	_, err = svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)

	assert.ErrorIs(t, secondErr, ErrConfirmInFlight)
	assert.Equal(t, 1, rides.insertCount())
}

func TestConfirmRide_CreateFailureStaysSelected(t *testing.T) {
	svc, tricycles, rides := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)

	tricycles.failDriver = repository.ErrNotFound
	_, err = svc.ConfirmRide(context.Background(), commuterID)
	assert.ErrorIs(t, err, ErrRideCreateFailed)
	assert.Equal(t, 0, rides.insertCount())

	// Still VehicleSelected — the commuter can retry once the fault clears.
	assert.Equal(t, model.StateVehicleSelected, svc.Session(commuterID).State())

	tricycles.failDriver = nil
	_, err = svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)
	assert.Equal(t, 1, rides.insertCount())
}

// ─── Dismiss ────────────────────────────────────────────────

func TestDismissSelection_NoBackendCall(t *testing.T) {
	svc, _, rides := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)

	svc.DismissSelection(commuterID)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateIdle, sess.State())
	assert.Nil(t, sess.SelectedTricycle())
	assert.Equal(t, 0, rides.insertCount())
}

// ─── End ride ───────────────────────────────────────────────

func TestEndRide_SetsEndTimeKeepsFare(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	_, err = svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)

	rating := 5
	completed, err := svc.EndRide(context.Background(), commuterID, &rating, "smooth ride")
	require.NoError(t, err)

	require.NotNil(t, completed.EndTime)
	assert.False(t, completed.Active())
	assert.Equal(t, "15.00", completed.Fare)
	require.NotNil(t, completed.Rating)
	assert.Equal(t, 5, *completed.Rating)
	assert.Equal(t, model.StateRideCompleted, svc.Session(commuterID).State())
}

func TestEndRide_WithoutActiveRide(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.EndRide(context.Background(), commuterID, nil, "")
	assert.ErrorIs(t, err, ErrNoActiveRide)
}

func TestEndRide_TwiceFails(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	_, err = svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)
	_, err = svc.EndRide(context.Background(), commuterID, nil, "")
	require.NoError(t, err)

	_, err = svc.EndRide(context.Background(), commuterID, nil, "")
	assert.ErrorIs(t, err, ErrNoActiveRide)
}

// ─── Second ride ────────────────────────────────────────────

func TestSecondRideAfterCompletedRide(t *testing.T) {
	svc, _, rides := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	first, err := svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)
	_, err = svc.EndRide(context.Background(), commuterID, nil, "")
	require.NoError(t, err)

	// A fresh scan right off the completed-ride screen starts a new cycle.
	_, err = svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	assert.Equal(t, model.StateVehicleSelected, svc.Session(commuterID).State())

	second, err := svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, rides.insertCount())
	assert.Equal(t, model.StateRideActive, svc.Session(commuterID).State())
	assert.Equal(t, second.ID, svc.Session(commuterID).ActiveRide().ID)
}

func TestDismissAfterCompletedRideClearsSession(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	_, err = svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)
	_, err = svc.EndRide(context.Background(), commuterID, nil, "")
	require.NoError(t, err)

	svc.DismissSelection(commuterID)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateIdle, sess.State())
	assert.Nil(t, sess.ActiveRide())

	_, err = svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	assert.Equal(t, model.StateVehicleSelected, sess.State())
}

// ─── Reset ──────────────────────────────────────────────────

func TestReset_FullCycleBackToIdle(t *testing.T) {
	svc, _, _ := testLifecycle()

	_, err := svc.ScanVehicle(context.Background(), commuterID, "MCP-1234")
	require.NoError(t, err)
	_, err = svc.ConfirmRide(context.Background(), commuterID)
	require.NoError(t, err)
	_, err = svc.EndRide(context.Background(), commuterID, nil, "")
	require.NoError(t, err)

	svc.Reset(commuterID)

	sess := svc.Session(commuterID)
	assert.Equal(t, model.StateIdle, sess.State())
	assert.Nil(t, sess.SelectedTricycle())
	assert.Nil(t, sess.ActiveRide())
}

// ─── Transition table ───────────────────────────────────────

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to model.RideState }{
		{model.StateIdle, model.StateVehicleSelected},
		{model.StateVehicleSelected, model.StateRideActive},
		{model.StateVehicleSelected, model.StateIdle},
		{model.StateRideActive, model.StateRideCompleted},
		{model.StateRideCompleted, model.StateIdle},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to model.RideState }{
		{model.StateIdle, model.StateRideActive},
		{model.StateIdle, model.StateRideCompleted},
		{model.StateRideActive, model.StateIdle},
		{model.StateRideActive, model.StateVehicleSelected},
		{model.StateRideCompleted, model.StateRideActive},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}
