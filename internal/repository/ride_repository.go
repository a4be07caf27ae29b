package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ligtascab/ligtascab/internal/model"
)

// RideRepository handles ride creation, completion and history.
type RideRepository struct {
	pool *pgxpool.Pool
}

// NewRideRepository creates a new repository backed by the given PG pool.
func NewRideRepository(pool *pgxpool.Pool) *RideRepository {
	return &RideRepository{pool: pool}
}

// CreateRide inserts a new ride with vehicle/driver/operator snapshots and
// the fare fixed at creation. end_time starts NULL and stays NULL until the
// ride is explicitly completed.
func (r *RideRepository) CreateRide(ctx context.Context, ride *model.Ride) (*model.Ride, error) {
	ride.ID = uuid.New().String()

	query := `
		INSERT INTO rides (
			id, commuter_id, tricycle_details, driver_details,
			operator_details, fare
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		ride.ID, ride.CommuterID,
		ride.TricycleDetails, ride.DriverDetails, ride.OperatorDetails,
		ride.Fare,
	).Scan(&ride.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	return ride, nil
}

// CompleteRide sets the ride's end time, keyed by ride ID. The fare column
// is deliberately untouched. Returns the updated ride.
func (r *RideRepository) CompleteRide(ctx context.Context, rideID string, endTime time.Time) (*model.Ride, error) {
	query := `
		UPDATE rides
		SET end_time = $2
		WHERE id = $1
		RETURNING id, commuter_id, tricycle_details, driver_details,
		          operator_details, fare, rating, rating_comment,
		          created_at, end_time
	`
	ride := &model.Ride{}
	err := r.pool.QueryRow(ctx, query, rideID, endTime).Scan(
		&ride.ID, &ride.CommuterID,
		&ride.TricycleDetails, &ride.DriverDetails, &ride.OperatorDetails,
		&ride.Fare, &ride.Rating, &ride.RatingComment,
		&ride.CreatedAt, &ride.EndTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complete ride %s: %w", rideID, err)
	}
	return ride, nil
}

// RateRide records an optional personnel rating against a ride.
func (r *RideRepository) RateRide(ctx context.Context, rideID string, rating int, comment string) error {
	query := `
		UPDATE rides
		SET rating = $2, rating_comment = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, rideID, rating, comment)
	if err != nil {
		return fmt.Errorf("rate ride %s: %w", rideID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FetchRecent returns the commuter's most recent ride, or ErrNotFound if
// they have never taken one.
func (r *RideRepository) FetchRecent(ctx context.Context, commuterID string) (*model.Ride, error) {
	query := `
		SELECT id, commuter_id, tricycle_details, driver_details,
		       operator_details, fare, rating, rating_comment,
		       created_at, end_time
		FROM rides
		WHERE commuter_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	ride := &model.Ride{}
	err := r.pool.QueryRow(ctx, query, commuterID).Scan(
		&ride.ID, &ride.CommuterID,
		&ride.TricycleDetails, &ride.DriverDetails, &ride.OperatorDetails,
		&ride.Fare, &ride.Rating, &ride.RatingComment,
		&ride.CreatedAt, &ride.EndTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch recent ride: %w", err)
	}
	return ride, nil
}

// History returns the commuter's rides, newest first, capped at limit.
func (r *RideRepository) History(ctx context.Context, commuterID string, limit int) ([]model.Ride, error) {
	query := `
		SELECT id, commuter_id, tricycle_details, driver_details,
		       operator_details, fare, rating, rating_comment,
		       created_at, end_time
		FROM rides
		WHERE commuter_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, commuterID, limit)
	if err != nil {
		return nil, fmt.Errorf("ride history: %w", err)
	}
	defer rows.Close()

	var rides []model.Ride
	for rows.Next() {
		var ride model.Ride
		if err := rows.Scan(
			&ride.ID, &ride.CommuterID,
			&ride.TricycleDetails, &ride.DriverDetails, &ride.OperatorDetails,
			&ride.Fare, &ride.Rating, &ride.RatingComment,
			&ride.CreatedAt, &ride.EndTime,
		); err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}
		rides = append(rides, ride)
	}

	return rides, rows.Err()
}
