// Package repository provides database access for the ligtascab commuter service.
//
// Tricycle, driver and operator rows are administered by the LGU side of the
// platform; from this service they are read-only lookups.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ligtascab/ligtascab/internal/model"
)

// ErrNotFound is returned when a lookup resolves to no row.
var ErrNotFound = errors.New("record not found")

// TricycleRepository resolves scanned codes to vehicle records and the
// personnel records referenced by them.
type TricycleRepository struct {
	pool *pgxpool.Pool
}

// NewTricycleRepository creates a new repository backed by the given PG pool.
func NewTricycleRepository(pool *pgxpool.Pool) *TricycleRepository {
	return &TricycleRepository{pool: pool}
}

// FetchByCode resolves a scanned QR payload to a tricycle record. The payload
// is the row's primary identifier; no structured decoding happens here.
func (r *TricycleRepository) FetchByCode(ctx context.Context, code string) (*model.Tricycle, error) {
	query := `
		SELECT id, plate_number, operator_id, assigned_driver, status,
		       franchise_number, registration_expiration, franchise_expiration,
		       model, body_color, seating_capacity
		FROM tricycles
		WHERE id = $1
	`

	tc := &model.Tricycle{}
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&tc.ID, &tc.PlateNumber, &tc.OperatorID, &tc.AssignedDriver, &tc.Status,
		&tc.FranchiseNumber, &tc.RegistrationExpiration, &tc.FranchiseExpiration,
		&tc.Model, &tc.BodyColor, &tc.SeatingCapacity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch tricycle %q: %w", code, err)
	}
	return tc, nil
}

// FetchDriver fetches the driver record referenced by a tricycle's
// assigned_driver field.
func (r *TricycleRepository) FetchDriver(ctx context.Context, driverID string) (*model.Driver, error) {
	query := `
		SELECT id, first_name, last_name, license_number
		FROM drivers
		WHERE id = $1
	`

	d := &model.Driver{}
	err := r.pool.QueryRow(ctx, query, driverID).Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.LicenseNumber,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch driver %q: %w", driverID, err)
	}
	return d, nil
}

// FetchOperator fetches the operator record referenced by a tricycle's
// operator_id field.
func (r *TricycleRepository) FetchOperator(ctx context.Context, operatorID string) (*model.Operator, error) {
	query := `
		SELECT id, first_name, last_name
		FROM operators
		WHERE id = $1
	`

	op := &model.Operator{}
	err := r.pool.QueryRow(ctx, query, operatorID).Scan(
		&op.ID, &op.FirstName, &op.LastName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch operator %q: %w", operatorID, err)
	}
	return op, nil
}
