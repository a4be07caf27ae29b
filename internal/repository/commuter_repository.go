package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ligtascab/ligtascab/internal/model"
)

// ErrPhoneTaken is returned when registering a phone number that already
// has an account.
var ErrPhoneTaken = errors.New("phone number already registered")

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CommuterRepository manages commuter account rows.
type CommuterRepository struct {
	pool *pgxpool.Pool
}

// NewCommuterRepository creates a new repository.
func NewCommuterRepository(pool *pgxpool.Pool) *CommuterRepository {
	return &CommuterRepository{pool: pool}
}

// CreateCommuter inserts a new account. The password must already be hashed
// by the caller.
func (r *CommuterRepository) CreateCommuter(ctx context.Context, c *model.Commuter) (*model.Commuter, error) {
	c.ID = uuid.New().String()

	query := `
		INSERT INTO commuters (id, first_name, last_name, phone_number, email, address, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		c.ID, c.FirstName, c.LastName, c.PhoneNumber, c.Email, c.Address, c.PasswordHash,
	).Scan(&c.CreatedAt)
	if err != nil {
		// unique_violation on the phone_number index.
		if isUniqueViolation(err) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("create commuter: %w", err)
	}

	return c, nil
}

// FetchByPhone looks up an account by phone number for sign-in.
func (r *CommuterRepository) FetchByPhone(ctx context.Context, phone string) (*model.Commuter, error) {
	query := `
		SELECT id, first_name, last_name, phone_number, email, address, password_hash, created_at
		FROM commuters
		WHERE phone_number = $1
	`
	c := &model.Commuter{}
	err := r.pool.QueryRow(ctx, query, phone).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.PhoneNumber,
		&c.Email, &c.Address, &c.PasswordHash, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch commuter by phone: %w", err)
	}
	return c, nil
}

// FetchByID looks up an account by its identifier, used for session retrieval.
func (r *CommuterRepository) FetchByID(ctx context.Context, id string) (*model.Commuter, error) {
	query := `
		SELECT id, first_name, last_name, phone_number, email, address, password_hash, created_at
		FROM commuters
		WHERE id = $1
	`
	c := &model.Commuter{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.PhoneNumber,
		&c.Email, &c.Address, &c.PasswordHash, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch commuter %s: %w", id, err)
	}
	return c, nil
}
