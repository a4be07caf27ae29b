package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ligtascab/ligtascab/internal/model"
)

// TerminalRepository serves the fixed terminal list with live availability
// counts layered on top.
//
// Availability strategy:
//  1. Terminal rows (coordinates, titles) live in PostgreSQL and change rarely.
//  2. Availability counts are updated by terminal dispatchers and cached in
//     Redis with a short TTL; the column value is the fallback when the cache
//     has nothing fresher.
type TerminalRepository struct {
	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewTerminalRepository creates a new terminal repository.
func NewTerminalRepository(pool *pgxpool.Pool, redis *redis.Client) *TerminalRepository {
	return &TerminalRepository{pool: pool, redis: redis}
}

const (
	redisAvailKeyPrefix = "terminal:avail:"
	redisAvailTTL       = 5 * time.Minute
)

func availKey(terminalID string) string {
	return redisAvailKeyPrefix + terminalID
}

// ListTerminals returns every terminal, with availability taken from the
// Redis cache when a fresher count is present.
func (r *TerminalRepository) ListTerminals(ctx context.Context) ([]model.Terminal, error) {
	query := `
		SELECT id, title, latitude, longitude, available
		FROM terminals
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list terminals: %w", err)
	}
	defer rows.Close()

	var terminals []model.Terminal
	for rows.Next() {
		var t model.Terminal
		if err := rows.Scan(&t.ID, &t.Title, &t.Latitude, &t.Longitude, &t.Available); err != nil {
			return nil, fmt.Errorf("scan terminal: %w", err)
		}
		terminals = append(terminals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Overlay cached counts. Cache misses and Redis errors fall back to the
	// column value (graceful degradation).
	for i := range terminals {
		if count, err := r.redis.Get(ctx, availKey(terminals[i].ID)).Int(); err == nil {
			terminals[i].Available = count
		}
	}

	return terminals, nil
}

// SetAvailability records a dispatcher-reported availability count. The
// durable column is updated and the Redis cache refreshed so rankings pick
// the new count up immediately.
func (r *TerminalRepository) SetAvailability(ctx context.Context, terminalID string, count int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE terminals
		SET available = $2
		WHERE id = $1
	`, terminalID, count)
	if err != nil {
		return fmt.Errorf("set availability for terminal %s: %w", terminalID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	// Fire-and-forget cache refresh.
	_ = r.redis.Set(ctx, availKey(terminalID), count, redisAvailTTL).Err()

	return nil
}
