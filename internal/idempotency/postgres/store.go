package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps checkout responses in the idempotency_keys table. Keys older
// than the ttl are treated as unknown and may be reused.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id
		FROM idempotency_keys
		WHERE key = $1
		  AND ($2::float8 <= 0 OR created_at > NOW() - make_interval(secs => $2::float8))
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, s.ttl.Seconds()).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Save records the response unless a live entry already exists for the key.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body = EXCLUDED.body,
		    order_id = EXCLUDED.order_id,
		    created_at = NOW()
		WHERE $5::float8 > 0 AND idempotency_keys.created_at <= NOW() - make_interval(secs => $5::float8)
	`

	_, err := s.pool.Exec(ctx, query, key, response.StatusCode, response.Body, response.OrderID, s.ttl.Seconds())
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}
