package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RateLimitRepository counts requests per caller for the send-style
// verification endpoints (email send/resend, phone code request). Redis
// cooldowns throttle a single identity; this limiter caps how often any one
// client IP can trigger outbound mail or SMS at all.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type rateLimitRepository struct {
	pool *pgxpool.Pool
}

func NewRateLimitRepository(pool *pgxpool.Pool) RateLimitRepository {
	return &rateLimitRepository{pool: pool}
}

// rateLimitKey hashes the caller key before storage; rows never hold raw
// client IPs.
func rateLimitKey(key string) string {
	sum := sha256.Sum256([]byte("verify:" + key))
	return fmt.Sprintf("%x", sum)
}

// CheckRateLimit counts one request against the key's current window and
// reports whether it still fits. The count-or-reset happens in a single
// UPSERT so concurrent sends cannot slip past the cap. Errors allow the
// request: losing a rate limit check must not take verification sends down
// with it.
func (r *rateLimitRepository) CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := time.Now()
	windowStart := now.Add(-window)

	const q = `
		INSERT INTO rate_limits (rl_key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (rl_key) DO UPDATE SET
			count = CASE
				WHEN rate_limits.window_start < $2 THEN 1
				ELSE rate_limits.count + 1
			END,
			window_start = CASE
				WHEN rate_limits.window_start < $2 THEN $2
				ELSE rate_limits.window_start
			END,
			expires_at = $3
		RETURNING count`

	var count int
	err := r.pool.QueryRow(ctx, q, rateLimitKey(key), windowStart, now.Add(2*window)).Scan(&count)
	if err != nil {
		return true, nil
	}

	return count <= requests, nil
}

func (r *rateLimitRepository) CleanupExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM rate_limits WHERE expires_at < now()`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
