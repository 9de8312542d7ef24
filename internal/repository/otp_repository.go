package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRepository stores short-lived verification codes and send cooldowns in
// Redis. Codes are stored hashed; the attempt counter lives alongside the
// hash so both expire together.
type OTPRepository interface {
	StoreCode(ctx context.Context, userID int64, codeHash string, ttl time.Duration) error
	GetCode(ctx context.Context, userID int64) (codeHash string, attempts int, err error)
	IncrementAttempts(ctx context.Context, userID int64) (int, error)
	DeleteCode(ctx context.Context, userID int64) error

	// BeginCooldown starts a cooldown window for a key if none is active.
	// It returns false with the remaining duration when one is already
	// running.
	BeginCooldown(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error)
}

type otpRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) OTPRepository {
	return &otpRepository{client: client}
}

func codeKey(userID int64) string {
	return fmt.Sprintf("verify:phone:code:%d", userID)
}

func attemptsKey(userID int64) string {
	return fmt.Sprintf("verify:phone:attempts:%d", userID)
}

func (r *otpRepository) StoreCode(ctx context.Context, userID int64, codeHash string, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, codeKey(userID), codeHash, ttl)
	pipe.Set(ctx, attemptsKey(userID), 0, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *otpRepository) GetCode(ctx context.Context, userID int64) (string, int, error) {
	hash, err := r.client.Get(ctx, codeKey(userID)).Result()
	if err == redis.Nil {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}

	attempts, err := r.client.Get(ctx, attemptsKey(userID)).Int()
	if err != nil && err != redis.Nil {
		return "", 0, err
	}

	return hash, attempts, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, userID int64) (int, error) {
	n, err := r.client.Incr(ctx, attemptsKey(userID)).Result()
	return int(n), err
}

func (r *otpRepository) DeleteCode(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, codeKey(userID), attemptsKey(userID)).Err()
}

func (r *otpRepository) BeginCooldown(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error) {
	ok, err := r.client.SetNX(ctx, "verify:cooldown:"+key, 1, ttl).Result()
	if err != nil {
		return false, 0, err
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := r.client.TTL(ctx, "verify:cooldown:"+key).Result()
	if err != nil {
		return false, 0, err
	}
	return false, remaining, nil
}
