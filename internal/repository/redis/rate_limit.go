package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/arklim/campus-records/internal/core/port"
)

// RateLimitRepository keeps one sorted set per scope and subject. Members are
// random so simultaneous attempts never collapse; scores are microseconds
// since the epoch, which float64 holds exactly.
type RateLimitRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRateLimitRepository stores windows under prefix. Keys expire ttl after
// their last attempt, so ttl should be at least the longest window in use.
func NewRateLimitRepository(client *redis.Client, prefix string, ttl time.Duration) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: prefix, ttl: ttl}
}

// Window trims and reads the window in one MULTI block.
func (r *RateLimitRepository) Window(ctx context.Context, scope, subject string, window time.Duration, now time.Time) (port.AttemptWindow, error) {
	if window <= 0 {
		return port.AttemptWindow{}, errors.New("window must be positive")
	}

	key := r.key(scope, subject)
	floor := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	var (
		card  *redis.IntCmd
		first *redis.ZSliceCmd
	)
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", floor)
		card = pipe.ZCard(ctx, key)
		first = pipe.ZRangeWithScores(ctx, key, 0, 0)
		return nil
	}); err != nil {
		return port.AttemptWindow{}, fmt.Errorf("read %s window: %w", scope, err)
	}

	w := port.AttemptWindow{Count: int(card.Val())}
	if oldest := first.Val(); len(oldest) > 0 {
		w.Oldest = time.UnixMicro(int64(oldest[0].Score)).UTC()
	}
	return w, nil
}

// Record adds one attempt at the given time and refreshes the key's expiry.
func (r *RateLimitRepository) Record(ctx context.Context, scope, subject string, at time.Time) error {
	key := r.key(scope, subject)
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(at.UnixMicro()), Member: uuid.NewString()})
		if r.ttl > 0 {
			pipe.PExpire(ctx, key, r.ttl)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("record %s attempt: %w", scope, err)
	}
	return nil
}

// Reset forgets every attempt of subject in scope.
func (r *RateLimitRepository) Reset(ctx context.Context, scope, subject string) error {
	if err := r.client.Del(ctx, r.key(scope, subject)).Err(); err != nil {
		return fmt.Errorf("reset %s window: %w", scope, err)
	}
	return nil
}

func (r *RateLimitRepository) key(scope, subject string) string {
	if r.prefix == "" {
		return scope + ":" + subject
	}
	return r.prefix + ":" + scope + ":" + subject
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
