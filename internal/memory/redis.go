package memory

import (
	"context"
	"crypto/tls"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend against a live Redis server.
//
// Steady-state command failures are not retried here: the client's internal
// retry loop is disabled so the ConnectionManager's connect-time policy is
// the only retry path, and outages surface to callers as connection errors
// instead of being masked.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend creates a Redis backend from the resolved configuration.
// It does not probe the server; the ConnectionManager owns the liveness
// handshake and its retry policy.
func NewRedisBackend(cfg *Config) *RedisBackend {
	opts := &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.SocketConnectTimeout,
		ReadTimeout:  cfg.SocketTimeout,
		WriteTimeout: cfg.SocketTimeout,
		MaxRetries:   -1, // retries are the ConnectionManager's job
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &RedisBackend{client: redis.NewClient(opts)}
}

// Ping issues a real PING against the server.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return NewConnectionError("redis ping failed", err)
	}
	return nil
}

// Set stores a string value via SET, with PX expiry when ttl > 0.
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return NewConnectionError("redis SET failed for key "+key, err)
	}
	return nil
}

// Get retrieves a string value via GET. A redis.Nil reply is a miss, not an
// error.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewConnectionError("redis GET failed for key "+key, err)
	}
	return value, true, nil
}

// Delete removes keys via DEL.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := b.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, NewConnectionError("redis DEL failed", err)
	}
	return removed, nil
}

// Keys lists keys matching the glob-style pattern via KEYS.
func (b *RedisBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := b.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, NewConnectionError("redis KEYS failed for pattern "+pattern, err)
	}
	return keys, nil
}

// ConditionalDeleteAndReturn implements the watch-then-commit promotion
// primitive with WATCH + MULTI/EXEC. If another client touches the key
// between the re-read and the commit, EXEC aborts and the sequence reports
// a conflict without deleting anything.
func (b *RedisBackend) ConditionalDeleteAndReturn(ctx context.Context, key, expected string) (string, bool, error) {
	var (
		value     string
		committed bool
	)

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil // already gone
		}
		if err != nil {
			return err
		}
		if current != expected {
			return nil // concurrently modified, leave it alone
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}

		value = current
		committed = true
		return nil
	}

	err := b.client.Watch(ctx, txn, key)
	if errors.Is(err, redis.TxFailedErr) {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewConnectionError("redis transaction failed for key "+key, err)
	}
	return value, committed, nil
}

// ListPush appends via LPUSH (head) or RPUSH (tail).
func (b *RedisBackend) ListPush(ctx context.Context, key, value string, head bool) (int64, error) {
	var (
		length int64
		err    error
	)
	if head {
		length, err = b.client.LPush(ctx, key, value).Result()
	} else {
		length, err = b.client.RPush(ctx, key, value).Result()
	}
	if err != nil {
		return 0, NewConnectionError("redis list push failed for key "+key, err)
	}
	return length, nil
}

// ListPop removes the head element via LPOP.
func (b *RedisBackend) ListPop(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, NewConnectionError("redis LPOP failed for key "+key, err)
	}
	return value, true, nil
}

// ListRange reads elements via LRANGE.
func (b *RedisBackend) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	values, err := b.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, NewConnectionError("redis LRANGE failed for key "+key, err)
	}
	return values, nil
}

// ListLen reads the list length via LLEN.
func (b *RedisBackend) ListLen(ctx context.Context, key string) (int64, error) {
	length, err := b.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, NewConnectionError("redis LLEN failed for key "+key, err)
	}
	return length, nil
}

// SortedAdd inserts via ZADD.
func (b *RedisBackend) SortedAdd(ctx context.Context, key string, score float64, member string) error {
	err := b.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		return NewConnectionError("redis ZADD failed for key "+key, err)
	}
	return nil
}

// SortedRangeByScore reads via ZRANGEBYSCORE with a LIMIT clause.
func (b *RedisBackend) SortedRangeByScore(ctx context.Context, key string, min, max float64, offset, count int64) ([]string, error) {
	if count < 0 {
		count = -1 // Redis convention: no cap
	}
	members, err := b.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:    formatScore(min),
		Max:    formatScore(max),
		Offset: offset,
		Count:  count,
	}).Result()
	if err != nil {
		return nil, NewConnectionError("redis ZRANGEBYSCORE failed for key "+key, err)
	}
	return members, nil
}

// SortedCountByScore counts via ZCOUNT.
func (b *RedisBackend) SortedCountByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	count, err := b.client.ZCount(ctx, key, formatScore(min), formatScore(max)).Result()
	if err != nil {
		return 0, NewConnectionError("redis ZCOUNT failed for key "+key, err)
	}
	return count, nil
}

// Close releases the underlying client connection pool.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// formatScore renders a float score bound in Redis syntax, mapping the
// infinities used for open-ended time windows.
func formatScore(score float64) string {
	switch {
	case math.IsInf(score, -1):
		return "-inf"
	case math.IsInf(score, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(score, 'f', -1, 64)
	}
}
