package memory

import (
	"context"
	"time"
)

// Backend is the storage contract the short-term memory stores are built
// on: string values with expiry, lists for queues, sorted sets for
// timelines, and one optimistic-concurrency primitive for promotion.
//
// Two implementations exist: RedisBackend speaks to a live Redis server,
// InMemoryBackend reproduces the same semantics behind a process-wide
// mutex. Selection happens by constructor injection, never by reflection.
type Backend interface {
	// Ping issues a liveness probe.
	Ping(ctx context.Context) error

	// Set stores a string value under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get retrieves the value under key. The bool is false on a miss or
	// after expiry; a miss is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes the given keys, returning how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)

	// Keys returns all keys matching the glob-style pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// ConditionalDeleteAndReturn atomically re-reads key, verifies its
	// value still equals expected, deletes it, and returns the value.
	// The bool is false when the key is missing or was concurrently
	// modified; in that case nothing is deleted and the caller may retry.
	ConditionalDeleteAndReturn(ctx context.Context, key, expected string) (string, bool, error)

	// ListPush appends value to the named list: at the head when head is
	// true, at the tail otherwise. Returns the new list length.
	ListPush(ctx context.Context, key, value string, head bool) (int64, error)

	// ListPop removes and returns the head of the named list. The bool is
	// false when the list is empty or missing.
	ListPop(ctx context.Context, key string) (string, bool, error)

	// ListRange returns elements [start, stop] of the named list, both
	// indexes inclusive, without removing them.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ListLen returns the length of the named list, 0 when missing.
	ListLen(ctx context.Context, key string) (int64, error)

	// SortedAdd adds member to the named sorted set with the given score.
	SortedAdd(ctx context.Context, key string, score float64, member string) error

	// SortedRangeByScore returns members with min <= score <= max in
	// ascending score order, skipping offset members and returning at most
	// count. Pagination over a fixed data set is stable and
	// non-overlapping across consecutive offset windows.
	SortedRangeByScore(ctx context.Context, key string, min, max float64, offset, count int64) ([]string, error)

	// SortedCountByScore counts members with min <= score <= max.
	SortedCountByScore(ctx context.Context, key string, min, max float64) (int64, error)

	// Close releases the backend connection. Safe to call more than once.
	Close() error
}
