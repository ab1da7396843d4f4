package memory

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"
)

// InMemoryBackend is a drop-in substitute for the Redis backend. Every
// operation, including ConditionalDeleteAndReturn, runs under a single
// process-wide mutex, which reproduces the atomicity the live backend gets
// from native single-key commands and WATCH transactions.
type InMemoryBackend struct {
	mu      sync.Mutex
	strings map[string]inMemoryEntry
	lists   map[string][]string
	sorted  map[string][]scoredMember
	seq     uint64
	closed  bool
}

type inMemoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

type scoredMember struct {
	score  float64
	member string
	seq    uint64 // insertion order, keeps equal-score ordering stable
}

// NewInMemoryBackend creates an empty in-memory backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		strings: make(map[string]inMemoryEntry),
		lists:   make(map[string][]string),
		sorted:  make(map[string][]scoredMember),
	}
}

// Ping always succeeds for the in-memory backend.
func (b *InMemoryBackend) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return NewBackendUnavailableError("in-memory backend is closed")
	}
	return nil
}

// Set stores a string value with optional expiry.
func (b *InMemoryBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := inMemoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	b.strings[key] = entry
	return nil
}

// Get retrieves a string value, honoring expiry lazily.
func (b *InMemoryBackend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.liveEntryLocked(key)
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Delete removes the given keys across all value kinds.
func (b *InMemoryBackend) Delete(ctx context.Context, keys ...string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var removed int64
	for _, key := range keys {
		if _, ok := b.liveEntryLocked(key); ok {
			delete(b.strings, key)
			removed++
			continue
		}
		if _, ok := b.lists[key]; ok {
			delete(b.lists, key)
			removed++
			continue
		}
		if _, ok := b.sorted[key]; ok {
			delete(b.sorted, key)
			removed++
		}
	}
	return removed, nil
}

// Keys returns all live string keys matching the glob-style pattern.
func (b *InMemoryBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	matches := make([]string, 0)
	for key := range b.strings {
		if _, ok := b.liveEntryLocked(key); !ok {
			continue
		}
		if matched, err := path.Match(pattern, key); err == nil && matched {
			matches = append(matches, key)
		}
	}
	for key := range b.lists {
		if matched, err := path.Match(pattern, key); err == nil && matched {
			matches = append(matches, key)
		}
	}
	for key := range b.sorted {
		if matched, err := path.Match(pattern, key); err == nil && matched {
			matches = append(matches, key)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// ConditionalDeleteAndReturn performs the whole check-and-delete sequence
// under the backend mutex, so no concurrent writer can interleave.
func (b *InMemoryBackend) ConditionalDeleteAndReturn(ctx context.Context, key, expected string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.liveEntryLocked(key)
	if !ok {
		return "", false, nil
	}
	if entry.value != expected {
		return "", false, nil
	}
	delete(b.strings, key)
	return entry.value, true, nil
}

// ListPush appends a value to the named list.
func (b *InMemoryBackend) ListPush(ctx context.Context, key, value string, head bool) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.lists[key]
	if head {
		list = append([]string{value}, list...)
	} else {
		list = append(list, value)
	}
	b.lists[key] = list
	return int64(len(list)), nil
}

// ListPop removes and returns the head of the named list.
func (b *InMemoryBackend) ListPop(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.lists[key]
	if len(list) == 0 {
		return "", false, nil
	}
	value := list[0]
	if len(list) == 1 {
		delete(b.lists, key)
	} else {
		b.lists[key] = list[1:]
	}
	return value, true, nil
}

// ListRange returns elements [start, stop] inclusive, Redis-style.
func (b *InMemoryBackend) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.lists[key]
	length := int64(len(list))
	if length == 0 {
		return []string{}, nil
	}

	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop {
		return []string{}, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

// ListLen returns the length of the named list.
func (b *InMemoryBackend) ListLen(ctx context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.lists[key])), nil
}

// SortedAdd inserts a member into the named sorted set keeping ascending
// score order. Equal scores keep insertion order, which makes paginated
// reads stable.
func (b *InMemoryBackend) SortedAdd(ctx context.Context, key string, score float64, member string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	entry := scoredMember{score: score, member: member, seq: b.seq}

	set := b.sorted[key]
	idx := sort.Search(len(set), func(i int) bool {
		return set[i].score > score
	})
	set = append(set, scoredMember{})
	copy(set[idx+1:], set[idx:])
	set[idx] = entry
	b.sorted[key] = set
	return nil
}

// SortedRangeByScore returns members within [min, max] in score order.
func (b *InMemoryBackend) SortedRangeByScore(ctx context.Context, key string, min, max float64, offset, count int64) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	matched := b.matchedByScoreLocked(key, min, max)
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(matched)) {
		return []string{}, nil
	}
	matched = matched[offset:]
	if count >= 0 && count < int64(len(matched)) {
		matched = matched[:count]
	}

	out := make([]string, len(matched))
	for i, m := range matched {
		out[i] = m.member
	}
	return out, nil
}

// SortedCountByScore counts members within [min, max].
func (b *InMemoryBackend) SortedCountByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.matchedByScoreLocked(key, min, max))), nil
}

// Close marks the backend closed. Data is discarded with the process.
func (b *InMemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// liveEntryLocked returns the entry for key if present and unexpired,
// deleting it lazily when expired. Caller must hold the mutex.
func (b *InMemoryBackend) liveEntryLocked(key string) (inMemoryEntry, bool) {
	entry, ok := b.strings[key]
	if !ok {
		return inMemoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(b.strings, key)
		return inMemoryEntry{}, false
	}
	return entry, true
}

// matchedByScoreLocked returns the members of key within [min, max].
// Caller must hold the mutex.
func (b *InMemoryBackend) matchedByScoreLocked(key string, min, max float64) []scoredMember {
	set := b.sorted[key]
	matched := make([]scoredMember, 0, len(set))
	for _, m := range set {
		if m.score >= min && m.score <= max {
			matched = append(matched, m)
		}
	}
	return matched
}
