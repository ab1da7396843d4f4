package memory

import (
	"context"
	"log/slog"
	"sync"
)

// ShortTermMemory is the caller-facing facade composing the key/value,
// staging, queue, and timeline stores over one managed backend connection.
type ShortTermMemory interface {
	// KeyValues returns the TTL-scoped key/value store.
	KeyValues() KeyValueStore

	// Staging returns the pattern staging and promotion store.
	Staging() PatternStagingStore

	// Queues returns the named task queue store.
	Queues() TaskQueueStore

	// Timelines returns the time-indexed event log store.
	Timelines() TimelineStore

	// Ping probes backend liveness.
	Ping(ctx context.Context) bool

	// Stats reports the active backend mode and retry counters.
	Stats() ConnectionStats

	// Close releases the backend connection. Idempotent.
	Close() error
}

// DefaultShortTermMemory implements ShortTermMemory.
type DefaultShortTermMemory struct {
	conn      *ConnectionManager
	keyValues KeyValueStore
	staging   PatternStagingStore
	queues    TaskQueueStore
	timelines TimelineStore

	closeMu sync.Mutex
	closed  bool
}

// NewShortTermMemory connects to the backend selected by cfg and builds
// the store facade on top of it. Construction fails with a connection
// error when the live backend is unreachable after the configured retry
// budget; the in-memory backend is used only when cfg explicitly asks for
// it.
func NewShortTermMemory(cfg *Config, logger *slog.Logger) (ShortTermMemory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := NewConnectionManager(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newShortTermMemory(conn, logger), nil
}

// NewShortTermMemoryWithBackend builds the store facade over an injected
// backend. Used by tests and embedders that manage their own connection.
func NewShortTermMemoryWithBackend(backend Backend, mode BackendMode, logger *slog.Logger) ShortTermMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return newShortTermMemory(NewConnectionManagerWithBackend(backend, mode, logger), logger)
}

func newShortTermMemory(conn *ConnectionManager, logger *slog.Logger) *DefaultShortTermMemory {
	access := NewAccessController()
	return &DefaultShortTermMemory{
		conn:      conn,
		keyValues: NewKeyValueStore(conn, access, logger),
		staging:   NewPatternStagingStore(conn, access, logger),
		queues:    NewTaskQueueStore(conn, access, logger),
		timelines: NewTimelineStore(conn, access, logger),
	}
}

// KeyValues returns the key/value store.
func (m *DefaultShortTermMemory) KeyValues() KeyValueStore {
	return m.keyValues
}

// Staging returns the pattern staging store.
func (m *DefaultShortTermMemory) Staging() PatternStagingStore {
	return m.staging
}

// Queues returns the task queue store.
func (m *DefaultShortTermMemory) Queues() TaskQueueStore {
	return m.queues
}

// Timelines returns the timeline store.
func (m *DefaultShortTermMemory) Timelines() TimelineStore {
	return m.timelines
}

// Ping probes backend liveness through the connection manager.
func (m *DefaultShortTermMemory) Ping(ctx context.Context) bool {
	return m.conn.Ping(ctx)
}

// Stats reports the connection manager's snapshot.
func (m *DefaultShortTermMemory) Stats() ConnectionStats {
	return m.conn.Stats()
}

// Close releases the backend connection. Safe to call more than once.
func (m *DefaultShortTermMemory) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.conn.Close()
}
