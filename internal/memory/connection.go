package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// BackendMode identifies which backend a ConnectionManager is driving.
type BackendMode string

const (
	BackendModeRedis    BackendMode = "redis"
	BackendModeInMemory BackendMode = "in_memory"
)

// ConnectionStats is a snapshot of the manager's state for health surfaces.
type ConnectionStats struct {
	Mode         BackendMode `json:"mode"`
	RetriesTotal int64       `json:"retries_total"`
	LastPingOK   bool        `json:"last_ping_ok"`
}

// ConnectionManager owns the backend connection for the short-term memory
// store. At construction it probes the live backend, retrying transient
// failures with bounded exponential backoff; if the retry budget is
// exhausted it fails with a connection error rather than degrading to the
// in-memory backend. The in-memory backend is selected only when the
// configuration explicitly asks for it.
type ConnectionManager struct {
	backend Backend
	mode    BackendMode
	logger  *slog.Logger

	mu           sync.Mutex
	retriesTotal int64
	lastPingOK   bool
}

// NewConnectionManager establishes the backend selected by cfg.
//
// For the Redis backend the liveness probe is retried up to
// cfg.RetryMaxAttempts times with delay min(base*2^attempt, max) between
// attempts; every retry increments the retries_total counter. All attempts
// failing is a hard error: automatic masking of an outage is treated as a
// correctness bug, not a feature.
func NewConnectionManager(cfg *Config, logger *slog.Logger) (*ConnectionManager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "connection_manager")

	if cfg == nil {
		cfg = NewDefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.UseInMemory {
		logger.Info("using in-memory backend by explicit request")
		return &ConnectionManager{
			backend:    NewInMemoryBackend(),
			mode:       BackendModeInMemory,
			logger:     logger,
			lastPingOK: true,
		}, nil
	}

	m := &ConnectionManager{
		backend: NewRedisBackend(cfg),
		mode:    BackendModeRedis,
		logger:  logger,
	}

	if err := m.connectWithRetry(cfg); err != nil {
		_ = m.backend.Close()
		return nil, err
	}
	return m, nil
}

// NewConnectionManagerWithBackend wraps an already-constructed backend.
// Used by tests and by callers that inject their own Backend implementation.
func NewConnectionManagerWithBackend(backend Backend, mode BackendMode, logger *slog.Logger) *ConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionManager{
		backend:    backend,
		mode:       mode,
		logger:     logger.With("component", "connection_manager"),
		lastPingOK: true,
	}
}

// connectWithRetry probes the backend with bounded exponential backoff.
func (m *ConnectionManager) connectWithRetry(cfg *Config) error {
	var lastErr error

	for attempt := 0; attempt < cfg.RetryMaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg.RetryBaseDelay, cfg.RetryMaxDelay, attempt-1)
			m.logger.Warn("backend unreachable, retrying",
				"attempt", attempt,
				"max_attempts", cfg.RetryMaxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			time.Sleep(delay)

			m.mu.Lock()
			m.retriesTotal++
			m.mu.Unlock()
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.SocketConnectTimeout)
		err := m.backend.Ping(ctx)
		cancel()

		if err == nil {
			m.mu.Lock()
			m.lastPingOK = true
			m.mu.Unlock()
			m.logger.Info("connected to backend", "addr", cfg.Addr(), "db", cfg.DB, "tls", cfg.TLS)
			return nil
		}
		lastErr = err
	}

	return NewConnectionError(
		fmt.Sprintf("backend unreachable after %d attempts", cfg.RetryMaxAttempts),
		lastErr,
	)
}

// Backend returns the managed backend.
func (m *ConnectionManager) Backend() Backend {
	return m.backend
}

// Mode returns which backend is active.
func (m *ConnectionManager) Mode() BackendMode {
	return m.mode
}

// Ping probes backend liveness. The in-memory backend always reports
// healthy; the Redis backend issues a real PING.
func (m *ConnectionManager) Ping(ctx context.Context) bool {
	err := m.backend.Ping(ctx)

	m.mu.Lock()
	m.lastPingOK = err == nil
	m.mu.Unlock()

	if err != nil {
		m.logger.WarnContext(ctx, "backend ping failed", "error", err)
	}
	return err == nil
}

// Stats reports the active backend mode and retry counters.
func (m *ConnectionManager) Stats() ConnectionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ConnectionStats{
		Mode:         m.mode,
		RetriesTotal: m.retriesTotal,
		LastPingOK:   m.lastPingOK,
	}
}

// Close releases the backend connection.
func (m *ConnectionManager) Close() error {
	return m.backend.Close()
}

// backoffDelay computes min(base * 2^attempt, max).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > max || delay <= 0 {
		delay = max
	}
	return delay
}
