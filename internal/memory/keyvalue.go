package memory

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// KeyValueStore provides TTL-scoped key/value sharing between agents.
type KeyValueStore interface {
	// Stash serializes value and writes it under the caller's working
	// namespace with the expiry resolved from ttl. Requires contributor.
	Stash(ctx context.Context, key string, value any, creds types.AgentCredentials, ttl TTLStrategy) error

	// Retrieve returns the value stored under key in the caller's working
	// namespace, or nil on a miss or after expiry. A miss is never an
	// error. Requires observer.
	Retrieve(ctx context.Context, key string, creds types.AgentCredentials) (any, error)

	// ClearWorking deletes every key in the caller's working namespace and
	// returns how many were removed. Requires contributor.
	ClearWorking(ctx context.Context, creds types.AgentCredentials) (int64, error)
}

// DefaultKeyValueStore implements KeyValueStore over a Backend.
type DefaultKeyValueStore struct {
	conn   *ConnectionManager
	access *AccessController
	logger *slog.Logger
}

// NewKeyValueStore creates a KeyValueStore using the given connection.
func NewKeyValueStore(conn *ConnectionManager, access *AccessController, logger *slog.Logger) *DefaultKeyValueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultKeyValueStore{
		conn:   conn,
		access: access,
		logger: logger.With("component", "kv_store"),
	}
}

// Stash serializes value and writes it with the resolved expiry.
func (s *DefaultKeyValueStore) Stash(ctx context.Context, key string, value any, creds types.AgentCredentials, ttl TTLStrategy) error {
	if err := s.access.Require(creds, types.TierContributor); err != nil {
		return err
	}
	if key == "" {
		return NewValidationError("key must not be empty")
	}

	duration, err := ttl.Duration()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return NewSerializationError("failed to serialize value for key "+key, err)
	}

	if err := s.conn.Backend().Set(ctx, kvKey(creds.AgentID, key), string(payload), duration); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "stashed value",
		"agent_id", creds.AgentID,
		"key", key,
		"ttl", ttl.String(),
	)
	return nil
}

// Retrieve returns the deserialized value, or nil on a miss.
func (s *DefaultKeyValueStore) Retrieve(ctx context.Context, key string, creds types.AgentCredentials) (any, error) {
	if err := s.access.Require(creds, types.TierObserver); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, NewValidationError("key must not be empty")
	}

	payload, found, err := s.conn.Backend().Get(ctx, kvKey(creds.AgentID, key))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, NewSerializationError("failed to deserialize value for key "+key, err)
	}
	return value, nil
}

// ClearWorking deletes every key in the caller's working namespace.
func (s *DefaultKeyValueStore) ClearWorking(ctx context.Context, creds types.AgentCredentials) (int64, error) {
	if err := s.access.Require(creds, types.TierContributor); err != nil {
		return 0, err
	}

	keys, err := s.conn.Backend().Keys(ctx, kvAgentPattern(creds.AgentID))
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := s.conn.Backend().Delete(ctx, keys...)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "cleared working namespace",
		"agent_id", creds.AgentID,
		"removed", removed,
	)
	return removed, nil
}
