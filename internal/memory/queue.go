package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// QueueItem wraps an arbitrary task payload with queueing metadata.
type QueueItem struct {
	Task     any       `json:"task"`
	QueuedBy string    `json:"queued_by"`
	QueuedAt time.Time `json:"queued_at"`
}

// TaskQueueStore provides named, mutually isolated task queues. Ordering is
// FIFO by default; priority pushes jump to the head. There is no
// cross-queue ordering guarantee.
type TaskQueueStore interface {
	// Push appends task to the named queue and returns the new length.
	// With priority true the item is inserted at the head and processed
	// next. Requires contributor.
	Push(ctx context.Context, queueName string, task any, creds types.AgentCredentials, priority bool) (int64, error)

	// Pop removes and returns the head item, or nil when the queue is
	// empty. Requires contributor.
	Pop(ctx context.Context, queueName string, creds types.AgentCredentials) (*QueueItem, error)

	// Peek returns up to count items from the head without removing them,
	// fewer when the queue is shorter. A count <= 0 defaults to 1.
	// Requires observer.
	Peek(ctx context.Context, queueName string, creds types.AgentCredentials, count int64) ([]QueueItem, error)

	// Length returns the queue length, 0 for a non-existent queue. This is
	// a read-only size probe and takes no credentials.
	Length(ctx context.Context, queueName string) (int64, error)
}

// DefaultTaskQueueStore implements TaskQueueStore over a Backend.
type DefaultTaskQueueStore struct {
	conn   *ConnectionManager
	access *AccessController
	logger *slog.Logger
}

// NewTaskQueueStore creates a TaskQueueStore using the given connection.
func NewTaskQueueStore(conn *ConnectionManager, access *AccessController, logger *slog.Logger) *DefaultTaskQueueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultTaskQueueStore{
		conn:   conn,
		access: access,
		logger: logger.With("component", "task_queue"),
	}
}

// Push wraps the task with queued_by/queued_at and appends it.
func (s *DefaultTaskQueueStore) Push(ctx context.Context, queueName string, task any, creds types.AgentCredentials, priority bool) (int64, error) {
	if err := s.access.Require(creds, types.TierContributor); err != nil {
		return 0, err
	}
	if queueName == "" {
		return 0, NewValidationError("queue name must not be empty")
	}

	item := QueueItem{
		Task:     task,
		QueuedBy: creds.AgentID,
		QueuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(&item)
	if err != nil {
		return 0, NewSerializationError("failed to serialize task for queue "+queueName, err)
	}

	length, err := s.conn.Backend().ListPush(ctx, queueKey(queueName), string(payload), priority)
	if err != nil {
		return 0, err
	}

	s.logger.DebugContext(ctx, "queued task",
		"queue", queueName,
		"agent_id", creds.AgentID,
		"priority", priority,
		"length", length,
	)
	return length, nil
}

// Pop removes and returns the head item.
func (s *DefaultTaskQueueStore) Pop(ctx context.Context, queueName string, creds types.AgentCredentials) (*QueueItem, error) {
	if err := s.access.Require(creds, types.TierContributor); err != nil {
		return nil, err
	}
	if queueName == "" {
		return nil, NewValidationError("queue name must not be empty")
	}

	payload, found, err := s.conn.Backend().ListPop(ctx, queueKey(queueName))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var item QueueItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return nil, NewSerializationError("failed to deserialize item from queue "+queueName, err)
	}
	return &item, nil
}

// Peek returns up to count head items without removing them.
func (s *DefaultTaskQueueStore) Peek(ctx context.Context, queueName string, creds types.AgentCredentials, count int64) ([]QueueItem, error) {
	if err := s.access.Require(creds, types.TierObserver); err != nil {
		return nil, err
	}
	if queueName == "" {
		return nil, NewValidationError("queue name must not be empty")
	}
	if count <= 0 {
		count = 1
	}

	payloads, err := s.conn.Backend().ListRange(ctx, queueKey(queueName), 0, count-1)
	if err != nil {
		return nil, err
	}

	items := make([]QueueItem, 0, len(payloads))
	for _, payload := range payloads {
		var item QueueItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, NewSerializationError("failed to deserialize item from queue "+queueName, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Length returns the queue length without a credential check.
func (s *DefaultTaskQueueStore) Length(ctx context.Context, queueName string) (int64, error) {
	if queueName == "" {
		return 0, NewValidationError("queue name must not be empty")
	}
	return s.conn.Backend().ListLen(ctx, queueKey(queueName))
}
