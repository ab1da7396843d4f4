package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// TimelineEvent is one entry in a named, timestamp-ordered event log.
// Timestamp is float seconds since the epoch and is the sort key; duplicate
// event ids are permitted.
type TimelineEvent struct {
	EventID   string         `json:"event_id"`
	AgentID   string         `json:"agent_id"`
	Timestamp float64        `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// TimeWindowQuery bounds a timeline read. Nil start/end leave the window
// open on that side. Limit <= 0 defaults to 100; Offset skips that many
// events from the start of the window.
type TimeWindowQuery struct {
	StartTime *float64 `json:"start_time,omitempty"`
	EndTime   *float64 `json:"end_time,omitempty"`
	Limit     int64    `json:"limit"`
	Offset    int64    `json:"offset"`
}

// defaultQueryLimit caps unbounded timeline reads.
const defaultQueryLimit = 100

// bounds resolves the window to concrete score bounds.
func (q TimeWindowQuery) bounds() (min, max float64) {
	min = math.Inf(-1)
	max = math.Inf(1)
	if q.StartTime != nil {
		min = *q.StartTime
	}
	if q.EndTime != nil {
		max = *q.EndTime
	}
	return min, max
}

// timelineEntry is the stored envelope. The nonce keeps events with
// identical ids, payloads, and timestamps distinct sorted-set members.
type timelineEntry struct {
	Nonce string        `json:"nonce"`
	Event TimelineEvent `json:"event"`
}

// TimelineStore provides named, append-only, time-ordered event logs with
// windowed reads.
type TimelineStore interface {
	// Add stores an event scored by at (defaulting to now when zero) in
	// the named timeline. Requires contributor.
	Add(ctx context.Context, timelineName, eventID string, data map[string]any, creds types.AgentCredentials, at time.Time) error

	// Query returns events inside the window in ascending timestamp
	// order, after skipping window.Offset and capping at window.Limit.
	// Pagination over a fixed data set is stable and non-overlapping
	// across consecutive offset windows. Requires observer.
	Query(ctx context.Context, timelineName string, creds types.AgentCredentials, window TimeWindowQuery) ([]TimelineEvent, error)

	// Count returns the number of events inside the window. Requires
	// observer.
	Count(ctx context.Context, timelineName string, creds types.AgentCredentials, window TimeWindowQuery) (int64, error)
}

// DefaultTimelineStore implements TimelineStore over a Backend.
type DefaultTimelineStore struct {
	conn   *ConnectionManager
	access *AccessController
	logger *slog.Logger
}

// NewTimelineStore creates a TimelineStore using the given connection.
func NewTimelineStore(conn *ConnectionManager, access *AccessController, logger *slog.Logger) *DefaultTimelineStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultTimelineStore{
		conn:   conn,
		access: access,
		logger: logger.With("component", "timeline_store"),
	}
}

// Add appends an event scored by its timestamp.
func (s *DefaultTimelineStore) Add(ctx context.Context, timelineName, eventID string, data map[string]any, creds types.AgentCredentials, at time.Time) error {
	if err := s.access.Require(creds, types.TierContributor); err != nil {
		return err
	}
	if timelineName == "" {
		return NewValidationError("timeline name must not be empty")
	}
	if eventID == "" {
		return NewValidationError("event_id must not be empty")
	}
	if at.IsZero() {
		at = time.Now()
	}

	timestamp := float64(at.UnixNano()) / float64(time.Second)
	entry := timelineEntry{
		Nonce: uuid.NewString(),
		Event: TimelineEvent{
			EventID:   eventID,
			AgentID:   creds.AgentID,
			Timestamp: timestamp,
			Data:      data,
		},
	}

	payload, err := json.Marshal(&entry)
	if err != nil {
		return NewSerializationError("failed to serialize event "+eventID, err)
	}

	if err := s.conn.Backend().SortedAdd(ctx, timelineKey(timelineName), timestamp, string(payload)); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "added timeline event",
		"timeline", timelineName,
		"event_id", eventID,
		"agent_id", creds.AgentID,
		"timestamp", timestamp,
	)
	return nil
}

// Query returns events inside the window in ascending timestamp order.
func (s *DefaultTimelineStore) Query(ctx context.Context, timelineName string, creds types.AgentCredentials, window TimeWindowQuery) ([]TimelineEvent, error) {
	if err := s.access.Require(creds, types.TierObserver); err != nil {
		return nil, err
	}
	if timelineName == "" {
		return nil, NewValidationError("timeline name must not be empty")
	}

	limit := window.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	offset := window.Offset
	if offset < 0 {
		offset = 0
	}

	min, max := window.bounds()
	payloads, err := s.conn.Backend().SortedRangeByScore(ctx, timelineKey(timelineName), min, max, offset, limit)
	if err != nil {
		return nil, err
	}

	events := make([]TimelineEvent, 0, len(payloads))
	for _, payload := range payloads {
		var entry timelineEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, NewSerializationError("failed to deserialize event from timeline "+timelineName, err)
		}
		events = append(events, entry.Event)
	}
	return events, nil
}

// Count returns the number of events inside the window.
func (s *DefaultTimelineStore) Count(ctx context.Context, timelineName string, creds types.AgentCredentials, window TimeWindowQuery) (int64, error) {
	if err := s.access.Require(creds, types.TierObserver); err != nil {
		return 0, err
	}
	if timelineName == "" {
		return 0, NewValidationError("timeline name must not be empty")
	}

	min, max := window.bounds()
	return s.conn.Backend().SortedCountByScore(ctx, timelineKey(timelineName), min, max)
}
