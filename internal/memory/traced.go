package memory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// TracedShortTermMemory wraps a ShortTermMemory with OpenTelemetry tracing.
// Every store operation gets a span named "attune.memory.{store}.{operation}"
// carrying the agent id, tier, and operation outcome as attributes.
type TracedShortTermMemory struct {
	inner  ShortTermMemory
	tracer trace.Tracer
}

// NewTracedShortTermMemory wraps the given store with tracing.
func NewTracedShortTermMemory(inner ShortTermMemory, tracer trace.Tracer) *TracedShortTermMemory {
	return &TracedShortTermMemory{
		inner:  inner,
		tracer: tracer,
	}
}

// KeyValues returns a traced key/value store.
func (m *TracedShortTermMemory) KeyValues() KeyValueStore {
	return &tracedKeyValueStore{inner: m.inner.KeyValues(), tracer: m.tracer}
}

// Staging returns a traced pattern staging store.
func (m *TracedShortTermMemory) Staging() PatternStagingStore {
	return &tracedStagingStore{inner: m.inner.Staging(), tracer: m.tracer}
}

// Queues returns a traced task queue store.
func (m *TracedShortTermMemory) Queues() TaskQueueStore {
	return &tracedQueueStore{inner: m.inner.Queues(), tracer: m.tracer}
}

// Timelines returns a traced timeline store.
func (m *TracedShortTermMemory) Timelines() TimelineStore {
	return &tracedTimelineStore{inner: m.inner.Timelines(), tracer: m.tracer}
}

// Ping probes liveness with a span recording the result.
func (m *TracedShortTermMemory) Ping(ctx context.Context) bool {
	ctx, span := m.tracer.Start(ctx, "attune.memory.ping")
	defer span.End()

	ok := m.inner.Ping(ctx)
	span.SetAttributes(attribute.Bool("attune.memory.ping_ok", ok))
	return ok
}

// Stats is a pass-through without additional tracing.
func (m *TracedShortTermMemory) Stats() ConnectionStats {
	return m.inner.Stats()
}

// Close releases resources with a span tracking the cleanup.
func (m *TracedShortTermMemory) Close() error {
	_, span := m.tracer.Start(context.Background(), "attune.memory.close")
	defer span.End()

	err := m.inner.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "store closed")
	return nil
}

// credAttributes returns the common span attributes for a credentialed call.
func credAttributes(creds types.AgentCredentials) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("attune.memory.agent_id", creds.AgentID),
		attribute.String("attune.memory.tier", creds.Tier.String()),
	}
}

// finishSpan records the outcome of an operation on its span.
func finishSpan(span trace.Span, start time.Time, err error) {
	span.SetAttributes(attribute.Float64("attune.memory.duration_ms",
		float64(time.Since(start).Microseconds())/1000.0))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// tracedKeyValueStore wraps KeyValueStore with tracing.
type tracedKeyValueStore struct {
	inner  KeyValueStore
	tracer trace.Tracer
}

func (s *tracedKeyValueStore) Stash(ctx context.Context, key string, value any, creds types.AgentCredentials, ttl TTLStrategy) error {
	ctx, span := s.tracer.Start(ctx, "attune.memory.kv.stash")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(
		attribute.String("attune.memory.key", key),
		attribute.String("attune.memory.ttl", ttl.String()),
	)

	start := time.Now()
	err := s.inner.Stash(ctx, key, value, creds, ttl)
	finishSpan(span, start, err)
	return err
}

func (s *tracedKeyValueStore) Retrieve(ctx context.Context, key string, creds types.AgentCredentials) (any, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.kv.retrieve")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(attribute.String("attune.memory.key", key))

	start := time.Now()
	value, err := s.inner.Retrieve(ctx, key, creds)
	span.SetAttributes(attribute.Bool("attune.memory.found", value != nil))
	finishSpan(span, start, err)
	return value, err
}

func (s *tracedKeyValueStore) ClearWorking(ctx context.Context, creds types.AgentCredentials) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.kv.clear_working")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)

	start := time.Now()
	removed, err := s.inner.ClearWorking(ctx, creds)
	span.SetAttributes(attribute.Int64("attune.memory.removed", removed))
	finishSpan(span, start, err)
	return removed, err
}

// tracedStagingStore wraps PatternStagingStore with tracing.
type tracedStagingStore struct {
	inner  PatternStagingStore
	tracer trace.Tracer
}

func (s *tracedStagingStore) Stage(ctx context.Context, pattern *StagedPattern, creds types.AgentCredentials) error {
	ctx, span := s.tracer.Start(ctx, "attune.memory.staging.stage")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	if pattern != nil {
		span.SetAttributes(
			attribute.String("attune.memory.pattern_id", pattern.PatternID),
			attribute.Float64("attune.memory.confidence", pattern.Confidence),
		)
	}

	start := time.Now()
	err := s.inner.Stage(ctx, pattern, creds)
	finishSpan(span, start, err)
	return err
}

func (s *tracedStagingStore) GetStaged(ctx context.Context, patternID string, creds types.AgentCredentials) (*StagedPattern, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.staging.get")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(attribute.String("attune.memory.pattern_id", patternID))

	start := time.Now()
	pattern, err := s.inner.GetStaged(ctx, patternID, creds)
	span.SetAttributes(attribute.Bool("attune.memory.found", pattern != nil))
	finishSpan(span, start, err)
	return pattern, err
}

func (s *tracedStagingStore) AtomicPromote(ctx context.Context, patternID string, creds types.AgentCredentials, minConfidence float64) (PromotionResult, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.staging.promote")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(
		attribute.String("attune.memory.pattern_id", patternID),
		attribute.Float64("attune.memory.min_confidence", minConfidence),
	)

	start := time.Now()
	result, err := s.inner.AtomicPromote(ctx, patternID, creds, minConfidence)
	span.SetAttributes(
		attribute.Bool("attune.memory.promoted", result.Promoted),
		attribute.String("attune.memory.message", result.Message),
	)
	finishSpan(span, start, err)
	return result, err
}

// tracedQueueStore wraps TaskQueueStore with tracing.
type tracedQueueStore struct {
	inner  TaskQueueStore
	tracer trace.Tracer
}

func (s *tracedQueueStore) Push(ctx context.Context, queueName string, task any, creds types.AgentCredentials, priority bool) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.queue.push")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(
		attribute.String("attune.memory.queue", queueName),
		attribute.Bool("attune.memory.priority", priority),
	)

	start := time.Now()
	length, err := s.inner.Push(ctx, queueName, task, creds, priority)
	span.SetAttributes(attribute.Int64("attune.memory.queue_length", length))
	finishSpan(span, start, err)
	return length, err
}

func (s *tracedQueueStore) Pop(ctx context.Context, queueName string, creds types.AgentCredentials) (*QueueItem, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.queue.pop")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(attribute.String("attune.memory.queue", queueName))

	start := time.Now()
	item, err := s.inner.Pop(ctx, queueName, creds)
	span.SetAttributes(attribute.Bool("attune.memory.found", item != nil))
	finishSpan(span, start, err)
	return item, err
}

func (s *tracedQueueStore) Peek(ctx context.Context, queueName string, creds types.AgentCredentials, count int64) ([]QueueItem, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.queue.peek")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(
		attribute.String("attune.memory.queue", queueName),
		attribute.Int64("attune.memory.count", count),
	)

	start := time.Now()
	items, err := s.inner.Peek(ctx, queueName, creds, count)
	span.SetAttributes(attribute.Int("attune.memory.returned", len(items)))
	finishSpan(span, start, err)
	return items, err
}

func (s *tracedQueueStore) Length(ctx context.Context, queueName string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.queue.length")
	defer span.End()
	span.SetAttributes(attribute.String("attune.memory.queue", queueName))

	start := time.Now()
	length, err := s.inner.Length(ctx, queueName)
	span.SetAttributes(attribute.Int64("attune.memory.queue_length", length))
	finishSpan(span, start, err)
	return length, err
}

// tracedTimelineStore wraps TimelineStore with tracing.
type tracedTimelineStore struct {
	inner  TimelineStore
	tracer trace.Tracer
}

func (s *tracedTimelineStore) Add(ctx context.Context, timelineName, eventID string, data map[string]any, creds types.AgentCredentials, at time.Time) error {
	ctx, span := s.tracer.Start(ctx, "attune.memory.timeline.add")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(
		attribute.String("attune.memory.timeline", timelineName),
		attribute.String("attune.memory.event_id", eventID),
	)

	start := time.Now()
	err := s.inner.Add(ctx, timelineName, eventID, data, creds, at)
	finishSpan(span, start, err)
	return err
}

func (s *tracedTimelineStore) Query(ctx context.Context, timelineName string, creds types.AgentCredentials, window TimeWindowQuery) ([]TimelineEvent, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.timeline.query")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(
		attribute.String("attune.memory.timeline", timelineName),
		attribute.Int64("attune.memory.limit", window.Limit),
		attribute.Int64("attune.memory.offset", window.Offset),
	)

	start := time.Now()
	events, err := s.inner.Query(ctx, timelineName, creds, window)
	span.SetAttributes(attribute.Int("attune.memory.returned", len(events)))
	finishSpan(span, start, err)
	return events, err
}

func (s *tracedTimelineStore) Count(ctx context.Context, timelineName string, creds types.AgentCredentials, window TimeWindowQuery) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "attune.memory.timeline.count")
	defer span.End()
	span.SetAttributes(credAttributes(creds)...)
	span.SetAttributes(attribute.String("attune.memory.timeline", timelineName))

	start := time.Now()
	count, err := s.inner.Count(ctx, timelineName, creds, window)
	span.SetAttributes(attribute.Int64("attune.memory.count", count))
	finishSpan(span, start, err)
	return count, err
}
