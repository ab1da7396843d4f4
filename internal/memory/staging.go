package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// StagedPattern is a candidate pattern written provisionally by a
// contributor and held in the staging namespace until a validator promotes
// it or it expires.
type StagedPattern struct {
	PatternID   string    `json:"pattern_id"`
	AgentID     string    `json:"agent_id"`
	PatternType string    `json:"pattern_type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Code        string    `json:"code,omitempty"`
	Confidence  float64   `json:"confidence"`
	Interests   []string  `json:"interests,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the pattern is storable.
func (p *StagedPattern) Validate() error {
	if strings.TrimSpace(p.PatternID) == "" {
		return NewValidationError("pattern_id must not be empty")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return NewValidationError(fmt.Sprintf("confidence must be within [0, 1], got %g", p.Confidence))
	}
	return nil
}

// PromotionResult reports the outcome of an AtomicPromote call. Business
// outcomes (not found, below threshold, conflict) arrive here rather than
// as errors, since they are expected results, not faults.
type PromotionResult struct {
	Promoted bool           `json:"promoted"`
	Pattern  *StagedPattern `json:"pattern,omitempty"`
	Message  string         `json:"message"`
}

// Promotion outcome messages.
const (
	promoteMsgPromoted = "promoted"
	promoteMsgNotFound = "not found"
	promoteMsgBelowMin = "below threshold"
	promoteMsgConflict = "conflict: pattern modified concurrently"
)

// PatternStagingStore manages the stage/read/promote lifecycle.
type PatternStagingStore interface {
	// Stage writes the pattern into the staging namespace keyed by its
	// pattern id. Requires contributor.
	Stage(ctx context.Context, pattern *StagedPattern, creds types.AgentCredentials) error

	// GetStaged returns the staged pattern, or nil when absent or expired.
	// Requires observer.
	GetStaged(ctx context.Context, patternID string, creds types.AgentCredentials) (*StagedPattern, error)

	// AtomicPromote validates and removes a staged pattern in one
	// all-or-nothing step, returning it to the caller. After a successful
	// promotion the same pattern id is no longer staged; a second attempt
	// reports "not found". Requires validator.
	AtomicPromote(ctx context.Context, patternID string, creds types.AgentCredentials, minConfidence float64) (PromotionResult, error)
}

// DefaultPatternStagingStore implements PatternStagingStore over a Backend.
type DefaultPatternStagingStore struct {
	conn   *ConnectionManager
	access *AccessController
	logger *slog.Logger
}

// NewPatternStagingStore creates a PatternStagingStore using the given
// connection.
func NewPatternStagingStore(conn *ConnectionManager, access *AccessController, logger *slog.Logger) *DefaultPatternStagingStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultPatternStagingStore{
		conn:   conn,
		access: access,
		logger: logger.With("component", "staging_store"),
	}
}

// Stage writes the pattern into the staging namespace. Staged entries get
// the long-lived TTL so they survive a day-scale review window.
func (s *DefaultPatternStagingStore) Stage(ctx context.Context, pattern *StagedPattern, creds types.AgentCredentials) error {
	if err := s.access.Require(creds, types.TierContributor); err != nil {
		return err
	}
	if pattern == nil {
		return NewValidationError("pattern must not be nil")
	}
	if err := pattern.Validate(); err != nil {
		return err
	}

	stored := *pattern
	if stored.AgentID == "" {
		stored.AgentID = creds.AgentID
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(&stored)
	if err != nil {
		return NewSerializationError("failed to serialize pattern "+stored.PatternID, err)
	}

	ttl, err := TTLLongLived.Duration()
	if err != nil {
		return err
	}

	if err := s.conn.Backend().Set(ctx, stagingKey(stored.PatternID), string(payload), ttl); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "staged pattern",
		"pattern_id", stored.PatternID,
		"agent_id", stored.AgentID,
		"pattern_type", stored.PatternType,
		"confidence", stored.Confidence,
	)
	return nil
}

// GetStaged returns the staged pattern, or nil when absent.
func (s *DefaultPatternStagingStore) GetStaged(ctx context.Context, patternID string, creds types.AgentCredentials) (*StagedPattern, error) {
	if err := s.access.Require(creds, types.TierObserver); err != nil {
		return nil, err
	}
	if strings.TrimSpace(patternID) == "" {
		return nil, NewValidationError("pattern_id must not be empty")
	}

	payload, found, err := s.conn.Backend().Get(ctx, stagingKey(patternID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var pattern StagedPattern
	if err := json.Unmarshal([]byte(payload), &pattern); err != nil {
		return nil, NewSerializationError("failed to deserialize pattern "+patternID, err)
	}
	return &pattern, nil
}

// AtomicPromote reads the staged pattern, checks its confidence against the
// threshold, then removes it with a watch-then-commit transaction. The
// threshold is inclusive: confidence equal to minConfidence promotes.
// Under contention the whole step aborts with a conflict message and the
// staged entry stays untouched, so the caller can retry.
func (s *DefaultPatternStagingStore) AtomicPromote(ctx context.Context, patternID string, creds types.AgentCredentials, minConfidence float64) (PromotionResult, error) {
	if err := s.access.Require(creds, types.TierValidator); err != nil {
		return PromotionResult{}, err
	}

	// Fail fast on bad input before touching the backend.
	if strings.TrimSpace(patternID) == "" {
		return PromotionResult{}, NewValidationError("pattern_id must not be empty or whitespace")
	}
	if minConfidence < 0 || minConfidence > 1 {
		return PromotionResult{}, NewValidationError(
			fmt.Sprintf("min confidence must be within [0, 1], got %g", minConfidence))
	}

	key := stagingKey(patternID)
	payload, found, err := s.conn.Backend().Get(ctx, key)
	if err != nil {
		return PromotionResult{}, err
	}
	if !found {
		return PromotionResult{Message: promoteMsgNotFound}, nil
	}

	var pattern StagedPattern
	if err := json.Unmarshal([]byte(payload), &pattern); err != nil {
		return PromotionResult{}, NewSerializationError("failed to deserialize pattern "+patternID, err)
	}

	if pattern.Confidence < minConfidence {
		s.logger.InfoContext(ctx, "promotion rejected",
			"pattern_id", patternID,
			"confidence", pattern.Confidence,
			"min_confidence", minConfidence,
		)
		return PromotionResult{Message: promoteMsgBelowMin}, nil
	}

	// The transaction re-reads the staging key to detect concurrent
	// modification, deletes it, and hands the pattern back in one step.
	_, committed, err := s.conn.Backend().ConditionalDeleteAndReturn(ctx, key, payload)
	if err != nil {
		return PromotionResult{}, err
	}
	if !committed {
		s.logger.WarnContext(ctx, "promotion aborted on conflict", "pattern_id", patternID)
		return PromotionResult{Message: promoteMsgConflict}, nil
	}

	s.logger.InfoContext(ctx, "promoted pattern",
		"pattern_id", patternID,
		"validated_by", creds.AgentID,
		"confidence", pattern.Confidence,
	)
	return PromotionResult{Promoted: true, Pattern: &pattern, Message: promoteMsgPromoted}, nil
}
