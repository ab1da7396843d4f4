package memory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

func testPattern(id string, confidence float64) *StagedPattern {
	return &StagedPattern{
		PatternID:   id,
		AgentID:     "miner-1",
		PatternType: "interaction",
		Name:        "escalation handoff",
		Description: "hand off to a senior agent when sentiment drops",
		Confidence:  confidence,
		Interests:   []string{"support", "escalation"},
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPatternStagingStore_StageAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)
	observer := types.NewAgentCredentials("watcher", types.TierObserver)

	pattern := testPattern("pat-1", 0.8)
	require.NoError(t, store.Stage(ctx, pattern, contributor))

	// Observers can read staged patterns
	staged, err := store.GetStaged(ctx, "pat-1", observer)
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, "pat-1", staged.PatternID)
	assert.Equal(t, "escalation handoff", staged.Name)
	assert.InDelta(t, 0.8, staged.Confidence, 1e-9)
	assert.Equal(t, []string{"support", "escalation"}, staged.Interests)
}

func TestPatternStagingStore_GetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	observer := types.NewAgentCredentials("watcher", types.TierObserver)

	staged, err := store.GetStaged(ctx, "no-such-pattern", observer)
	require.NoError(t, err)
	assert.Nil(t, staged)
}

func TestPatternStagingStore_StageAccessControl(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	observer := types.NewAgentCredentials("watcher", types.TierObserver)

	err := store.Stage(ctx, testPattern("pat-1", 0.5), observer)
	require.Error(t, err)
	assert.ErrorIs(t, err, NewPermissionDeniedError("", 0, 0))
}

func TestPatternStagingStore_StageValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)

	tests := []struct {
		name    string
		pattern *StagedPattern
	}{
		{"nil pattern", nil},
		{"empty id", testPattern("", 0.5)},
		{"whitespace id", testPattern("   ", 0.5)},
		{"confidence above one", testPattern("pat-1", 1.5)},
		{"negative confidence", testPattern("pat-1", -0.1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Stage(ctx, tt.pattern, contributor)
			require.Error(t, err)
			assert.ErrorIs(t, err, NewValidationError(""))
		})
	}
}

func TestAtomicPromote_HappyPathAndIdempotency(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)
	validator := types.NewAgentCredentials("reviewer-1", types.TierValidator)

	require.NoError(t, store.Stage(ctx, testPattern("pat-1", 0.9), contributor))

	result, err := store.AtomicPromote(ctx, "pat-1", validator, 0.7)
	require.NoError(t, err)
	assert.True(t, result.Promoted)
	require.NotNil(t, result.Pattern)
	assert.Equal(t, "pat-1", result.Pattern.PatternID)

	// The pattern left the staging namespace
	staged, err := store.GetStaged(ctx, "pat-1", validator)
	require.NoError(t, err)
	assert.Nil(t, staged)

	// A second promotion of the same id reports not found
	result, err = store.AtomicPromote(ctx, "pat-1", validator, 0.7)
	require.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.Nil(t, result.Pattern)
	assert.Equal(t, "not found", result.Message)
}

func TestAtomicPromote_BelowThresholdLeavesPatternStaged(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)
	validator := types.NewAgentCredentials("reviewer-1", types.TierValidator)

	require.NoError(t, store.Stage(ctx, testPattern("pat-1", 0.3), contributor))

	result, err := store.AtomicPromote(ctx, "pat-1", validator, 0.7)
	require.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.Nil(t, result.Pattern)
	assert.Equal(t, "below threshold", result.Message)

	// Still staged and readable
	staged, err := store.GetStaged(ctx, "pat-1", validator)
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.InDelta(t, 0.3, staged.Confidence, 1e-9)
}

func TestAtomicPromote_ThresholdBoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)
	validator := types.NewAgentCredentials("reviewer-1", types.TierValidator)

	require.NoError(t, store.Stage(ctx, testPattern("pat-exact", 0.7), contributor))

	result, err := store.AtomicPromote(ctx, "pat-exact", validator, 0.7)
	require.NoError(t, err)
	assert.True(t, result.Promoted, "confidence equal to the threshold promotes")
}

func TestAtomicPromote_RequiresValidator(t *testing.T) {
	ctx := context.Background()
	store := newTestMemory().Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)

	require.NoError(t, store.Stage(ctx, testPattern("pat-1", 0.9), contributor))

	_, err := store.AtomicPromote(ctx, "pat-1", contributor, 0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, NewPermissionDeniedError("", 0, 0))
}

func TestAtomicPromote_ValidatesBeforeBackendIO(t *testing.T) {
	ctx := context.Background()
	validator := types.NewAgentCredentials("reviewer-1", types.TierValidator)

	// A backend that fails every call proves validation happens first.
	conn := NewConnectionManagerWithBackend(brokenBackend{}, BackendModeInMemory, slog.Default())
	store := NewPatternStagingStore(conn, NewAccessController(), slog.Default())

	tests := []struct {
		name          string
		patternID     string
		minConfidence float64
	}{
		{"empty id", "", 0.5},
		{"whitespace id", "   ", 0.5},
		{"negative threshold", "pat-1", -0.01},
		{"threshold above one", "pat-1", 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AtomicPromote(ctx, tt.patternID, validator, tt.minConfidence)
			require.Error(t, err)
			assert.ErrorIs(t, err, NewValidationError(""), "must fail validation, not reach the backend")
		})
	}
}

func TestAtomicPromote_ConflictAborts(t *testing.T) {
	ctx := context.Background()
	backend := NewInMemoryBackend()
	store := NewShortTermMemoryWithBackend(&conflictingBackend{InMemoryBackend: backend}, BackendModeInMemory, slog.Default()).Staging()
	contributor := types.NewAgentCredentials("miner-1", types.TierContributor)
	validator := types.NewAgentCredentials("reviewer-1", types.TierValidator)

	require.NoError(t, store.Stage(ctx, testPattern("pat-1", 0.9), contributor))

	result, err := store.AtomicPromote(ctx, "pat-1", validator, 0.5)
	require.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.Contains(t, result.Message, "conflict")

	// The staged entry is untouched and the step can be retried
	staged, err := store.GetStaged(ctx, "pat-1", validator)
	require.NoError(t, err)
	assert.NotNil(t, staged)
}

// conflictingBackend simulates a concurrent writer touching the staging key
// between the read and the commit.
type conflictingBackend struct {
	*InMemoryBackend
}

func (b *conflictingBackend) ConditionalDeleteAndReturn(ctx context.Context, key, expected string) (string, bool, error) {
	return "", false, nil
}
