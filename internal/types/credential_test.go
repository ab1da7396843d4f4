package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTier_Ordering(t *testing.T) {
	assert.True(t, TierObserver < TierContributor)
	assert.True(t, TierContributor < TierValidator)
	assert.True(t, TierValidator < TierSteward)
}

func TestAccessTier_AtLeast(t *testing.T) {
	tests := []struct {
		name     string
		tier     AccessTier
		minimum  AccessTier
		expected bool
	}{
		{"observer meets observer", TierObserver, TierObserver, true},
		{"observer below contributor", TierObserver, TierContributor, false},
		{"contributor meets contributor", TierContributor, TierContributor, true},
		{"validator inherits contributor", TierValidator, TierContributor, true},
		{"steward inherits validator", TierSteward, TierValidator, true},
		{"steward meets steward", TierSteward, TierSteward, true},
		{"validator below steward", TierValidator, TierSteward, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.tier.AtLeast(tt.minimum))
		})
	}
}

func TestAccessTier_String(t *testing.T) {
	assert.Equal(t, "observer", TierObserver.String())
	assert.Equal(t, "contributor", TierContributor.String())
	assert.Equal(t, "validator", TierValidator.String())
	assert.Equal(t, "steward", TierSteward.String())
	assert.Contains(t, AccessTier(42).String(), "unknown")
}

func TestAccessTier_IsValid(t *testing.T) {
	assert.True(t, TierObserver.IsValid())
	assert.True(t, TierSteward.IsValid())
	assert.False(t, AccessTier(-1).IsValid())
	assert.False(t, AccessTier(42).IsValid())
}

func TestParseAccessTier(t *testing.T) {
	tier, err := ParseAccessTier("validator")
	require.NoError(t, err)
	assert.Equal(t, TierValidator, tier)

	_, err = ParseAccessTier("superuser")
	require.Error(t, err)
	assert.ErrorIs(t, err, NewError(ACCESS_TIER_INVALID, ""))
}

func TestAccessTier_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(TierContributor)
	require.NoError(t, err)
	assert.Equal(t, `"contributor"`, string(data))

	var tier AccessTier
	require.NoError(t, json.Unmarshal(data, &tier))
	assert.Equal(t, TierContributor, tier)
}

func TestAccessTier_UnmarshalInvalid(t *testing.T) {
	var tier AccessTier
	err := json.Unmarshal([]byte(`"root"`), &tier)
	require.Error(t, err)
}

func TestAgentCredentials_Validate(t *testing.T) {
	creds := NewAgentCredentials("scanner-1", TierContributor)
	require.NoError(t, creds.Validate())

	empty := AgentCredentials{Tier: TierObserver}
	assert.Error(t, empty.Validate())

	badTier := AgentCredentials{AgentID: "scanner-1", Tier: AccessTier(9)}
	assert.Error(t, badTier.Validate())
}

func TestAgentCredentials_JSONRoundTrip(t *testing.T) {
	creds := NewAgentCredentials("reviewer-7", TierValidator)

	data, err := json.Marshal(creds)
	require.NoError(t, err)

	var decoded AgentCredentials
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, creds, decoded)
}
