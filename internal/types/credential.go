package types

import (
	"encoding/json"
	"fmt"
)

// AccessTier represents an ordered privilege level for agent credentials.
// Higher tiers inherit all permissions of lower tiers.
type AccessTier int

const (
	// TierObserver may read shared state but not mutate it.
	TierObserver AccessTier = iota
	// TierContributor may write working data, stage patterns, and queue tasks.
	TierContributor
	// TierValidator may promote staged patterns.
	TierValidator
	// TierSteward holds full administrative access.
	TierSteward
)

var tierNames = map[AccessTier]string{
	TierObserver:    "observer",
	TierContributor: "contributor",
	TierValidator:   "validator",
	TierSteward:     "steward",
}

var tiersByName = map[string]AccessTier{
	"observer":    TierObserver,
	"contributor": TierContributor,
	"validator":   TierValidator,
	"steward":     TierSteward,
}

// String returns the string representation of the AccessTier.
func (t AccessTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// IsValid checks if the AccessTier is a valid value.
func (t AccessTier) IsValid() bool {
	_, ok := tierNames[t]
	return ok
}

// AtLeast reports whether this tier meets or exceeds the minimum tier.
// Tier ordering is observer < contributor < validator < steward.
func (t AccessTier) AtLeast(minimum AccessTier) bool {
	return t >= minimum
}

// ParseAccessTier converts a tier name into an AccessTier.
func ParseAccessTier(name string) (AccessTier, error) {
	tier, ok := tiersByName[name]
	if !ok {
		return TierObserver, NewError(ACCESS_TIER_INVALID, "invalid access tier: "+name)
	}
	return tier, nil
}

// MarshalJSON implements json.Marshaler.
func (t AccessTier) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return nil, NewError(ACCESS_TIER_INVALID, fmt.Sprintf("invalid access tier: %d", int(t)))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *AccessTier) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	tier, err := ParseAccessTier(str)
	if err != nil {
		return err
	}

	*t = tier
	return nil
}

// AgentCredentials identifies a calling agent and its access tier.
// Credentials are immutable values created by the caller per request;
// there is no persisted identity behind them.
type AgentCredentials struct {
	AgentID string     `json:"agent_id"`
	Tier    AccessTier `json:"tier"`
}

// NewAgentCredentials creates credentials for the given agent and tier.
func NewAgentCredentials(agentID string, tier AccessTier) AgentCredentials {
	return AgentCredentials{
		AgentID: agentID,
		Tier:    tier,
	}
}

// Validate checks that the credentials carry an agent id and a known tier.
func (c AgentCredentials) Validate() error {
	if c.AgentID == "" {
		return NewError(ACCESS_DENIED, "credentials must carry a non-empty agent id")
	}
	if !c.Tier.IsValid() {
		return NewError(ACCESS_TIER_INVALID, fmt.Sprintf("invalid access tier: %d", int(c.Tier)))
	}
	return nil
}
