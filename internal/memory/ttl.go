package memory

import (
	"fmt"
	"time"
)

// TTLStrategy names a class of expiry duration. Call sites pick a strategy
// rather than passing raw seconds; the concrete duration comes from a fixed
// lookup table so retention policy lives in one place.
type TTLStrategy string

const (
	// TTLEphemeral covers scratch values that only need to survive a
	// single exchange between agents.
	TTLEphemeral TTLStrategy = "ephemeral"
	// TTLWorkingResults covers intermediate results shared within a task.
	TTLWorkingResults TTLStrategy = "working_results"
	// TTLSession covers state shared for the life of an agent session.
	TTLSession TTLStrategy = "session"
	// TTLLongLived covers day-scale state such as staged patterns awaiting
	// review.
	TTLLongLived TTLStrategy = "long_lived"
)

var ttlDurations = map[TTLStrategy]time.Duration{
	TTLEphemeral:      60 * time.Second,
	TTLWorkingResults: 15 * time.Minute,
	TTLSession:        2 * time.Hour,
	TTLLongLived:      24 * time.Hour,
}

// String returns the string representation of the TTLStrategy.
func (s TTLStrategy) String() string {
	return string(s)
}

// IsValid checks if the TTLStrategy is a valid value.
func (s TTLStrategy) IsValid() bool {
	_, ok := ttlDurations[s]
	return ok
}

// Duration resolves the strategy to its concrete duration.
func (s TTLStrategy) Duration() (time.Duration, error) {
	d, ok := ttlDurations[s]
	if !ok {
		return 0, NewValidationError(fmt.Sprintf("unknown TTL strategy: %q", string(s)))
	}
	return d, nil
}
