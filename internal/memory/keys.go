package memory

// All short-term memory keys live under a single instance prefix so
// multiple deployments can share one Redis server without colliding.
const (
	keyPrefix         = "attune:stm:"
	keyPrefixKV       = keyPrefix + "kv:"
	keyPrefixStaging  = keyPrefix + "staging:"
	keyPrefixQueue    = keyPrefix + "queue:"
	keyPrefixTimeline = keyPrefix + "timeline:"
)

// kvKey scopes a key/value entry to the writing agent. ClearWorking relies
// on this layout to delete exactly one agent's working namespace.
func kvKey(agentID, key string) string {
	return keyPrefixKV + agentID + ":" + key
}

// kvAgentPattern matches every key in one agent's working namespace.
func kvAgentPattern(agentID string) string {
	return keyPrefixKV + agentID + ":*"
}

func stagingKey(patternID string) string {
	return keyPrefixStaging + patternID
}

func queueKey(queueName string) string {
	return keyPrefixQueue + queueName
}

func timelineKey(timelineName string) string {
	return keyPrefixTimeline + timelineName
}
