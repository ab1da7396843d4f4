package memory

import (
	"fmt"

	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// Short-term memory error codes
const (
	// Access control errors
	ErrCodePermissionDenied types.ErrorCode = "MEMORY_PERMISSION_DENIED"

	// Input validation errors
	ErrCodeValidationFailed types.ErrorCode = "MEMORY_VALIDATION_FAILED"

	// Backend errors
	ErrCodeConnectionFailed    types.ErrorCode = "MEMORY_CONNECTION_FAILED"
	ErrCodeBackendUnavailable  types.ErrorCode = "MEMORY_BACKEND_UNAVAILABLE"
	ErrCodeSerializationFailed types.ErrorCode = "MEMORY_SERIALIZATION_FAILED"

	// Configuration errors
	ErrCodeInvalidConfig types.ErrorCode = "INVALID_MEMORY_CONFIG"
)

// NewPermissionDeniedError creates an error for a credential below the required tier.
func NewPermissionDeniedError(agentID string, required, actual types.AccessTier) *types.AttuneError {
	return types.NewError(ErrCodePermissionDenied,
		fmt.Sprintf("agent %q requires tier %s or higher, has %s", agentID, required, actual))
}

// NewValidationError creates an error for invalid operation input,
// raised before any backend call is attempted.
func NewValidationError(message string) *types.AttuneError {
	return types.NewError(ErrCodeValidationFailed, message)
}

// NewConnectionError creates an error for a backend that is unreachable
// after exhausting the configured retry budget, or for a non-transient
// protocol failure during steady-state operation.
func NewConnectionError(message string, cause error) *types.AttuneError {
	return types.WrapError(ErrCodeConnectionFailed, message, cause)
}

// NewBackendUnavailableError creates an error for an operation attempted
// against a closed or unconfigured backend.
func NewBackendUnavailableError(message string) *types.AttuneError {
	return types.NewError(ErrCodeBackendUnavailable, message)
}

// NewSerializationError creates an error for a payload that could not be
// marshalled to or unmarshalled from its stored form.
func NewSerializationError(message string, cause error) *types.AttuneError {
	return types.WrapError(ErrCodeSerializationFailed, message, cause)
}

// NewInvalidConfigError creates an error for invalid memory configuration.
func NewInvalidConfigError(message string) *types.AttuneError {
	return types.NewError(ErrCodeInvalidConfig, message)
}
