package memory

import (
	"github.com/Zeeeepa/attune-ai-sub009/internal/types"
)

// AccessController gates store operations by credential tier. It is pure
// and stateless: the check runs before any backend call, so an
// unauthorized operation has no partial side effects.
type AccessController struct{}

// NewAccessController creates a new AccessController.
func NewAccessController() *AccessController {
	return &AccessController{}
}

// Require fails with a permission error when creds carry a tier below
// minimum. Higher tiers inherit all lower-tier permissions.
func (a *AccessController) Require(creds types.AgentCredentials, minimum types.AccessTier) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if !creds.Tier.AtLeast(minimum) {
		return NewPermissionDeniedError(creds.AgentID, minimum, creds.Tier)
	}
	return nil
}
