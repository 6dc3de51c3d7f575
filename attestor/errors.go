package attestor

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "attestor"

var (
	ErrGovernanceNotCurrentSet = errorsmod.Register(ModuleName, 2, "governance must be signed by the current guardian set")
	ErrActionFailed            = errorsmod.Register(ModuleName, 3, "failed to execute action")
	ErrClaimTracking           = errorsmod.Register(ModuleName, 4, "failed to access claim tracker")
)
