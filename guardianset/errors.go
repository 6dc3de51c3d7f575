package guardianset

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "guardianset"

var (
	ErrGuardianSetNotFound = errorsmod.Register(ModuleName, 2, "guardian set not found")
	ErrInvalidIndex        = errorsmod.Register(ModuleName, 3, "guardian set index must follow the current index")
	ErrEmptyGuardianSet    = errorsmod.Register(ModuleName, 4, "guardian set has no keys")
	ErrTooManyGuardians    = errorsmod.Register(ModuleName, 5, "guardian set has more keys than signatures can address")
	ErrDuplicateGuardian   = errorsmod.Register(ModuleName, 6, "guardian set contains a duplicate key")
	ErrZeroGuardian        = errorsmod.Register(ModuleName, 7, "guardian set contains the zero address")
)
