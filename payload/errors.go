package payload

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "payload"

var (
	ErrMalformedPayload   = errorsmod.Register(ModuleName, 2, "malformed payload")
	ErrWrongTargetChain   = errorsmod.Register(ModuleName, 3, "governance action targets another chain")
	ErrDuplicateDecoder   = errorsmod.Register(ModuleName, 4, "decoder already registered")
	ErrInvalidGuardianSet = errorsmod.Register(ModuleName, 5, "invalid guardian set in upgrade")
)
