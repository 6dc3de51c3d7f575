package envelope

import (
	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the error codespace of the envelope codec.
const ModuleName = "envelope"

var (
	ErrTooShort             = errorsmod.Register(ModuleName, 2, "envelope is shorter than the minimum length")
	ErrTruncated            = errorsmod.Register(ModuleName, 3, "envelope is truncated")
	ErrUnsupportedVersion   = errorsmod.Register(ModuleName, 4, "unsupported envelope version")
	ErrSignaturesOutOfOrder = errorsmod.Register(ModuleName, 5, "guardian indices of signatures are not strictly increasing")
	ErrTooManySignatures    = errorsmod.Register(ModuleName, 6, "too many signatures")
	ErrInvalidPrefix        = errorsmod.Register(ModuleName, 7, "invalid message signing prefix")
	ErrSigningFailed        = errorsmod.Register(ModuleName, 8, "failed to sign envelope")
)

// IsDecodeError reports whether err was produced by Decode on malformed
// bytes. Such errors are never worth retrying.
func IsDecodeError(err error) bool {
	return errorsmod.IsOf(err, ErrTooShort, ErrTruncated, ErrUnsupportedVersion)
}
