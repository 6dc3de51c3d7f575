package verifier

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "verifier"

var (
	ErrUnknownGuardianSet              = errorsmod.Register(ModuleName, 2, "unknown guardian set")
	ErrGuardianSetExpired              = errorsmod.Register(ModuleName, 3, "guardian set expired")
	ErrInvalidSignature                = errorsmod.Register(ModuleName, 4, "invalid signature")
	ErrGuardianIndexOutOfRange         = errorsmod.Register(ModuleName, 5, "guardian index out of range")
	ErrAddressMismatch                 = errorsmod.Register(ModuleName, 6, "recovered address does not match guardian")
	ErrSignaturesNotStrictlyIncreasing = errorsmod.Register(ModuleName, 7, "signatures not strictly increasing")
	ErrQuorumNotMet                    = errorsmod.Register(ModuleName, 8, "quorum not met")
	ErrUnknownSigner                   = errorsmod.Register(ModuleName, 9, "signer is not a guardian")
)

// IsVerificationError reports whether err is one of the verification
// failures above.
func IsVerificationError(err error) bool {
	return errorsmod.IsOf(err,
		ErrUnknownGuardianSet,
		ErrGuardianSetExpired,
		ErrInvalidSignature,
		ErrGuardianIndexOutOfRange,
		ErrAddressMismatch,
		ErrSignaturesNotStrictlyIncreasing,
		ErrQuorumNotMet,
		ErrUnknownSigner,
	)
}

// IsRetriable reports whether verification may succeed later once the
// registry learns about a newer guardian set.
func IsRetriable(err error) bool {
	return errorsmod.IsOf(err, ErrUnknownGuardianSet)
}

// Reason maps a verification error onto a short label suitable for metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errorsmod.IsOf(err, ErrUnknownGuardianSet):
		return "unknown_guardian_set"
	case errorsmod.IsOf(err, ErrGuardianSetExpired):
		return "guardian_set_expired"
	case errorsmod.IsOf(err, ErrInvalidSignature):
		return "invalid_signature"
	case errorsmod.IsOf(err, ErrGuardianIndexOutOfRange):
		return "guardian_index_out_of_range"
	case errorsmod.IsOf(err, ErrAddressMismatch):
		return "address_mismatch"
	case errorsmod.IsOf(err, ErrSignaturesNotStrictlyIncreasing):
		return "signatures_not_strictly_increasing"
	case errorsmod.IsOf(err, ErrQuorumNotMet):
		return "quorum_not_met"
	default:
		return "other"
	}
}
