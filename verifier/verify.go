package verifier

import (
	"fmt"
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/guardianset"
)

// GuardianSetGetter looks up guardian sets by index. *guardianset.Registry
// implements it.
type GuardianSetGetter interface {
	Get(index uint32) (*guardianset.GuardianSet, error)
}

// Verify checks that env carries a quorum of valid, strictly ordered
// guardian signatures from the guardian set it references, and returns its
// body. It has no side effects.
func Verify(env *envelope.Envelope, sets GuardianSetGetter, now time.Time) (*envelope.Body, error) {
	gs, err := sets.Get(env.GuardianSetIndex)
	if err != nil {
		return nil, errorsmod.Wrapf(ErrUnknownGuardianSet, "index %d: %v", env.GuardianSetIndex, err)
	}

	if gs.IsExpired(now) {
		return nil, errorsmod.Wrapf(ErrGuardianSetExpired, "index %d expired at %d, now %d",
			gs.Index, gs.ExpirationTime, now.Unix())
	}

	// ordering is checked up front so a reordered envelope fails the same
	// way whether or not its signatures are valid
	for i := 1; i < len(env.Signatures); i++ {
		if env.Signatures[i].Index <= env.Signatures[i-1].Index {
			return nil, errorsmod.Wrapf(ErrSignaturesNotStrictlyIncreasing,
				"signature %d has guardian index %d after %d", i, env.Signatures[i].Index, env.Signatures[i-1].Index)
		}
	}

	digest := env.SigningDigest()

	valid := 0
	for _, sig := range env.Signatures {
		signer, err := RecoverSigner(digest, sig.Data)
		if err != nil {
			return nil, errorsmod.Wrapf(ErrInvalidSignature, "guardian %d: %v", sig.Index, err)
		}

		if int(sig.Index) >= len(gs.Keys) {
			return nil, errorsmod.Wrapf(ErrGuardianIndexOutOfRange,
				"guardian %d, set %d has %d keys", sig.Index, gs.Index, len(gs.Keys))
		}

		if expected := gs.Keys[sig.Index]; signer != expected {
			return nil, errorsmod.Wrapf(ErrAddressMismatch,
				"guardian %d of set %d: expected %s, recovered %s", sig.Index, gs.Index, expected.Hex(), signer.Hex())
		}

		valid++
	}

	if quorum := gs.Quorum(); valid < quorum {
		return nil, errorsmod.Wrapf(ErrQuorumNotMet, "set %d: required %d, got %d", gs.Index, quorum, valid)
	}

	return &env.Body, nil
}

// RecoverSigner returns the address of the key that produced sig over
// digest. The recovery id in the last byte must be 0 or 1.
func RecoverSigner(digest common.Hash, sig [envelope.SignatureLength]byte) (common.Address, error) {
	v := sig[envelope.SignatureLength-1]
	if v > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", v)
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, false) {
		return common.Address{}, fmt.Errorf("signature values out of range")
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig[:])
	if err != nil {
		return common.Address{}, err
	}

	return crypto.PubkeyToAddress(*pub), nil
}
