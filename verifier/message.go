package verifier

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/guardianset"
)

// VerifyMessageSignature checks a prefixed guardian message that is not an
// envelope, such as a peer registration, and returns the index of the
// guardian in gs that signed it.
func VerifyMessageSignature(prefix []byte, data []byte, sig []byte, gs *guardianset.GuardianSet) (int, common.Address, error) {
	digest, err := envelope.MessageSigningDigest(prefix, data)
	if err != nil {
		return -1, common.Address{}, err
	}

	if len(sig) != envelope.SignatureLength {
		return -1, common.Address{}, errorsmod.Wrapf(ErrInvalidSignature,
			"expected %d bytes, got %d", envelope.SignatureLength, len(sig))
	}

	var raw [envelope.SignatureLength]byte
	copy(raw[:], sig)

	signer, err := RecoverSigner(digest, raw)
	if err != nil {
		return -1, common.Address{}, errorsmod.Wrap(ErrInvalidSignature, err.Error())
	}

	idx, ok := gs.KeyIndex(signer)
	if !ok {
		return -1, signer, errorsmod.Wrapf(ErrUnknownSigner, "%s is not in guardian set %d", signer.Hex(), gs.Index)
	}

	return idx, signer, nil
}
