package envelope

import (
	"crypto/ecdsa"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MinMessagePrefixLength keeps prefixed guardian messages from colliding with
// envelope digests.
const MinMessagePrefixLength = 32

// New creates an unsigned envelope for the given guardian set.
func New(guardianSetIndex uint32, body Body) *Envelope {
	return &Envelope{
		Version:          SupportedVersion,
		GuardianSetIndex: guardianSetIndex,
		Body:             body,
	}
}

// AddSignature signs the body digest with key and inserts the signature at
// the position matching guardianIndex. Signing twice for the same index is an
// error.
func (e *Envelope) AddSignature(key *ecdsa.PrivateKey, guardianIndex uint8) error {
	sig, err := crypto.Sign(e.SigningDigest().Bytes(), key)
	if err != nil {
		return errorsmod.Wrapf(ErrSigningFailed, "guardian %d: %v", guardianIndex, err)
	}

	pos := sort.Search(len(e.Signatures), func(i int) bool {
		return e.Signatures[i].Index >= guardianIndex
	})
	if pos < len(e.Signatures) && e.Signatures[pos].Index == guardianIndex {
		return errorsmod.Wrapf(ErrSignaturesOutOfOrder, "guardian %d already signed", guardianIndex)
	}
	if len(e.Signatures) >= MaxSignatures {
		return errorsmod.Wrapf(ErrTooManySignatures, "envelope already carries %d signatures", len(e.Signatures))
	}

	entry := &Signature{Index: guardianIndex}
	copy(entry.Data[:], sig)

	e.Signatures = append(e.Signatures, nil)
	copy(e.Signatures[pos+1:], e.Signatures[pos:])
	e.Signatures[pos] = entry

	return nil
}

// MessageSigningDigest hashes a prefixed guardian message that is not an
// envelope, e.g. a peer registration. The prefix must be at least 32 bytes.
func MessageSigningDigest(prefix []byte, data []byte) (common.Hash, error) {
	if len(prefix) < MinMessagePrefixLength {
		return common.Hash{}, errorsmod.Wrapf(ErrInvalidPrefix,
			"prefix is %d bytes, need at least %d", len(prefix), MinMessagePrefixLength)
	}

	return crypto.Keccak256Hash(prefix, data), nil
}
