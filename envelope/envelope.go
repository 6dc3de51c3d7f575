package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/babylonchain/guardian-attestor/types"
)

const (
	// SupportedVersion is the only envelope version this codec understands.
	SupportedVersion uint8 = 1

	// SignatureLength is the size of a recoverable secp256k1 signature
	// laid out as r || s || v.
	SignatureLength = 65

	// MaxSignatures is bounded by the one byte signature count.
	MaxSignatures = 255

	signatureRecordLength = 1 + SignatureLength

	// version + guardian set index + signature count
	headerMinLength = 1 + 4 + 1

	// timestamp + nonce + emitter chain + emitter address + sequence +
	// consistency level
	bodyMinLength = 4 + 4 + 2 + types.AddressLength + 8 + 1

	// MinEnvelopeLength is the length of an unsigned envelope with an empty
	// payload.
	MinEnvelopeLength = headerMinLength + bodyMinLength
)

// Signature is one guardian's signature over the body digest, tagged with the
// guardian's position in the referenced guardian set.
type Signature struct {
	Index uint8
	Data  [SignatureLength]byte
}

// Body is the signed part of an envelope.
type Body struct {
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     types.ChainID
	EmitterAddress   types.Address
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

// Envelope is a body together with the guardian signatures attesting to it.
type Envelope struct {
	Version          uint8
	GuardianSetIndex uint32
	Signatures       []*Signature
	Body             Body
}

// Decode parses a wire encoded envelope. It never returns a partially
// populated envelope.
func Decode(data []byte) (*Envelope, error) {
	if len(data) < MinEnvelopeLength {
		return nil, errorsmod.Wrapf(ErrTooShort, "got %d bytes, need at least %d", len(data), MinEnvelopeLength)
	}

	r := bytes.NewReader(data)
	env := &Envelope{}

	if err := binary.Read(r, binary.BigEndian, &env.Version); err != nil {
		return nil, errorsmod.Wrap(ErrTruncated, "version")
	}
	if env.Version != SupportedVersion {
		return nil, errorsmod.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", env.Version, SupportedVersion)
	}

	if err := binary.Read(r, binary.BigEndian, &env.GuardianSetIndex); err != nil {
		return nil, errorsmod.Wrap(ErrTruncated, "guardian set index")
	}

	sigCount, err := r.ReadByte()
	if err != nil {
		return nil, errorsmod.Wrap(ErrTruncated, "signature count")
	}

	need := int(sigCount)*signatureRecordLength + bodyMinLength
	if r.Len() < need {
		return nil, errorsmod.Wrapf(ErrTruncated, "%d signatures and body need %d bytes, %d left", sigCount, need, r.Len())
	}

	if sigCount > 0 {
		env.Signatures = make([]*Signature, 0, sigCount)
	}
	for i := 0; i < int(sigCount); i++ {
		sig := &Signature{}
		if sig.Index, err = r.ReadByte(); err != nil {
			return nil, errorsmod.Wrapf(ErrTruncated, "signature %d index", i)
		}
		if _, err := r.Read(sig.Data[:]); err != nil {
			return nil, errorsmod.Wrapf(ErrTruncated, "signature %d data", i)
		}
		env.Signatures = append(env.Signatures, sig)
	}

	body, err := DecodeBody(data[len(data)-r.Len():])
	if err != nil {
		return nil, err
	}
	env.Body = *body

	return env, nil
}

// DecodeBody parses a serialized body. The payload is whatever follows the
// fixed fields.
func DecodeBody(data []byte) (*Body, error) {
	if len(data) < bodyMinLength {
		return nil, errorsmod.Wrapf(ErrTruncated, "body is %d bytes, need at least %d", len(data), bodyMinLength)
	}

	b := &Body{}
	b.Timestamp = binary.BigEndian.Uint32(data[0:4])
	b.Nonce = binary.BigEndian.Uint32(data[4:8])
	b.EmitterChain = types.ChainID(binary.BigEndian.Uint16(data[8:10]))
	copy(b.EmitterAddress[:], data[10:42])
	b.Sequence = binary.BigEndian.Uint64(data[42:50])
	b.ConsistencyLevel = data[50]
	if len(data) > bodyMinLength {
		b.Payload = append([]byte(nil), data[bodyMinLength:]...)
	}

	return b, nil
}

// Encode serializes the envelope. Signatures must already be in strictly
// increasing guardian index order.
func (e *Envelope) Encode() ([]byte, error) {
	if e.Version != SupportedVersion {
		return nil, errorsmod.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", e.Version, SupportedVersion)
	}
	if len(e.Signatures) > MaxSignatures {
		return nil, errorsmod.Wrapf(ErrTooManySignatures, "%d signatures, at most %d", len(e.Signatures), MaxSignatures)
	}
	if err := CheckSignatureOrder(e.Signatures); err != nil {
		return nil, err
	}

	body := e.Body.Serialize()

	buf := new(bytes.Buffer)
	buf.Grow(headerMinLength + len(e.Signatures)*signatureRecordLength + len(body))
	buf.WriteByte(e.Version)
	mustWrite(buf, e.GuardianSetIndex)
	buf.WriteByte(uint8(len(e.Signatures)))
	for _, sig := range e.Signatures {
		buf.WriteByte(sig.Index)
		buf.Write(sig.Data[:])
	}
	buf.Write(body)

	return buf.Bytes(), nil
}

// CheckSignatureOrder returns ErrSignaturesOutOfOrder unless the guardian
// indices strictly increase.
func CheckSignatureOrder(sigs []*Signature) error {
	for i := 1; i < len(sigs); i++ {
		if sigs[i].Index <= sigs[i-1].Index {
			return errorsmod.Wrapf(ErrSignaturesOutOfOrder,
				"signature %d has guardian index %d after %d", i, sigs[i].Index, sigs[i-1].Index)
		}
	}
	return nil
}

// Serialize returns the bytes the guardians sign over.
func (b *Body) Serialize() []byte {
	buf := new(bytes.Buffer)
	buf.Grow(bodyMinLength + len(b.Payload))
	mustWrite(buf, b.Timestamp)
	mustWrite(buf, b.Nonce)
	mustWrite(buf, uint16(b.EmitterChain))
	buf.Write(b.EmitterAddress[:])
	mustWrite(buf, b.Sequence)
	buf.WriteByte(b.ConsistencyLevel)
	buf.Write(b.Payload)

	return buf.Bytes()
}

// Digest is keccak256(keccak256(body)). Guardians sign this value, never the
// header.
func (b *Body) Digest() common.Hash {
	return crypto.Keccak256Hash(crypto.Keccak256Hash(b.Serialize()).Bytes())
}

// MessageID identifies the body by its emitter and sequence.
func (b *Body) MessageID() string {
	return types.MessageID(b.EmitterChain, b.EmitterAddress, b.Sequence)
}

func (b *Body) Time() time.Time {
	return time.Unix(int64(b.Timestamp), 0)
}

// SigningDigest is the digest of the envelope's body.
func (e *Envelope) SigningDigest() common.Hash {
	return e.Body.Digest()
}

func (e *Envelope) MessageID() string {
	return e.Body.MessageID()
}

// HexDigest returns the body digest as 0x prefixed hex.
func (e *Envelope) HexDigest() string {
	return e.SigningDigest().Hex()
}

func (e *Envelope) String() string {
	return fmt.Sprintf("envelope{set=%d sigs=%d id=%s}", e.GuardianSetIndex, len(e.Signatures), e.MessageID())
}

// mustWrite writes fixed size integers into a bytes.Buffer, which cannot fail.
func mustWrite(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.BigEndian, v); err != nil {
		panic(fmt.Errorf("failed to write %T: %w", v, err))
	}
}
