package envelope_test

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/testutil"
	"github.com/babylonchain/guardian-attestor/types"
)

func FuzzEncodeDecodeRoundTrip(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		n := r.Intn(30) + 1
		keys, _ := testutil.GenGuardianKeys(r, t, n)
		body := testutil.GenRandomBody(r)
		env := testutil.SignEnvelope(t, r.Uint32(), body, keys, testutil.RandomSubset(r, n, r.Intn(n)+1))

		bz, err := env.Encode()
		require.NoError(t, err)

		decoded, err := envelope.Decode(bz)
		require.NoError(t, err)
		require.Equal(t, env, decoded)
		require.Equal(t, env.SigningDigest(), decoded.SigningDigest())

		reencoded, err := decoded.Encode()
		require.NoError(t, err)
		require.Equal(t, bz, reencoded)

		// no signatures and no payload
		bare := envelope.New(r.Uint32(), testutil.GenRandomBodyWithPayload(r, nil))
		bz, err = bare.Encode()
		require.NoError(t, err)
		require.Len(t, bz, envelope.MinEnvelopeLength)

		decoded, err = envelope.Decode(bz)
		require.NoError(t, err)
		require.Equal(t, bare, decoded)
		require.Nil(t, decoded.Signatures)
		require.Nil(t, decoded.Body.Payload)
	})
}

func TestDecodeKnownEnvelope(t *testing.T) {
	// unsigned envelope, guardian set 2, emitter chain 2, sequence 5, payload 0xdeadbeef
	raw := "01" + "00000002" + "00" +
		"0000000a" + "00000001" + "0002" +
		"0000000000000000000000000290fb167208af455bb137780163b7b7a9a10c16" +
		"0000000000000005" + "0f" + "deadbeef"
	bz, err := hex.DecodeString(raw)
	require.NoError(t, err)

	env, err := envelope.Decode(bz)
	require.NoError(t, err)
	require.Equal(t, envelope.SupportedVersion, env.Version)
	require.Equal(t, uint32(2), env.GuardianSetIndex)
	require.Empty(t, env.Signatures)
	require.Equal(t, uint32(10), env.Body.Timestamp)
	require.Equal(t, uint32(1), env.Body.Nonce)
	require.Equal(t, types.ChainIDEthereum, env.Body.EmitterChain)
	require.Equal(t, "0000000000000000000000000290fb167208af455bb137780163b7b7a9a10c16", env.Body.EmitterAddress.String())
	require.Equal(t, uint64(5), env.Body.Sequence)
	require.Equal(t, uint8(15), env.Body.ConsistencyLevel)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, env.Body.Payload)

	expected := crypto.Keccak256Hash(crypto.Keccak256(bz[6:]))
	require.Equal(t, expected, env.SigningDigest())
	require.Equal(t, "2/0000000000000000000000000290fb167208af455bb137780163b7b7a9a10c16/5", env.MessageID())
}

func TestDecodeMalformed(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	keys, _ := testutil.GenGuardianKeys(r, t, 3)
	env := testutil.SignEnvelope(t, 0, testutil.GenRandomBody(r), keys, []int{0, 1, 2})
	bz, err := env.Encode()
	require.NoError(t, err)

	_, err = envelope.Decode(nil)
	require.ErrorIs(t, err, envelope.ErrTooShort)
	require.True(t, envelope.IsDecodeError(err))

	_, err = envelope.Decode(bz[:envelope.MinEnvelopeLength-1])
	require.ErrorIs(t, err, envelope.ErrTooShort)

	// cut inside the signatures and inside the body's fixed fields
	for _, cut := range []int{envelope.MinEnvelopeLength, 6 + 66*2, 6 + 66*3 + 50} {
		_, err = envelope.Decode(bz[:cut])
		require.ErrorIs(t, err, envelope.ErrTruncated, "cut at %d", cut)
		require.True(t, envelope.IsDecodeError(err))
	}

	wrongVersion := append([]byte{}, bz...)
	wrongVersion[0] = 2
	_, err = envelope.Decode(wrongVersion)
	require.ErrorIs(t, err, envelope.ErrUnsupportedVersion)

	// a signature count larger than what follows
	tooManySigs := append([]byte{}, bz...)
	tooManySigs[5] = 200
	_, err = envelope.Decode(tooManySigs)
	require.ErrorIs(t, err, envelope.ErrTruncated)
}

func TestEncodeRejectsUnorderedSignatures(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	keys, _ := testutil.GenGuardianKeys(r, t, 3)
	env := testutil.SignEnvelope(t, 0, testutil.GenRandomBody(r), keys, []int{0, 1, 2})

	env.Signatures[0], env.Signatures[1] = env.Signatures[1], env.Signatures[0]
	_, err := env.Encode()
	require.ErrorIs(t, err, envelope.ErrSignaturesOutOfOrder)

	env.Signatures[0] = env.Signatures[1]
	_, err = env.Encode()
	require.ErrorIs(t, err, envelope.ErrSignaturesOutOfOrder)

	env.Version = 0
	_, err = env.Encode()
	require.ErrorIs(t, err, envelope.ErrUnsupportedVersion)
}

func TestAddSignatureKeepsOrder(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	keys, _ := testutil.GenGuardianKeys(r, t, 6)
	env := envelope.New(1, testutil.GenRandomBody(r))

	for _, i := range []int{4, 1, 5, 0} {
		require.NoError(t, env.AddSignature(keys[i], uint8(i)))
	}
	got := make([]uint8, 0, len(env.Signatures))
	for _, s := range env.Signatures {
		got = append(got, s.Index)
	}
	require.Equal(t, []uint8{0, 1, 4, 5}, got)
	require.NoError(t, envelope.CheckSignatureOrder(env.Signatures))

	require.ErrorIs(t, env.AddSignature(keys[4], 4), envelope.ErrSignaturesOutOfOrder)
}

func TestMessageSigningDigest(t *testing.T) {
	data := []byte("peer registration")
	_, err := envelope.MessageSigningDigest([]byte("short"), data)
	require.ErrorIs(t, err, envelope.ErrInvalidPrefix)

	prefix := []byte("guardian_peer_registration|00000")
	require.Len(t, prefix, envelope.MinMessagePrefixLength)
	digest, err := envelope.MessageSigningDigest(prefix, data)
	require.NoError(t, err)
	require.Equal(t, crypto.Keccak256Hash(append(append([]byte{}, prefix...), data...)), digest)
}
