package testutil

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/rand"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/types"
)

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	newHeaderBytes := make([]byte, length)
	r.Read(newHeaderBytes)
	return newHeaderBytes
}

func GenRandomHexStr(r *rand.Rand, length uint64) string {
	randBytes := GenRandomByteArray(r, length)
	return hex.EncodeToString(randBytes)
}

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}

func GenRandomAddress(r *rand.Rand) types.Address {
	var a types.Address
	r.Read(a[:])
	return a
}

// GenGuardianKey derives a secp256k1 guardian key from r.
func GenGuardianKey(r *rand.Rand, t *testing.T) *ecdsa.PrivateKey {
	for {
		priv := secp256k1.PrivKeyFromBytes(GenRandomByteArray(r, 32))
		if priv.Key.IsZero() {
			continue
		}
		key, err := crypto.ToECDSA(priv.Serialize())
		require.NoError(t, err)
		return key
	}
}

// GenGuardianKeys returns n guardian keys and their addresses in the same
// order.
func GenGuardianKeys(r *rand.Rand, t *testing.T, n int) ([]*ecdsa.PrivateKey, []common.Address) {
	keys := make([]*ecdsa.PrivateKey, n)
	addrs := make([]common.Address, n)
	for i := 0; i < n; i++ {
		keys[i] = GenGuardianKey(r, t)
		addrs[i] = crypto.PubkeyToAddress(keys[i].PublicKey)
	}
	return keys, addrs
}

// GenGuardianSet returns a current guardian set of n random guardians along
// with their signing keys.
func GenGuardianSet(r *rand.Rand, t *testing.T, index uint32, n int) (*guardianset.GuardianSet, []*ecdsa.PrivateKey) {
	keys, addrs := GenGuardianKeys(r, t, n)
	return &guardianset.GuardianSet{
		Index:        index,
		Keys:         addrs,
		CreationTime: uint64(time.Now().Unix()),
	}, keys
}

// GenRandomBody returns a body with a non-empty random payload.
func GenRandomBody(r *rand.Rand) envelope.Body {
	return GenRandomBodyWithPayload(r, GenRandomByteArray(r, uint64(r.Intn(200)+1)))
}

func GenRandomBodyWithPayload(r *rand.Rand, payload []byte) envelope.Body {
	return envelope.Body{
		Timestamp:        r.Uint32(),
		Nonce:            r.Uint32(),
		EmitterChain:     types.ChainID(r.Intn(65535) + 1),
		EmitterAddress:   GenRandomAddress(r),
		Sequence:         r.Uint64(),
		ConsistencyLevel: uint8(r.Intn(256)),
		Payload:          payload,
	}
}

// SignEnvelope creates an envelope over body signed by the guardians at the
// given indices.
func SignEnvelope(t *testing.T, setIndex uint32, body envelope.Body, keys []*ecdsa.PrivateKey, indices []int) *envelope.Envelope {
	env := envelope.New(setIndex, body)
	for _, i := range indices {
		require.NoError(t, env.AddSignature(keys[i], uint8(i)))
	}
	return env
}

// FirstN returns the indices 0..n-1.
func FirstN(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// RandomSubset returns k distinct indices below n in ascending order.
func RandomSubset(r *rand.Rand, n, k int) []int {
	perm := r.Perm(n)[:k]
	picked := make([]bool, n)
	for _, i := range perm {
		picked[i] = true
	}
	out := make([]int, 0, k)
	for i, ok := range picked {
		if ok {
			out = append(out, i)
		}
	}
	return out
}
