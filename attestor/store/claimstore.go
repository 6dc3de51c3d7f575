package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/types"
)

var (
	// chain (2) || emitter (32) || sequence (8) -> consumed at (8) || digest (32)
	claimBucketName = []byte("claims")
)

const (
	emitterPrefixLength = 2 + types.AddressLength
	keyLength           = emitterPrefixLength + 8
	recordLength        = 8 + common.HashLength
)

// Key identifies an attested message for replay protection.
type Key struct {
	EmitterChain   types.ChainID `json:"emitter_chain"`
	EmitterAddress types.Address `json:"emitter_address"`
	Sequence       uint64        `json:"sequence,string"`
}

func KeyFromBody(b *envelope.Body) Key {
	return Key{EmitterChain: b.EmitterChain, EmitterAddress: b.EmitterAddress, Sequence: b.Sequence}
}

func (k Key) String() string {
	return types.MessageID(k.EmitterChain, k.EmitterAddress, k.Sequence)
}

func (k Key) bytes() []byte {
	b := make([]byte, keyLength)
	copy(b, emitterPrefix(k.EmitterChain, k.EmitterAddress))
	binary.BigEndian.PutUint64(b[emitterPrefixLength:], k.Sequence)
	return b
}

func emitterPrefix(chain types.ChainID, emitter types.Address) []byte {
	b := make([]byte, emitterPrefixLength)
	binary.BigEndian.PutUint16(b, uint16(chain))
	copy(b[2:], emitter[:])
	return b
}

func keyFromBytes(b []byte) (Key, error) {
	if len(b) != keyLength {
		return Key{}, fmt.Errorf("%w: claim key of %d bytes", ErrCorruptedClaimDb, len(b))
	}
	var k Key
	k.EmitterChain = types.ChainID(binary.BigEndian.Uint16(b))
	copy(k.EmitterAddress[:], b[2:emitterPrefixLength])
	k.Sequence = binary.BigEndian.Uint64(b[emitterPrefixLength:])
	return k, nil
}

// Claim is a consumed key together with what consumed it.
type Claim struct {
	Key        Key         `json:"key"`
	Digest     common.Hash `json:"digest"`
	ConsumedAt time.Time   `json:"consumed_at"`
}

// ClaimStore is the persisted set of consumed keys.
type ClaimStore struct {
	db  kvdb.Backend
	now func() time.Time
}

func NewClaimStore(db kvdb.Backend) (*ClaimStore, error) {
	s := &ClaimStore{db: db, now: time.Now}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *ClaimStore) initBuckets() error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(claimBucketName)
		return err
	})
}

// IsConsumed reports whether k has been marked consumed.
func (s *ClaimStore) IsConsumed(k Key) (bool, error) {
	var consumed bool
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(claimBucketName)
		if bucket == nil {
			return ErrCorruptedClaimDb
		}

		consumed = bucket.Get(k.bytes()) != nil
		return nil
	}, func() {
		consumed = false
	})

	if err != nil {
		return false, err
	}

	return consumed, nil
}

// MarkConsumed records k as consumed by the message with the given digest.
// Marking an already consumed key is a no-op; the returned bool is true only
// for the call that actually consumed it. The check and the write happen in
// one transaction.
func (s *ClaimStore) MarkConsumed(k Key, digest common.Hash) (bool, error) {
	var newlyConsumed bool
	err := kvdb.Update(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(claimBucketName)
		if bucket == nil {
			return ErrCorruptedClaimDb
		}

		key := k.bytes()
		if bucket.Get(key) != nil {
			return nil
		}

		if err := saveClaim(bucket, key, digest, s.now()); err != nil {
			return err
		}
		newlyConsumed = true
		return nil
	}, func() {
		newlyConsumed = false
	})

	if err != nil {
		return false, err
	}

	return newlyConsumed, nil
}

func saveClaim(bucket walletdb.ReadWriteBucket, key []byte, digest common.Hash, at time.Time) error {
	v := make([]byte, recordLength)
	binary.BigEndian.PutUint64(v, uint64(at.Unix()))
	copy(v[8:], digest.Bytes())
	return bucket.Put(key, v)
}

// GetClaim returns the record of a consumed key.
func (s *ClaimStore) GetClaim(k Key) (*Claim, error) {
	var c *Claim
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(claimBucketName)
		if bucket == nil {
			return ErrCorruptedClaimDb
		}

		v := bucket.Get(k.bytes())
		if v == nil {
			return ErrClaimNotFound
		}

		var err error
		c, err = decodeClaim(k, v)
		return err
	}, func() {})

	if err != nil {
		return nil, err
	}

	return c, nil
}

// ListClaims returns the consumed claims of one emitter in sequence order.
func (s *ClaimStore) ListClaims(chain types.ChainID, emitter types.Address) ([]*Claim, error) {
	prefix := emitterPrefix(chain, emitter)

	var claims []*Claim
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(claimBucketName)
		if bucket == nil {
			return ErrCorruptedClaimDb
		}

		c := bucket.ReadCursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			key, err := keyFromBytes(k)
			if err != nil {
				return err
			}
			claim, err := decodeClaim(key, v)
			if err != nil {
				return err
			}
			claims = append(claims, claim)
		}
		return nil
	}, func() {
		claims = nil
	})

	if err != nil {
		return nil, err
	}

	return claims, nil
}

func decodeClaim(k Key, v []byte) (*Claim, error) {
	if len(v) != recordLength {
		return nil, fmt.Errorf("%w: claim record of %d bytes", ErrCorruptedClaimDb, len(v))
	}
	return &Claim{
		Key:        k,
		ConsumedAt: time.Unix(int64(binary.BigEndian.Uint64(v)), 0),
		Digest:     common.BytesToHash(v[8:]),
	}, nil
}
