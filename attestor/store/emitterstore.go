package store

import (
	"encoding/binary"
	"fmt"

	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/types"
)

var (
	// chain (2) || emitter (32) -> emitter kind (1)
	emitterBucketName = []byte("emitters")
)

// Emitter is a bridge emitter registered through governance.
type Emitter struct {
	Chain   types.ChainID       `json:"chain"`
	Address types.Address       `json:"address"`
	Kind    payload.EmitterKind `json:"kind"`
}

// EmitterStore persists bridge emitter registrations so that they survive
// restarts.
type EmitterStore struct {
	db kvdb.Backend
}

func NewEmitterStore(db kvdb.Backend) (*EmitterStore, error) {
	s := &EmitterStore{db: db}
	err := kvdb.Batch(db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(emitterBucketName)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// SaveEmitter records a registration, replacing an earlier one for the same
// chain and address.
func (s *EmitterStore) SaveEmitter(e *Emitter) error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(emitterBucketName)
		if bucket == nil {
			return ErrCorruptedClaimDb
		}

		return bucket.Put(emitterPrefix(e.Chain, e.Address), []byte{uint8(e.Kind)})
	})
}

func (s *EmitterStore) ListEmitters() ([]*Emitter, error) {
	var emitters []*Emitter
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(emitterBucketName)
		if bucket == nil {
			return ErrCorruptedClaimDb
		}

		return bucket.ForEach(func(k, v []byte) error {
			if len(k) != emitterPrefixLength || len(v) != 1 {
				return fmt.Errorf("%w: emitter entry of %d/%d bytes", ErrCorruptedClaimDb, len(k), len(v))
			}
			e := &Emitter{
				Chain: types.ChainID(binary.BigEndian.Uint16(k)),
				Kind:  payload.EmitterKind(v[0]),
			}
			copy(e.Address[:], k[2:])
			emitters = append(emitters, e)
			return nil
		})
	}, func() {
		emitters = nil
	})

	if err != nil {
		return nil, err
	}

	return emitters, nil
}
