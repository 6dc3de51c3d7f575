package guardianset

import (
	"encoding/binary"
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lightningnetwork/lnd/kvdb"
)

var (
	guardianSetBucketName = []byte("guardianSets")

	// ErrCorruptedGuardianSetDb For some reason, db on disk representation have changed
	ErrCorruptedGuardianSetDb = errors.New("guardian set db is corrupted")
)

// encoded set: index (4) | creation (8) | expiration (8) | n (1) | n * key (20)
const storedSetHeaderLength = 4 + 8 + 8 + 1

// Store persists every guardian set ever installed, keyed by index.
type Store struct {
	db kvdb.Backend
}

func NewStore(db kvdb.Backend) (*Store, error) {
	s := &Store{db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) initBuckets() error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(guardianSetBucketName)
		return err
	})
}

// SaveTransition records the superseded set, with its expiration now set,
// and the newly installed set in one transaction. superseded is nil when the
// genesis set is written.
func (s *Store) SaveTransition(superseded, installed *GuardianSet) error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(guardianSetBucketName)
		if bucket == nil {
			return ErrCorruptedGuardianSetDb
		}

		if superseded != nil {
			if err := saveGuardianSet(bucket, superseded); err != nil {
				return err
			}
		}

		return saveGuardianSet(bucket, installed)
	})
}

func saveGuardianSet(bucket walletdb.ReadWriteBucket, gs *GuardianSet) error {
	return bucket.Put(indexKey(gs.Index), encodeGuardianSet(gs))
}

// GetGuardianSet returns the stored set with the given index.
func (s *Store) GetGuardianSet(index uint32) (*GuardianSet, error) {
	var gs *GuardianSet
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(guardianSetBucketName)
		if bucket == nil {
			return ErrCorruptedGuardianSetDb
		}

		v := bucket.Get(indexKey(index))
		if v == nil {
			return errorsmod.Wrapf(ErrGuardianSetNotFound, "index %d", index)
		}

		var err error
		gs, err = decodeGuardianSet(v)
		return err
	}, func() {})

	if err != nil {
		return nil, err
	}

	return gs, nil
}

// ListGuardianSets returns all stored sets in ascending index order.
func (s *Store) ListGuardianSets() ([]*GuardianSet, error) {
	var sets []*GuardianSet
	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(guardianSetBucketName)
		if bucket == nil {
			return ErrCorruptedGuardianSetDb
		}

		return bucket.ForEach(func(k, v []byte) error {
			gs, err := decodeGuardianSet(v)
			if err != nil {
				return err
			}
			if binary.BigEndian.Uint32(k) != gs.Index {
				return fmt.Errorf("%w: set stored under index %x claims index %d",
					ErrCorruptedGuardianSetDb, k, gs.Index)
			}
			sets = append(sets, gs)
			return nil
		})
	}, func() {
		sets = nil
	})

	if err != nil {
		return nil, err
	}

	return sets, nil
}

func indexKey(index uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, index)
	return key
}

func encodeGuardianSet(gs *GuardianSet) []byte {
	buf := make([]byte, storedSetHeaderLength, storedSetHeaderLength+len(gs.Keys)*common.AddressLength)
	binary.BigEndian.PutUint32(buf[0:4], gs.Index)
	binary.BigEndian.PutUint64(buf[4:12], gs.CreationTime)
	binary.BigEndian.PutUint64(buf[12:20], gs.ExpirationTime)
	buf[20] = uint8(len(gs.Keys))
	for _, k := range gs.Keys {
		buf = append(buf, k.Bytes()...)
	}
	return buf
}

func decodeGuardianSet(v []byte) (*GuardianSet, error) {
	if len(v) < storedSetHeaderLength {
		return nil, ErrCorruptedGuardianSetDb
	}

	n := int(v[20])
	if len(v) != storedSetHeaderLength+n*common.AddressLength {
		return nil, ErrCorruptedGuardianSetDb
	}

	gs := &GuardianSet{
		Index:          binary.BigEndian.Uint32(v[0:4]),
		CreationTime:   binary.BigEndian.Uint64(v[4:12]),
		ExpirationTime: binary.BigEndian.Uint64(v[12:20]),
		Keys:           make([]common.Address, n),
	}
	for i := 0; i < n; i++ {
		off := storedSetHeaderLength + i*common.AddressLength
		gs.Keys[i] = common.BytesToAddress(v[off : off+common.AddressLength])
	}

	return gs, nil
}
