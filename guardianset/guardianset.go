package guardianset

import (
	"fmt"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
)

// MaxGuardians is bounded by the one byte guardian index of a signature.
const MaxGuardians = 255

// GuardianSet is one version of the guardian roster. Position in Keys is the
// guardian index signatures refer to.
//
// A set returned by a Registry is shared between readers and must not be
// modified.
type GuardianSet struct {
	Index uint32           `json:"index"`
	Keys  []common.Address `json:"keys"`

	// CreationTime and ExpirationTime are unix seconds. ExpirationTime is
	// zero while the set is the current one.
	CreationTime   uint64 `json:"creation_time"`
	ExpirationTime uint64 `json:"expiration_time"`
}

// Quorum returns the number of signatures needed from a set of numGuardians
// keys: floor(2n/3) + 1.
func Quorum(numGuardians int) int {
	return numGuardians*2/3 + 1
}

// Quorum returns the signatures needed to reach quorum in this set.
func (gs *GuardianSet) Quorum() int {
	return Quorum(len(gs.Keys))
}

// IsCurrent reports whether the set has not been superseded.
func (gs *GuardianSet) IsCurrent() bool {
	return gs.ExpirationTime == 0
}

// IsExpired reports whether a superseded set's grace window has passed at now.
// A set is still usable during the second it expires.
func (gs *GuardianSet) IsExpired(now time.Time) bool {
	if gs.IsCurrent() {
		return false
	}
	return now.Unix() > int64(gs.ExpirationTime)
}

// KeyIndex returns the guardian index of addr, if it belongs to the set.
func (gs *GuardianSet) KeyIndex(addr common.Address) (int, bool) {
	for i, k := range gs.Keys {
		if k == addr {
			return i, true
		}
	}
	return -1, false
}

// Validate checks the key list can be addressed by signatures and holds no
// duplicates.
func (gs *GuardianSet) Validate() error {
	if len(gs.Keys) == 0 {
		return errorsmod.Wrapf(ErrEmptyGuardianSet, "set %d", gs.Index)
	}
	if len(gs.Keys) > MaxGuardians {
		return errorsmod.Wrapf(ErrTooManyGuardians, "set %d has %d keys, at most %d", gs.Index, len(gs.Keys), MaxGuardians)
	}

	seen := make(map[common.Address]int, len(gs.Keys))
	for i, k := range gs.Keys {
		if k == (common.Address{}) {
			return errorsmod.Wrapf(ErrZeroGuardian, "set %d, guardian %d", gs.Index, i)
		}
		if prev, ok := seen[k]; ok {
			return errorsmod.Wrapf(ErrDuplicateGuardian, "set %d, %s at guardian %d and %d", gs.Index, k.Hex(), prev, i)
		}
		seen[k] = i
	}

	return nil
}

func (gs *GuardianSet) Copy() *GuardianSet {
	cp := *gs
	cp.Keys = append([]common.Address(nil), gs.Keys...)
	return &cp
}

// KeysHex returns the keys as 0x prefixed hex strings.
func (gs *GuardianSet) KeysHex() []string {
	out := make([]string, len(gs.Keys))
	for i, k := range gs.Keys {
		out[i] = k.Hex()
	}
	return out
}

func (gs *GuardianSet) String() string {
	return fmt.Sprintf("guardian set %d [%s] expires=%d", gs.Index, strings.Join(gs.KeysHex(), ","), gs.ExpirationTime)
}

// ParseKeys parses hex encoded guardian addresses.
func ParseKeys(hexKeys []string) ([]common.Address, error) {
	keys := make([]common.Address, 0, len(hexKeys))
	for _, h := range hexKeys {
		h = strings.TrimSpace(h)
		if !common.IsHexAddress(h) {
			return nil, fmt.Errorf("invalid guardian address %q", h)
		}
		keys = append(keys, common.HexToAddress(h))
	}
	return keys, nil
}
