package guardianset_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/testutil"
)

func TestQuorum(t *testing.T) {
	expected := map[int]int{
		1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 6: 5, 7: 5, 10: 7, 13: 9, 19: 13, 20: 14, 255: 171,
	}
	for n, q := range expected {
		require.Equal(t, q, guardianset.Quorum(n), "n=%d", n)
	}
	for n := 1; n <= guardianset.MaxGuardians; n++ {
		require.Equal(t, (2*n)/3+1, guardianset.Quorum(n))
	}
}

func TestGuardianSetExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	gs := &guardianset.GuardianSet{Index: 1, Keys: []common.Address{{1}}}
	require.True(t, gs.IsCurrent())
	require.False(t, gs.IsExpired(now.Add(1000*time.Hour)))

	gs.ExpirationTime = uint64(now.Unix())
	require.False(t, gs.IsCurrent())
	require.False(t, gs.IsExpired(now))
	require.True(t, gs.IsExpired(now.Add(time.Second)))
}

func TestValidate(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	gs, _ := testutil.GenGuardianSet(r, t, 0, 5)
	require.NoError(t, gs.Validate())

	dup := gs.Copy()
	dup.Keys[3] = dup.Keys[1]
	require.ErrorIs(t, dup.Validate(), guardianset.ErrDuplicateGuardian)

	zero := gs.Copy()
	zero.Keys[2] = common.Address{}
	require.ErrorIs(t, zero.Validate(), guardianset.ErrZeroGuardian)

	require.ErrorIs(t, (&guardianset.GuardianSet{}).Validate(), guardianset.ErrEmptyGuardianSet)

	tooMany := &guardianset.GuardianSet{Keys: make([]common.Address, guardianset.MaxGuardians+1)}
	require.ErrorIs(t, tooMany.Validate(), guardianset.ErrTooManyGuardians)

	idx, ok := gs.KeyIndex(gs.Keys[4])
	require.True(t, ok)
	require.Equal(t, 4, idx)
}

func TestParseKeys(t *testing.T) {
	keys, err := guardianset.ParseKeys([]string{
		"0x58CC3AE5C097b213cE3c81979e1B9f9570746AA5",
		" 0xff6cb952589bde862c25ef4392132fb9d4a42157 ",
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.Equal(t, common.HexToAddress("0x58CC3AE5C097b213cE3c81979e1B9f9570746AA5"), keys[0])

	_, err = guardianset.ParseKeys([]string{"0x1234"})
	require.Error(t, err)
}
