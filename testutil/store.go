package testutil

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/guardian-attestor/config"
)

func GenDBConfig(r *rand.Rand, t *testing.T) *config.DBConfig {
	bucketName := GenRandomHexStr(r, 10) + "-bbolt.db"
	dbcfg := config.DefaultDBConfig()
	dbcfg.DBPath = filepath.Join(t.TempDir(), "data")
	dbcfg.DBFileName = bucketName
	dbcfg.DBTimeout = 5 * time.Second
	return &dbcfg
}

// OpenTestDB opens a fresh bolt backend that is closed when the test ends.
func OpenTestDB(r *rand.Rand, t *testing.T) kvdb.Backend {
	db, err := GenDBConfig(r, t).GetDbBackend()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}
