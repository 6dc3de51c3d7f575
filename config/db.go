package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
)

const (
	defaultDataDirname       = "data"
	DefaultDBFileName        = "attestor.db"
	defaultNoFreelistSync    = true
	defaultAutoCompact       = false
	defaultAutoCompactMinAge = kvdb.DefaultBoltAutoCompactMinAge
	defaultDBTimeout         = kvdb.DefaultDBTimeout
)

// DBConfig selects the bolt file backing the guardian set and claim buckets.
type DBConfig struct {
	// DBPath is the directory path in which the database file should be
	// stored.
	DBPath string `long:"dbpath" description:"The directory path in which the database file should be stored."`

	// DBFileName is the name of the database file.
	DBFileName string `long:"dbfilename" description:"The name of the database file."`

	// NoFreelistSync, if true, prevents the database from syncing its
	// freelist to disk, resulting in improved performance at the expense of
	// increased startup time.
	NoFreelistSync bool `long:"nofreelistsync" description:"Prevents the database from syncing its freelist to disk, resulting in improved performance at the expense of increased startup time."`

	// AutoCompact specifies if a Bolt based database backend should be
	// automatically compacted on startup (if the minimum age of the database
	// file is reached).
	AutoCompact bool `long:"autocompact" description:"Specifies if a Bolt based database backend should be automatically compacted on startup (if the minimum age of the database file is reached). This will require additional disk space for the compacted copy of the database but will result in an overall lower database size after the compaction."`

	// AutoCompactMinAge specifies the minimum time that must have passed
	// since a bolt database file was last compacted for the compaction to be
	// considered again.
	AutoCompactMinAge time.Duration `long:"autocompactminage" description:"Specifies the minimum time that must have passed since a bolt database file was last compacted for the compaction to be considered again."`

	// DBTimeout specifies the timeout value to use when opening the database.
	DBTimeout time.Duration `long:"dbtimeout" description:"Specifies the timeout value to use when opening the database."`
}

func DefaultDBConfig() DBConfig {
	return DBConfig{
		DBFileName:        DefaultDBFileName,
		NoFreelistSync:    defaultNoFreelistSync,
		AutoCompact:       defaultAutoCompact,
		AutoCompactMinAge: defaultAutoCompactMinAge,
		DBTimeout:         defaultDBTimeout,
	}
}

func DefaultDBConfigWithHomePath(homePath string) *DBConfig {
	cfg := DefaultDBConfig()
	cfg.DBPath = filepath.Join(homePath, defaultDataDirname)
	return &cfg
}

func (cfg *DBConfig) Validate() error {
	if cfg.DBPath == "" {
		return fmt.Errorf("DB path cannot be empty")
	}

	if cfg.DBFileName == "" {
		return fmt.Errorf("DB file name cannot be empty")
	}

	if cfg.DBTimeout <= 0 {
		return fmt.Errorf("DB timeout must be positive")
	}

	return nil
}

// GetDbBackend opens (creating if necessary) the bolt database described by
// the config.
func (cfg *DBConfig) GetDbBackend() (kvdb.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return kvdb.GetBoltBackend(&kvdb.BoltBackendConfig{
		DBPath:            cfg.DBPath,
		DBFileName:        cfg.DBFileName,
		NoFreelistSync:    cfg.NoFreelistSync,
		AutoCompact:       cfg.AutoCompact,
		AutoCompactMinAge: cfg.AutoCompactMinAge,
		DBTimeout:         cfg.DBTimeout,
	})
}
