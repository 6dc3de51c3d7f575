package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/urfave/cli"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/attestor"
	"github.com/babylonchain/guardian-attestor/attestor/client"
	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/attestor/service"
	"github.com/babylonchain/guardian-attestor/log"
	"github.com/babylonchain/guardian-attestor/util"
)

// offline commands give up quickly if a running daemon holds the database
const offlineDBTimeout = time.Second

func getHomeFlag(ctx *cli.Context) (string, error) {
	homePath, err := filepath.Abs(ctx.String(homeFlag))
	if err != nil {
		return "", err
	}
	return util.CleanAndExpandPath(homePath), nil
}

func printRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Printf("%s\n", jsonBytes)
}

func openDB(cfg *config.Config) (kvdb.Backend, error) {
	db, err := cfg.DatabaseConfig.GetDbBackend()
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("cannot obtain database lock at %s, database may be in use by another process",
				cfg.DatabaseConfig.DBPath)
		}
		return nil, fmt.Errorf("failed to create db backend: %w", err)
	}
	return db, nil
}

// offlineAttestor opens the local database of the attestd home for
// commands that run without the daemon. The returned cleanup closes it.
func offlineAttestor(ctx *cli.Context) (*attestor.Attestor, func(), error) {
	homePath, err := getHomeFlag(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load home flag: %w", err)
	}

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config at %s: %w", homePath, err)
	}
	cfg.DatabaseConfig.DBTimeout = offlineDBTimeout

	logger, err := log.NewFileLogger(config.LogFile(homePath), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load the logger: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := service.NewAttestorFromConfig(cfg, db, nil, logger, nil)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return a, func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}, nil
}

// daemonClient connects to a running attestd when --daemon-address is set.
func daemonClient(ctx *cli.Context) (*client.AttestorGRpcClient, func(), error) {
	addr := ctx.String(daemonAddrFlag)
	if addr == "" {
		return nil, nil, nil
	}

	return client.NewAttestorGRpcClient(addr, zap.NewNop())
}

func homeCliFlag(usage string) cli.StringFlag {
	return cli.StringFlag{
		Name:  homeFlag,
		Usage: usage,
		Value: config.DefaultAttestdDir,
	}
}

var daemonAddrCliFlag = cli.StringFlag{
	Name:  daemonAddrFlag,
	Usage: "Query a running attestd at this address instead of the local database",
}
