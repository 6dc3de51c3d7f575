package daemon

import (
	"fmt"
	"net"
	"path/filepath"

	"github.com/juju/fslock"
	"github.com/lightningnetwork/lnd/signal"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/attestor/service"
	"github.com/babylonchain/guardian-attestor/log"
	"github.com/babylonchain/guardian-attestor/metrics"
)

const lockFileName = "attestd.lock"

var StartCommand = cli.Command{
	Name:        "start",
	Usage:       "Start the Guardian Attestation Daemon.",
	Description: "Start the Guardian Attestation Daemon.",
	Flags: []cli.Flag{
		homeCliFlag("The path to the attestd home directory"),
		cli.StringFlag{
			Name:  rpcListenerFlag,
			Usage: "The address that the RPC server listens to",
		},
	},
	Action: startFn,
}

func startFn(ctx *cli.Context) error {
	homePath, err := getHomeFlag(ctx)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return fmt.Errorf("failed to load config at %s: %w", homePath, err)
	}

	rpcListener := ctx.String(rpcListenerFlag)
	if rpcListener != "" {
		_, err := net.ResolveTCPAddr("tcp", rpcListener)
		if err != nil {
			return fmt.Errorf("invalid RPC listener address %s, %w", rpcListener, err)
		}
		cfg.RpcListener = rpcListener
	}

	// only one daemon may install guardian sets into a home
	lock := fslock.New(filepath.Join(homePath, lockFileName))
	if err := lock.TryLock(); err != nil {
		return fmt.Errorf("failed to lock home %s, is another attestd running? %w", homePath, err)
	}
	defer lock.Unlock()

	var logger *zap.Logger
	if cfg.LogFormat == "auto" {
		logger, err = log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogLevel)
	} else {
		logger, err = log.NewFileLogger(config.LogFile(homePath), cfg.LogFormat, cfg.LogLevel)
	}
	if err != nil {
		return fmt.Errorf("failed to load the logger: %w", err)
	}

	dbBackend, err := openDB(cfg)
	if err != nil {
		return err
	}

	m := metrics.NewAttestorMetrics()
	a, err := service.NewAttestorFromConfig(cfg, dbBackend, nil, logger, m)
	if err != nil {
		dbBackend.Close()
		return fmt.Errorf("failed to create attestor: %w", err)
	}

	// Hook interceptor for os signals.
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		dbBackend.Close()
		return err
	}

	attestorServer := service.NewAttestorServer(cfg, logger, a, m, dbBackend, shutdownInterceptor)

	return attestorServer.RunUntilShutdown()
}
