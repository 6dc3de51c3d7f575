package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/lightningnetwork/lnd/signal"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/babylonchain/guardian-attestor/attestor"
	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/metrics"
)

// Server is the main daemon construct for the attestor. It owns the
// database and runs the RPC and metrics servers on top of it.
type Server struct {
	started *atomic.Bool

	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.AttestorMetrics
	attestor *attestor.Attestor

	rpcServer   *rpcServer
	db          kvdb.Backend
	interceptor signal.Interceptor

	quit chan struct{}
}

// NewAttestorServer creates a new server with the given config.
func NewAttestorServer(cfg *config.Config, l *zap.Logger, a *attestor.Attestor, m *metrics.AttestorMetrics, db kvdb.Backend, sig signal.Interceptor) *Server {
	return &Server{
		started:     atomic.NewBool(false),
		cfg:         cfg,
		logger:      l,
		metrics:     m,
		attestor:    a,
		rpcServer:   newRPCServer(a, l),
		db:          db,
		interceptor: sig,
		quit:        make(chan struct{}, 1),
	}
}

// RunUntilShutdown serves RPCs until the interceptor fires, Stop is called
// or the gRPC server fails. The database is closed on return.
func (s *Server) RunUntilShutdown() error {
	if s.started.Swap(true) {
		return nil
	}

	promAddr, err := s.cfg.Metrics.Address()
	if err != nil {
		return fmt.Errorf("failed to get prometheus address: %w", err)
	}
	var refresh func()
	if s.metrics != nil {
		refresh = s.metrics.UpdateClaimAges
	}
	metricsServer := metrics.Start(promAddr, s.cfg.Metrics.UpdateInterval, refresh, s.logger)

	defer func() {
		metricsServer.Stop(context.Background())
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", zap.Error(err))
		}
		s.logger.Info("Shutdown complete")
	}()

	lis, err := net.Listen("tcp", s.cfg.RpcListener)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.RpcListener, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(s.rpcServer.statusInterceptor))
	if err := s.rpcServer.RegisterWithGrpcServer(grpcServer); err != nil {
		lis.Close()
		return fmt.Errorf("failed to register gRPC server: %w", err)
	}
	if err := s.rpcServer.Start(); err != nil {
		lis.Close()
		return err
	}
	defer func() {
		_ = s.rpcServer.Stop()
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(lis)
	}()
	// in-flight submissions finish before the database is closed
	defer grpcServer.GracefulStop()

	current := s.attestor.Registry().Current()
	s.logger.Info("Attestor Daemon is fully active!",
		zap.String("rpc_address", lis.Addr().String()),
		zap.String("metrics_address", promAddr),
		zap.Uint32("guardian_set_index", current.Index),
	)

	select {
	case <-s.interceptor.ShutdownChannel():
		s.logger.Info("received shutdown signal")
	case <-s.quit:
	case err := <-serveErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
	}

	return nil
}

// Stop asks RunUntilShutdown to return.
func (s *Server) Stop() {
	select {
	case s.quit <- struct{}{}:
	default:
	}
}
