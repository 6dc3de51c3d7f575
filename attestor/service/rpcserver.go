package service

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/babylonchain/guardian-attestor/attestor"
	"github.com/babylonchain/guardian-attestor/attestor/rpc"
	"github.com/babylonchain/guardian-attestor/attestor/store"
)

// rpcServer is the main RPC server for the attestor daemon that handles
// gRPC incoming requests.
type rpcServer struct {
	started  int32
	shutdown int32

	attestor *attestor.Attestor
	logger   *zap.Logger

	quit chan struct{}
	wg   sync.WaitGroup
}

func newRPCServer(a *attestor.Attestor, logger *zap.Logger) *rpcServer {
	return &rpcServer{
		quit:     make(chan struct{}),
		attestor: a,
		logger:   logger,
	}
}

// Start signals that the RPC server starts accepting requests.
func (r *rpcServer) Start() error {
	if atomic.AddInt32(&r.started, 1) != 1 {
		return nil
	}

	return nil
}

// Stop signals that the RPC server should attempt a graceful shutdown and
// cancel any outstanding requests.
func (r *rpcServer) Stop() error {
	if atomic.AddInt32(&r.shutdown, 1) != 1 {
		return nil
	}

	close(r.quit)

	r.wg.Wait()

	return nil
}

// RegisterWithGrpcServer registers the rpcServer with the passed root gRPC
// server.
func (r *rpcServer) RegisterWithGrpcServer(grpcServer *grpc.Server) error {
	rpc.RegisterAttestorServer(grpcServer, r)
	return nil
}

// statusInterceptor converts registered errors into status errors.
func (r *rpcServer) statusInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	r.wg.Add(1)
	defer r.wg.Done()

	resp, err := handler(ctx, req)
	if err != nil {
		r.logger.Debug("rpc failed", zap.String("method", info.FullMethod), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return resp, nil
}

// VerifyAttestation verifies an envelope without consuming it
func (r *rpcServer) VerifyAttestation(_ context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	res, err := r.attestor.Verify(req.GetValue())
	if err != nil {
		return nil, err
	}

	return rpc.ToStruct(res)
}

// SubmitAttestation verifies an envelope and executes it at most once
func (r *rpcServer) SubmitAttestation(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	res, err := r.attestor.Submit(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}

	return rpc.ToStruct(res)
}

func (r *rpcServer) GetCurrentGuardianSet(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return rpc.ToStruct(r.attestor.Registry().Current())
}

func (r *rpcServer) GetGuardianSet(_ context.Context, req *wrapperspb.UInt32Value) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "missing guardian set index")
	}

	gs, err := r.attestor.Registry().Get(req.GetValue())
	if err != nil {
		return nil, err
	}

	return rpc.ToStruct(gs)
}

func (r *rpcServer) IsConsumed(_ context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	var key store.Key
	if err := rpc.FromStruct(req, &key); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid claim key: %v", err)
	}

	consumed, err := r.attestor.IsConsumed(key)
	if err != nil {
		return nil, err
	}

	return wrapperspb.Bool(consumed), nil
}
