package client

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/babylonchain/guardian-attestor/attestor/rpc"
	"github.com/babylonchain/guardian-attestor/attestor/store"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/verifier"
)

// Variables used for retries
var (
	RtyAttNum = uint(5)
	RtyAtt    = retry.Attempts(RtyAttNum)
	RtyDel    = retry.Delay(time.Millisecond * 400)
	RtyErr    = retry.LastErrorOnly(true)
)

type AttestorGRpcClient struct {
	client *rpc.AttestorClient
	logger *zap.Logger
}

// NewAttestorGRpcClient creates a new GRPC connection with the attestor daemon.
func NewAttestorGRpcClient(remoteAddr string, logger *zap.Logger) (client *AttestorGRpcClient, cleanUp func(), err error) {
	conn, err := grpc.NewClient(remoteAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build gRPC connection to %s: %w", remoteAddr, err)
	}

	cleanUp = func() {
		conn.Close()
	}

	return &AttestorGRpcClient{
		client: rpc.NewAttestorClient(conn),
		logger: logger,
	}, cleanUp, nil
}

// IsRetriable reports whether a failed call may succeed later: the daemon
// was unreachable or did not know the guardian set yet.
func IsRetriable(err error) bool {
	if verifier.IsRetriable(err) {
		return true
	}
	return status.Code(err) == codes.Unavailable
}

func (c *AttestorGRpcClient) VerifyAttestation(ctx context.Context, data []byte) (*rpc.Attestation, error) {
	return c.attestationWithRetry(ctx, "verify", func() (*structpb.Struct, error) {
		return c.client.VerifyAttestation(ctx, wrapperspb.Bytes(data))
	})
}

// SubmitAttestation submits an envelope for execution. Submitting is
// idempotent so it is retried like verification.
func (c *AttestorGRpcClient) SubmitAttestation(ctx context.Context, data []byte) (*rpc.Attestation, error) {
	return c.attestationWithRetry(ctx, "submit", func() (*structpb.Struct, error) {
		return c.client.SubmitAttestation(ctx, wrapperspb.Bytes(data))
	})
}

func (c *AttestorGRpcClient) attestationWithRetry(ctx context.Context, op string, call func() (*structpb.Struct, error)) (*rpc.Attestation, error) {
	var res *structpb.Struct
	if err := retry.Do(func() error {
		r, err := call()
		if err != nil {
			return rpc.FromStatus(err)
		}
		res = r
		return nil
	}, RtyAtt, RtyDel, RtyErr, retry.Context(ctx), retry.RetryIf(IsRetriable), retry.OnRetry(func(n uint, err error) {
		c.logger.Debug(
			"failed to "+op+" attestation",
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", RtyAttNum),
			zap.Error(err),
		)
	})); err != nil {
		return nil, err
	}

	var att rpc.Attestation
	if err := rpc.FromStruct(res, &att); err != nil {
		return nil, fmt.Errorf("invalid attestation response: %w", err)
	}

	return &att, nil
}

// GetGuardianSet returns the set at index, or the current set if index is
// nil.
func (c *AttestorGRpcClient) GetGuardianSet(ctx context.Context, index *uint32) (*guardianset.GuardianSet, error) {
	var (
		res *structpb.Struct
		err error
	)
	if index == nil {
		res, err = c.client.GetCurrentGuardianSet(ctx, &emptypb.Empty{})
	} else {
		res, err = c.client.GetGuardianSet(ctx, wrapperspb.UInt32(*index))
	}
	if err != nil {
		return nil, rpc.FromStatus(err)
	}

	var gs guardianset.GuardianSet
	if err := rpc.FromStruct(res, &gs); err != nil {
		return nil, fmt.Errorf("invalid guardian set response: %w", err)
	}

	return &gs, nil
}

func (c *AttestorGRpcClient) IsConsumed(ctx context.Context, key store.Key) (bool, error) {
	req, err := rpc.ToStruct(key)
	if err != nil {
		return false, err
	}

	res, err := c.client.IsConsumed(ctx, req)
	if err != nil {
		return false, rpc.FromStatus(err)
	}

	return res.GetValue(), nil
}
