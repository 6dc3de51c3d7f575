package service

import (
	"context"
	"crypto/ecdsa"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/babylonchain/guardian-attestor/attestor/client"
	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/attestor/store"
	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/testutil"
	"github.com/babylonchain/guardian-attestor/verifier"
)

type testDaemon struct {
	client *client.AttestorGRpcClient
	keys   []*ecdsa.PrivateKey
	calls  *atomic.Int32
}

func startTestDaemon(r *rand.Rand, t *testing.T) *testDaemon {
	genesis, keys := testutil.GenGuardianSet(r, t, 0, 5)

	cfg := config.DefaultConfigWithHome(t.TempDir())
	cfg.GenesisGuardianKeys = genesis.KeysHex()
	require.NoError(t, cfg.Validate())

	logger := zap.NewNop()
	a, err := NewAttestorFromConfig(&cfg, testutil.OpenTestDB(r, t), nil, logger, nil)
	require.NoError(t, err)

	rs := newRPCServer(a, logger)
	calls := atomic.NewInt32(0)
	counting := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		calls.Inc()
		return handler(ctx, req)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(counting, rs.statusInterceptor))
	require.NoError(t, rs.RegisterWithGrpcServer(grpcServer))
	require.NoError(t, rs.Start())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = grpcServer.Serve(lis)
	}()

	c, cleanUp, err := client.NewAttestorGRpcClient(lis.Addr().String(), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		cleanUp()
		grpcServer.Stop()
		require.NoError(t, rs.Stop())
	})

	return &testDaemon{client: c, keys: keys, calls: calls}
}

func (d *testDaemon) sign(t *testing.T, setIndex uint32, body envelope.Body) []byte {
	env := testutil.SignEnvelope(t, setIndex, body, d.keys, testutil.FirstN(guardianset.Quorum(len(d.keys))))
	data, err := env.Encode()
	require.NoError(t, err)
	return data
}

func TestVerifyAndSubmitOverRPC(t *testing.T) {
	r := rand.New(rand.NewSource(20))
	d := startTestDaemon(r, t)
	ctx := context.Background()

	body := testutil.GenRandomBody(r)
	data := d.sign(t, 0, body)
	key := store.KeyFromBody(&body)

	res, err := d.client.VerifyAttestation(ctx, data)
	require.NoError(t, err)
	require.Equal(t, body.MessageID(), res.MessageID)
	require.Equal(t, body.Sequence, res.Sequence)
	require.Equal(t, body.EmitterAddress, res.EmitterAddress)
	require.Equal(t, []byte(body.Payload), []byte(res.Payload))
	require.Equal(t, "generic", res.Kind)
	require.False(t, res.Consumed)

	consumed, err := d.client.IsConsumed(ctx, key)
	require.NoError(t, err)
	require.False(t, consumed)

	res, err = d.client.SubmitAttestation(ctx, data)
	require.NoError(t, err)
	require.True(t, res.Executed)

	consumed, err = d.client.IsConsumed(ctx, key)
	require.NoError(t, err)
	require.True(t, consumed)

	res, err = d.client.SubmitAttestation(ctx, data)
	require.NoError(t, err)
	require.False(t, res.Executed)
	require.True(t, res.Consumed)
}

func TestGuardianSetOverRPC(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	d := startTestDaemon(r, t)
	ctx := context.Background()

	current, err := d.client.GetGuardianSet(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(0), current.Index)
	require.Len(t, current.Keys, len(d.keys))
	require.True(t, current.IsCurrent())

	zero := uint32(0)
	gs, err := d.client.GetGuardianSet(ctx, &zero)
	require.NoError(t, err)
	require.Equal(t, current.Keys, gs.Keys)

	missing := uint32(3)
	_, err = d.client.GetGuardianSet(ctx, &missing)
	require.ErrorIs(t, err, guardianset.ErrGuardianSetNotFound)
}

func TestRetryPolicyOverRPC(t *testing.T) {
	r := rand.New(rand.NewSource(22))
	d := startTestDaemon(r, t)
	ctx := context.Background()

	defaultDelay := client.RtyDel
	client.RtyDel = retry.Delay(time.Millisecond)
	t.Cleanup(func() { client.RtyDel = defaultDelay })

	// malformed input is terminal
	_, err := d.client.VerifyAttestation(ctx, []byte{1, 2, 3})
	require.ErrorIs(t, err, envelope.ErrTooShort)
	require.Equal(t, int32(1), d.calls.Load())

	// an unknown set may be installed later, so the client retries
	d.calls.Store(0)
	_, err = d.client.VerifyAttestation(ctx, d.sign(t, 1, testutil.GenRandomBody(r)))
	require.ErrorIs(t, err, verifier.ErrUnknownGuardianSet)
	require.Equal(t, int32(client.RtyAttNum), d.calls.Load())

	// quorum failures are terminal too
	d.calls.Store(0)
	env := testutil.SignEnvelope(t, 0, testutil.GenRandomBody(r), d.keys, testutil.FirstN(1))
	data, err := env.Encode()
	require.NoError(t, err)
	_, err = d.client.SubmitAttestation(ctx, data)
	require.ErrorIs(t, err, verifier.ErrQuorumNotMet)
	require.Equal(t, int32(1), d.calls.Load())
}
