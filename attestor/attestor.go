package attestor

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/attestor/store"
	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/metrics"
	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/types"
	"github.com/babylonchain/guardian-attestor/verifier"
)

const numKeyLocks = 256

// Result describes a processed attestation.
type Result struct {
	MessageID        string         `json:"message_id"`
	Digest           string         `json:"digest"`
	GuardianSetIndex uint32         `json:"guardian_set_index"`
	NumSignatures    int            `json:"num_signatures"`
	Body             *envelope.Body `json:"-"`

	Timestamp        uint32        `json:"timestamp"`
	Nonce            uint32        `json:"nonce"`
	EmitterChain     types.ChainID `json:"emitter_chain"`
	EmitterAddress   types.Address `json:"emitter_address"`
	Sequence         uint64        `json:"sequence,string"`
	ConsistencyLevel uint8         `json:"consistency_level"`
	Payload          hexutil.Bytes `json:"payload"`

	Kind       string         `json:"kind"`
	Action     payload.Action `json:"action"`
	Governance bool           `json:"governance"`
	// Consumed reports whether the claim was consumed before this call.
	Consumed bool `json:"consumed"`
	// Executed is set by Submit when this call executed the action.
	Executed bool `json:"executed"`
}

// Attestor runs attestations through decoding, quorum verification, payload
// decoding and, on submission, at-most-once execution.
type Attestor struct {
	registry *guardianset.Registry
	verifier *verifier.Verifier
	decoder  *payload.Decoder
	claims   ClaimTracker
	emitters EmitterSaver
	handler  ActionHandler

	keyLocks [numKeyLocks]sync.Mutex

	logger  *zap.Logger
	metrics *metrics.AttestorMetrics
	now     func() time.Time
}

// New wires the pipeline. emitters may be nil, in which case emitter
// registrations only live in memory. A nil handler logs actions.
func New(
	registry *guardianset.Registry,
	decoder *payload.Decoder,
	claims ClaimTracker,
	emitters EmitterSaver,
	handler ActionHandler,
	logger *zap.Logger,
	m *metrics.AttestorMetrics,
) *Attestor {
	if handler == nil {
		handler = NewLogHandler(logger)
	}

	a := &Attestor{
		registry: registry,
		verifier: verifier.New(registry, logger, m),
		decoder:  decoder,
		claims:   claims,
		emitters: emitters,
		handler:  handler,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}

	if m != nil {
		current := registry.Current()
		m.RecordGuardianSet(current.Index, len(current.Keys))
		registry.OnInstall(func(gs *guardianset.GuardianSet) {
			m.RecordGuardianSet(gs.Index, len(gs.Keys))
			m.IncrementGuardianSetInstalls()
		})
	}

	return a
}

// WithClock replaces the time source used for expiry checks and guardian
// set installs. It must be called before the attestor is used.
func (a *Attestor) WithClock(now func() time.Time) {
	a.now = now
	a.verifier = a.verifier.WithClock(now)
}

// Verify decodes and verifies data and decodes its payload. It does not
// consume the claim or execute anything.
func (a *Attestor) Verify(data []byte) (*Result, error) {
	env, body, err := a.verifier.VerifyBytes(data)
	if err != nil {
		return nil, err
	}

	res, err := a.decode(env, body)
	if err != nil {
		return nil, err
	}

	consumed, err := a.claims.IsConsumed(store.KeyFromBody(body))
	if err != nil {
		return nil, errorsmod.Wrap(ErrClaimTracking, err.Error())
	}
	res.Consumed = consumed

	return res, nil
}

// Submit verifies data and executes its action unless the claim has already
// been consumed. A replay is not an error: the result has Consumed set and
// Executed unset.
func (a *Attestor) Submit(ctx context.Context, data []byte) (*Result, error) {
	env, body, err := a.verifier.VerifyBytes(data)
	if err != nil {
		return nil, err
	}

	res, err := a.decode(env, body)
	if err != nil {
		return nil, err
	}

	key := store.KeyFromBody(body)
	mu := a.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	consumed, err := a.claims.IsConsumed(key)
	if err != nil {
		return nil, errorsmod.Wrap(ErrClaimTracking, err.Error())
	}
	if consumed {
		res.Consumed = true
		if a.metrics != nil {
			a.metrics.IncrementReplaysRejected(body.EmitterChain.String())
		}
		a.logger.Info("ignoring already consumed attestation",
			zap.String("message_id", res.MessageID),
			zap.String("digest", res.Digest),
		)
		return res, nil
	}

	if res.Governance {
		current := a.registry.Current()
		if env.GuardianSetIndex != current.Index && !upgradeApplied(current, env.GuardianSetIndex, res.Action) {
			return nil, errorsmod.Wrapf(ErrGovernanceNotCurrentSet,
				"signed by set %d, current set is %d", env.GuardianSetIndex, current.Index)
		}
	}

	if err := a.execute(ctx, env.GuardianSetIndex, body, res.Action); err != nil {
		a.logger.Error("failed to execute attested action",
			zap.String("message_id", res.MessageID),
			zap.String("kind", res.Kind),
			zap.Error(err),
		)
		return nil, err
	}

	newly, err := a.claims.MarkConsumed(key, body.Digest())
	if err != nil {
		return nil, errorsmod.Wrap(ErrClaimTracking, err.Error())
	}
	if !newly {
		// only reachable if another process shares the claim store
		a.logger.Warn("claim was consumed concurrently", zap.String("message_id", res.MessageID))
	}

	if a.metrics != nil {
		a.metrics.RecordClaimConsumed(body.EmitterChain.String())
	}

	res.Executed = true
	a.logger.Info("executed attestation",
		zap.String("message_id", res.MessageID),
		zap.String("digest", res.Digest),
		zap.String("kind", res.Kind),
		zap.Uint32("guardian_set_index", res.GuardianSetIndex),
	)

	return res, nil
}

func (a *Attestor) decode(env *envelope.Envelope, body *envelope.Body) (*Result, error) {
	action, err := a.decoder.Decode(body)
	if err != nil {
		a.logger.Warn("failed to decode verified payload",
			zap.String("message_id", body.MessageID()),
			zap.Error(err),
		)
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.IncrementDecodedPayloads(action.Kind())
	}

	return &Result{
		MessageID:        body.MessageID(),
		Digest:           env.HexDigest(),
		GuardianSetIndex: env.GuardianSetIndex,
		NumSignatures:    len(env.Signatures),
		Body:             body,
		Timestamp:        body.Timestamp,
		Nonce:            body.Nonce,
		EmitterChain:     body.EmitterChain,
		EmitterAddress:   body.EmitterAddress,
		Sequence:         body.Sequence,
		ConsistencyLevel: body.ConsistencyLevel,
		Payload:          body.Payload,
		Kind:             action.Kind(),
		Action:           action,
		Governance:       a.decoder.IsGovernanceEmitter(body),
	}, nil
}

func (a *Attestor) execute(ctx context.Context, signedBy uint32, body *envelope.Body, action payload.Action) error {
	switch act := action.(type) {
	case *payload.GuardianSetUpgrade:
		if upgradeApplied(a.registry.Current(), signedBy, act) {
			// installed by an earlier submission that did not get to
			// consume its claim
			a.logger.Info("guardian set upgrade already applied",
				zap.Uint32("guardian_set_index", act.NewIndex),
			)
			break
		}
		if err := a.registry.Install(act.GuardianSet(), a.now()); err != nil {
			return err
		}

	case *payload.RegisterChain:
		kind, ok := payload.EmitterKindForModule(act.Module)
		if !ok {
			break
		}
		if a.emitters != nil {
			err := a.emitters.SaveEmitter(&store.Emitter{Chain: act.EmitterChain, Address: act.EmitterAddress, Kind: kind})
			if err != nil {
				return errorsmod.Wrap(ErrActionFailed, err.Error())
			}
		}
		a.decoder.RegisterEmitter(act.EmitterChain, act.EmitterAddress, kind)
		a.logger.Info("registered bridge emitter",
			zap.Stringer("kind", kind),
			zap.Stringer("chain", act.EmitterChain),
			zap.Stringer("address", act.EmitterAddress),
		)
	}

	if err := a.handler.HandleAction(ctx, body, action); err != nil {
		return errorsmod.Wrap(ErrActionFailed, err.Error())
	}

	return nil
}

// upgradeApplied reports whether action is the upgrade that made current
// the current set, signed by the set it superseded.
func upgradeApplied(current *guardianset.GuardianSet, signedBy uint32, action payload.Action) bool {
	act, ok := action.(*payload.GuardianSetUpgrade)
	if !ok || current.Index == 0 {
		return false
	}
	return act.NewIndex == current.Index && signedBy == current.Index-1 && sameKeys(current.Keys, act.Keys)
}

func sameKeys(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *Attestor) lockFor(k store.Key) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k.String()))
	return &a.keyLocks[h.Sum32()%numKeyLocks]
}

// IsConsumed reports whether the claim of the given key has been consumed.
func (a *Attestor) IsConsumed(k store.Key) (bool, error) {
	consumed, err := a.claims.IsConsumed(k)
	if err != nil {
		return false, errorsmod.Wrap(ErrClaimTracking, err.Error())
	}
	return consumed, nil
}

// ListClaims returns the consumed claims of an emitter ordered by sequence.
func (a *Attestor) ListClaims(chain types.ChainID, emitter types.Address) ([]*store.Claim, error) {
	l, ok := a.claims.(ClaimLister)
	if !ok {
		return nil, ErrClaimTracking.Wrap("claim tracker cannot list claims")
	}
	claims, err := l.ListClaims(chain, emitter)
	if err != nil {
		return nil, errorsmod.Wrap(ErrClaimTracking, err.Error())
	}
	return claims, nil
}

// Registry exposes the guardian set registry backing the attestor.
func (a *Attestor) Registry() *guardianset.Registry {
	return a.registry
}

// LoadEmitters registers previously persisted bridge emitters with the
// decoder.
func (a *Attestor) LoadEmitters(emitters []*store.Emitter) {
	for _, e := range emitters {
		a.decoder.RegisterEmitter(e.Chain, e.Address, e.Kind)
	}
}
