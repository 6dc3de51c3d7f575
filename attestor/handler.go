package attestor

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/attestor/store"
	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/types"
)

// ActionHandler turns a verified, not yet consumed action into a state
// change. Returning an error leaves the claim unconsumed so the same
// attestation can be submitted again.
type ActionHandler interface {
	HandleAction(ctx context.Context, body *envelope.Body, action payload.Action) error
}

// ClaimTracker records which attestations have been executed.
type ClaimTracker interface {
	IsConsumed(k store.Key) (bool, error)
	MarkConsumed(k store.Key, digest common.Hash) (bool, error)
}

// ClaimLister is implemented by claim trackers that can enumerate the
// claims of an emitter.
type ClaimLister interface {
	ListClaims(chain types.ChainID, emitter types.Address) ([]*store.Claim, error)
}

// EmitterSaver persists bridge emitters registered through governance.
type EmitterSaver interface {
	SaveEmitter(e *store.Emitter) error
}

// LogHandler only logs the actions it receives.
type LogHandler struct {
	logger *zap.Logger
}

func NewLogHandler(logger *zap.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) HandleAction(_ context.Context, body *envelope.Body, action payload.Action) error {
	h.logger.Info("received attested action",
		zap.String("message_id", body.MessageID()),
		zap.String("kind", action.Kind()),
		zap.Uint8("consistency_level", body.ConsistencyLevel),
	)
	return nil
}
