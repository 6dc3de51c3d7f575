package service

import (
	"fmt"

	"github.com/lightningnetwork/lnd/kvdb"
	"go.uber.org/zap"

	"github.com/babylonchain/guardian-attestor/attestor"
	"github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/attestor/store"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/metrics"
	"github.com/babylonchain/guardian-attestor/payload"
)

// NewAttestorFromConfig restores the attestor state kept in db: the guardian
// sets, consumed claims and bridge emitters registered through governance.
// Configured bridge emitters are registered on top. handler may be nil.
func NewAttestorFromConfig(
	cfg *config.Config,
	db kvdb.Backend,
	handler attestor.ActionHandler,
	logger *zap.Logger,
	m *metrics.AttestorMetrics,
) (*attestor.Attestor, error) {
	genesis, err := cfg.GenesisGuardianSet()
	if err != nil {
		return nil, fmt.Errorf("invalid genesis guardian set: %w", err)
	}

	setStore, err := guardianset.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate guardian set store: %w", err)
	}
	registry, err := guardianset.LoadRegistry(setStore, genesis, cfg.GuardianSetExpiry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load guardian sets: %w", err)
	}

	claims, err := store.NewClaimStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate claim store: %w", err)
	}
	emitters, err := store.NewEmitterStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate emitter store: %w", err)
	}

	decoderCfg, err := cfg.DecoderConfig()
	if err != nil {
		return nil, err
	}
	decoder := payload.NewDecoder(decoderCfg)

	a := attestor.New(registry, decoder, claims, emitters, handler, logger, m)

	configured, err := cfg.BridgeEmitters()
	if err != nil {
		return nil, err
	}
	persisted, err := emitters.ListEmitters()
	if err != nil {
		return nil, fmt.Errorf("failed to load bridge emitters: %w", err)
	}
	a.LoadEmitters(configured)
	a.LoadEmitters(persisted)

	current := registry.Current()
	logger.Info("attestor state loaded",
		zap.Uint32("guardian_set_index", current.Index),
		zap.Int("num_guardians", len(current.Keys)),
		zap.Int("num_bridge_emitters", len(configured)+len(persisted)),
	)

	return a, nil
}
