package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	attestorcfg "github.com/babylonchain/guardian-attestor/attestor/config"
	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/types"
)

func TestDefaultConfig(t *testing.T) {
	home := t.TempDir()
	cfg := attestorcfg.DefaultConfigWithHome(home)
	require.NoError(t, cfg.Validate())

	decoderCfg, err := cfg.DecoderConfig()
	require.NoError(t, err)
	require.Equal(t, types.ChainIDEthereum, decoderCfg.LocalChain)
	require.Equal(t, types.ChainIDSolana, decoderCfg.GovernanceChain)
	require.Equal(t, types.Address{31: 4}, decoderCfg.GovernanceEmitter)

	genesis, err := cfg.GenesisGuardianSet()
	require.NoError(t, err)
	require.Nil(t, genesis)
}

func TestWriteAndLoadConfig(t *testing.T) {
	home := t.TempDir()

	_, err := attestorcfg.LoadConfig(home)
	require.Error(t, err)

	cfg := attestorcfg.DefaultConfigWithHome(home)
	cfg.LocalChain = "4"
	cfg.GuardianSetExpiry = 2 * time.Hour
	cfg.GenesisGuardianSetIndex = 3
	cfg.GenesisGuardianKeys = []string{
		"0x58CC3AE5C097b213cE3c81979e1B9f9570746AA5",
		"0xfF6CB952589BDE862c25Ef4392132fb9D4A42157",
	}
	cfg.TokenBridgeEmitters = []string{"solana:ec7372995d5cc8732397fb0ad35c0121e0eaa90d26f828a534cab54391b3a4f5"}
	require.NoError(t, attestorcfg.WriteConfigFile(home, &cfg))

	loaded, err := attestorcfg.LoadConfig(home)
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, loaded.GuardianSetExpiry)

	decoderCfg, err := loaded.DecoderConfig()
	require.NoError(t, err)
	require.Equal(t, types.ChainIDBSC, decoderCfg.LocalChain)

	genesis, err := loaded.GenesisGuardianSet()
	require.NoError(t, err)
	require.Equal(t, uint32(3), genesis.Index)
	require.Len(t, genesis.Keys, 2)

	emitters, err := loaded.BridgeEmitters()
	require.NoError(t, err)
	require.Len(t, emitters, 1)
	require.Equal(t, types.ChainIDSolana, emitters[0].Chain)
	require.Equal(t, payload.EmitterTokenBridge, emitters[0].Kind)
}

func TestInvalidConfig(t *testing.T) {
	home := t.TempDir()

	testCases := []struct {
		name   string
		modify func(cfg *attestorcfg.Config)
	}{
		{"bad listener", func(cfg *attestorcfg.Config) { cfg.RpcListener = "not-an-address" }},
		{"unknown chain", func(cfg *attestorcfg.Config) { cfg.LocalChain = "atlantis" }},
		{"chain overflow", func(cfg *attestorcfg.Config) { cfg.GovernanceChain = "70000" }},
		{"bad emitter", func(cfg *attestorcfg.Config) { cfg.GovernanceEmitter = "zz" }},
		{"zero expiry", func(cfg *attestorcfg.Config) { cfg.GuardianSetExpiry = 0 }},
		{"bad genesis key", func(cfg *attestorcfg.Config) { cfg.GenesisGuardianKeys = []string{"0x1234"} }},
		{"duplicate genesis key", func(cfg *attestorcfg.Config) {
			cfg.GenesisGuardianKeys = []string{
				"0x58CC3AE5C097b213cE3c81979e1B9f9570746AA5",
				"0x58CC3AE5C097b213cE3c81979e1B9f9570746AA5",
			}
		}},
		{"bridge emitter without chain", func(cfg *attestorcfg.Config) { cfg.NFTBridgeEmitters = []string{"abcd"} }},
		{"no metrics", func(cfg *attestorcfg.Config) { cfg.Metrics = nil }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := attestorcfg.DefaultConfigWithHome(home)
			tc.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
