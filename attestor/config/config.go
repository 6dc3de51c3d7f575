package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"

	"github.com/babylonchain/guardian-attestor/attestor/store"
	dbcfg "github.com/babylonchain/guardian-attestor/config"
	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/metrics"
	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/types"
	"github.com/babylonchain/guardian-attestor/util"
)

const (
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
	defaultLogDirname        = "logs"
	defaultLogFilename       = "attestd.log"
	defaultConfigFileName    = "attestd.conf"
	defaultKeyDirname        = "keys"
	DefaultRPCPort           = 12590
	defaultLocalChain        = "ethereum"
	defaultGovernanceChain   = "solana"
	defaultGuardianSetExpiry = 24 * time.Hour
)

var (
	//   C:\Users\<username>\AppData\Local\ on Windows
	//   ~/.attestd on Linux
	//   ~/Users/<username>/Library/Application Support/Attestd on MacOS
	DefaultAttestdDir = btcutil.AppDataDir("attestd", false)

	DefaultRpcListener = "127.0.0.1:" + strconv.Itoa(DefaultRPCPort)

	defaultGovernanceEmitter = types.Address{31: 4}.String()
)

// Config is the main config for the attestd cli command
type Config struct {
	LogLevel  string `long:"loglevel" description:"Logging level for all subsystems" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal"`
	LogFormat string `long:"logformat" description:"Log encoding" choice:"auto" choice:"console" choice:"json" choice:"logfmt"`

	RpcListener string `long:"rpclistener" description:"the listener for RPC connections, e.g., 127.0.0.1:1234"`

	LocalChain        string `long:"localchain" description:"Name or numeric id of the chain this attestor executes governance for"`
	GovernanceChain   string `long:"governancechain" description:"Name or numeric id of the chain of the governance emitter"`
	GovernanceEmitter string `long:"governanceemitter" description:"Hex address of the governance emitter"`

	GuardianSetExpiry time.Duration `long:"guardiansetexpiry" description:"How long a superseded guardian set keeps verifying attestations"`

	GenesisGuardianSetIndex uint32   `long:"genesisguardiansetindex" description:"Index of the genesis guardian set"`
	GenesisGuardianKeys     []string `long:"genesisguardiankey" description:"Hex address of a genesis guardian, in guardian index order; only used when the database is empty"`

	TokenBridgeEmitters []string `long:"tokenbridgeemitter" description:"A token bridge emitter as <chain>:<hex address>"`
	NFTBridgeEmitters   []string `long:"nftbridgeemitter" description:"An NFT bridge emitter as <chain>:<hex address>"`

	DatabaseConfig *dbcfg.DBConfig `group:"dbconfig" namespace:"dbconfig"`

	Metrics *metrics.Config `group:"metrics" namespace:"metrics"`
}

func DefaultConfigWithHome(homePath string) Config {
	cfg := Config{
		LogLevel:          defaultLogLevel,
		LogFormat:         defaultLogFormat,
		RpcListener:       DefaultRpcListener,
		LocalChain:        defaultLocalChain,
		GovernanceChain:   defaultGovernanceChain,
		GovernanceEmitter: defaultGovernanceEmitter,
		GuardianSetExpiry: defaultGuardianSetExpiry,
		DatabaseConfig:    dbcfg.DefaultDBConfigWithHomePath(homePath),
		Metrics:           metrics.DefaultAttestorConfig(),
	}

	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return cfg
}

func DefaultConfig() Config {
	return DefaultConfigWithHome(DefaultAttestdDir)
}

func ConfigFile(homePath string) string {
	return filepath.Join(homePath, defaultConfigFileName)
}

func LogDir(homePath string) string {
	return filepath.Join(homePath, defaultLogDirname)
}

func LogFile(homePath string) string {
	return filepath.Join(LogDir(homePath), defaultLogFilename)
}

func KeyDir(homePath string) string {
	return filepath.Join(homePath, defaultKeyDirname)
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Load configuration file overwriting defaults with any specified options
//  3. Validate the result
func LoadConfig(homePath string) (*Config, error) {
	cfgFile := ConfigFile(homePath)
	if !util.FileExists(cfgFile) {
		return nil, fmt.Errorf("specified config file does "+
			"not exist in %s", cfgFile)
	}

	cfg := DefaultConfigWithHome(homePath)
	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WriteConfigFile writes cfg to the config file under homePath.
func WriteConfigFile(homePath string, cfg *Config) error {
	fileParser := flags.NewParser(cfg, flags.Default)
	return flags.NewIniParser(fileParser).WriteFile(ConfigFile(homePath), flags.IniIncludeComments|flags.IniIncludeDefaults)
}

// Validate checks the given configuration to be sane. This makes sure no
// illegal values or combination of values are set.
func (cfg *Config) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", cfg.RpcListener); err != nil {
		return fmt.Errorf("invalid RPC listener address %s, %w", cfg.RpcListener, err)
	}

	if _, err := cfg.DecoderConfig(); err != nil {
		return err
	}

	if cfg.GuardianSetExpiry <= 0 {
		return fmt.Errorf("guardian set expiry must be positive, got %v", cfg.GuardianSetExpiry)
	}

	if _, err := cfg.GenesisGuardianSet(); err != nil {
		return fmt.Errorf("invalid genesis guardian set: %w", err)
	}

	if _, err := cfg.BridgeEmitters(); err != nil {
		return err
	}

	if cfg.DatabaseConfig == nil {
		return fmt.Errorf("empty database config")
	}
	if err := cfg.DatabaseConfig.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	if cfg.Metrics == nil {
		return fmt.Errorf("empty metrics config")
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}

// DecoderConfig returns the chain settings of the payload decoder.
func (cfg *Config) DecoderConfig() (payload.Config, error) {
	local, err := types.ChainIDFromString(cfg.LocalChain)
	if err != nil {
		return payload.Config{}, fmt.Errorf("invalid local chain: %w", err)
	}
	govChain, err := types.ChainIDFromString(cfg.GovernanceChain)
	if err != nil {
		return payload.Config{}, fmt.Errorf("invalid governance chain: %w", err)
	}
	govEmitter, err := types.StringToAddress(cfg.GovernanceEmitter)
	if err != nil {
		return payload.Config{}, fmt.Errorf("invalid governance emitter: %w", err)
	}

	return payload.Config{
		LocalChain:        local,
		GovernanceChain:   govChain,
		GovernanceEmitter: govEmitter,
	}, nil
}

// GenesisGuardianSet returns the configured genesis set, or nil if no
// genesis keys are configured.
func (cfg *Config) GenesisGuardianSet() (*guardianset.GuardianSet, error) {
	if len(cfg.GenesisGuardianKeys) == 0 {
		return nil, nil
	}

	keys, err := guardianset.ParseKeys(cfg.GenesisGuardianKeys)
	if err != nil {
		return nil, err
	}

	gs := &guardianset.GuardianSet{Index: cfg.GenesisGuardianSetIndex, Keys: keys}
	if err := gs.Validate(); err != nil {
		return nil, err
	}

	return gs, nil
}

// BridgeEmitters returns the statically configured bridge emitters.
func (cfg *Config) BridgeEmitters() ([]*store.Emitter, error) {
	var emitters []*store.Emitter
	for _, group := range []struct {
		kind    payload.EmitterKind
		entries []string
	}{
		{payload.EmitterTokenBridge, cfg.TokenBridgeEmitters},
		{payload.EmitterNFTBridge, cfg.NFTBridgeEmitters},
	} {
		for _, entry := range group.entries {
			e, err := parseEmitter(entry, group.kind)
			if err != nil {
				return nil, err
			}
			emitters = append(emitters, e)
		}
	}

	return emitters, nil
}

func parseEmitter(entry string, kind payload.EmitterKind) (*store.Emitter, error) {
	chainStr, addrStr, ok := strings.Cut(entry, ":")
	if !ok {
		return nil, fmt.Errorf("invalid %s emitter %q: expected <chain>:<address>", kind, entry)
	}
	chain, err := types.ChainIDFromString(chainStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s emitter %q: %w", kind, entry, err)
	}
	addr, err := types.StringToAddress(addrStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s emitter %q: %w", kind, entry, err)
	}

	return &store.Emitter{Chain: chain, Address: addr, Kind: kind}, nil
}
