package payload

import (
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/types"
)

// Action is a decoded payload. The set of variants is open: new ones are
// added by registering decoders, not by changing dispatch.
type Action interface {
	Kind() string
}

// GenericMessage is the payload of an emitter with no registered decoder.
// The consumer interprets it.
type GenericMessage struct {
	Payload []byte `json:"payload"`
}

func (m *GenericMessage) Kind() string {
	return "generic"
}

// UnrecognizedAction is returned for a well formed payload whose module,
// action or payload id has no decoder. It is not an error so that newer
// actions can still be routed and logged.
type UnrecognizedAction struct {
	Module  string `json:"module"`
	Action  uint8  `json:"action"`
	Payload []byte `json:"payload"`
}

func (a *UnrecognizedAction) Kind() string {
	return "unrecognized"
}

// EmitterKind says which message family an emitter publishes.
type EmitterKind uint8

const (
	EmitterTokenBridge EmitterKind = iota + 1
	EmitterNFTBridge
)

func (k EmitterKind) String() string {
	switch k {
	case EmitterTokenBridge:
		return "token_bridge"
	case EmitterNFTBridge:
		return "nft_bridge"
	default:
		return fmt.Sprintf("emitter_kind_%d", uint8(k))
	}
}

// EmitterKindForModule maps a bridge governance module onto the kind of
// messages its registered emitters publish.
func EmitterKindForModule(m Module) (EmitterKind, bool) {
	switch m {
	case TokenBridgeModule:
		return EmitterTokenBridge, true
	case NFTBridgeModule:
		return EmitterNFTBridge, true
	default:
		return 0, false
	}
}

type GovernanceDecodeFunc func(h GovernanceHeader, data []byte) (Action, error)

type MessageDecodeFunc func(data []byte) (Action, error)

type governanceKey struct {
	module Module
	action uint8
}

type messageKey struct {
	kind      EmitterKind
	payloadID uint8
}

type emitterKey struct {
	chain   types.ChainID
	address types.Address
}

// Config tells the decoder which chain it runs on and which emitter is
// allowed to publish governance actions.
type Config struct {
	LocalChain        types.ChainID
	GovernanceChain   types.ChainID
	GovernanceEmitter types.Address
}

// Decoder dispatches a verified body to the decoder registered for its
// emitter and leading discriminant bytes.
type Decoder struct {
	cfg Config

	governance map[governanceKey]GovernanceDecodeFunc
	messages   map[messageKey]MessageDecodeFunc

	mu       sync.RWMutex
	emitters map[emitterKey]EmitterKind
}

// NewDecoder returns a decoder with every built-in action registered.
func NewDecoder(cfg Config) *Decoder {
	d := &Decoder{
		cfg:        cfg,
		governance: make(map[governanceKey]GovernanceDecodeFunc),
		messages:   make(map[messageKey]MessageDecodeFunc),
		emitters:   make(map[emitterKey]EmitterKind),
	}

	builtins := []struct {
		module Module
		action uint8
		fn     GovernanceDecodeFunc
	}{
		{CoreModule, ActionContractUpgrade, decodeContractUpgrade},
		{CoreModule, ActionGuardianSetUpgrade, decodeGuardianSetUpgrade},
		{CoreModule, ActionSetMessageFee, decodeSetMessageFee},
		{CoreModule, ActionTransferFees, decodeTransferFees},
		{CoreModule, ActionRecoverChainID, decodeRecoverChainID},
		{TokenBridgeModule, ActionRegisterChain, decodeRegisterChain},
		{TokenBridgeModule, ActionUpgradeBridgeContract, decodeContractUpgrade},
		{TokenBridgeModule, ActionRecoverBridgeChainID, decodeRecoverChainID},
		{NFTBridgeModule, ActionRegisterChain, decodeRegisterChain},
		{NFTBridgeModule, ActionUpgradeBridgeContract, decodeContractUpgrade},
	}
	for _, b := range builtins {
		d.governance[governanceKey{b.module, b.action}] = b.fn
	}

	d.messages[messageKey{EmitterTokenBridge, PayloadIDTransfer}] = decodeTokenTransfer
	d.messages[messageKey{EmitterTokenBridge, PayloadIDAssetMeta}] = decodeAssetMeta
	d.messages[messageKey{EmitterTokenBridge, PayloadIDTransferWithPayload}] = decodeTokenTransferWithPayload
	d.messages[messageKey{EmitterNFTBridge, PayloadIDNFTTransfer}] = decodeNFTTransfer

	return d
}

func (d *Decoder) Config() Config {
	return d.cfg
}

// RegisterGovernance adds a decoder for a governance action. It must be
// called before the decoder is shared.
func (d *Decoder) RegisterGovernance(module Module, action uint8, fn GovernanceDecodeFunc) error {
	key := governanceKey{module, action}
	if _, ok := d.governance[key]; ok {
		return errorsmod.Wrapf(ErrDuplicateDecoder, "module %s action %d", module, action)
	}
	d.governance[key] = fn
	return nil
}

// RegisterMessage adds a decoder for a bridge payload id. It must be called
// before the decoder is shared.
func (d *Decoder) RegisterMessage(kind EmitterKind, payloadID uint8, fn MessageDecodeFunc) error {
	key := messageKey{kind, payloadID}
	if _, ok := d.messages[key]; ok {
		return errorsmod.Wrapf(ErrDuplicateDecoder, "%s payload %d", kind, payloadID)
	}
	d.messages[key] = fn
	return nil
}

// RegisterEmitter marks (chain, address) as publishing kind messages. It is
// safe to call concurrently with Decode.
func (d *Decoder) RegisterEmitter(chain types.ChainID, address types.Address, kind EmitterKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emitters[emitterKey{chain, address}] = kind
}

func (d *Decoder) EmitterKind(chain types.ChainID, address types.Address) (EmitterKind, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	kind, ok := d.emitters[emitterKey{chain, address}]
	return kind, ok
}

// IsGovernanceEmitter reports whether the body was published by the
// governance emitter.
func (d *Decoder) IsGovernanceEmitter(body *envelope.Body) bool {
	return body.EmitterChain == d.cfg.GovernanceChain && body.EmitterAddress == d.cfg.GovernanceEmitter
}

// Decode interprets the payload of a body that has already passed quorum
// verification.
func (d *Decoder) Decode(body *envelope.Body) (Action, error) {
	if d.IsGovernanceEmitter(body) {
		return d.DecodeGovernance(body.Payload)
	}

	if kind, ok := d.EmitterKind(body.EmitterChain, body.EmitterAddress); ok {
		return d.DecodeMessage(kind, body.Payload)
	}

	return &GenericMessage{Payload: body.Payload}, nil
}

// ParseGovernanceHeader reads the shared governance prefix.
func ParseGovernanceHeader(data []byte) (GovernanceHeader, []byte, error) {
	r := newReader(data)
	h := GovernanceHeader{
		Module:      Module(r.bytes32("module")),
		Action:      r.u8("action"),
		TargetChain: r.chain("target chain"),
	}
	if r.err != nil {
		return GovernanceHeader{}, nil, r.err
	}
	return h, data[GovernanceHeaderLength:], nil
}

// DecodeGovernance decodes a governance payload. Actions addressed to
// another chain are rejected whether or not they are recognized.
func (d *Decoder) DecodeGovernance(data []byte) (Action, error) {
	h, rest, err := ParseGovernanceHeader(data)
	if err != nil {
		return nil, err
	}

	if h.TargetChain != types.ChainIDUnset && h.TargetChain != d.cfg.LocalChain {
		return nil, errorsmod.Wrapf(ErrWrongTargetChain, "%s action %d targets chain %d, local chain is %d",
			h.Module, h.Action, h.TargetChain, d.cfg.LocalChain)
	}

	fn, ok := d.governance[governanceKey{h.Module, h.Action}]
	if !ok {
		return &UnrecognizedAction{Module: h.Module.String(), Action: h.Action, Payload: data}, nil
	}

	action, err := fn(h, rest)
	if err != nil {
		return nil, errorsmod.Wrapf(err, "%s action %d", h.Module, h.Action)
	}
	return action, nil
}

// DecodeMessage decodes a bridge payload by its leading payload id.
func (d *Decoder) DecodeMessage(kind EmitterKind, data []byte) (Action, error) {
	if len(data) == 0 {
		return nil, errorsmod.Wrapf(ErrMalformedPayload, "empty %s payload", kind)
	}

	fn, ok := d.messages[messageKey{kind, data[0]}]
	if !ok {
		return &UnrecognizedAction{Module: kind.String(), Action: data[0], Payload: data}, nil
	}

	return fn(data)
}

func kindName(m Module, action string) string {
	switch m {
	case CoreModule:
		return "core." + action
	case TokenBridgeModule:
		return "token_bridge." + action
	case NFTBridgeModule:
		return "nft_bridge." + action
	default:
		return m.String() + "." + action
	}
}
