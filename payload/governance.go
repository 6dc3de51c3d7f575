package payload

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/babylonchain/guardian-attestor/guardianset"
	"github.com/babylonchain/guardian-attestor/types"
)

// GovernanceHeaderLength is module (32) + action (1) + target chain (2).
const GovernanceHeaderLength = 32 + 1 + 2

// Core module actions.
const (
	ActionContractUpgrade    uint8 = 1
	ActionGuardianSetUpgrade uint8 = 2
	ActionSetMessageFee      uint8 = 3
	ActionTransferFees       uint8 = 4
	ActionRecoverChainID     uint8 = 5
)

// Token and NFT bridge actions.
const (
	ActionRegisterChain         uint8 = 1
	ActionUpgradeBridgeContract uint8 = 2
	ActionRecoverBridgeChainID  uint8 = 3
)

// GovernanceHeader is the prefix shared by every governance payload.
// TargetChain zero means the action applies to every chain.
type GovernanceHeader struct {
	Module      Module        `json:"module"`
	Action      uint8         `json:"action"`
	TargetChain types.ChainID `json:"target_chain"`
}

func (h GovernanceHeader) Header() GovernanceHeader {
	return h
}

func (h GovernanceHeader) serialize() *writer {
	w := &writer{}
	return w.raw(h.Module[:]).u8(h.Action).chain(h.TargetChain)
}

// GovernanceAction is implemented by every decoded governance payload.
type GovernanceAction interface {
	Action
	Header() GovernanceHeader
	Serialize() []byte
}

// ContractUpgrade replaces the contract behind Module. Used by the core
// module (action 1) and the bridges (action 2).
type ContractUpgrade struct {
	GovernanceHeader
	NewContract types.Address `json:"new_contract"`
}

func (a *ContractUpgrade) Kind() string {
	return kindName(a.Module, "contract_upgrade")
}

func (a *ContractUpgrade) Serialize() []byte {
	return a.serialize().raw(a.NewContract[:]).buf
}

func decodeContractUpgrade(h GovernanceHeader, data []byte) (Action, error) {
	r := newReader(data)
	a := &ContractUpgrade{GovernanceHeader: h, NewContract: r.address("new contract")}
	if err := r.done(); err != nil {
		return nil, err
	}
	return a, nil
}

// GuardianSetUpgrade installs a new guardian set.
type GuardianSetUpgrade struct {
	GovernanceHeader
	NewIndex uint32           `json:"new_index"`
	Keys     []common.Address `json:"keys"`
}

func (a *GuardianSetUpgrade) Kind() string {
	return kindName(a.Module, "guardian_set_upgrade")
}

func (a *GuardianSetUpgrade) Serialize() []byte {
	w := a.serialize().u32(a.NewIndex).u8(uint8(len(a.Keys)))
	for _, k := range a.Keys {
		w.raw(k.Bytes())
	}
	return w.buf
}

// GuardianSet returns the set the upgrade installs.
func (a *GuardianSetUpgrade) GuardianSet() *guardianset.GuardianSet {
	return &guardianset.GuardianSet{
		Index: a.NewIndex,
		Keys:  append([]common.Address(nil), a.Keys...),
	}
}

func decodeGuardianSetUpgrade(h GovernanceHeader, data []byte) (Action, error) {
	r := newReader(data)
	a := &GuardianSetUpgrade{GovernanceHeader: h, NewIndex: r.u32("new guardian set index")}
	n := int(r.u8("guardian count"))
	a.Keys = make([]common.Address, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		a.Keys = append(a.Keys, r.ethAddress("guardian key"))
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	if err := a.GuardianSet().Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalidGuardianSet, err.Error())
	}
	return a, nil
}

// SetMessageFee changes the fee charged for publishing a message.
type SetMessageFee struct {
	GovernanceHeader
	Fee *uint256.Int `json:"fee"`
}

func (a *SetMessageFee) Kind() string {
	return kindName(a.Module, "set_message_fee")
}

func (a *SetMessageFee) Serialize() []byte {
	return a.serialize().u256(a.Fee).buf
}

func decodeSetMessageFee(h GovernanceHeader, data []byte) (Action, error) {
	r := newReader(data)
	a := &SetMessageFee{GovernanceHeader: h, Fee: r.u256("fee")}
	if err := r.done(); err != nil {
		return nil, err
	}
	return a, nil
}

// TransferFees moves collected fees to Recipient.
type TransferFees struct {
	GovernanceHeader
	Amount    *uint256.Int  `json:"amount"`
	Recipient types.Address `json:"recipient"`
}

func (a *TransferFees) Kind() string {
	return kindName(a.Module, "transfer_fees")
}

func (a *TransferFees) Serialize() []byte {
	return a.serialize().u256(a.Amount).raw(a.Recipient[:]).buf
}

func decodeTransferFees(h GovernanceHeader, data []byte) (Action, error) {
	r := newReader(data)
	a := &TransferFees{GovernanceHeader: h, Amount: r.u256("amount"), Recipient: r.address("recipient")}
	if err := r.done(); err != nil {
		return nil, err
	}
	return a, nil
}

// RecoverChainID reassigns the chain id of a contract deployed on a forked
// EVM chain identified by EVMChainID.
type RecoverChainID struct {
	GovernanceHeader
	EVMChainID *uint256.Int  `json:"evm_chain_id"`
	NewChainID types.ChainID `json:"new_chain_id"`
}

func (a *RecoverChainID) Kind() string {
	return kindName(a.Module, "recover_chain_id")
}

func (a *RecoverChainID) Serialize() []byte {
	return a.serialize().u256(a.EVMChainID).chain(a.NewChainID).buf
}

func decodeRecoverChainID(h GovernanceHeader, data []byte) (Action, error) {
	r := newReader(data)
	a := &RecoverChainID{GovernanceHeader: h, EVMChainID: r.u256("evm chain id"), NewChainID: r.chain("new chain id")}
	if err := r.done(); err != nil {
		return nil, err
	}
	return a, nil
}

// RegisterChain registers the bridge contract of another chain.
type RegisterChain struct {
	GovernanceHeader
	EmitterChain   types.ChainID `json:"emitter_chain"`
	EmitterAddress types.Address `json:"emitter_address"`
}

func (a *RegisterChain) Kind() string {
	return kindName(a.Module, "register_chain")
}

func (a *RegisterChain) Serialize() []byte {
	return a.serialize().chain(a.EmitterChain).raw(a.EmitterAddress[:]).buf
}

func decodeRegisterChain(h GovernanceHeader, data []byte) (Action, error) {
	r := newReader(data)
	a := &RegisterChain{GovernanceHeader: h, EmitterChain: r.chain("emitter chain"), EmitterAddress: r.address("emitter address")}
	if err := r.done(); err != nil {
		return nil, err
	}
	return a, nil
}
