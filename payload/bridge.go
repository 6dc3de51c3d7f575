package payload

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"github.com/holiman/uint256"

	"github.com/babylonchain/guardian-attestor/types"
)

// Token bridge payload ids.
const (
	PayloadIDTransfer            uint8 = 1
	PayloadIDAssetMeta           uint8 = 2
	PayloadIDTransferWithPayload uint8 = 3
)

// PayloadIDNFTTransfer is the only NFT bridge payload.
const PayloadIDNFTTransfer uint8 = 1

// MaxNFTURILength is bounded by the one byte length prefix of the URI.
const MaxNFTURILength = 255

// TokenTransfer moves Amount of a token to To on ToChain.
type TokenTransfer struct {
	Amount       *uint256.Int  `json:"amount"`
	TokenAddress types.Address `json:"token_address"`
	TokenChain   types.ChainID `json:"token_chain"`
	To           types.Address `json:"to"`
	ToChain      types.ChainID `json:"to_chain"`
	Fee          *uint256.Int  `json:"fee"`
}

func (m *TokenTransfer) Kind() string {
	return "token_bridge.transfer"
}

func (m *TokenTransfer) Serialize() []byte {
	w := (&writer{}).u8(PayloadIDTransfer).u256(m.Amount).raw(m.TokenAddress[:]).chain(m.TokenChain)
	return w.raw(m.To[:]).chain(m.ToChain).u256(m.Fee).buf
}

func decodeTokenTransfer(data []byte) (Action, error) {
	r := newReader(data)
	r.u8("payload id")
	m := &TokenTransfer{
		Amount:       r.u256("amount"),
		TokenAddress: r.address("token address"),
		TokenChain:   r.chain("token chain"),
		To:           r.address("to"),
		ToChain:      r.chain("to chain"),
		Fee:          r.u256("fee"),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}

// AssetMeta attests a token's metadata so it can be wrapped elsewhere.
type AssetMeta struct {
	TokenAddress types.Address `json:"token_address"`
	TokenChain   types.ChainID `json:"token_chain"`
	Decimals     uint8         `json:"decimals"`
	Symbol       [32]byte      `json:"-"`
	Name         [32]byte      `json:"-"`
}

func (m *AssetMeta) Kind() string {
	return "token_bridge.asset_meta"
}

func (m *AssetMeta) Serialize() []byte {
	w := (&writer{}).u8(PayloadIDAssetMeta).raw(m.TokenAddress[:]).chain(m.TokenChain).u8(m.Decimals)
	return w.raw(m.Symbol[:]).raw(m.Name[:]).buf
}

// SymbolString returns the symbol without its zero padding.
func (m *AssetMeta) SymbolString() string {
	return trimPadding(m.Symbol)
}

func (m *AssetMeta) NameString() string {
	return trimPadding(m.Name)
}

func (m *AssetMeta) MarshalJSON() ([]byte, error) {
	type assetMeta AssetMeta
	return json.Marshal(struct {
		*assetMeta
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}{(*assetMeta)(m), m.SymbolString(), m.NameString()})
}

func decodeAssetMeta(data []byte) (Action, error) {
	r := newReader(data)
	r.u8("payload id")
	m := &AssetMeta{
		TokenAddress: r.address("token address"),
		TokenChain:   r.chain("token chain"),
		Decimals:     r.u8("decimals"),
		Symbol:       r.bytes32("symbol"),
		Name:         r.bytes32("name"),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}

// TokenTransferWithPayload is a transfer carrying an application payload
// for the receiving contract.
type TokenTransferWithPayload struct {
	Amount       *uint256.Int  `json:"amount"`
	TokenAddress types.Address `json:"token_address"`
	TokenChain   types.ChainID `json:"token_chain"`
	To           types.Address `json:"to"`
	ToChain      types.ChainID `json:"to_chain"`
	FromAddress  types.Address `json:"from_address"`
	Payload      []byte        `json:"payload"`
}

func (m *TokenTransferWithPayload) Kind() string {
	return "token_bridge.transfer_with_payload"
}

func (m *TokenTransferWithPayload) Serialize() []byte {
	w := (&writer{}).u8(PayloadIDTransferWithPayload).u256(m.Amount).raw(m.TokenAddress[:]).chain(m.TokenChain)
	return w.raw(m.To[:]).chain(m.ToChain).raw(m.FromAddress[:]).raw(m.Payload).buf
}

func decodeTokenTransferWithPayload(data []byte) (Action, error) {
	r := newReader(data)
	r.u8("payload id")
	m := &TokenTransferWithPayload{
		Amount:       r.u256("amount"),
		TokenAddress: r.address("token address"),
		TokenChain:   r.chain("token chain"),
		To:           r.address("to"),
		ToChain:      r.chain("to chain"),
		FromAddress:  r.address("from address"),
	}
	m.Payload = r.rest()
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}

// NFTTransfer moves a single non-fungible token.
type NFTTransfer struct {
	TokenAddress types.Address `json:"token_address"`
	TokenChain   types.ChainID `json:"token_chain"`
	Symbol       [32]byte      `json:"-"`
	Name         [32]byte      `json:"-"`
	TokenID      *uint256.Int  `json:"token_id"`
	URI          string        `json:"uri"`
	To           types.Address `json:"to"`
	ToChain      types.ChainID `json:"to_chain"`
}

func (m *NFTTransfer) Kind() string {
	return "nft_bridge.transfer"
}

// Serialize fails if the URI does not fit its one byte length prefix.
func (m *NFTTransfer) Serialize() ([]byte, error) {
	if len(m.URI) > MaxNFTURILength {
		return nil, errorsmod.Wrapf(ErrMalformedPayload, "uri is %d bytes, at most %d", len(m.URI), MaxNFTURILength)
	}
	w := (&writer{}).u8(PayloadIDNFTTransfer).raw(m.TokenAddress[:]).chain(m.TokenChain)
	w.raw(m.Symbol[:]).raw(m.Name[:]).u256(m.TokenID)
	w.u8(uint8(len(m.URI))).raw([]byte(m.URI))
	return w.raw(m.To[:]).chain(m.ToChain).buf, nil
}

func (m *NFTTransfer) SymbolString() string {
	return trimPadding(m.Symbol)
}

func (m *NFTTransfer) NameString() string {
	return trimPadding(m.Name)
}

func (m *NFTTransfer) MarshalJSON() ([]byte, error) {
	type nftTransfer NFTTransfer
	return json.Marshal(struct {
		*nftTransfer
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}{(*nftTransfer)(m), m.SymbolString(), m.NameString()})
}

func decodeNFTTransfer(data []byte) (Action, error) {
	r := newReader(data)
	r.u8("payload id")
	m := &NFTTransfer{
		TokenAddress: r.address("token address"),
		TokenChain:   r.chain("token chain"),
		Symbol:       r.bytes32("symbol"),
		Name:         r.bytes32("name"),
		TokenID:      r.u256("token id"),
	}
	uriLen := int(r.u8("uri length"))
	m.URI = string(r.next(uriLen, "uri"))
	m.To = r.address("to")
	m.ToChain = r.chain("to chain")
	if err := r.done(); err != nil {
		return nil, err
	}
	return m, nil
}

func trimPadding(b [32]byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
