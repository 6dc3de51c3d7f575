package payload_test

import (
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/babylonchain/guardian-attestor/envelope"
	"github.com/babylonchain/guardian-attestor/payload"
	"github.com/babylonchain/guardian-attestor/testutil"
	"github.com/babylonchain/guardian-attestor/types"
)

var (
	governanceEmitter = types.Address{31: 0x04}
	localChain        = types.ChainIDEthereum
)

func newDecoder() *payload.Decoder {
	return payload.NewDecoder(payload.Config{
		LocalChain:        localChain,
		GovernanceChain:   types.ChainIDSolana,
		GovernanceEmitter: governanceEmitter,
	})
}

func governanceBody(data []byte) *envelope.Body {
	return &envelope.Body{
		EmitterChain:   types.ChainIDSolana,
		EmitterAddress: governanceEmitter,
		Sequence:       1,
		Payload:        data,
	}
}

func TestModuleNames(t *testing.T) {
	require.Equal(t, strings.Repeat("00", 28)+"436f7265", hex.EncodeToString(payload.CoreModule[:]))
	require.Equal(t, strings.Repeat("00", 21)+"546f6b656e427269646765", hex.EncodeToString(payload.TokenBridgeModule[:]))
	require.Equal(t, "Core", payload.CoreModule.String())
	require.Equal(t, "TokenBridge", payload.TokenBridgeModule.String())
	require.Equal(t, "NFTBridge", payload.NFTBridgeModule.String())
}

func TestDecodeGuardianSetUpgrade(t *testing.T) {
	// Core, action 2, any chain, new index 1, one guardian
	raw, err := hex.DecodeString(
		"00000000000000000000000000000000000000000000000000000000436f7265" +
			"02" + "0000" + "00000001" + "01" +
			"beFA429d57cD18b7F8A4d91A2da9AB4AF05d0FBe")
	require.NoError(t, err)

	action, err := newDecoder().Decode(governanceBody(raw))
	require.NoError(t, err)

	upgrade, ok := action.(*payload.GuardianSetUpgrade)
	require.True(t, ok)
	require.Equal(t, "core.guardian_set_upgrade", upgrade.Kind())
	require.Equal(t, payload.CoreModule, upgrade.Module)
	require.Equal(t, types.ChainIDUnset, upgrade.TargetChain)
	require.Equal(t, uint32(1), upgrade.NewIndex)
	require.Equal(t, []common.Address{common.HexToAddress("0xbeFA429d57cD18b7F8A4d91A2da9AB4AF05d0FBe")}, upgrade.Keys)
	require.Equal(t, raw, upgrade.Serialize())

	gs := upgrade.GuardianSet()
	require.Equal(t, uint32(1), gs.Index)
	require.Equal(t, upgrade.Keys, gs.Keys)
}

func TestGovernanceTargetChain(t *testing.T) {
	d := newDecoder()
	fee := &payload.SetMessageFee{
		GovernanceHeader: payload.GovernanceHeader{
			Module:      payload.CoreModule,
			Action:      payload.ActionSetMessageFee,
			TargetChain: types.ChainIDBSC,
		},
		Fee: uint256.NewInt(1000),
	}

	_, err := d.Decode(governanceBody(fee.Serialize()))
	require.ErrorIs(t, err, payload.ErrWrongTargetChain)

	// unknown actions addressed to another chain are rejected as well
	unknown := fee.Serialize()
	unknown[32] = 99
	_, err = d.Decode(governanceBody(unknown))
	require.ErrorIs(t, err, payload.ErrWrongTargetChain)

	for _, target := range []types.ChainID{types.ChainIDUnset, localChain} {
		fee.TargetChain = target
		action, err := d.Decode(governanceBody(fee.Serialize()))
		require.NoError(t, err)
		require.Equal(t, fee, action)
	}
}

func FuzzGovernanceActions(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		d := newDecoder()
		header := func(m payload.Module, action uint8) payload.GovernanceHeader {
			return payload.GovernanceHeader{Module: m, Action: action, TargetChain: localChain}
		}
		u256 := func() *uint256.Int {
			return new(uint256.Int).SetBytes(testutil.GenRandomByteArray(r, uint64(r.Intn(32)+1)))
		}
		_, keys := testutil.GenGuardianKeys(r, t, r.Intn(19)+1)

		actions := []payload.GovernanceAction{
			&payload.ContractUpgrade{GovernanceHeader: header(payload.CoreModule, payload.ActionContractUpgrade), NewContract: testutil.GenRandomAddress(r)},
			&payload.GuardianSetUpgrade{GovernanceHeader: header(payload.CoreModule, payload.ActionGuardianSetUpgrade), NewIndex: r.Uint32(), Keys: keys},
			&payload.SetMessageFee{GovernanceHeader: header(payload.CoreModule, payload.ActionSetMessageFee), Fee: u256()},
			&payload.TransferFees{GovernanceHeader: header(payload.CoreModule, payload.ActionTransferFees), Amount: u256(), Recipient: testutil.GenRandomAddress(r)},
			&payload.RecoverChainID{GovernanceHeader: header(payload.CoreModule, payload.ActionRecoverChainID), EVMChainID: u256(), NewChainID: types.ChainID(r.Intn(1 << 16))},
			&payload.RegisterChain{GovernanceHeader: header(payload.TokenBridgeModule, payload.ActionRegisterChain), EmitterChain: types.ChainID(r.Intn(1 << 16)), EmitterAddress: testutil.GenRandomAddress(r)},
			&payload.ContractUpgrade{GovernanceHeader: header(payload.TokenBridgeModule, payload.ActionUpgradeBridgeContract), NewContract: testutil.GenRandomAddress(r)},
			&payload.RecoverChainID{GovernanceHeader: header(payload.TokenBridgeModule, payload.ActionRecoverBridgeChainID), EVMChainID: u256(), NewChainID: types.ChainID(r.Intn(1 << 16))},
			&payload.RegisterChain{GovernanceHeader: header(payload.NFTBridgeModule, payload.ActionRegisterChain), EmitterChain: types.ChainID(r.Intn(1 << 16)), EmitterAddress: testutil.GenRandomAddress(r)},
			&payload.ContractUpgrade{GovernanceHeader: header(payload.NFTBridgeModule, payload.ActionUpgradeBridgeContract), NewContract: testutil.GenRandomAddress(r)},
		}

		for _, a := range actions {
			bz := a.Serialize()
			decoded, err := d.DecodeGovernance(bz)
			require.NoError(t, err, a.Kind())
			require.Equal(t, a, decoded)

			// fixed layouts reject trailing and missing bytes
			_, err = d.DecodeGovernance(append(bz, 0))
			require.ErrorIs(t, err, payload.ErrMalformedPayload, a.Kind())
			_, err = d.DecodeGovernance(bz[:len(bz)-1])
			require.ErrorIs(t, err, payload.ErrMalformedPayload, a.Kind())
		}
	})
}

func TestGuardianSetUpgradeValidation(t *testing.T) {
	d := newDecoder()
	r := rand.New(rand.NewSource(3))
	_, keys := testutil.GenGuardianKeys(r, t, 3)
	h := payload.GovernanceHeader{Module: payload.CoreModule, Action: payload.ActionGuardianSetUpgrade}

	empty := &payload.GuardianSetUpgrade{GovernanceHeader: h, NewIndex: 1}
	_, err := d.DecodeGovernance(empty.Serialize())
	require.ErrorIs(t, err, payload.ErrInvalidGuardianSet)

	dup := &payload.GuardianSetUpgrade{GovernanceHeader: h, NewIndex: 1, Keys: []common.Address{keys[0], keys[1], keys[0]}}
	_, err = d.DecodeGovernance(dup.Serialize())
	require.ErrorIs(t, err, payload.ErrInvalidGuardianSet)

	// count says three keys but only two follow
	short := (&payload.GuardianSetUpgrade{GovernanceHeader: h, NewIndex: 1, Keys: keys}).Serialize()
	_, err = d.DecodeGovernance(short[:len(short)-20])
	require.ErrorIs(t, err, payload.ErrMalformedPayload)
}

func TestUnrecognizedActions(t *testing.T) {
	d := newDecoder()

	upgrade := &payload.ContractUpgrade{
		GovernanceHeader: payload.GovernanceHeader{Module: payload.CoreModule, Action: 42},
		NewContract:      types.Address{1},
	}
	action, err := d.Decode(governanceBody(upgrade.Serialize()))
	require.NoError(t, err)
	require.Equal(t, &payload.UnrecognizedAction{Module: "Core", Action: 42, Payload: upgrade.Serialize()}, action)

	upgrade.Module = payload.ModuleFromString("GeneralPurposeGovernance")
	upgrade.Action = 1
	action, err = d.Decode(governanceBody(upgrade.Serialize()))
	require.NoError(t, err)
	require.Equal(t, "GeneralPurposeGovernance", action.(*payload.UnrecognizedAction).Module)

	_, err = d.Decode(governanceBody(make([]byte, payload.GovernanceHeaderLength-1)))
	require.ErrorIs(t, err, payload.ErrMalformedPayload)

	// a registered decoder replaces the unrecognized variant
	custom := payload.ModuleFromString("Custom")
	require.NoError(t, d.RegisterGovernance(custom, 1, func(h payload.GovernanceHeader, data []byte) (payload.Action, error) {
		return &payload.GenericMessage{Payload: data}, nil
	}))
	require.ErrorIs(t, d.RegisterGovernance(custom, 1, nil), payload.ErrDuplicateDecoder)
	require.ErrorIs(t, d.RegisterGovernance(payload.CoreModule, payload.ActionGuardianSetUpgrade, nil), payload.ErrDuplicateDecoder)

	upgrade.Module = custom
	action, err = d.Decode(governanceBody(upgrade.Serialize()))
	require.NoError(t, err)
	require.Equal(t, &payload.GenericMessage{Payload: upgrade.NewContract[:]}, action)
}

func FuzzBridgeMessages(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		d := newDecoder()
		tokenBridge := testutil.GenRandomAddress(r)
		nftBridge := testutil.GenRandomAddress(r)
		d.RegisterEmitter(types.ChainIDSolana, tokenBridge, payload.EmitterTokenBridge)
		d.RegisterEmitter(types.ChainIDSolana, nftBridge, payload.EmitterNFTBridge)

		u256 := func() *uint256.Int {
			return new(uint256.Int).SetBytes32(testutil.GenRandomByteArray(r, 32))
		}
		var symbol, name [32]byte
		copy(symbol[:], "WETH")
		copy(name[:], "Wrapped Ether")

		transfer := &payload.TokenTransfer{
			Amount: u256(), TokenAddress: testutil.GenRandomAddress(r), TokenChain: types.ChainIDEthereum,
			To: testutil.GenRandomAddress(r), ToChain: localChain, Fee: u256(),
		}
		require.Len(t, transfer.Serialize(), 133)

		meta := &payload.AssetMeta{
			TokenAddress: testutil.GenRandomAddress(r), TokenChain: types.ChainIDEthereum,
			Decimals: uint8(r.Intn(19)), Symbol: symbol, Name: name,
		}
		require.Len(t, meta.Serialize(), 100)
		require.Equal(t, "WETH", meta.SymbolString())
		require.Equal(t, "Wrapped Ether", meta.NameString())

		withPayload := &payload.TokenTransferWithPayload{
			Amount: u256(), TokenAddress: testutil.GenRandomAddress(r), TokenChain: types.ChainIDEthereum,
			To: testutil.GenRandomAddress(r), ToChain: localChain, FromAddress: testutil.GenRandomAddress(r),
			Payload: testutil.GenRandomByteArray(r, uint64(r.Intn(100)+1)),
		}

		nft := &payload.NFTTransfer{
			TokenAddress: testutil.GenRandomAddress(r), TokenChain: types.ChainIDEthereum,
			Symbol: symbol, Name: name, TokenID: u256(),
			URI: "ipfs://" + testutil.GenRandomHexStr(r, uint64(r.Intn(50))),
			To:  testutil.GenRandomAddress(r), ToChain: localChain,
		}

		nftBz, err := nft.Serialize()
		require.NoError(t, err)

		cases := []struct {
			emitter types.Address
			msg     payload.Action
			bz      []byte
		}{
			{tokenBridge, transfer, transfer.Serialize()},
			{tokenBridge, meta, meta.Serialize()},
			{tokenBridge, withPayload, withPayload.Serialize()},
			{nftBridge, nft, nftBz},
		}
		for _, c := range cases {
			body := &envelope.Body{EmitterChain: types.ChainIDSolana, EmitterAddress: c.emitter, Payload: c.bz}
			decoded, err := d.Decode(body)
			require.NoError(t, err, c.msg.Kind())
			require.Equal(t, c.msg, decoded)
		}

		// truncated fixed-width messages are rejected
		bz := transfer.Serialize()
		_, err = d.DecodeMessage(payload.EmitterTokenBridge, bz[:len(bz)-1])
		require.ErrorIs(t, err, payload.ErrMalformedPayload)
		_, err = d.DecodeMessage(payload.EmitterTokenBridge, append(bz, 1))
		require.ErrorIs(t, err, payload.ErrMalformedPayload)
		_, err = d.DecodeMessage(payload.EmitterNFTBridge, nftBz[:100])
		require.ErrorIs(t, err, payload.ErrMalformedPayload)
		_, err = d.DecodeMessage(payload.EmitterTokenBridge, nil)
		require.ErrorIs(t, err, payload.ErrMalformedPayload)

		unknown, err := d.DecodeMessage(payload.EmitterTokenBridge, []byte{9, 1, 2})
		require.NoError(t, err)
		require.Equal(t, &payload.UnrecognizedAction{Module: "token_bridge", Action: 9, Payload: []byte{9, 1, 2}}, unknown)

		// emitters nobody registered carry generic messages
		other := &envelope.Body{EmitterChain: types.ChainIDSolana, EmitterAddress: testutil.GenRandomAddress(r), Payload: bz}
		generic, err := d.Decode(other)
		require.NoError(t, err)
		require.Equal(t, &payload.GenericMessage{Payload: bz}, generic)
	})
}

func TestBridgeMessageJSONCarriesNames(t *testing.T) {
	var symbol, name [32]byte
	copy(symbol[:], "WETH")
	copy(name[:], "Wrapped Ether")

	meta := &payload.AssetMeta{TokenChain: types.ChainIDEthereum, Decimals: 18, Symbol: symbol, Name: name}
	bz, err := json.Marshal(meta)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(bz, &fields))
	require.Equal(t, "WETH", fields["symbol"])
	require.Equal(t, "Wrapped Ether", fields["name"])
	require.Equal(t, float64(18), fields["decimals"])

	nft := &payload.NFTTransfer{Symbol: symbol, Name: name, TokenID: uint256.NewInt(7), URI: "ipfs://x"}
	// through the interface, the way results embed actions
	var action payload.Action = nft
	bz, err = json.Marshal(action)
	require.NoError(t, err)

	fields = nil
	require.NoError(t, json.Unmarshal(bz, &fields))
	require.Equal(t, "WETH", fields["symbol"])
	require.Equal(t, "Wrapped Ether", fields["name"])
	require.Equal(t, "ipfs://x", fields["uri"])
}

func TestNFTTransferURILength(t *testing.T) {
	d := newDecoder()
	nftBridge := types.Address{31: 0x07}
	d.RegisterEmitter(types.ChainIDSolana, nftBridge, payload.EmitterNFTBridge)

	nft := &payload.NFTTransfer{
		TokenChain: types.ChainIDEthereum,
		TokenID:    uint256.NewInt(1),
		URI:        strings.Repeat("a", payload.MaxNFTURILength),
		ToChain:    localChain,
	}
	bz, err := nft.Serialize()
	require.NoError(t, err)
	decoded, err := d.DecodeMessage(payload.EmitterNFTBridge, bz)
	require.NoError(t, err)
	require.Equal(t, nft, decoded)

	nft.URI += "a"
	_, err = nft.Serialize()
	require.ErrorIs(t, err, payload.ErrMalformedPayload)
}
