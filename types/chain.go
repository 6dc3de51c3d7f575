package types

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ChainID is the numeric identifier a chain is known by on the wire.
type ChainID uint16

const (
	ChainIDUnset     ChainID = 0
	ChainIDSolana    ChainID = 1
	ChainIDEthereum  ChainID = 2
	ChainIDTerra     ChainID = 3
	ChainIDBSC       ChainID = 4
	ChainIDPolygon   ChainID = 5
	ChainIDAvalanche ChainID = 6
	ChainIDOasis     ChainID = 7
	ChainIDAlgorand  ChainID = 8
	ChainIDAurora    ChainID = 9
	ChainIDFantom    ChainID = 10
	ChainIDKarura    ChainID = 11
	ChainIDAcala     ChainID = 12
	ChainIDKlaytn    ChainID = 13
	ChainIDCelo      ChainID = 14
	ChainIDNear      ChainID = 15
	ChainIDMoonbeam  ChainID = 16
	ChainIDTerra2    ChainID = 18
	ChainIDInjective ChainID = 19
	ChainIDOsmosis   ChainID = 20
	ChainIDSui       ChainID = 21
	ChainIDAptos     ChainID = 22
	ChainIDArbitrum  ChainID = 23
	ChainIDOptimism  ChainID = 24
	ChainIDGnosis    ChainID = 25
	ChainIDPythNet   ChainID = 26
	ChainIDXpla      ChainID = 28
	ChainIDBtc       ChainID = 29
	ChainIDBase      ChainID = 30
	ChainIDSei       ChainID = 32
	ChainIDScroll    ChainID = 34
	ChainIDMantle    ChainID = 35
	ChainIDLinea     ChainID = 38
	ChainIDBerachain ChainID = 39

	ChainIDWormchain ChainID = 3104

	ChainIDCosmoshub ChainID = 4000
	ChainIDEvmos     ChainID = 4001
	ChainIDKujira    ChainID = 4002
	ChainIDNeutron   ChainID = 4003
	ChainIDCelestia  ChainID = 4004
	ChainIDStargaze  ChainID = 4005
	ChainIDNoble     ChainID = 4009

	ChainIDSepolia         ChainID = 10002
	ChainIDArbitrumSepolia ChainID = 10003
	ChainIDBaseSepolia     ChainID = 10004
	ChainIDOptimismSepolia ChainID = 10005
	ChainIDHolesky         ChainID = 10006
	ChainIDPolygonSepolia  ChainID = 10007
)

var chainNames = map[ChainID]string{
	ChainIDSolana:          "solana",
	ChainIDEthereum:        "ethereum",
	ChainIDTerra:           "terra",
	ChainIDBSC:             "bsc",
	ChainIDPolygon:         "polygon",
	ChainIDAvalanche:       "avalanche",
	ChainIDOasis:           "oasis",
	ChainIDAlgorand:        "algorand",
	ChainIDAurora:          "aurora",
	ChainIDFantom:          "fantom",
	ChainIDKarura:          "karura",
	ChainIDAcala:           "acala",
	ChainIDKlaytn:          "klaytn",
	ChainIDCelo:            "celo",
	ChainIDNear:            "near",
	ChainIDMoonbeam:        "moonbeam",
	ChainIDTerra2:          "terra2",
	ChainIDInjective:       "injective",
	ChainIDOsmosis:         "osmosis",
	ChainIDSui:             "sui",
	ChainIDAptos:           "aptos",
	ChainIDArbitrum:        "arbitrum",
	ChainIDOptimism:        "optimism",
	ChainIDGnosis:          "gnosis",
	ChainIDPythNet:         "pythnet",
	ChainIDXpla:            "xpla",
	ChainIDBtc:             "btc",
	ChainIDBase:            "base",
	ChainIDSei:             "sei",
	ChainIDScroll:          "scroll",
	ChainIDMantle:          "mantle",
	ChainIDLinea:           "linea",
	ChainIDBerachain:       "berachain",
	ChainIDWormchain:       "wormchain",
	ChainIDCosmoshub:       "cosmoshub",
	ChainIDEvmos:           "evmos",
	ChainIDKujira:          "kujira",
	ChainIDNeutron:         "neutron",
	ChainIDCelestia:        "celestia",
	ChainIDStargaze:        "stargaze",
	ChainIDNoble:           "noble",
	ChainIDSepolia:         "sepolia",
	ChainIDArbitrumSepolia: "arbitrum_sepolia",
	ChainIDBaseSepolia:     "base_sepolia",
	ChainIDOptimismSepolia: "optimism_sepolia",
	ChainIDHolesky:         "holesky",
	ChainIDPolygonSepolia:  "polygon_sepolia",
}

var chainsByName = func() map[string]ChainID {
	m := make(map[string]ChainID, len(chainNames))
	for id, name := range chainNames {
		m[name] = id
	}
	return m
}()

// String returns the chain's name, or its decimal id for chains without one.
func (c ChainID) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	if c == ChainIDUnset {
		return "unset"
	}
	return strconv.FormatUint(uint64(c), 10)
}

// IsKnown reports whether c is a named chain.
func (c ChainID) IsKnown() bool {
	_, ok := chainNames[c]
	return ok
}

// ChainIDFromString accepts either a chain name (case insensitive) or a
// decimal chain id.
func ChainIDFromString(s string) (ChainID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if id, ok := chainsByName[s]; ok {
		return id, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ChainIDUnset, fmt.Errorf("unknown chain %q", s)
	}

	return ChainIDFromNumber(n)
}

// ChainIDFromNumber converts a signed integer into a ChainID, rejecting values
// that do not fit into 16 bits.
func ChainIDFromNumber[N int | int8 | int16 | int32 | int64 | uint | uint8 | uint16 | uint32 | uint64](n N) (ChainID, error) {
	if n < 0 || uint64(n) > math.MaxUint16 {
		return ChainIDUnset, fmt.Errorf("chain id %d is out of range", n)
	}
	return ChainID(n), nil
}

// KnownChainIDs lists all named chains in ascending order.
func KnownChainIDs() []ChainID {
	ids := make([]ChainID, 0, len(chainNames))
	for id := range chainNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
