package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/babylonchain/guardian-attestor/types"
)

// Attestation is the client side view of a processed attestation. Action is
// left encoded since its shape depends on Kind.
type Attestation struct {
	MessageID        string          `json:"message_id"`
	Digest           string          `json:"digest"`
	GuardianSetIndex uint32          `json:"guardian_set_index"`
	NumSignatures    int             `json:"num_signatures"`
	Timestamp        uint32          `json:"timestamp"`
	Nonce            uint32          `json:"nonce"`
	EmitterChain     types.ChainID   `json:"emitter_chain"`
	EmitterAddress   types.Address   `json:"emitter_address"`
	Sequence         uint64          `json:"sequence,string"`
	ConsistencyLevel uint8           `json:"consistency_level"`
	Payload          hexutil.Bytes   `json:"payload"`
	Kind             string          `json:"kind"`
	Action           json.RawMessage `json:"action"`
	Governance       bool            `json:"governance"`
	Consumed         bool            `json:"consumed"`
	Executed         bool            `json:"executed"`
}

// ToStruct converts v into a Struct through its JSON encoding. v must encode
// as a JSON object. Integers wider than 53 bits must be encoded as strings.
func ToStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%T does not encode as a JSON object: %w", v, err)
	}

	return structpb.NewStruct(m)
}

// FromStruct decodes s into v through JSON.
func FromStruct(s *structpb.Struct, v interface{}) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}
