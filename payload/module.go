package payload

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// Module identifies the contract a governance action is addressed to. It is
// the module name left padded with zeros to 32 bytes.
type Module [32]byte

var (
	CoreModule        = ModuleFromString("Core")
	TokenBridgeModule = ModuleFromString("TokenBridge")
	NFTBridgeModule   = ModuleFromString("NFTBridge")
)

// ModuleFromString left pads name to 32 bytes. Longer names are truncated
// to their last 32 bytes.
func ModuleFromString(name string) Module {
	var m Module
	b := []byte(name)
	if len(b) > len(m) {
		b = b[len(b)-len(m):]
	}
	copy(m[len(m)-len(b):], b)
	return m
}

// String returns the module name, or hex if it is not printable.
func (m Module) String() string {
	trimmed := bytes.TrimLeft(m[:], "\x00")
	for _, c := range trimmed {
		if c < 0x20 || c > 0x7e {
			return hex.EncodeToString(m[:])
		}
	}
	return string(trimmed)
}

func (m Module) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}
