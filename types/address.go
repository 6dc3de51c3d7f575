package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressLength is the size of a chain agnostic emitter or recipient address.
const AddressLength = 32

// Address is a native address left padded with zeros to 32 bytes.
type Address [AddressLength]byte

// StringToAddress parses a hex string, with or without 0x prefix, of at most
// 32 bytes and left pads it.
func StringToAddress(value string) (Address, error) {
	var address Address

	value = strings.TrimPrefix(value, "0x")
	if len(value)%2 != 0 {
		value = "0" + value
	}
	if len(value) > AddressLength*2 {
		return address, fmt.Errorf("address longer than %d bytes", AddressLength)
	}

	b, err := hex.DecodeString(value)
	if err != nil {
		return address, fmt.Errorf("invalid hex address: %w", err)
	}

	copy(address[AddressLength-len(b):], b)
	return address, nil
}

// BytesToAddress left pads b, which must be at most 32 bytes long.
func BytesToAddress(b []byte) (Address, error) {
	var address Address
	if len(b) > AddressLength {
		return address, fmt.Errorf("value is too long: %d bytes", len(b))
	}

	copy(address[AddressLength-len(b):], b)
	return address, nil
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := StringToAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MessageID returns the canonical "<chain>/<emitter>/<sequence>" identifier of
// an attested message.
func MessageID(chain ChainID, emitter Address, sequence uint64) string {
	return fmt.Sprintf("%d/%s/%d", chain, emitter, sequence)
}
