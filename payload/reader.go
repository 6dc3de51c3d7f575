package payload

import (
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/babylonchain/guardian-attestor/types"
)

// reader walks a fixed layout. The first short read sticks and every later
// read returns zero values, so callers check err once at the end.
type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) next(n int, field string) []byte {
	if r.err != nil {
		return make([]byte, n)
	}
	if len(r.data)-r.off < n {
		r.err = errorsmod.Wrapf(ErrMalformedPayload, "%s: need %d bytes at offset %d, have %d",
			field, n, r.off, len(r.data)-r.off)
		return make([]byte, n)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8(field string) uint8 {
	return r.next(1, field)[0]
}

func (r *reader) u16(field string) uint16 {
	return binary.BigEndian.Uint16(r.next(2, field))
}

func (r *reader) u32(field string) uint32 {
	return binary.BigEndian.Uint32(r.next(4, field))
}

func (r *reader) chain(field string) types.ChainID {
	return types.ChainID(r.u16(field))
}

func (r *reader) bytes32(field string) [32]byte {
	var out [32]byte
	copy(out[:], r.next(32, field))
	return out
}

func (r *reader) address(field string) types.Address {
	return types.Address(r.bytes32(field))
}

func (r *reader) ethAddress(field string) common.Address {
	return common.BytesToAddress(r.next(common.AddressLength, field))
}

func (r *reader) u256(field string) *uint256.Int {
	return new(uint256.Int).SetBytes32(r.next(32, field))
}

// rest consumes everything left.
func (r *reader) rest() []byte {
	if r.err != nil {
		return nil
	}
	b := append([]byte{}, r.data[r.off:]...)
	r.off = len(r.data)
	return b
}

// done returns the first read error, or an error if bytes are left over.
func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return errorsmod.Wrapf(ErrMalformedPayload, "%d unexpected trailing bytes", len(r.data)-r.off)
	}
	return nil
}

// writer is the encoding counterpart of reader.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) *writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *writer) u16(v uint16) *writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

func (w *writer) u32(v uint32) *writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	return w
}

func (w *writer) chain(c types.ChainID) *writer {
	return w.u16(uint16(c))
}

func (w *writer) raw(b []byte) *writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *writer) u256(v *uint256.Int) *writer {
	if v == nil {
		v = new(uint256.Int)
	}
	b := v.Bytes32()
	return w.raw(b[:])
}
