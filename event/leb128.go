package event

import (
	"bufio"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// LEB128 here is the DWARF/WASM-style little-endian base-128 variable
// length encoding, distinct from encoding/binary's Uvarint/Varint
// which use protobuf's zigzag scheme for signed values. The event
// file's wire format is spec.md §4.9's, so it is hand-rolled against
// the bit-level LEB128 rule rather than reused from the standard
// library.

func putUvarint(dst []byte, x uint64) []byte {
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

func readUvarint(r *bufio.Reader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, ctkerr.Dataf(opEvent, err)
		}
		if shift >= 64 {
			return 0, ctkerr.Dataf(opEvent, errVarintOverflow)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func putVarint(dst []byte, x int64) []byte {
	more := true
	for more {
		b := byte(x & 0x7f)
		x >>= 7
		signBitSet := b&0x40 != 0
		if (x == 0 && !signBitSet) || (x == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

func readVarint(r *bufio.Reader) (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, ctkerr.Dataf(opEvent, err)
		}
		if shift >= 64 {
			return 0, ctkerr.Dataf(opEvent, errVarintOverflow)
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

type eventErr string

func (e eventErr) Error() string { return string(e) }

var errVarintOverflow = eventErr("varint exceeds 64 bits")
