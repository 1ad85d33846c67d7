// Package block implements the per-row block codec (C3): each row of
// EpochLength samples for one channel is packed into a self-delimited
// bit stream using one of four prediction methods, in either of two
// header-field-width variants (reflib, compatible with the reference
// library, or extended, this module's own forward extension to
// 8/64-bit words). Copy stores the row uncompressed, one word per
// sample and no n/nexc fields; Time/Time2/Chan predict each sample and
// pack the residuals with a variable- or fixed-width encoding and an
// exception-marker escape.
package block

import (
	"github.com/slatinski/ctk-sub001/bitio"
	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// Method selects the predictor applied before residual packing.
type Method uint8

const (
	Copy Method = iota
	Time
	Time2
	Chan
	methodCount
)

// Format selects the header field-width variant.
type Format uint8

const (
	// Reflib is wire-compatible with the reference library: only
	// 16- and 32-bit words, 4-/6-bit n/nexc fields.
	Reflib Format = iota
	// Extended supports 8/16/32/64-bit words with 3/4/5/6-bit
	// n/nexc fields.
	Extended
)

const opDecode = "block.Decode"
const opEncode = "block.Encode"

// sFields returns the 2-bit size-field value and the bit width of the
// n/nexc fields for the given format and word size (in bits).
func sFields(format Format, wordBits uint8) (sval uint8, fieldWidthN uint8, err error) {
	switch format {
	case Reflib:
		switch wordBits {
		case 16:
			return 0b00, 4, nil
		case 32:
			return 0b10, 6, nil
		default:
			return 0, 0, ctkerr.Dataf(opEncode, errUnsupportedWord)
		}
	case Extended:
		switch wordBits {
		case 8:
			return 0b00, 3, nil
		case 16:
			return 0b01, 4, nil
		case 32:
			return 0b10, 5, nil
		case 64:
			return 0b11, 6, nil
		default:
			return 0, 0, ctkerr.Dataf(opEncode, errUnsupportedWord)
		}
	default:
		return 0, 0, ctkerr.Bugf(opEncode, errUnknownFormat)
	}
}

// wordBitsFromS is the inverse of sFields's first return value.
func wordBitsFromS(format Format, sval uint8) (wordBits uint8, fieldWidthN uint8, err error) {
	switch format {
	case Reflib:
		switch sval & 0b10 {
		case 0b00:
			return 16, 4, nil
		case 0b10:
			return 32, 6, nil
		}
	case Extended:
		switch sval {
		case 0b00:
			return 8, 3, nil
		case 0b01:
			return 16, 4, nil
		case 0b10:
			return 32, 5, nil
		case 0b11:
			return 64, 6, nil
		}
	}
	return 0, 0, ctkerr.Dataf(opDecode, errUnsupportedWord)
}

var (
	errUnsupportedWord = dataErr("unsupported word size for format")
	errUnknownFormat   = dataErr("unknown format")
	errShortRow        = dataErr("row length below minimum of 1")
	errBadFields       = dataErr("invalid n/nexc fields")
)

type dataErr string

func (e dataErr) Error() string { return string(e) }

// exceptionMarker is the n-bit pattern 1000...0 used to escape to the
// wider nexc-bit encoding.
func exceptionMarker(n uint8) uint64 {
	if n == 0 {
		return 0
	}
	return uint64(1) << (n - 1)
}

// signedBitsNeeded returns the smallest n in [1,64] such that v fits
// in the signed n-bit range.
func signedBitsNeeded(v int64) uint8 {
	var n uint8 = 1
	for n < 64 {
		lo := -(int64(1) << (n - 1))
		hi := (int64(1) << (n - 1)) - 1
		if v >= lo && v <= hi {
			return n
		}
		n++
	}
	return 64
}

func fitsSigned(v int64, n uint8) bool {
	if n >= 64 {
		return true
	}
	lo := -(int64(1) << (n - 1))
	hi := (int64(1) << (n - 1)) - 1
	return v >= lo && v <= hi
}

func lowBits(v int64, n uint8) uint64 {
	if n >= 64 {
		return uint64(v)
	}
	return uint64(v) & ((uint64(1) << n) - 1)
}

// writeEntity packs one residual using fixed-width (n==nexc) or
// variable-width (n<nexc, with exception-marker escape) encoding.
func writeEntity(w *bitio.Writer, v int64, n, nexc uint8) {
	if n == nexc {
		w.Write(n, lowBits(v, n))
		return
	}

	pattern := lowBits(v, n)
	if fitsSigned(v, n) && pattern != exceptionMarker(n) {
		w.Write(n, pattern)
		return
	}

	w.Write(n, exceptionMarker(n))
	w.Write(nexc, lowBits(v, nexc))
}

// readEntity reverses writeEntity.
func readEntity(r *bitio.Reader, n, nexc uint8) (int64, bool) {
	pattern, ok := r.Read(n)
	if !ok {
		return 0, false
	}

	if n == nexc {
		return bitio.RestoreSign(pattern, n), true
	}

	if pattern == exceptionMarker(n) {
		wide, ok := r.Read(nexc)
		if !ok {
			return 0, false
		}
		return bitio.RestoreSign(wide, nexc), true
	}

	return bitio.RestoreSign(pattern, n), true
}

// entityCostBits returns the number of bits writeEntity would emit for v.
func entityCostBits(v int64, n, nexc uint8) uint64 {
	if n == nexc {
		return uint64(n)
	}
	if fitsSigned(v, n) && lowBits(v, n) != exceptionMarker(n) {
		return uint64(n)
	}
	return uint64(n) + uint64(nexc)
}
