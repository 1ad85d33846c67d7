// Package guard implements checked 64-bit signed arithmetic with
// three selectable policies, and the strong-typed counters (bit,
// byte, sensor, measurement, epoch, segment) that the rest of the
// module threads through instead of bare int64.
package guard

import (
	"errors"
	"math"

	"github.com/slatinski/ctk-sub001/internal/ctkerr"
)

// Overflow kinds, one per failing pre-operation test. These mirror the
// reference implementation's arithmetic_error enumerators one for one.
var (
	ErrAddition0       = errors.New("addition overflow: a > max - b")
	ErrAddition1       = errors.New("addition overflow: a < min - b")
	ErrSubtraction0    = errors.New("subtraction overflow: a > max + b")
	ErrSubtraction1    = errors.New("subtraction overflow: a < min + b")
	ErrMultiplication0 = errors.New("multiplication overflow: positive operands")
	ErrMultiplication1 = errors.New("multiplication overflow: mixed sign, a|b<0")
	ErrMultiplication2 = errors.New("multiplication overflow: mixed sign, b|a<0")
	ErrMultiplication3 = errors.New("multiplication overflow: negative operands")
	ErrDivision0       = errors.New("division by zero")
	ErrDivision1       = errors.New("division overflow: MinInt64 / -1")
	ErrCast            = errors.New("cast out of target range")
)

const (
	maxInt64 = math.MaxInt64
	minInt64 = math.MinInt64
)

func addErr(a, b int64) error {
	if b > 0 && a > maxInt64-b {
		return ErrAddition0
	}
	if b < 0 && a < minInt64-b {
		return ErrAddition1
	}
	return nil
}

func subErr(a, b int64) error {
	if b < 0 && a > maxInt64+b {
		return ErrSubtraction0
	}
	if b > 0 && a < minInt64+b {
		return ErrSubtraction1
	}
	return nil
}

func mulErr(a, b int64) error {
	if a > 0 {
		if b > 0 {
			if a > maxInt64/b {
				return ErrMultiplication0
			}
		} else if b < 0 {
			if b < minInt64/a {
				return ErrMultiplication1
			}
		}
	} else if a < 0 {
		if b > 0 {
			if a < minInt64/b {
				return ErrMultiplication2
			}
		} else if b < 0 {
			if a != 0 && b < maxInt64/a {
				return ErrMultiplication3
			}
		}
	}
	return nil
}

func divErr(a, b int64) error {
	if b == 0 {
		return ErrDivision0
	}
	if a == minInt64 && b == -1 {
		return ErrDivision1
	}
	return nil
}

// Policy selects what happens when a checked operation would
// overflow.
type Policy int

const (
	// Unguarded truncates silently, C-style. Used only where the
	// caller has already established the operation cannot overflow.
	Unguarded Policy = iota
	// Guarded panics with a *ctkerr.Error{Kind: ctkerr.Bug}. Used
	// where overflow would indicate a programmer error.
	Guarded
	// Ok returns a *ctkerr.Error{Kind: ctkerr.Data}. Used for values
	// derived from untrusted file contents.
	Ok
)

func apply(op string, p Policy, result int64, err error) (int64, error) {
	if err == nil {
		return result, nil
	}
	switch p {
	case Unguarded:
		return result, nil
	case Guarded:
		panic(ctkerr.Bugf(op, err))
	default: // Ok
		return 0, ctkerr.Dataf(op, err)
	}
}

// Add returns a+b, or fails per p.
func Add(a, b int64, p Policy) (int64, error) {
	return apply("guard.Add", p, a+b, addErr(a, b))
}

// Sub returns a-b, or fails per p.
func Sub(a, b int64, p Policy) (int64, error) {
	return apply("guard.Sub", p, a-b, subErr(a, b))
}

// Mul returns a*b, or fails per p.
func Mul(a, b int64, p Policy) (int64, error) {
	return apply("guard.Mul", p, a*b, mulErr(a, b))
}

// Div returns a/b, or fails per p.
func Div(a, b int64, p Policy) (int64, error) {
	if err := divErr(a, b); err != nil {
		return apply("guard.Div", p, 0, err)
	}
	return a / b, nil
}

// Cast narrows x into the inclusive range [lo, hi], or fails per p.
func Cast(x, lo, hi int64, p Policy) (int64, error) {
	if x < lo || x > hi {
		return apply("guard.Cast", p, x, ErrCast)
	}
	return x, nil
}

// Rounding selects how as_bits/as_bytes round a non-exact conversion.
type Rounding int

const (
	Ceil Rounding = iota
	Floor
)

// AsBits converts a byte count to a bit count (exact, ×8).
func AsBits(bytes int64, p Policy) (int64, error) {
	return Mul(bytes, 8, p)
}

// AsBytes converts a bit count to a byte count, rounding per r.
func AsBytes(bits int64, r Rounding, p Policy) (int64, error) {
	if r == Floor {
		return Div(bits, 8, p)
	}
	sum, err := Add(bits, 7, p)
	if err != nil {
		return 0, err
	}
	return Div(sum, 8, p)
}

// SizeInBitsInt64 is size_in_bits<int64_t>().
const SizeInBitsInt64 = 64
