// Package types provides common value types used across the token ledger.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"lukechampine.com/uint128"
)

// MaxDecimals is the largest decimal exponent whose scale factor fits in an Amount.
const MaxDecimals = 38

var (
	// ErrInvalidAmount is returned when a textual amount cannot be parsed.
	ErrInvalidAmount = errors.New("types: invalid amount")

	// ErrOverflow reports that a balance or aggregate would exceed 2^128-1.
	// It signals a broken invariant elsewhere, never a caller mistake.
	ErrOverflow = errors.New("tokenledger: amount overflow")
)

// Amount is a token quantity in minor units (the smallest indivisible unit).
// All arithmetic is unsigned 128-bit integer arithmetic; there is no floating
// point and no negative value.
//
// Examples with 8 decimals:
//   - NewAmount(100_000_000) = 1 token
//   - NewAmount(10_000)      = 0.0001 token (the default transfer fee)
type Amount struct {
	v uint128.Uint128
}

// Zero is the zero Amount.
var Zero = Amount{}

// MaxAmount is the largest representable Amount (2^128 - 1).
var MaxAmount = Amount{v: uint128.Max}

// NewAmount creates an Amount from a uint64 number of minor units.
func NewAmount(minor uint64) Amount { return Amount{v: uint128.From64(minor)} }

// FromUint128 wraps a raw uint128 value.
func FromUint128(u uint128.Uint128) Amount { return Amount{v: u} }

// ParseAmount parses a base-10 string of minor units.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if s[0] == '-' || s[0] == '+' {
		return Zero, fmt.Errorf("%w: %q is not an unsigned integer", ErrInvalidAmount, s)
	}
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, fmt.Errorf("%w: %q is not a base-10 integer", ErrInvalidAmount, s)
	}
	if i.BitLen() > 128 {
		return Zero, fmt.Errorf("%w: %q overflows 128 bits", ErrInvalidAmount, s)
	}
	return Amount{v: uint128.FromBig(i)}, nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for constants.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Pow10 returns 10^n as an Amount. It fails when n exceeds MaxDecimals.
func Pow10(n uint8) (Amount, error) {
	if n > MaxDecimals {
		return Zero, fmt.Errorf("%w: 10^%d overflows 128 bits", ErrInvalidAmount, n)
	}
	u := uint128.From64(1)
	for i := uint8(0); i < n; i++ {
		u = u.Mul64(10)
	}
	return Amount{v: u}, nil
}

// Tokens returns whole * 10^decimals minor units, reporting false on overflow.
func Tokens(whole uint64, decimals uint8) (Amount, bool) {
	scale, err := Pow10(decimals)
	if err != nil {
		return Zero, false
	}
	prod := new(big.Int).Mul(scale.Big(), new(big.Int).SetUint64(whole))
	if prod.BitLen() > 128 {
		return Zero, false
	}
	return Amount{v: uint128.FromBig(prod)}, true
}

// Checked arithmetic

// CheckedAdd returns a+b and false if the sum would exceed MaxAmount.
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	sum := a.v.AddWrap(b.v)
	if sum.Cmp(a.v) < 0 {
		return Zero, false
	}
	return Amount{v: sum}, true
}

// CheckedSub returns a-b and false if b is greater than a.
func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	if a.v.Cmp(b.v) < 0 {
		return Zero, false
	}
	return Amount{v: a.v.SubWrap(b.v)}, true
}

// Comparison

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(b.v) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.v.Equals(b.v) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.v.Cmp(b.v) < 0 }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Conversion

// Uint128 returns the raw 128-bit value.
func (a Amount) Uint128() uint128.Uint128 { return a.v }

// Big returns the amount as a newly allocated big.Int.
func (a Amount) Big() *big.Int { return a.v.Big() }

// Uint64 returns the amount and whether it fits in a uint64.
func (a Amount) Uint64() (uint64, bool) {
	if a.v.Hi != 0 {
		return 0, false
	}
	return a.v.Lo, true
}

// String returns the base-10 representation in minor units.
func (a Amount) String() string { return a.v.String() }

// MarshalJSON encodes the amount as a decimal string so values above 2^53
// survive JSON clients that parse numbers as float64.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.String())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum adds all values, reporting false on overflow.
func Sum(values ...Amount) (Amount, bool) {
	total := Zero
	for _, v := range values {
		var ok bool
		if total, ok = total.CheckedAdd(v); !ok {
			return Zero, false
		}
	}
	return total, true
}
