// Package units converts between on-chain base units and decimal token amounts.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the precision of the native asset and most wrapped tokens.
const DefaultDecimals = 18

// Bounds on parsed amounts. A uint256 has 78 decimal digits; anything past
// that cannot be a token amount.
const (
	MaxIntegerDigits    = 78
	MaxFractionalDigits = 77
)

var (
	ErrNegative  = errors.New("amount must not be negative")
	ErrPrecision = errors.New("amount has more fractional digits than the token supports")
)

// FromBaseUnits scales an integer base-unit value down by decimals. A nil
// value reads as zero.
func FromBaseUnits(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// ToBaseUnits scales a token amount up to an integer base-unit value.
func ToBaseUnits(d decimal.Decimal, decimals int32) (*big.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegative
	}
	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%s with %d decimals: %w", d.String(), decimals, ErrPrecision)
	}
	return scaled.BigInt(), nil
}

// ParseAmount normalizes user input. Empty, malformed, negative and
// out-of-range input all read as zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || !inRange(d) {
		return decimal.Zero
	}
	return d
}

// inRange reports whether d fits the integer and fractional digit bounds.
// The exponent is checked first so huge scientific notation is rejected
// before any rescaling happens.
func inRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > MaxIntegerDigits || exp < -MaxFractionalDigits {
		return false
	}
	digits := int32(len(d.Coefficient().String()))
	if d.IsZero() {
		digits = 0
	}
	return digits+exp <= MaxIntegerDigits
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Format renders d with at most places fractional digits, truncating.
func Format(d decimal.Decimal, places int32) string {
	return d.Truncate(places).String()
}
