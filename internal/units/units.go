package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// TokenDecimals is the precision of on-chain asset amounts.
	TokenDecimals = 18
	// BpsOne is one dollar in the basis-point price convention.
	BpsOne = 10000
)

var ErrFractional = errors.New("amount has more precision than the token supports")

// Parse converts a decimal string in whole-token units into a fixed-point
// integer with the given number of decimals.
func Parse(value string, decimals int32) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", value)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q: %w", value, ErrFractional)
	}
	return scaled.BigInt(), nil
}

// MustParse is Parse for constants.
func MustParse(value string, decimals int32) *big.Int {
	v, err := Parse(value, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders a fixed-point integer as a decimal string.
func Format(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// FormatEther renders an 18-decimal amount.
func FormatEther(amount *big.Int) string {
	return Format(amount, TokenDecimals)
}

// Gwei converts a whole-gwei value into wei.
func Gwei(gwei uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gwei), big.NewInt(1_000_000_000))
}

// Zero returns a fresh zero value so callers never share a mutable *big.Int.
func Zero() *big.Int {
	return new(big.Int)
}
