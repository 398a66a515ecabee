package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	SOLDecimals   = 9  // SOL has 9 decimals (lamports)
	EVMDecimals   = 18 // SEI and other EVM natives use wei
	DisplayPlaces = 6  // balances are shown with 6 fractional digits
)

// ToDisplay converts an integer amount in base units to a display string with
// DisplayPlaces fractional digits. Extra precision is truncated, never rounded up.
// Example: ToDisplay(24981836, 9) = "0.024981"
func ToDisplay(base *big.Int, decimals int32) string {
	if base == nil {
		return decimal.Zero.StringFixed(DisplayPlaces)
	}
	return decimal.NewFromBigInt(base, -decimals).Truncate(DisplayPlaces).StringFixed(DisplayPlaces)
}

// ToBaseUnits converts a decimal display amount to integer base units.
// Fractional digits beyond decimals are dropped.
// Example: ToBaseUnits("0.024981836", 9) = 24981836
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	return d.Shift(decimals).Truncate(0).BigInt(), nil
}

// ParseAmount parses a non-negative decimal string.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%s': %w", amount, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	return d, nil
}

// LamportsToSOL converts lamports to a SOL display string
func LamportsToSOL(lamports uint64) string {
	return ToDisplay(new(big.Int).SetUint64(lamports), SOLDecimals)
}

// SOLToLamports converts a SOL string to lamports
func SOLToLamports(sol string) (uint64, error) {
	v, err := ToBaseUnits(sol, SOLDecimals)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount out of range")
	}
	return v.Uint64(), nil
}

// HexToBigInt parses a 0x-prefixed hex quantity as returned by EVM wallets.
func HexToBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if raw == "" {
		return nil, fmt.Errorf("invalid hex quantity '%s'", s)
	}
	v, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity '%s'", s)
	}
	return v, nil
}

// BigIntToHex formats a quantity as 0x-prefixed hex.
func BigIntToHex(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return "0x" + v.Text(16)
}

// CompareAmounts compares two decimal string amounts without float precision loss.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error if parsing fails
func CompareAmounts(a, b string) (int, error) {
	aVal, err := ParseAmount(a)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}
	bVal, err := ParseAmount(b)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}
	return aVal.Cmp(bVal), nil
}
