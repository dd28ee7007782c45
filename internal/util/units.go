package util

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

const unitsBase = 10

// FormatUnits renders an integer token amount in human readable form for the
// given number of decimals. The conversion is integer-exact; no floating
// point is involved at any precision.
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	if decimals <= 0 {
		return amount.String()
	}

	sign := ""
	abs := new(big.Int).Abs(amount)
	if amount.Sign() < 0 {
		sign = "-"
	}

	divisor := new(big.Int).Exp(big.NewInt(unitsBase), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := frac.String()
	for len(fracStr) < decimals {
		fracStr = "0" + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")

	return sign + whole.String() + "." + fracStr
}

// ParseUnits converts a human readable decimal token amount back to its
// integer base-unit representation. Amounts with more fractional digits than
// the token carries are rejected rather than rounded.
func ParseUnits(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, errors.Errorf("amount %q has more than %d decimal places", s, decimals)
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	amount, ok := new(big.Int).SetString(digits, unitsBase)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	if negative {
		amount.Neg(amount)
	}

	return amount, nil
}
