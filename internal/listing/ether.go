package listing

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// weiDecimals is the number of decimal places between ether and wei.
const weiDecimals = 18

var (
	ErrInvalidAmount = errors.New("invalid ether amount")
)

// ParseEther converts a plain decimal ether amount such as "0.016" to wei.
// Exponent forms like "1e-3" are rejected.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.ContainsAny(s, "eE") {
		return nil, fmt.Errorf("%w: %q uses exponent notation", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	wei := d.Shift(weiDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, s, weiDecimals)
	}
	return wei.BigInt(), nil
}

// FormatEther renders a wei amount as ether without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).String()
}
