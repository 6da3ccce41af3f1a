package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte account identifier. Comparing two Addresses compares
// bytes, so the hex case they were written in never matters.
type Address = common.Address

// ParseAddress parses a 0x-prefixed (or bare) hex account address in any case.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// SameAddress reports whether a and b name the same account.
func SameAddress(a, b Address) bool {
	return a == b
}
