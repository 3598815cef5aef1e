package qss

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// decodeAddress turns a wire base58 address into raw bytes, or an error
// reporting the malformed input.
func decodeAddress(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("Invalid address format")
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("Invalid address format")
	}
	return b, nil
}

// amountParts splits a fixed-point i64 amount into an "integral" part and a
// fractional component expressed over 1e18. This index stores whole-unit
// i64 token amounts, so fraction is always zero; the split is kept so
// clients expecting the fixed-point shape don't need a special case.
type amountParts struct {
	Integral int64   `json:"integral"`
	Fraction int64   `json:"fraction"`
	Float    float64 `json:"float"`
}

func splitAmount(v int64) amountParts {
	return amountParts{Integral: v, Fraction: 0, Float: float64(v)}
}
