// Package arith provides the string-valued arithmetic functions exposed to
// the chat model as tools.
package arith

import "math/big"

// SumAsString formats the sum of two numbers as string.
func SumAsString(a, b int64) string {
	return new(big.Int).Add(big.NewInt(a), big.NewInt(b)).String()
}

// SubtractAsString formats the difference a - b as string.
func SubtractAsString(a, b int64) string {
	return new(big.Int).Sub(big.NewInt(a), big.NewInt(b)).String()
}
