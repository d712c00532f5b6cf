package util

import "math/big"

// CloneBig returns an independent copy of x, treating nil as zero.
func CloneBig(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}
