package keeper

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/surgeswap/surge/x/amm/types"
)

// Overflow-safe arithmetic for the AMM core. All reserve and share values
// must stay below 2^256 so they round-trip through math.Int.

var maxIntValue = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

// SafeAdd adds two math.Int values with overflow checking
func SafeAdd(a, b math.Int) (math.Int, error) {
	result := new(big.Int).Add(a.BigInt(), b.BigInt())
	if result.Cmp(maxIntValue) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("addition result exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeSub subtracts two math.Int values with underflow checking
func SafeSub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, types.ErrOverflow.Wrapf("underflow: cannot subtract %s from %s", b.String(), a.String())
	}
	return math.NewIntFromBigInt(new(big.Int).Sub(a.BigInt(), b.BigInt())), nil
}

// SafeMul multiplies two math.Int values with overflow checking
func SafeMul(a, b math.Int) (math.Int, error) {
	if a.IsZero() || b.IsZero() {
		return math.ZeroInt(), nil
	}
	result := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if result.Cmp(maxIntValue) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("multiplication result exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeMulDiv performs (a * b) / c, truncating toward zero. The intermediate
// product is kept as a big.Int so it cannot overflow before the division.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	result := new(big.Int).Quo(intermediate, c.BigInt())
	if result.Cmp(maxIntValue) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("quotient exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// IntSqrt returns the integer square root of a, rounded down. The shares
// formulas require exact floor semantics, so this goes through big.Int
// rather than an iterative decimal approximation.
func IntSqrt(a math.Int) (math.Int, error) {
	if a.IsNegative() {
		return math.Int{}, types.ErrOverflow.Wrap("square root of negative value")
	}
	return math.NewIntFromBigInt(new(big.Int).Sqrt(a.BigInt())), nil
}
