package keeper

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// RegisterInvariants registers the amm module invariants.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "escrow-backing", EscrowBackingInvariant(k))
	ir.RegisterRoute(types.ModuleName, "shares-supply", SharesSupplyInvariant(k))
}

// AllInvariants runs every amm invariant.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		if msg, broken := EscrowBackingInvariant(k)(ctx); broken {
			return msg, broken
		}
		return SharesSupplyInvariant(k)(ctx)
	}
}

// EscrowBackingInvariant checks that every pool's escrow account holds at
// least the recorded reserves. Donations may push balances above reserves;
// balances below reserves mean funds escaped without accounting.
func EscrowBackingInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, pool := range k.GetAllPools(ctx) {
			escrow := pool.EscrowAddress()
			bal0 := k.bankKeeper.GetBalance(ctx, escrow, pool.Token0).Amount
			bal1 := k.bankKeeper.GetBalance(ctx, escrow, pool.Token1).Amount
			if bal0.LT(pool.Reserve0) || bal1.LT(pool.Reserve1) {
				return sdk.FormatInvariant(types.ModuleName, "escrow-backing",
					fmt.Sprintf("pool %d escrow %s/%s below reserves %s/%s",
						pool.Id, bal0, bal1, pool.Reserve0, pool.Reserve1)), true
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "escrow-backing", "all pools backed"), false
	}
}

// SharesSupplyInvariant checks that positions sum exactly to each pool's
// recorded total share supply.
func SharesSupplyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, pool := range k.GetAllPools(ctx) {
			sum := sdkmath.ZeroInt()
			for _, pos := range k.GetPoolPositions(ctx, pool.Id) {
				sum = sum.Add(pos.Shares)
			}
			if !sum.Equal(pool.TotalShares) {
				return sdk.FormatInvariant(types.ModuleName, "shares-supply",
					fmt.Sprintf("pool %d positions sum to %s, total shares %s",
						pool.Id, sum, pool.TotalShares)), true
			}
		}
		return sdk.FormatInvariant(types.ModuleName, "shares-supply", "all supplies consistent"), false
	}
}
