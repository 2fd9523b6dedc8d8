package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EndBlocker advances every pool's price accumulators to the block time so
// the oracle gains at least one observation per block even on pools with
// no trades.
func (k Keeper) EndBlocker(ctx sdk.Context) error {
	now := blockTimestamp(ctx)
	for _, pool := range k.GetAllPools(ctx) {
		if elapsedSeconds(now, pool.LastUpdateTimestamp) == 0 {
			continue
		}
		k.updateCumulativePrices(ctx, &pool)
		if err := k.SetPool(ctx, pool); err != nil {
			return err
		}
	}
	return nil
}
