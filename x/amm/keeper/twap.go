package keeper

import (
	"context"
	"encoding/json"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// blockTimestamp truncates block time to uint32 seconds. All oracle
// arithmetic is done modulo 2^32, which keeps the accumulators correct
// across the 2106 wraparound as long as no single gap exceeds ~136 years.
func blockTimestamp(ctx sdk.Context) uint32 {
	return uint32(ctx.BlockTime().Unix()) //nolint:gosec // modulo 2^32 on purpose
}

// elapsedSeconds returns now-last modulo 2^32. Unsigned subtraction gives
// the right answer even when now has wrapped past zero and last has not.
func elapsedSeconds(now, last uint32) uint32 {
	return now - last
}

// updateCumulativePrices advances the pool's price accumulators to the
// current block time using the reserves as they stand, and checkpoints an
// oracle observation. Callers must invoke this BEFORE mutating reserves so
// the elapsed interval is priced at the pre-trade spot price.
func (k Keeper) updateCumulativePrices(ctx sdk.Context, pool *types.Pool) {
	now := blockTimestamp(ctx)
	elapsed := elapsedSeconds(now, pool.LastUpdateTimestamp)
	if elapsed == 0 {
		return
	}

	if pool.Reserve0.IsPositive() && pool.Reserve1.IsPositive() {
		elapsedDec := sdkmath.LegacyNewDec(int64(elapsed))
		price0 := sdkmath.LegacyNewDecFromInt(pool.Reserve1).QuoInt(pool.Reserve0)
		price1 := sdkmath.LegacyNewDecFromInt(pool.Reserve0).QuoInt(pool.Reserve1)
		pool.Price0CumulativeLast = pool.Price0CumulativeLast.Add(price0.Mul(elapsedDec))
		pool.Price1CumulativeLast = pool.Price1CumulativeLast.Add(price1.Mul(elapsedDec))

		k.recordObservation(ctx, *pool, now)
	}

	pool.LastUpdateTimestamp = now
}

func (k Keeper) recordObservation(ctx context.Context, pool types.Pool, timestamp uint32) {
	obs := types.PriceObservation{
		PoolId:           pool.Id,
		Timestamp:        timestamp,
		Price0Cumulative: pool.Price0CumulativeLast,
		Price1Cumulative: pool.Price1CumulativeLast,
	}
	bz, err := json.Marshal(obs)
	if err != nil {
		return
	}
	k.getStore(ctx).Set(ObservationKey(pool.Id, timestamp), bz)
}

// GetObservations returns a pool's retained oracle checkpoints, pruning any
// that have aged out of the retention horizon. Pruning happens here, on
// read, so write paths stay O(1).
func (k Keeper) GetObservations(ctx context.Context, poolID uint64) []types.PriceObservation {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := blockTimestamp(sdkCtx)
	retention := uint32(k.GetParams(ctx).TwapWindowSeconds) * 2

	store := k.getStore(ctx)
	prefix := ObservationsByPoolPrefix(poolID)
	iterator := store.Iterator(prefix, append(prefix, 0xFF))
	defer iterator.Close()

	var kept []types.PriceObservation
	var stale [][]byte
	for ; iterator.Valid(); iterator.Next() {
		var obs types.PriceObservation
		if err := json.Unmarshal(iterator.Value(), &obs); err != nil {
			continue
		}
		if elapsedSeconds(now, obs.Timestamp) > retention {
			key := make([]byte, len(iterator.Key()))
			copy(key, iterator.Key())
			stale = append(stale, key)
			continue
		}
		kept = append(kept, obs)
	}

	for _, key := range stale {
		store.Delete(key)
	}
	return kept
}

// ConsultTWAP returns the time-weighted average prices of token0 in token1
// and vice versa over the trailing window. It fails with ErrStaleOracle
// when no retained observation is old enough to span the window.
func (k Keeper) ConsultTWAP(ctx context.Context, poolID uint64, windowSeconds uint32) (price0, price1 sdkmath.LegacyDec, err error) {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if windowSeconds == 0 {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, types.ErrInvalidInput.Wrap("window must be positive")
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := blockTimestamp(sdkCtx)

	// Advance a copy of the accumulators to now; the stored pool is left
	// untouched so consulting the oracle is a pure read.
	current := pool
	k.virtualAccumulate(sdkCtx, &current)

	// Pick the newest observation at least windowSeconds old.
	var anchor *types.PriceObservation
	for _, obs := range k.GetObservations(ctx, poolID) {
		obs := obs
		if elapsedSeconds(now, obs.Timestamp) < windowSeconds {
			continue
		}
		if anchor == nil || elapsedSeconds(now, obs.Timestamp) < elapsedSeconds(now, anchor.Timestamp) {
			anchor = &obs
		}
	}
	if anchor == nil {
		return sdkmath.LegacyDec{}, sdkmath.LegacyDec{}, types.ErrStaleOracle.Wrapf(
			"pool %d has no observation older than %ds", poolID, windowSeconds)
	}

	elapsed := elapsedSeconds(now, anchor.Timestamp)
	elapsedDec := sdkmath.LegacyNewDec(int64(elapsed))
	price0 = current.Price0CumulativeLast.Sub(anchor.Price0Cumulative).Quo(elapsedDec)
	price1 = current.Price1CumulativeLast.Sub(anchor.Price1Cumulative).Quo(elapsedDec)
	return price0, price1, nil
}

// virtualAccumulate is updateCumulativePrices without the observation
// checkpoint or any store write.
func (k Keeper) virtualAccumulate(ctx sdk.Context, pool *types.Pool) {
	now := blockTimestamp(ctx)
	elapsed := elapsedSeconds(now, pool.LastUpdateTimestamp)
	if elapsed == 0 {
		return
	}
	if pool.Reserve0.IsPositive() && pool.Reserve1.IsPositive() {
		elapsedDec := sdkmath.LegacyNewDec(int64(elapsed))
		price0 := sdkmath.LegacyNewDecFromInt(pool.Reserve1).QuoInt(pool.Reserve0)
		price1 := sdkmath.LegacyNewDecFromInt(pool.Reserve0).QuoInt(pool.Reserve1)
		pool.Price0CumulativeLast = pool.Price0CumulativeLast.Add(price0.Mul(elapsedDec))
		pool.Price1CumulativeLast = pool.Price1CumulativeLast.Add(price1.Mul(elapsedDec))
	}
	pool.LastUpdateTimestamp = now
}

// SpotPrice returns the instantaneous price of denomIn quoted in the other
// pool token. Manipulable within a transaction; use ConsultTWAP for
// anything value-bearing.
func (k Keeper) SpotPrice(ctx context.Context, poolID uint64, denomIn string) (sdkmath.LegacyDec, error) {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return sdkmath.LegacyDec{}, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if !pool.HasToken(denomIn) {
		return sdkmath.LegacyDec{}, types.ErrInvalidInput.Wrapf("denom %s not in pool %d", denomIn, poolID)
	}
	if pool.Reserve0.IsZero() || pool.Reserve1.IsZero() {
		return sdkmath.LegacyDec{}, types.ErrInsufficientLiquidity.Wrapf("pool %d is empty", poolID)
	}

	reserveIn, reserveOut := pool.ReservesFor(denomIn)
	return sdkmath.LegacyNewDecFromInt(reserveOut).QuoInt(reserveIn), nil
}
