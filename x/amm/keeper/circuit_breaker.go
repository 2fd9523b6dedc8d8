package keeper

import (
	"context"
	"encoding/json"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// GlobalBreakerID addresses the exchange-wide breaker. Real pool ids start
// at 1 so the slot is never ambiguous.
const GlobalBreakerID uint64 = 0

// GetBreaker returns the breaker record for a pool, or the global record
// for GlobalBreakerID. A missing record means never tripped.
func (k Keeper) GetBreaker(ctx context.Context, poolID uint64) types.BreakerState {
	bz := k.getStore(ctx).Get(BreakerKey(poolID))
	if bz == nil {
		return types.BreakerState{}
	}

	var state types.BreakerState
	if err := json.Unmarshal(bz, &state); err != nil {
		// Unreadable state fails closed: treat the breaker as tripped.
		return types.BreakerState{Tripped: true, Reason: "corrupt breaker state"}
	}
	return state
}

func (k Keeper) setBreaker(ctx context.Context, poolID uint64, state types.BreakerState) {
	bz, err := json.Marshal(state)
	if err != nil {
		return
	}
	k.getStore(ctx).Set(BreakerKey(poolID), bz)
}

// IsBreakerTripped reports whether trading is halted for a pool, either by
// its own breaker or the global one.
func (k Keeper) IsBreakerTripped(ctx context.Context, poolID uint64) bool {
	if k.GetBreaker(ctx, GlobalBreakerID).Tripped {
		return true
	}
	return k.GetBreaker(ctx, poolID).Tripped
}

// TripBreaker halts trading. Breaker state changes only through this call
// and ResetBreaker, never as a side effect of a rejected trade.
func (k Keeper) TripBreaker(ctx context.Context, actor string, poolID uint64, reason string) error {
	if actor != k.authority {
		return types.ErrUnauthorized.Wrapf("actor %s cannot trip circuit breaker", actor)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	state := types.BreakerState{
		Tripped:   true,
		Reason:    reason,
		Actor:     actor,
		TrippedAt: sdkCtx.BlockTime().Unix(),
	}
	k.setBreaker(ctx, poolID, state)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCircuitBreakerTripped,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(poolID)),
			sdk.NewAttribute(types.AttributeKeyActor, actor),
			sdk.NewAttribute(types.AttributeKeyReason, reason),
		),
	)
	k.Logger(sdkCtx).Error("circuit breaker tripped",
		"pool_id", poolID,
		"actor", actor,
		"reason", reason,
	)
	metrics().breakerTrips.WithLabelValues(formatUint(poolID), reason).Inc()

	return nil
}

// ResetBreaker re-enables trading once the cooldown has elapsed.
func (k Keeper) ResetBreaker(ctx context.Context, actor string, poolID uint64) error {
	if actor != k.authority {
		return types.ErrUnauthorized.Wrapf("actor %s cannot reset circuit breaker", actor)
	}

	state := k.GetBreaker(ctx, poolID)
	if !state.Tripped {
		return types.ErrInvalidInput.Wrapf("breaker for pool %d is not tripped", poolID)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	params := k.GetParams(ctx)
	elapsed := sdkCtx.BlockTime().Unix() - state.TrippedAt
	if elapsed < int64(params.BreakerCooldownSeconds) {
		return types.ErrCooldownActive.Wrapf(
			"cooldown %ds, only %ds elapsed", params.BreakerCooldownSeconds, elapsed)
	}

	k.setBreaker(ctx, poolID, types.BreakerState{})

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCircuitBreakerReset,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(poolID)),
			sdk.NewAttribute(types.AttributeKeyActor, actor),
		),
	)
	k.Logger(sdkCtx).Info("circuit breaker reset", "pool_id", poolID, "actor", actor)
	metrics().breakerResets.Inc()

	return nil
}

// checkBreaker rejects trading operations while any applicable breaker is
// tripped.
func (k Keeper) checkBreaker(ctx context.Context, poolID uint64) error {
	if state := k.GetBreaker(ctx, GlobalBreakerID); state.Tripped {
		return types.ErrCircuitBreakerActive.Wrapf("global breaker: %s", state.Reason)
	}
	if state := k.GetBreaker(ctx, poolID); state.Tripped {
		return types.ErrCircuitBreakerActive.Wrapf("pool %d breaker: %s", poolID, state.Reason)
	}
	return nil
}

// checkPriceImpact rejects a swap whose spot price move exceeds
// MaxPriceChange. The swap simply fails; the breaker is left alone so a
// rejected trade cannot halt the pool for everyone else.
func (k Keeper) checkPriceImpact(ctx context.Context, oldReserveIn, oldReserveOut, newReserveIn, newReserveOut sdkmath.Int) error {
	params := k.GetParams(ctx)

	oldPrice := sdkmath.LegacyNewDecFromInt(oldReserveOut).QuoInt(oldReserveIn)
	newPrice := sdkmath.LegacyNewDecFromInt(newReserveOut).QuoInt(newReserveIn)
	change := oldPrice.Sub(newPrice).Abs().Quo(oldPrice)

	if change.GT(params.MaxPriceChange) {
		return types.ErrExcessivePriceChange.Wrapf(
			"price moved %s, limit %s", change.String(), params.MaxPriceChange.String())
	}
	return nil
}

// recordVolume accumulates swap input volume against the per-block cap.
// The counter resets implicitly when the block height advances.
func (k Keeper) recordVolume(ctx context.Context, pool *types.Pool, amountIn sdkmath.Int) error {
	params := k.GetParams(ctx)
	if params.MaxVolumePerBlock.IsZero() {
		return nil
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	height := sdkCtx.BlockHeight()
	if pool.LastVolumeBlock != height {
		pool.LastVolumeBlock = height
		pool.VolumeInCurrentBlock = sdkmath.ZeroInt()
	}

	next, err := SafeAdd(pool.VolumeInCurrentBlock, amountIn)
	if err != nil {
		return err
	}
	if next.GT(params.MaxVolumePerBlock) {
		return types.ErrVolumeLimitExceeded.Wrapf(
			"block volume %s would exceed cap %s", next.String(), params.MaxVolumePerBlock.String())
	}

	pool.VolumeInCurrentBlock = next
	return nil
}
