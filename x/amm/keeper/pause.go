package keeper

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// PausePool halts swaps, deposits, and flash loans on one pool. Withdrawals
// stay open so providers can always exit.
func (k Keeper) PausePool(ctx context.Context, actor string, poolID uint64) error {
	if actor != k.authority {
		return types.ErrUnauthorized.Wrapf("actor %s cannot pause pools", actor)
	}

	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if pool.Status == types.PoolStatusPaused {
		return nil
	}

	pool.Status = types.PoolStatusPaused
	if err := k.SetPool(ctx, pool); err != nil {
		return err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolPaused,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(poolID)),
			sdk.NewAttribute(types.AttributeKeyActor, actor),
		),
	)
	k.Logger(sdkCtx).Info("pool paused", "pool_id", poolID, "actor", actor)

	return nil
}

// UnpausePool resumes normal operation.
func (k Keeper) UnpausePool(ctx context.Context, actor string, poolID uint64) error {
	if actor != k.authority {
		return types.ErrUnauthorized.Wrapf("actor %s cannot unpause pools", actor)
	}

	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if pool.Status == types.PoolStatusActive {
		return nil
	}

	pool.Status = types.PoolStatusActive
	if err := k.SetPool(ctx, pool); err != nil {
		return err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolUnpaused,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(poolID)),
			sdk.NewAttribute(types.AttributeKeyActor, actor),
		),
	)
	k.Logger(sdkCtx).Info("pool unpaused", "pool_id", poolID, "actor", actor)

	return nil
}
