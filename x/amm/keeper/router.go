package keeper

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// validateRoute checks a denom path before any state is touched.
func (k Keeper) validateRoute(ctx context.Context, path []string) error {
	if len(path) < 2 {
		return types.ErrInvalidInput.Wrap("route needs at least two denoms")
	}

	maxHops := k.GetParams(ctx).MaxHops
	if uint64(len(path)-1) > maxHops {
		return types.ErrTooManyHops.Wrapf("%d hops, maximum %d", len(path)-1, maxHops)
	}

	for i := 0; i < len(path)-1; i++ {
		if path[i] == path[i+1] {
			return types.ErrIdenticalTokens.Wrapf("hop %d: %s", i, path[i])
		}
	}
	return nil
}

// QuoteRoute simulates a multi-hop swap and returns the amount at each step
// of the path, starting with the input itself.
func (k Keeper) QuoteRoute(ctx context.Context, path []string, amountIn sdkmath.Int) ([]sdkmath.Int, error) {
	if err := k.validateRoute(ctx, path); err != nil {
		return nil, err
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return nil, types.ErrZeroAmount.Wrap("route input")
	}

	feeBps := k.GetParams(ctx).SwapFeeBps
	amounts := make([]sdkmath.Int, len(path))
	amounts[0] = amountIn
	for i := 0; i < len(path)-1; i++ {
		pool, found := k.GetPoolByDenoms(ctx, path[i], path[i+1])
		if !found {
			return nil, types.ErrPoolNotFound.Wrapf("pair %s/%s", path[i], path[i+1])
		}
		reserveIn, reserveOut := pool.ReservesFor(path[i])
		out, err := GetAmountOut(amounts[i], reserveIn, reserveOut, feeBps)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// SwapExactTokensForTokens executes a multi-hop swap along path. Either
// every hop lands or none does: the route runs on a branched state that is
// only committed once the final output clears minAmountOut.
func (k Keeper) SwapExactTokensForTokens(
	ctx context.Context,
	sender sdk.AccAddress,
	amountIn sdkmath.Int,
	minAmountOut sdkmath.Int,
	path []string,
	recipient sdk.AccAddress,
	deadline time.Time,
) ([]sdkmath.Int, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if !deadline.IsZero() && sdkCtx.BlockTime().After(deadline) {
		return nil, types.ErrExpired.Wrapf("deadline %s, block time %s", deadline, sdkCtx.BlockTime())
	}
	if err := k.validateRoute(ctx, path); err != nil {
		return nil, err
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return nil, types.ErrZeroAmount.Wrap("route input")
	}
	if minAmountOut.IsNil() || minAmountOut.IsNegative() {
		return nil, types.ErrInvalidInput.Wrap("negative minimum output")
	}
	if recipient.Empty() {
		return nil, types.ErrInvalidRecipient.Wrap("empty recipient")
	}

	cacheCtx, write := sdkCtx.CacheContext()

	amounts := make([]sdkmath.Int, len(path))
	amounts[0] = amountIn
	for i := 0; i < len(path)-1; i++ {
		pool, found := k.GetPoolByDenoms(cacheCtx, path[i], path[i+1])
		if !found {
			return nil, types.ErrPoolNotFound.Wrapf("pair %s/%s", path[i], path[i+1])
		}

		// Intermediate proceeds pass through the sender's account; only
		// the final hop pays the recipient.
		hopRecipient := sender
		if i == len(path)-2 {
			hopRecipient = recipient
		}

		// Per-hop slippage is left unbounded; the route-level minimum
		// below is the binding check.
		out, err := k.Swap(cacheCtx, sender, pool.Id, path[i], amounts[i], sdkmath.ZeroInt(), hopRecipient)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
	}

	finalOut := amounts[len(amounts)-1]
	if finalOut.LT(minAmountOut) {
		return nil, types.ErrInsufficientOutputAmount.Wrapf(
			"route yields %s, minimum %s", finalOut, minAmountOut)
	}

	write()
	sdkCtx.EventManager().EmitEvents(cacheCtx.EventManager().Events())

	k.Logger(sdkCtx).Info("route executed",
		"hops", len(path)-1,
		"amount_in", amountIn.String(),
		"amount_out", finalOut.String(),
	)
	hops := uint64(len(path) - 1)
	metrics().routerSwaps.WithLabelValues(formatUint(hops)).Inc()

	return amounts, nil
}
