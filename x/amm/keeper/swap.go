package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

const bpsDenominator = 10_000

// GetAmountOut computes the output of a constant-product swap after the
// input fee. The fee is taken off the input first, then the output is the
// largest amount that keeps reserveIn*reserveOut from shrinking once the
// full input (fee included) lands in the pool.
func GetAmountOut(amountIn, reserveIn, reserveOut sdkmath.Int, feeBps uint64) (sdkmath.Int, error) {
	if !amountIn.IsPositive() {
		return sdkmath.Int{}, types.ErrZeroAmount.Wrap("input amount")
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrap("empty reserves")
	}

	amountInWithFee, err := SafeMulDiv(amountIn, sdkmath.NewInt(bpsDenominator-int64(feeBps)), sdkmath.NewInt(bpsDenominator))
	if err != nil {
		return sdkmath.Int{}, err
	}
	if amountInWithFee.IsZero() {
		return sdkmath.Int{}, types.ErrZeroAmount.Wrap("input amount consumed entirely by fee")
	}

	newReserveIn, err := SafeAdd(reserveIn, amountInWithFee)
	if err != nil {
		return sdkmath.Int{}, err
	}
	quotient, err := SafeMulDiv(reserveIn, reserveOut, newReserveIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	amountOut := reserveOut.Sub(quotient)

	// The fee floor and the quotient floor can both round in the trader's
	// favor at once, which would let the raw reserve product shrink. One
	// unit back to the pool is always enough to restore it.
	oldProduct, err := SafeMul(reserveIn, reserveOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	grossReserveIn, err := SafeAdd(reserveIn, amountIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	newProduct, err := SafeMul(grossReserveIn, reserveOut.Sub(amountOut))
	if err != nil {
		return sdkmath.Int{}, err
	}
	if newProduct.LT(oldProduct) {
		amountOut = amountOut.SubRaw(1)
	}

	if !amountOut.IsPositive() {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrapf(
			"input %s too small against reserves %s/%s", amountIn, reserveIn, reserveOut)
	}
	return amountOut, nil
}

// GetAmountIn computes the minimum input that yields amountOut, rounding
// up so the caller never underpays.
func GetAmountIn(amountOut, reserveIn, reserveOut sdkmath.Int, feeBps uint64) (sdkmath.Int, error) {
	if !amountOut.IsPositive() {
		return sdkmath.Int{}, types.ErrZeroAmount.Wrap("output amount")
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrap("empty reserves")
	}
	if amountOut.GTE(reserveOut) {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrapf(
			"output %s exceeds reserve %s", amountOut, reserveOut)
	}

	numerator, err := SafeMul(reserveIn, amountOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	numerator, err = SafeMul(numerator, sdkmath.NewInt(bpsDenominator))
	if err != nil {
		return sdkmath.Int{}, err
	}
	denominator, err := SafeMul(reserveOut.Sub(amountOut), sdkmath.NewInt(bpsDenominator-int64(feeBps)))
	if err != nil {
		return sdkmath.Int{}, err
	}

	amountIn := numerator.Quo(denominator).AddRaw(1)
	return amountIn, nil
}

// Quote converts an amount of one pool token into the equivalent amount of
// the other at the current reserve ratio, with no fee.
func Quote(amountA, reserveA, reserveB sdkmath.Int) (sdkmath.Int, error) {
	if !amountA.IsPositive() {
		return sdkmath.Int{}, types.ErrZeroAmount.Wrap("quote amount")
	}
	if !reserveA.IsPositive() || !reserveB.IsPositive() {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrap("empty reserves")
	}
	return SafeMulDiv(amountA, reserveB, reserveA)
}

// SimulateSwap computes the output a swap would produce without touching
// state.
func (k Keeper) SimulateSwap(ctx context.Context, poolID uint64, tokenIn string, amountIn sdkmath.Int) (sdkmath.Int, error) {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return sdkmath.Int{}, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if !pool.HasToken(tokenIn) {
		return sdkmath.Int{}, types.ErrInvalidInput.Wrapf("denom %s not in pool %d", tokenIn, poolID)
	}

	reserveIn, reserveOut := pool.ReservesFor(tokenIn)
	return GetAmountOut(amountIn, reserveIn, reserveOut, k.GetParams(ctx).SwapFeeBps)
}

// Swap sells amountIn of tokenIn into a pool and sends the proceeds to
// recipient. The pool's state is finalized before any funds leave escrow.
func (k Keeper) Swap(
	ctx context.Context,
	sender sdk.AccAddress,
	poolID uint64,
	tokenIn string,
	amountIn sdkmath.Int,
	minAmountOut sdkmath.Int,
	recipient sdk.AccAddress,
) (sdkmath.Int, error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return sdkmath.Int{}, types.ErrZeroAmount.Wrap("swap input")
	}
	if minAmountOut.IsNil() || minAmountOut.IsNegative() {
		return sdkmath.Int{}, types.ErrInvalidInput.Wrap("negative minimum output")
	}
	if recipient.Empty() {
		return sdkmath.Int{}, types.ErrInvalidRecipient.Wrap("empty recipient")
	}

	var amountOut sdkmath.Int
	err := k.WithPoolLock(ctx, poolID, func() error {
		var err error
		amountOut, err = k.executeSwap(ctx, sender, poolID, tokenIn, amountIn, minAmountOut, recipient)
		return err
	})
	if err != nil {
		return sdkmath.Int{}, err
	}
	return amountOut, nil
}

func (k Keeper) executeSwap(
	ctx context.Context,
	sender sdk.AccAddress,
	poolID uint64,
	tokenIn string,
	amountIn sdkmath.Int,
	minAmountOut sdkmath.Int,
	recipient sdk.AccAddress,
) (sdkmath.Int, error) {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return sdkmath.Int{}, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if pool.Status == types.PoolStatusPaused {
		return sdkmath.Int{}, types.ErrPoolPaused.Wrapf("pool %d", poolID)
	}
	if err := k.checkBreaker(ctx, poolID); err != nil {
		return sdkmath.Int{}, err
	}
	if !pool.HasToken(tokenIn) {
		return sdkmath.Int{}, types.ErrInvalidInput.Wrapf("denom %s not in pool %d", tokenIn, poolID)
	}
	if err := k.ValidatePoolState(&pool); err != nil {
		return sdkmath.Int{}, err
	}

	params := k.GetParams(ctx)
	reserveIn, reserveOut := pool.ReservesFor(tokenIn)

	amountOut, err := GetAmountOut(amountIn, reserveIn, reserveOut, params.SwapFeeBps)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if amountOut.LT(minAmountOut) {
		return sdkmath.Int{}, types.ErrInsufficientOutputAmount.Wrapf(
			"computed %s, minimum %s", amountOut, minAmountOut)
	}
	if amountOut.GTE(reserveOut) {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrapf(
			"output %s would drain reserve %s", amountOut, reserveOut)
	}

	newReserveIn, err := SafeAdd(reserveIn, amountIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	newReserveOut, err := SafeSub(reserveOut, amountOut)
	if err != nil {
		return sdkmath.Int{}, err
	}

	if err := k.checkPriceImpact(ctx, reserveIn, reserveOut, newReserveIn, newReserveOut); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.recordVolume(ctx, &pool, amountIn); err != nil {
		return sdkmath.Int{}, err
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)

	// Accumulators advance on pre-trade reserves, then the trade applies.
	k.updateCumulativePrices(sdkCtx, &pool)

	oldK := pool.Reserve0.Mul(pool.Reserve1)

	tokenOut := pool.OtherToken(tokenIn)
	escrow := pool.EscrowAddress()
	if err := k.bankKeeper.SendCoins(ctx, sender, escrow, sdk.NewCoins(sdk.NewCoin(tokenIn, amountIn))); err != nil {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrapf("fund swap: %v", err)
	}

	if tokenIn == pool.Token0 {
		pool.Reserve0 = newReserveIn
		pool.Reserve1 = newReserveOut
	} else {
		pool.Reserve1 = newReserveIn
		pool.Reserve0 = newReserveOut
	}

	if err := k.ValidatePoolInvariant(&pool, oldK); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return sdkmath.Int{}, err
	}

	// State is final; only now do funds leave escrow.
	if err := k.bankKeeper.SendCoins(ctx, escrow, recipient, sdk.NewCoins(sdk.NewCoin(tokenOut, amountOut))); err != nil {
		return sdkmath.Int{}, types.ErrInvalidPoolState.Wrapf("pay out swap: %v", err)
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSwap,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(pool.Id)),
			sdk.NewAttribute(types.AttributeKeySender, sender.String()),
			sdk.NewAttribute(types.AttributeKeyRecipient, recipient.String()),
			sdk.NewAttribute(types.AttributeKeyTokenIn, tokenIn),
			sdk.NewAttribute(types.AttributeKeyTokenOut, tokenOut),
			sdk.NewAttribute(types.AttributeKeyAmountIn, amountIn.String()),
			sdk.NewAttribute(types.AttributeKeyAmountOut, amountOut.String()),
			sdk.NewAttribute(types.AttributeKeyReserve0, pool.Reserve0.String()),
			sdk.NewAttribute(types.AttributeKeyReserve1, pool.Reserve1.String()),
		),
	)

	k.Logger(sdkCtx).Info("swap executed",
		"pool_id", pool.Id,
		"token_in", tokenIn,
		"amount_in", amountIn.String(),
		"token_out", tokenOut,
		"amount_out", amountOut.String(),
	)

	m := metrics()
	m.swapsTotal.WithLabelValues(formatUint(pool.Id), tokenIn, tokenOut).Inc()
	if amountIn.IsInt64() {
		m.swapVolume.WithLabelValues(formatUint(pool.Id), tokenIn).Add(float64(amountIn.Int64()))
	}
	feePaid := amountIn.MulRaw(int64(params.SwapFeeBps)).QuoRaw(bpsDenominator)
	if feePaid.IsInt64() {
		m.swapFees.WithLabelValues(formatUint(pool.Id), tokenIn).Add(float64(feePaid.Int64()))
	}

	return amountOut, nil
}
