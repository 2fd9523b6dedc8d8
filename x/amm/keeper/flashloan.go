package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// FlashLoanFee returns the fee owed on a flash loan principal, rounded up
// so any nonzero loan pays a nonzero fee.
func FlashLoanFee(amount sdkmath.Int, feeBps uint64) sdkmath.Int {
	fee := amount.MulRaw(int64(feeBps)).AddRaw(bpsDenominator - 1).QuoRaw(bpsDenominator)
	if fee.IsZero() && amount.IsPositive() {
		return sdkmath.OneInt()
	}
	return fee
}

// FlashLoan lends pool funds to borrower for the duration of callback. The
// callback runs on a branched state that only commits if the escrow balance
// grew by at least the fee; repayment is measured by balance delta, never
// by trusting the borrower. The pool's reentrancy lock is held for the
// whole call, so the callback cannot trade against the lending pool.
func (k Keeper) FlashLoan(
	ctx context.Context,
	borrower sdk.AccAddress,
	poolID uint64,
	denom string,
	amount sdkmath.Int,
	callback types.FlashLoanReceiver,
) error {
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrZeroAmount.Wrap("loan amount")
	}
	if callback == nil {
		return types.ErrInvalidInput.Wrap("nil flash loan callback")
	}
	if borrower.Empty() {
		return types.ErrInvalidRecipient.Wrap("empty borrower")
	}

	return k.WithPoolLock(ctx, poolID, func() error {
		return k.executeFlashLoan(ctx, borrower, poolID, denom, amount, callback)
	})
}

func (k Keeper) executeFlashLoan(
	ctx context.Context,
	borrower sdk.AccAddress,
	poolID uint64,
	denom string,
	amount sdkmath.Int,
	callback types.FlashLoanReceiver,
) error {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if pool.Status == types.PoolStatusPaused {
		return types.ErrPoolPaused.Wrapf("pool %d", poolID)
	}
	if err := k.checkBreaker(ctx, poolID); err != nil {
		return err
	}
	if !pool.HasToken(denom) {
		return types.ErrInvalidInput.Wrapf("denom %s not in pool %d", denom, poolID)
	}

	reserve := pool.Reserve0
	if denom == pool.Token1 {
		reserve = pool.Reserve1
	}
	if amount.GTE(reserve) {
		return types.ErrInsufficientLiquidity.Wrapf(
			"loan %s would drain reserve %s", amount, reserve)
	}

	params := k.GetParams(ctx)
	fee := FlashLoanFee(amount, params.FlashLoanFeeBps)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	escrow := pool.EscrowAddress()
	balanceBefore := k.bankKeeper.GetBalance(ctx, escrow, denom).Amount

	// Branch state: everything the borrower does is discarded unless the
	// loan comes back with its fee.
	cacheCtx, write := sdkCtx.CacheContext()

	loan := sdk.NewCoin(denom, amount)
	if err := k.bankKeeper.SendCoins(cacheCtx, escrow, borrower, sdk.NewCoins(loan)); err != nil {
		return types.ErrInsufficientLiquidity.Wrapf("disburse loan: %v", err)
	}

	if err := callback(cacheCtx, loan, fee); err != nil {
		metrics().flashLoansTotal.WithLabelValues(formatUint(poolID), "callback_error").Inc()
		return err
	}

	balanceAfter := k.bankKeeper.GetBalance(cacheCtx, escrow, denom).Amount
	required := balanceBefore.Add(fee)
	if balanceAfter.LT(required) {
		metrics().flashLoansTotal.WithLabelValues(formatUint(poolID), "unpaid").Inc()
		return types.ErrInsufficientRepayment.Wrapf(
			"escrow holds %s, needs %s (principal %s + fee %s)",
			balanceAfter, required, balanceBefore, fee)
	}

	write()
	sdkCtx.EventManager().EmitEvents(cacheCtx.EventManager().Events())

	// Whatever came back beyond the principal accrues to the reserve.
	gain := balanceAfter.Sub(balanceBefore)
	k.updateCumulativePrices(sdkCtx, &pool)
	if denom == pool.Token0 {
		pool.Reserve0 = pool.Reserve0.Add(gain)
	} else {
		pool.Reserve1 = pool.Reserve1.Add(gain)
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeFlashLoan,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(pool.Id)),
			sdk.NewAttribute(types.AttributeKeySender, borrower.String()),
			sdk.NewAttribute(types.AttributeKeyTokenIn, denom),
			sdk.NewAttribute(types.AttributeKeyAmountIn, amount.String()),
			sdk.NewAttribute(types.AttributeKeyFee, fee.String()),
		),
	)
	k.Logger(sdkCtx).Info("flash loan completed",
		"pool_id", pool.Id,
		"borrower", borrower.String(),
		"denom", denom,
		"amount", amount.String(),
		"fee", fee.String(),
	)

	m := metrics()
	m.flashLoansTotal.WithLabelValues(formatUint(pool.Id), "ok").Inc()
	if amount.IsInt64() {
		m.flashLoanVolume.WithLabelValues(formatUint(pool.Id), denom).Add(float64(amount.Int64()))
	}

	return nil
}
