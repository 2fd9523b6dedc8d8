package keeper

import (
	"context"
	"encoding/json"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// GetPositionShares returns a provider's share balance in a pool.
func (k Keeper) GetPositionShares(ctx context.Context, poolID uint64, owner sdk.AccAddress) sdkmath.Int {
	bz := k.getStore(ctx).Get(PositionKey(poolID, owner))
	if bz == nil {
		return sdkmath.ZeroInt()
	}

	var pos types.Position
	if err := json.Unmarshal(bz, &pos); err != nil {
		return sdkmath.ZeroInt()
	}
	return pos.Shares
}

func (k Keeper) setPositionShares(ctx context.Context, poolID uint64, owner sdk.AccAddress, shares sdkmath.Int) error {
	store := k.getStore(ctx)
	key := PositionKey(poolID, owner)
	if shares.IsZero() {
		store.Delete(key)
		return nil
	}

	pos := types.Position{PoolId: poolID, Owner: owner.String(), Shares: shares}
	bz, err := json.Marshal(pos)
	if err != nil {
		return types.ErrInvalidPoolState.Wrapf("marshal position: %v", err)
	}
	store.Set(key, bz)
	return nil
}

// GetPoolPositions returns every position in a pool. Used by genesis export.
func (k Keeper) GetPoolPositions(ctx context.Context, poolID uint64) []types.Position {
	store := k.getStore(ctx)
	prefix := PositionsByPoolPrefix(poolID)
	iterator := store.Iterator(prefix, append(prefix, 0xFF))
	defer iterator.Close()

	var positions []types.Position
	for ; iterator.Valid(); iterator.Next() {
		var pos types.Position
		if err := json.Unmarshal(iterator.Value(), &pos); err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	return positions
}

// AddLiquidity deposits up to the desired amounts of both pool tokens and
// mints shares. The first deposit sets the price and burns MinimumLiquidity
// shares to the locked account; later deposits are clamped to the current
// reserve ratio, with the minimums bounding how far the clamp may go.
func (k Keeper) AddLiquidity(
	ctx context.Context,
	provider sdk.AccAddress,
	poolID uint64,
	amount0Desired, amount1Desired sdkmath.Int,
	amount0Min, amount1Min sdkmath.Int,
) (shares sdkmath.Int, err error) {
	if amount0Desired.IsNil() || amount1Desired.IsNil() ||
		!amount0Desired.IsPositive() || !amount1Desired.IsPositive() {
		return sdkmath.Int{}, types.ErrZeroAmount.Wrap("deposit amounts")
	}
	if amount0Min.IsNil() || amount1Min.IsNil() || amount0Min.IsNegative() || amount1Min.IsNegative() {
		return sdkmath.Int{}, types.ErrInvalidInput.Wrap("negative minimum amounts")
	}

	err = k.WithPoolLock(ctx, poolID, func() error {
		var innerErr error
		shares, innerErr = k.addLiquidity(ctx, provider, poolID, amount0Desired, amount1Desired, amount0Min, amount1Min)
		return innerErr
	})
	if err != nil {
		return sdkmath.Int{}, err
	}
	return shares, nil
}

func (k Keeper) addLiquidity(
	ctx context.Context,
	provider sdk.AccAddress,
	poolID uint64,
	amount0Desired, amount1Desired sdkmath.Int,
	amount0Min, amount1Min sdkmath.Int,
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
	if err := k.ValidatePoolState(&pool); err != nil {
		return sdkmath.Int{}, err
	}

	params := k.GetParams(ctx)
	if err := k.mintProtocolFee(ctx, &pool, params); err != nil {
		return sdkmath.Int{}, err
	}

	var amount0, amount1, shares sdkmath.Int
	if pool.TotalShares.IsZero() {
		amount0, amount1 = amount0Desired, amount1Desired

		product, err := SafeMul(amount0, amount1)
		if err != nil {
			return sdkmath.Int{}, err
		}
		root, err := IntSqrt(product)
		if err != nil {
			return sdkmath.Int{}, err
		}
		shares = root.Sub(params.MinimumLiquidity)
		if !shares.IsPositive() {
			return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrapf(
				"first deposit sqrt(%s*%s)=%s does not cover locked minimum %s",
				amount0, amount1, root, params.MinimumLiquidity)
		}

		// The locked shares exist forever, making the pool undrainable.
		if err := k.setPositionShares(ctx, poolID, types.LockedSharesAddress(), params.MinimumLiquidity); err != nil {
			return sdkmath.Int{}, err
		}
		pool.TotalShares = root
	} else {
		var err error
		amount0, amount1, err = optimalDeposit(pool, amount0Desired, amount1Desired, amount0Min, amount1Min)
		if err != nil {
			return sdkmath.Int{}, err
		}

		shares0, err := SafeMulDiv(amount0, pool.TotalShares, pool.Reserve0)
		if err != nil {
			return sdkmath.Int{}, err
		}
		shares1, err := SafeMulDiv(amount1, pool.TotalShares, pool.Reserve1)
		if err != nil {
			return sdkmath.Int{}, err
		}
		shares = sdkmath.MinInt(shares0, shares1)
		if !shares.IsPositive() {
			return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrap("deposit too small to mint shares")
		}
		pool.TotalShares = pool.TotalShares.Add(shares)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	k.updateCumulativePrices(sdkCtx, &pool)

	coins := sdk.NewCoins(sdk.NewCoin(pool.Token0, amount0), sdk.NewCoin(pool.Token1, amount1))
	if err := k.bankKeeper.SendCoins(ctx, provider, pool.EscrowAddress(), coins); err != nil {
		return sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrapf("fund deposit: %v", err)
	}

	pool.Reserve0 = pool.Reserve0.Add(amount0)
	pool.Reserve1 = pool.Reserve1.Add(amount1)
	if params.ProtocolFeeOn {
		pool.KLast = pool.Reserve0.Mul(pool.Reserve1)
	}

	existing := k.GetPositionShares(ctx, poolID, provider)
	if err := k.setPositionShares(ctx, poolID, provider, existing.Add(shares)); err != nil {
		return sdkmath.Int{}, err
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return sdkmath.Int{}, err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeMint,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(pool.Id)),
			sdk.NewAttribute(types.AttributeKeySender, provider.String()),
			sdk.NewAttribute(types.AttributeKeyAmount0, amount0.String()),
			sdk.NewAttribute(types.AttributeKeyAmount1, amount1.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)
	k.Logger(sdkCtx).Info("liquidity added",
		"pool_id", pool.Id,
		"provider", provider.String(),
		"shares", shares.String(),
	)

	m := metrics()
	if amount0.IsInt64() {
		m.liquidityAdded.WithLabelValues(formatUint(pool.Id), pool.Token0).Add(float64(amount0.Int64()))
	}
	if amount1.IsInt64() {
		m.liquidityAdded.WithLabelValues(formatUint(pool.Id), pool.Token1).Add(float64(amount1.Int64()))
	}

	return shares, nil
}

// optimalDeposit clamps a two-sided deposit to the pool's reserve ratio,
// preferring the full amount on whichever side is the constraint.
func optimalDeposit(pool types.Pool, amount0Desired, amount1Desired, amount0Min, amount1Min sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	amount1Optimal, err := Quote(amount0Desired, pool.Reserve0, pool.Reserve1)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if amount1Optimal.LTE(amount1Desired) {
		if amount1Optimal.LT(amount1Min) {
			return sdkmath.Int{}, sdkmath.Int{}, types.ErrSlippageExceeded.Wrapf(
				"token1 amount %s below minimum %s", amount1Optimal, amount1Min)
		}
		return amount0Desired, amount1Optimal, nil
	}

	amount0Optimal, err := Quote(amount1Desired, pool.Reserve1, pool.Reserve0)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if amount0Optimal.GT(amount0Desired) {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrInvalidPoolState.Wrap("optimal amounts exceed both desired amounts")
	}
	if amount0Optimal.LT(amount0Min) {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrSlippageExceeded.Wrapf(
			"token0 amount %s below minimum %s", amount0Optimal, amount0Min)
	}
	return amount0Optimal, amount1Desired, nil
}

// RemoveLiquidity burns shares and pays out the pro rata slice of both
// reserves. It works on paused pools and under a tripped breaker so
// providers can always exit.
func (k Keeper) RemoveLiquidity(
	ctx context.Context,
	provider sdk.AccAddress,
	poolID uint64,
	shares sdkmath.Int,
	amount0Min, amount1Min sdkmath.Int,
) (amount0, amount1 sdkmath.Int, err error) {
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrZeroAmount.Wrap("shares to burn")
	}
	if amount0Min.IsNil() || amount1Min.IsNil() || amount0Min.IsNegative() || amount1Min.IsNegative() {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrInvalidInput.Wrap("negative minimum amounts")
	}

	err = k.WithPoolLock(ctx, poolID, func() error {
		var innerErr error
		amount0, amount1, innerErr = k.removeLiquidity(ctx, provider, poolID, shares, amount0Min, amount1Min)
		return innerErr
	})
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return amount0, amount1, nil
}

func (k Keeper) removeLiquidity(
	ctx context.Context,
	provider sdk.AccAddress,
	poolID uint64,
	shares sdkmath.Int,
	amount0Min, amount1Min sdkmath.Int,
) (sdkmath.Int, sdkmath.Int, error) {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}
	if err := k.ValidatePoolState(&pool); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	held := k.GetPositionShares(ctx, poolID, provider)
	if held.LT(shares) {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrInsufficientShares.Wrapf(
			"burning %s, holding %s", shares, held)
	}

	params := k.GetParams(ctx)
	if err := k.mintProtocolFee(ctx, &pool, params); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	amount0, err := SafeMulDiv(shares, pool.Reserve0, pool.TotalShares)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	amount1, err := SafeMulDiv(shares, pool.Reserve1, pool.TotalShares)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if !amount0.IsPositive() || !amount1.IsPositive() {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrInsufficientLiquidity.Wrap("burn too small to pay out")
	}
	if amount0.LT(amount0Min) || amount1.LT(amount1Min) {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrSlippageExceeded.Wrapf(
			"payout %s/%s below minimums %s/%s", amount0, amount1, amount0Min, amount1Min)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	k.updateCumulativePrices(sdkCtx, &pool)

	if err := k.setPositionShares(ctx, poolID, provider, held.Sub(shares)); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	pool.TotalShares = pool.TotalShares.Sub(shares)
	pool.Reserve0 = pool.Reserve0.Sub(amount0)
	pool.Reserve1 = pool.Reserve1.Sub(amount1)
	if params.ProtocolFeeOn {
		pool.KLast = pool.Reserve0.Mul(pool.Reserve1)
	}
	if err := k.SetPool(ctx, pool); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	// State is final; only now do funds leave escrow.
	coins := sdk.NewCoins(sdk.NewCoin(pool.Token0, amount0), sdk.NewCoin(pool.Token1, amount1))
	if err := k.bankKeeper.SendCoins(ctx, pool.EscrowAddress(), provider, coins); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, types.ErrInvalidPoolState.Wrapf("pay out burn: %v", err)
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeBurn,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(pool.Id)),
			sdk.NewAttribute(types.AttributeKeySender, provider.String()),
			sdk.NewAttribute(types.AttributeKeyAmount0, amount0.String()),
			sdk.NewAttribute(types.AttributeKeyAmount1, amount1.String()),
			sdk.NewAttribute(types.AttributeKeyShares, shares.String()),
		),
	)
	k.Logger(sdkCtx).Info("liquidity removed",
		"pool_id", pool.Id,
		"provider", provider.String(),
		"shares", shares.String(),
	)

	m := metrics()
	if amount0.IsInt64() {
		m.liquidityRemoved.WithLabelValues(formatUint(pool.Id), pool.Token0).Add(float64(amount0.Int64()))
	}
	if amount1.IsInt64() {
		m.liquidityRemoved.WithLabelValues(formatUint(pool.Id), pool.Token1).Add(float64(amount1.Int64()))
	}

	return amount0, amount1, nil
}

// mintProtocolFee mints 1/6 of the sqrt(k) growth since the last liquidity
// event to the fee collector, matching the classic two-tier fee split.
// When the protocol fee is off, any stale KLast is cleared.
func (k Keeper) mintProtocolFee(ctx context.Context, pool *types.Pool, params types.Params) error {
	if !params.ProtocolFeeOn {
		if !pool.KLast.IsZero() {
			pool.KLast = sdkmath.ZeroInt()
		}
		return nil
	}
	if pool.KLast.IsZero() || pool.TotalShares.IsZero() {
		return nil
	}

	kNow, err := SafeMul(pool.Reserve0, pool.Reserve1)
	if err != nil {
		return err
	}
	rootK, err := IntSqrt(kNow)
	if err != nil {
		return err
	}
	rootKLast, err := IntSqrt(pool.KLast)
	if err != nil {
		return err
	}
	if rootK.LTE(rootKLast) {
		return nil
	}

	numerator, err := SafeMul(pool.TotalShares, rootK.Sub(rootKLast))
	if err != nil {
		return err
	}
	denominator := rootK.MulRaw(5).Add(rootKLast)
	feeShares := numerator.Quo(denominator)
	if !feeShares.IsPositive() {
		return nil
	}

	collector, err := sdk.AccAddressFromBech32(params.FeeCollector)
	if err != nil {
		return types.ErrInvalidInput.Wrapf("fee collector: %v", err)
	}
	existing := k.GetPositionShares(ctx, pool.Id, collector)
	if err := k.setPositionShares(ctx, pool.Id, collector, existing.Add(feeShares)); err != nil {
		return err
	}
	pool.TotalShares = pool.TotalShares.Add(feeShares)

	return nil
}
