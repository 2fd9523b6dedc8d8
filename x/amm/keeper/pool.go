package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/surgeswap/surge/x/amm/types"
)

// GetPool returns a pool by ID.
func (k Keeper) GetPool(ctx context.Context, poolID uint64) (types.Pool, bool) {
	store := k.getStore(ctx)
	bz := store.Get(PoolKey(poolID))
	if bz == nil {
		return types.Pool{}, false
	}

	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return types.Pool{}, false
	}
	return pool, true
}

// SetPool persists a pool.
func (k Keeper) SetPool(ctx context.Context, pool types.Pool) error {
	bz, err := json.Marshal(pool)
	if err != nil {
		return types.ErrInvalidPoolState.Wrapf("marshal pool %d: %v", pool.Id, err)
	}
	k.getStore(ctx).Set(PoolKey(pool.Id), bz)
	return nil
}

// GetPoolByDenoms finds the pool for a token pair in either order.
func (k Keeper) GetPoolByDenoms(ctx context.Context, denomA, denomB string) (types.Pool, bool) {
	store := k.getStore(ctx)
	bz := store.Get(PoolByTokensKey(denomA, denomB))
	if bz == nil {
		return types.Pool{}, false
	}
	return k.GetPool(ctx, binary.BigEndian.Uint64(bz))
}

// GetAllPools returns every pool ordered by ID.
func (k Keeper) GetAllPools(ctx context.Context) []types.Pool {
	store := k.getStore(ctx)
	iterator := store.Iterator(PoolKeyPrefix, append(PoolKeyPrefix, 0xFF))
	defer iterator.Close()

	var pools []types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, pool)
	}
	return pools
}

// GetNextPoolID returns the counter without consuming it.
func (k Keeper) GetNextPoolID(ctx context.Context) uint64 {
	store := k.getStore(ctx)
	bz := store.Get(PoolCountKey)
	if bz == nil {
		return 1
	}
	return binary.BigEndian.Uint64(bz)
}

// SetNextPoolID stores the counter. Used by genesis import.
func (k Keeper) SetNextPoolID(ctx context.Context, id uint64) {
	k.getStore(ctx).Set(PoolCountKey, uint64Bytes(id))
}

func (k Keeper) consumeNextPoolID(ctx context.Context) uint64 {
	id := k.GetNextPoolID(ctx)
	k.SetNextPoolID(ctx, id+1)
	return id
}

// CreatePair registers a new empty pool for a token pair. The pair is
// canonicalized so (A,B) and (B,A) name the same pool, and a second
// registration fails with ErrDuplicatePool.
func (k Keeper) CreatePair(ctx context.Context, denomA, denomB string) (types.Pool, error) {
	if denomA == denomB {
		return types.Pool{}, types.ErrIdenticalTokens.Wrapf("denom %s", denomA)
	}
	if err := sdk.ValidateDenom(denomA); err != nil {
		return types.Pool{}, types.ErrInvalidInput.Wrapf("denom %s: %v", denomA, err)
	}
	if err := sdk.ValidateDenom(denomB); err != nil {
		return types.Pool{}, types.ErrInvalidInput.Wrapf("denom %s: %v", denomB, err)
	}

	if _, found := k.GetPoolByDenoms(ctx, denomA, denomB); found {
		return types.Pool{}, types.ErrDuplicatePool.Wrapf("pair %s/%s", denomA, denomB)
	}

	token0, token1 := types.SortTokens(denomA, denomB)
	pool := types.NewPool(k.consumeNextPoolID(ctx), token0, token1)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool.LastUpdateTimestamp = blockTimestamp(sdkCtx)

	if err := k.SetPool(ctx, pool); err != nil {
		return types.Pool{}, err
	}
	k.getStore(ctx).Set(PoolByTokensKey(token0, token1), uint64Bytes(pool.Id))

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypePoolCreated,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(pool.Id)),
			sdk.NewAttribute(types.AttributeKeyToken0, token0),
			sdk.NewAttribute(types.AttributeKeyToken1, token1),
		),
	)

	k.Logger(sdkCtx).Info("pool created",
		"pool_id", pool.Id,
		"token0", token0,
		"token1", token1,
	)
	metrics().poolsCreated.Inc()

	return pool, nil
}

// GetOrCreatePool returns the existing pool for a pair or registers a new
// one. Routing code uses this so a missing pair is not an error.
func (k Keeper) GetOrCreatePool(ctx context.Context, denomA, denomB string) (types.Pool, error) {
	if pool, found := k.GetPoolByDenoms(ctx, denomA, denomB); found {
		return pool, nil
	}
	return k.CreatePair(ctx, denomA, denomB)
}

// Sync force-matches a pool's recorded reserves to its escrow balances.
// Cumulative prices are advanced on the old reserves first so donations
// cannot rewrite price history. It mutates reserves, so it takes the same
// exclusive lock as the trading operations; calling it from inside a
// flash-loan callback against the lending pool fails closed.
func (k Keeper) Sync(ctx context.Context, poolID uint64) error {
	return k.WithPoolLock(ctx, poolID, func() error {
		return k.syncPool(ctx, poolID)
	})
}

func (k Keeper) syncPool(ctx context.Context, poolID uint64) error {
	pool, found := k.GetPool(ctx, poolID)
	if !found {
		return types.ErrPoolNotFound.Wrapf("pool %d", poolID)
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	k.updateCumulativePrices(sdkCtx, &pool)

	escrow := pool.EscrowAddress()
	pool.Reserve0 = k.bankKeeper.GetBalance(ctx, escrow, pool.Token0).Amount
	pool.Reserve1 = k.bankKeeper.GetBalance(ctx, escrow, pool.Token1).Amount

	if err := k.SetPool(ctx, pool); err != nil {
		return err
	}

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeSync,
			sdk.NewAttribute(types.AttributeKeyPoolID, formatUint(pool.Id)),
			sdk.NewAttribute(types.AttributeKeyReserve0, pool.Reserve0.String()),
			sdk.NewAttribute(types.AttributeKeyReserve1, pool.Reserve1.String()),
		),
	)

	return nil
}
