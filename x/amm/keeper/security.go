package keeper

import (
	"context"

	"cosmossdk.io/math"

	"github.com/surgeswap/surge/x/amm/types"
)

// WithPoolLock executes fn while holding the pool's reentrancy lock. The
// lock lives in the KVStore, so it is visible through branched (cache)
// contexts: a flash loan callback that tries to re-enter the same pool sees
// the marker and fails closed with ErrReentrancy.
func (k Keeper) WithPoolLock(ctx context.Context, poolID uint64, fn func() error) error {
	if err := k.acquirePoolLock(ctx, poolID); err != nil {
		return err
	}

	// Ensure lock is released even if fn panics
	defer k.releasePoolLock(ctx, poolID)

	return fn()
}

func (k Keeper) acquirePoolLock(ctx context.Context, poolID uint64) error {
	store := k.getStore(ctx)
	key := ReentrancyLockKey(poolID)

	if store.Has(key) {
		return types.ErrReentrancy.Wrapf("pool %d is locked", poolID)
	}

	store.Set(key, []byte{0x01})
	return nil
}

func (k Keeper) releasePoolLock(ctx context.Context, poolID uint64) {
	store := k.getStore(ctx)
	store.Delete(ReentrancyLockKey(poolID))
}

// ValidatePoolInvariant checks that the constant product k = x * y did not
// decrease across an operation. Fees make k grow; any decrease means the
// operation computed an output it was not entitled to.
func (k Keeper) ValidatePoolInvariant(pool *types.Pool, oldK math.Int) error {
	if pool.Reserve0.IsZero() || pool.Reserve1.IsZero() {
		return nil // Empty pools don't have an invariant
	}

	newK := pool.Reserve0.Mul(pool.Reserve1)
	if newK.LT(oldK) {
		return types.ErrInvariantViolation.Wrapf(
			"constant product invariant violated: old_k=%s, new_k=%s",
			oldK.String(), newK.String(),
		)
	}

	return nil
}

// ValidatePoolState performs structural pool validation before an operation
// relies on the reserves.
func (k Keeper) ValidatePoolState(pool *types.Pool) error {
	if pool.Reserve0.IsNegative() {
		return types.ErrInvalidPoolState.Wrapf("negative reserve0: %s", pool.Reserve0)
	}
	if pool.Reserve1.IsNegative() {
		return types.ErrInvalidPoolState.Wrapf("negative reserve1: %s", pool.Reserve1)
	}
	if pool.TotalShares.IsNegative() {
		return types.ErrInvalidPoolState.Wrapf("negative total shares: %s", pool.TotalShares)
	}

	if (!pool.Reserve0.IsZero() || !pool.Reserve1.IsZero()) && pool.TotalShares.IsZero() {
		return types.ErrInvalidPoolState.Wrap("pool has reserves but no shares")
	}
	if !pool.TotalShares.IsZero() && (pool.Reserve0.IsZero() || pool.Reserve1.IsZero()) {
		return types.ErrInvalidPoolState.Wrap("pool has shares but missing reserves")
	}

	return nil
}
