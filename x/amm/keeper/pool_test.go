package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/surgeswap/surge/testutil/keeper"
	"github.com/surgeswap/surge/x/amm/types"
)

func testAddr(name string) sdk.AccAddress {
	addr := make([]byte, 20)
	copy(addr, name)
	return sdk.AccAddress(addr)
}

func TestCreatePair_Valid(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	pool, err := k.CreatePair(ctx, "uusdt", "uatom")
	require.NoError(t, err)
	require.Equal(t, uint64(1), pool.Id)
	// Canonical ordering regardless of argument order
	require.Equal(t, "uatom", pool.Token0)
	require.Equal(t, "uusdt", pool.Token1)
	require.True(t, pool.Reserve0.IsZero())
	require.True(t, pool.Reserve1.IsZero())
	require.True(t, pool.TotalShares.IsZero())
	require.Equal(t, types.PoolStatusActive, pool.Status)
}

func TestCreatePair_Duplicate(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	_, err := k.CreatePair(ctx, "uatom", "uusdt")
	require.NoError(t, err)

	// Same pair, both orders
	_, err = k.CreatePair(ctx, "uatom", "uusdt")
	require.ErrorIs(t, err, types.ErrDuplicatePool)
	_, err = k.CreatePair(ctx, "uusdt", "uatom")
	require.ErrorIs(t, err, types.ErrDuplicatePool)
}

func TestCreatePair_IdenticalTokens(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	_, err := k.CreatePair(ctx, "uatom", "uatom")
	require.ErrorIs(t, err, types.ErrIdenticalTokens)
}

func TestCreatePair_SequentialIDs(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	p1, err := k.CreatePair(ctx, "uatom", "uusdt")
	require.NoError(t, err)
	p2, err := k.CreatePair(ctx, "uatom", "uosmo")
	require.NoError(t, err)
	require.Equal(t, p1.Id+1, p2.Id)
}

func TestGetOrCreatePool_Idempotent(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	p1, err := k.GetOrCreatePool(ctx, "uatom", "uusdt")
	require.NoError(t, err)
	p2, err := k.GetOrCreatePool(ctx, "uusdt", "uatom")
	require.NoError(t, err)
	require.Equal(t, p1.Id, p2.Id)
	require.Len(t, k.GetAllPools(ctx), 1)
}

func TestGetPoolByDenoms_EitherOrder(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	created, err := k.CreatePair(ctx, "uatom", "uusdt")
	require.NoError(t, err)

	pool, found := k.GetPoolByDenoms(ctx, "uusdt", "uatom")
	require.True(t, found)
	require.Equal(t, created.Id, pool.Id)

	_, found = k.GetPoolByDenoms(ctx, "uatom", "uosmo")
	require.False(t, found)
}

func TestSync_AbsorbsDonations(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	pool, found := k.GetPool(ctx, poolID)
	require.True(t, found)

	// Donate directly to escrow, bypassing AddLiquidity
	donor := testAddr("donor")
	keepertest.FundAccount(t, bk, ctx, donor, sdk.NewCoin(pool.Token0, math.NewInt(777)))
	require.NoError(t, bk.SendCoins(ctx, donor, pool.EscrowAddress(), sdk.NewCoins(sdk.NewCoin(pool.Token0, math.NewInt(777)))))

	// Reserves lag the escrow until Sync
	pool, _ = k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_000), pool.Reserve0)

	require.NoError(t, k.Sync(ctx, poolID))
	pool, _ = k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_777), pool.Reserve0)
	require.Equal(t, math.NewInt(50_000), pool.Reserve1)
}

func TestSync_Idempotent(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	require.NoError(t, k.Sync(ctx, poolID))
	first, _ := k.GetPool(ctx, poolID)

	// No transfers in between: a second sync changes nothing.
	require.NoError(t, k.Sync(ctx, poolID))
	second, _ := k.GetPool(ctx, poolID)
	require.Equal(t, first, second)
}

func TestSync_UnknownPool(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)
	require.ErrorIs(t, k.Sync(ctx, 42), types.ErrPoolNotFound)
}
