package types_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/surgeswap/surge/x/amm/types"
)

func TestSortTokens(t *testing.T) {
	a, b := types.SortTokens("uusdt", "uatom")
	require.Equal(t, "uatom", a)
	require.Equal(t, "uusdt", b)

	a, b = types.SortTokens("uatom", "uusdt")
	require.Equal(t, "uatom", a)
	require.Equal(t, "uusdt", b)
}

func TestPool_ReservesFor(t *testing.T) {
	pool := types.NewPool(1, "uatom", "uusdt")
	pool.Reserve0 = sdkmath.NewInt(100)
	pool.Reserve1 = sdkmath.NewInt(200)

	in, out := pool.ReservesFor("uatom")
	require.Equal(t, sdkmath.NewInt(100), in)
	require.Equal(t, sdkmath.NewInt(200), out)

	in, out = pool.ReservesFor("uusdt")
	require.Equal(t, sdkmath.NewInt(200), in)
	require.Equal(t, sdkmath.NewInt(100), out)
}

func TestPool_Validate(t *testing.T) {
	valid := types.NewPool(1, "uatom", "uusdt")
	require.NoError(t, valid.Validate())

	outOfOrder := types.NewPool(1, "uusdt", "uatom")
	require.Error(t, outOfOrder.Validate())

	identical := types.NewPool(1, "uatom", "uatom")
	require.Error(t, identical.Validate())

	zeroID := types.NewPool(0, "uatom", "uusdt")
	require.Error(t, zeroID.Validate())

	sharesNoReserves := types.NewPool(1, "uatom", "uusdt")
	sharesNoReserves.TotalShares = sdkmath.NewInt(10)
	require.Error(t, sharesNoReserves.Validate())
}

func TestPoolEscrowAddress_DistinctPerPool(t *testing.T) {
	require.NotEqual(t, types.PoolEscrowAddress(1), types.PoolEscrowAddress(2))
	require.NotEqual(t, types.PoolEscrowAddress(1), types.LockedSharesAddress())
}
