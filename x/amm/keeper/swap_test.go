package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	keepertest "github.com/surgeswap/surge/testutil/keeper"
	"github.com/surgeswap/surge/x/amm/keeper"
	"github.com/surgeswap/surge/x/amm/types"
)

func TestGetAmountOut_ReferenceVector(t *testing.T) {
	// 100000/50000 reserves, 0.30% fee, 1000 in: fee leaves 997,
	// floor(100000*50000/100997) = 49506, out = 50000-49506 = 494.
	out, err := keeper.GetAmountOut(math.NewInt(1_000), math.NewInt(100_000), math.NewInt(50_000), 30)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(494), out)
}

func TestGetAmountOut_Errors(t *testing.T) {
	tests := []struct {
		name      string
		amountIn  math.Int
		reserveIn math.Int
		wantErr   error
	}{
		{"zero input", math.ZeroInt(), math.NewInt(100_000), types.ErrZeroAmount},
		{"negative input", math.NewInt(-5), math.NewInt(100_000), types.ErrZeroAmount},
		{"empty reserves", math.NewInt(1_000), math.ZeroInt(), types.ErrInsufficientLiquidity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := keeper.GetAmountOut(tc.amountIn, tc.reserveIn, math.NewInt(50_000), 30)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGetAmountIn_RoundTrip(t *testing.T) {
	reserveIn := math.NewInt(100_000)
	reserveOut := math.NewInt(50_000)

	amountIn, err := keeper.GetAmountIn(math.NewInt(494), reserveIn, reserveOut, 30)
	require.NoError(t, err)

	// Paying the computed input must yield at least the requested output.
	out, err := keeper.GetAmountOut(amountIn, reserveIn, reserveOut, 30)
	require.NoError(t, err)
	require.True(t, out.GTE(math.NewInt(494)), "round trip output %s below 494", out)
}

func TestGetAmountIn_OutputExceedsReserve(t *testing.T) {
	_, err := keeper.GetAmountIn(math.NewInt(50_000), math.NewInt(100_000), math.NewInt(50_000), 30)
	require.ErrorIs(t, err, types.ErrInsufficientLiquidity)
}

func TestSwap_Valid(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(1_000)))

	out, err := k.Swap(ctx, trader, poolID, "uatom", math.NewInt(1_000), math.ZeroInt(), trader)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(494), out)

	// Trader paid uatom, received uusdt
	require.True(t, bk.GetBalance(ctx, trader, "uatom").Amount.IsZero())
	require.Equal(t, math.NewInt(494), bk.GetBalance(ctx, trader, "uusdt").Amount)

	// Reserves track the trade, k did not decrease
	pool, _ := k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(101_000), pool.Reserve0)
	require.Equal(t, math.NewInt(49_506), pool.Reserve1)
	oldK := math.NewInt(100_000).Mul(math.NewInt(50_000))
	require.True(t, pool.Reserve0.Mul(pool.Reserve1).GTE(oldK))
}

func TestSwap_SeparateRecipient(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	friend := testAddr("friend")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(1_000)))

	out, err := k.Swap(ctx, trader, poolID, "uatom", math.NewInt(1_000), math.ZeroInt(), friend)
	require.NoError(t, err)
	require.Equal(t, out, bk.GetBalance(ctx, friend, "uusdt").Amount)
	require.True(t, bk.GetBalance(ctx, trader, "uusdt").Amount.IsZero())
}

func TestSwap_MinimumOutputEnforced(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(1_000)))

	_, err := k.Swap(ctx, trader, poolID, "uatom", math.NewInt(1_000), math.NewInt(495), trader)
	require.ErrorIs(t, err, types.ErrInsufficientOutputAmount)

	// Nothing moved
	require.Equal(t, math.NewInt(1_000), bk.GetBalance(ctx, trader, "uatom").Amount)
	pool, _ := k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_000), pool.Reserve0)
}

func TestSwap_WrongDenom(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	_, err := k.Swap(ctx, trader, poolID, "uosmo", math.NewInt(1_000), math.ZeroInt(), trader)
	require.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestSwap_UnknownPool(t *testing.T) {
	k, _, ctx := keepertest.AmmKeeper(t)

	trader := testAddr("trader")
	_, err := k.Swap(ctx, trader, 42, "uatom", math.NewInt(1_000), math.ZeroInt(), trader)
	require.ErrorIs(t, err, types.ErrPoolNotFound)
}

func TestSwap_ZeroAmount(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	_, err := k.Swap(ctx, trader, poolID, "uatom", math.ZeroInt(), math.ZeroInt(), trader)
	require.ErrorIs(t, err, types.ErrZeroAmount)
}

func TestSwap_PausedPool(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))
	require.NoError(t, k.PausePool(ctx, keepertest.TestAuthority, poolID))

	trader := testAddr("trader")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(1_000)))

	_, err := k.Swap(ctx, trader, poolID, "uatom", math.NewInt(1_000), math.ZeroInt(), trader)
	require.ErrorIs(t, err, types.ErrPoolPaused)

	require.NoError(t, k.UnpausePool(ctx, keepertest.TestAuthority, poolID))
	_, err = k.Swap(ctx, trader, poolID, "uatom", math.NewInt(1_000), math.ZeroInt(), trader)
	require.NoError(t, err)
}

func TestSwap_InsufficientFunds(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	// Trader holds less than amountIn
	trader := testAddr("trader")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(10)))

	_, err := k.Swap(ctx, trader, poolID, "uatom", math.NewInt(1_000), math.ZeroInt(), trader)
	require.Error(t, err)
}

func TestSimulateSwap_NoStateChange(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	out, err := k.SimulateSwap(ctx, poolID, "uatom", math.NewInt(1_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(494), out)

	pool, _ := k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_000), pool.Reserve0)
	require.Equal(t, math.NewInt(50_000), pool.Reserve1)
}

func TestQuote_ProportionalNoFee(t *testing.T) {
	out, err := keeper.Quote(math.NewInt(1_000), math.NewInt(100_000), math.NewInt(50_000))
	require.NoError(t, err)
	require.Equal(t, math.NewInt(500), out)
}

func TestGetAmountOut_SmallInputRoundsDown(t *testing.T) {
	// At 100 in, the fee floor alone would price the output at the fee-free
	// 50; the product guard hands one unit back to the pool.
	out, err := keeper.GetAmountOut(math.NewInt(100), math.NewInt(100_000), math.NewInt(50_000), 30)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(49), out)
}

func TestSwap_SmallAmountExecutes(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(100)))

	out, err := k.Swap(ctx, trader, poolID, "uatom", math.NewInt(100), math.ZeroInt(), trader)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(49), out)

	pool, _ := k.GetPool(ctx, poolID)
	require.Equal(t, math.NewInt(100_100), pool.Reserve0)
	require.Equal(t, math.NewInt(49_951), pool.Reserve1)
	oldK := math.NewInt(100_000).Mul(math.NewInt(50_000))
	require.True(t, pool.Reserve0.Mul(pool.Reserve1).GTE(oldK))
}

func TestGetAmountOut_MonotonicBelowQuote(t *testing.T) {
	reserveIn := math.NewInt(100_000)
	reserveOut := math.NewInt(50_000)

	prev := math.ZeroInt()
	for _, in := range []int64{100, 1_000, 5_000, 20_000, 80_000} {
		out, err := keeper.GetAmountOut(math.NewInt(in), reserveIn, reserveOut, 30)
		require.NoError(t, err)
		require.True(t, out.GT(prev), "output %s not increasing at input %d", out, in)

		// Always strictly under the fee-free proportional amount
		quote, err := keeper.Quote(math.NewInt(in), reserveIn, reserveOut)
		require.NoError(t, err)
		require.True(t, out.LT(quote), "output %s not below quote %s at input %d", out, quote, in)

		prev = out
	}
}

func TestSwap_ProductNonDecreasing(t *testing.T) {
	k, bk, ctx := keepertest.AmmKeeper(t)
	poolID := keepertest.SeedPool(t, k, bk, ctx, "uatom", "uusdt", math.NewInt(100_000), math.NewInt(50_000))

	trader := testAddr("trader")
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uatom", math.NewInt(50_000)))
	keepertest.FundAccount(t, bk, ctx, trader, sdk.NewCoin("uusdt", math.NewInt(25_000)))

	pool, _ := k.GetPool(ctx, poolID)
	lastK := pool.Reserve0.Mul(pool.Reserve1)

	// Alternate directions; k must never shrink across a completed swap.
	for i, step := range []struct {
		denom  string
		amount int64
	}{
		{"uatom", 2_500},
		{"uusdt", 1_000},
		{"uatom", 10_000},
		{"uusdt", 4_000},
		{"uatom", 500},
	} {
		_, err := k.Swap(ctx, trader, poolID, step.denom, math.NewInt(step.amount), math.ZeroInt(), trader)
		require.NoError(t, err, "swap %d", i)

		pool, _ = k.GetPool(ctx, poolID)
		newK := pool.Reserve0.Mul(pool.Reserve1)
		require.True(t, newK.GTE(lastK), "k shrank from %s to %s at swap %d", lastK, newK, i)
		lastK = newK
	}
}
